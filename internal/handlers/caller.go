package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	HeaderCallerID = "X-Caller-ID"
	queryCallerID  = "caller_id"
)

// callerFields are the body keys a caller id may arrive under, in order of
// preference.
type callerFields struct {
	CallerID    string `json:"caller_id" form:"caller_id"`
	PhoneNumber string `json:"phone_number" form:"phone_number"`
	UserID      string `json:"user_id" form:"user_id"`
	From        string `json:"from" form:"from"`
}

func (f callerFields) first() string {
	for _, v := range []string{f.CallerID, f.PhoneNumber, f.UserID, f.From} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// RecentCallerSource supplies the newest known caller for the degraded
// fallback.
type RecentCallerSource interface {
	MostRecentCaller(ctx context.Context) (string, error)
}

// CallerResolver finds the caller id of a request: body keys, then the
// X-Caller-ID header, then the caller_id query parameter. When fallback is
// enabled and nothing matched, the most recently created patient is used;
// this is only correct with one active caller and is off by default.
type CallerResolver struct {
	recent   RecentCallerSource
	fallback bool
	log      *zap.Logger
}

// NewCallerResolver creates a resolver. fallback enables the most recent
// caller as a last resort.
func NewCallerResolver(recent RecentCallerSource, fallback bool, log *zap.Logger) *CallerResolver {
	if fallback {
		log.Warn("RECENT_CALLER_FALLBACK is enabled; requests without a caller id will be attributed to the newest patient")
	}
	return &CallerResolver{recent: recent, fallback: fallback, log: log}
}

// Resolve returns the caller id, or "" when none could be determined.
// allowFallback limits the degraded path to endpoints that tolerate it.
func (r *CallerResolver) Resolve(c *gin.Context, body callerFields, allowFallback bool) string {
	if id := body.first(); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader(HeaderCallerID)); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.Query(queryCallerID)); id != "" {
		return id
	}
	if !allowFallback || !r.fallback {
		return ""
	}

	id, err := r.recent.MostRecentCaller(c.Request.Context())
	if err != nil {
		r.log.Error("recent caller fallback failed", zap.Error(err))
		return ""
	}
	return id
}
