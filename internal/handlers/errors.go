package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"patient-companion-server/internal/services"
	"patient-companion-server/internal/utils"
)

// respondServiceError converts a service error into the status:error
// envelope. failure is the message used for store and upstream failures.
func respondServiceError(c *gin.Context, log *zap.Logger, err error, failure string, extra gin.H) {
	var (
		validErr    *services.ValidationError
		persistErr  *services.PersistenceError
		upstreamErr *services.UpstreamError
	)

	switch {
	case errors.As(err, &validErr):
		fields := gin.H{"errors": validErr.Fields}
		for k, v := range extra {
			fields[k] = v
		}
		utils.Error(c, "Invalid request", fields)

	case errors.As(err, &persistErr):
		log.Error("store failure", zap.String("op", persistErr.Op), zap.Error(persistErr.Err))
		utils.Error(c, failure, extra)

	case errors.As(err, &upstreamErr):
		log.Error("upstream failure", zap.String("service", upstreamErr.Service), zap.Error(upstreamErr.Err))
		utils.Error(c, failure, extra)

	default:
		log.Error("unexpected error", zap.Error(err))
		utils.Error(c, "Server error", extra)
	}
}

// bindJSON decodes the request body. An empty body leaves obj zero so the
// caller id can still come from the header or query. A malformed body is
// reported in the envelope and false is returned.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(c, "Invalid request body", gin.H{"errors": []string{err.Error()}})
		return false
	}
	return true
}
