package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"patient-companion-server/internal/metrics"
)

// Default returns the server's middleware chain. Recovery runs innermost, so
// a panicking request is still logged and counted.
func Default(log *zap.Logger, m *metrics.Collector) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		RequestID(),
		Logger(log.Named("http")),
		Metrics(m),
		Recovery(log),
	}
}
