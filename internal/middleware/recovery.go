package middleware

import (
	"fmt"
	"runtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"patient-companion-server/internal/utils"
)

// Recovery turns a panic into the agent's error envelope. The voice agent
// only reads the body, so the status stays 200.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		var stack [4096]byte
		n := runtime.Stack(stack[:], false)

		log.Error("panic recovered",
			zap.String("request_id", GetRequestID(c)),
			zap.String("panic", fmt.Sprintf("%v", recovered)),
			zap.String("stack", string(stack[:n])),
		)
		utils.Error(c, "Server error", nil)
		c.Abort()
	})
}
