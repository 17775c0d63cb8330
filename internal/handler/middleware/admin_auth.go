package middleware

import (
	"crypto/subtle"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ndquotes/quote-api/internal/ierr"
)

const adminSecretHeader = "X-Admin-Secret"

// AdminAuthMiddleware gates operator endpoints on the shared secret. The
// comparison is constant-time; absence and mismatch are identical
// failures.
func AdminAuthMiddleware(secret string, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AdminAuthMiddleware")
	secretBytes := []byte(secret)
	return func(c *gin.Context) {
		provided := c.GetHeader(adminSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), secretBytes) != 1 {
			log.Warn("Admin secret missing or mismatched",
				zap.String("path", c.FullPath()),
				zap.String("client_ip", c.ClientIP()))
			_ = c.Error(fmt.Errorf("%w: admin access required", ierr.ErrForbidden))
			c.Abort()
			return
		}

		c.Next()
	}
}
