package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ndquotes/quote-api/internal/domain/apikey"
	"github.com/ndquotes/quote-api/internal/ierr"
)

const (
	apiKeyHeader     = "X-API-Key"
	apiKeyContextKey = "authApiKey"
)

// APIKeyAuthMiddleware authenticates catalog requests. A missing header
// and an unknown/inactive key are reported with distinct codes, but an
// inactive key is indistinguishable from a nonexistent one.
func APIKeyAuthMiddleware(repo apikey.Repository, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("APIKeyAuthMiddleware")
	return func(c *gin.Context) {
		rawKey := c.GetHeader(apiKeyHeader)
		if rawKey == "" {
			log.Debug("API key header is missing", zap.String("header", apiKeyHeader))
			apiKeyAuthTotal.WithLabelValues(authResultMissingKey).Inc()
			_ = c.Error(fmt.Errorf("%w", ierr.ErrAPIKeyRequired))
			c.Abort()
			return
		}

		keyRecord, err := repo.FindActiveByKey(c.Request.Context(), rawKey)
		if err != nil {
			if errors.Is(err, apikey.ErrAPIKeyNotFound) {
				log.Warn("API key not found or inactive")
				apiKeyAuthTotal.WithLabelValues(authResultInvalidKey).Inc()
				_ = c.Error(fmt.Errorf("%w", ierr.ErrInvalidAPIKey))
				c.Abort()
				return
			}

			log.Error("Failed to query API key repository", zap.Error(err))
			apiKeyAuthTotal.WithLabelValues(authResultError).Inc()
			_ = c.Error(fmt.Errorf("%w: api key validation failed", ierr.ErrInternalServer))
			c.Abort()
			return
		}

		// Usage accounting is best-effort: the write happens before the
		// handler runs, but its failure never rejects an authenticated
		// request.
		if err := repo.RecordUsage(c.Request.Context(), keyRecord.ID, time.Now().UTC()); err != nil {
			log.Error("Failed to record API key usage",
				zap.String("key_id", keyRecord.ID.String()), zap.Error(err))
		}

		apiKeyAuthTotal.WithLabelValues(authResultOK).Inc()
		c.Set(apiKeyContextKey, keyRecord)
		c.Next()
	}
}

// GetAPIKey returns the key record attached by APIKeyAuthMiddleware, or
// nil outside an authenticated request.
func GetAPIKey(c *gin.Context) *apikey.APIKey {
	value, exists := c.Get(apiKeyContextKey)
	if !exists {
		return nil
	}
	key, ok := value.(*apikey.APIKey)
	if !ok {
		return nil
	}
	return key
}
