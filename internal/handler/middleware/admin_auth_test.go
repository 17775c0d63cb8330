package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newAdminRouter(secret string) *gin.Engine {
	router := gin.New()
	router.Use(ErrorHandlerMiddleware(zap.NewNop()))
	router.Use(AdminAuthMiddleware(secret, zap.NewNop()))
	router.GET("/admin", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestAdminAuthMatchingSecret(t *testing.T) {
	router := newAdminRouter("s3cret")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Admin-Secret", "s3cret")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminAuthMissingAndWrongSecretAreIdentical(t *testing.T) {
	router := newAdminRouter("s3cret")

	missingRec := httptest.NewRecorder()
	missingReq := httptest.NewRequest(http.MethodGet, "/admin", nil)
	router.ServeHTTP(missingRec, missingReq)

	wrongRec := httptest.NewRecorder()
	wrongReq := httptest.NewRequest(http.MethodGet, "/admin", nil)
	wrongReq.Header.Set("X-Admin-Secret", "guess")
	router.ServeHTTP(wrongRec, wrongReq)

	assert.Equal(t, http.StatusForbidden, missingRec.Code)
	assert.Equal(t, http.StatusForbidden, wrongRec.Code)
	assert.Equal(t, missingRec.Body.String(), wrongRec.Body.String())
}

func TestAdminAuthAPIKeyDoesNotGrantAdmin(t *testing.T) {
	router := newAdminRouter("s3cret")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-API-Key", "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
