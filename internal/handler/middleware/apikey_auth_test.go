package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ndquotes/quote-api/internal/domain/apikey"
	"github.com/ndquotes/quote-api/internal/handler/dto"
	"github.com/ndquotes/quote-api/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(repo apikey.Repository) *gin.Engine {
	router := gin.New()
	router.Use(ErrorHandlerMiddleware(zap.NewNop()))
	router.Use(APIKeyAuthMiddleware(repo, zap.NewNop()))
	router.GET("/quotes", func(c *gin.Context) {
		key := GetAPIKey(c)
		c.JSON(http.StatusOK, gin.H{"keyName": key.Name})
	})
	return router
}

func seedKey(t *testing.T, repo *memstorage.APIKeyRepository, active bool) *apikey.APIKey {
	t.Helper()
	key := &apikey.APIKey{
		Key:    "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		Name:   "test key",
		Active: active,
	}
	id, err := repo.Create(context.Background(), key)
	require.NoError(t, err)
	key.ID = id
	return key
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.APIErrorResponse {
	t.Helper()
	var resp dto.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAPIKeyAuthMissingHeader(t *testing.T) {
	router := newAuthRouter(memstorage.NewAPIKeyRepository())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "MISSING_KEY", decodeError(t, rec).Code)
}

func TestAPIKeyAuthUnknownKey(t *testing.T) {
	router := newAuthRouter(memstorage.NewAPIKeyRepository())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
	req.Header.Set("X-API-Key", "definitely-not-issued")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_KEY", decodeError(t, rec).Code)
}

func TestAPIKeyAuthInactiveKeyLooksUnknown(t *testing.T) {
	repo := memstorage.NewAPIKeyRepository()
	key := seedKey(t, repo, false)
	router := newAuthRouter(repo)

	unknownRec := httptest.NewRecorder()
	unknownReq := httptest.NewRequest(http.MethodGet, "/quotes", nil)
	unknownReq.Header.Set("X-API-Key", "deadbeef")
	router.ServeHTTP(unknownRec, unknownReq)

	inactiveRec := httptest.NewRecorder()
	inactiveReq := httptest.NewRequest(http.MethodGet, "/quotes", nil)
	inactiveReq.Header.Set("X-API-Key", key.Key)
	router.ServeHTTP(inactiveRec, inactiveReq)

	assert.Equal(t, unknownRec.Code, inactiveRec.Code)
	assert.Equal(t, unknownRec.Body.String(), inactiveRec.Body.String(),
		"an inactive key must be indistinguishable from an unknown one")
}

func TestAPIKeyAuthValidKeyRecordsUsage(t *testing.T) {
	repo := memstorage.NewAPIKeyRepository()
	key := seedKey(t, repo, true)
	router := newAuthRouter(repo)

	const calls = 5
	for i := 0; i < calls; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
		req.Header.Set("X-API-Key", key.Key)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	stored, err := repo.FindByID(context.Background(), key.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(calls), stored.UsageCount)
	require.NotNil(t, stored.LastUsedAt)
}

func TestAPIKeyAuthConcurrentUsageCounting(t *testing.T) {
	repo := memstorage.NewAPIKeyRepository()
	key := seedKey(t, repo, true)
	router := newAuthRouter(repo)

	const calls = 32
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
			req.Header.Set("X-API-Key", key.Key)
			router.ServeHTTP(rec, req)
		}()
	}
	wg.Wait()

	stored, err := repo.FindByID(context.Background(), key.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(calls), stored.UsageCount, "increments must not be lost under concurrency")
}

func TestAPIKeyAuthUsageFailureDoesNotRejectRequest(t *testing.T) {
	repo := memstorage.NewAPIKeyRepository()
	key := seedKey(t, repo, true)
	repo.FailOp = "recordUsage"
	router := newAuthRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
	req.Header.Set("X-API-Key", key.Key)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
