package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ndquotes/quote-api/internal/domain/keyrequest"
	"github.com/ndquotes/quote-api/internal/handler/dto"
	"github.com/ndquotes/quote-api/internal/handler/middleware"
	"github.com/ndquotes/quote-api/internal/service"
	"github.com/ndquotes/quote-api/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAdminSecret = "test-admin-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type nopNotifier struct{}

func (nopNotifier) SendAPIKey(ctx context.Context, email, name, rawKey string) error { return nil }
func (nopNotifier) SendRejection(ctx context.Context, email, name string) error      { return nil }
func (nopNotifier) SendAdminAlert(ctx context.Context, req *keyrequest.KeyRequest) error {
	return nil
}
func (nopNotifier) SendPendingDigest(ctx context.Context, requests []*keyrequest.KeyRequest) error {
	return nil
}

type testApp struct {
	router   *gin.Engine
	keys     *memstorage.APIKeyRepository
	requests *memstorage.KeyRequestRepository
	quotes   *memstorage.QuoteRepository
}

// newTestApp wires the full route table against in-memory stores, the
// same shape the server binary builds.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := zap.NewNop()
	keys := memstorage.NewAPIKeyRepository()
	requests := memstorage.NewKeyRequestRepository()
	quotes := memstorage.NewQuoteRepository()

	apiKeyService := service.NewAPIKeyService(keys, logger)
	keyRequestService := service.NewKeyRequestService(requests, apiKeyService, nopNotifier{}, false, logger)
	quoteService := service.NewQuoteService(quotes, logger)

	apiKeyHandler := NewAPIKeyHandler(apiKeyService, logger)
	keyRequestHandler := NewKeyRequestHandler(keyRequestService, logger)
	quoteHandler := NewQuoteHandler(quoteService, logger)

	apiKeyAuth := middleware.APIKeyAuthMiddleware(keys, logger)
	adminAuth := middleware.AdminAuthMiddleware(testAdminSecret, logger)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(logger))

	api := router.Group("/api")
	{
		quoteRoutes := api.Group("/quotes")
		quoteRoutes.Use(apiKeyAuth)
		{
			quoteRoutes.GET("", quoteHandler.ListPublished)
			quoteRoutes.GET("/random", quoteHandler.Random)
			quoteRoutes.GET("/:id", quoteHandler.GetPublished)
		}

		adminQuoteRoutes := api.Group("/admin/quotes")
		adminQuoteRoutes.Use(adminAuth)
		{
			adminQuoteRoutes.POST("", quoteHandler.Create)
			adminQuoteRoutes.GET("", quoteHandler.ListAll)
			adminQuoteRoutes.GET("/:id", quoteHandler.Get)
			adminQuoteRoutes.PATCH("/:id", quoteHandler.Update)
			adminQuoteRoutes.DELETE("/:id", quoteHandler.Delete)
		}

		keyRequestRoutes := api.Group("/key-requests")
		{
			keyRequestRoutes.POST("", keyRequestHandler.Submit)
			keyRequestRoutes.GET("", adminAuth, keyRequestHandler.List)
			keyRequestRoutes.PATCH("/:id/approve", adminAuth, keyRequestHandler.Approve)
			keyRequestRoutes.PATCH("/:id/reject", adminAuth, keyRequestHandler.Reject)
		}

		keyRoutes := api.Group("/keys")
		keyRoutes.Use(adminAuth)
		{
			keyRoutes.POST("", apiKeyHandler.Create)
			keyRoutes.GET("", apiKeyHandler.List)
			keyRoutes.PATCH("/:id", apiKeyHandler.Update)
			keyRoutes.DELETE("/:id", apiKeyHandler.Delete)
		}
	}

	return &testApp{router: router, keys: keys, requests: requests, quotes: quotes}
}

func (a *testApp) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func adminHeaders() map[string]string {
	return map[string]string{"X-Admin-Secret": testAdminSecret}
}

func TestKeyLifecycleEndToEnd(t *testing.T) {
	app := newTestApp(t)

	// Seed one published quote for the catalog.
	rec := app.do(t, http.MethodPost, "/api/admin/quotes", dto.CreateQuoteRequest{
		Text:   "The obstacle is the way.",
		Author: "Marcus Aurelius",
	}, adminHeaders())
	require.Equal(t, http.StatusCreated, rec.Code)

	// 1. Anyone may submit a key request.
	rec = app.do(t, http.MethodPost, "/api/key-requests", dto.SubmitKeyRequestRequest{
		Name:  "Alice",
		Email: "alice@example.com",
		Usage: "building a study app",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var submitted dto.SubmitKeyRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))

	// 2. The operator approves it.
	rec = app.do(t, http.MethodPatch, "/api/key-requests/"+submitted.ID.String()+"/approve", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	var approved dto.ApproveKeyRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approved))
	assert.Equal(t, submitted.ID, approved.RequestID)
	assert.True(t, approved.EmailSent)

	// 3. The key listing never exposes the raw secret.
	rec = app.do(t, http.MethodGet, "/api/keys", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "\"key\"")

	var listed []dto.APIKeyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Alice's Key", listed[0].Name)
	assert.Equal(t, int64(0), listed[0].Usage.Count)

	// Fetch the raw secret straight from the store, as the email would
	// have carried it.
	stored, err := app.keys.FindByID(context.Background(), approved.APIKeyID)
	require.NoError(t, err)
	rawKey := stored.Key

	// 4. The key opens the catalog and usage is counted.
	keyHeaders := map[string]string{"X-API-Key": rawKey}
	rec = app.do(t, http.MethodGet, "/api/quotes", nil, keyHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/quotes/random", nil, keyHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/keys", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	listed = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, int64(2), listed[0].Usage.Count)
	assert.NotNil(t, listed[0].Usage.LastUsed)

	// 5. Deactivating the key locks the catalog again.
	inactive := false
	rec = app.do(t, http.MethodPatch, "/api/keys/"+approved.APIKeyID.String(),
		dto.UpdateAPIKeyRequest{Active: &inactive}, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/quotes", nil, keyHeaders)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitRejectsInvalidEmail(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/key-requests", dto.SubmitKeyRequestRequest{
		Name:  "Alice",
		Email: "not-an-email",
		Usage: "usage",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveRequiresAdminSecret(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/key-requests", dto.SubmitKeyRequestRequest{
		Name:  "Bob",
		Email: "bob@example.com",
		Usage: "usage",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var submitted dto.SubmitKeyRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))

	rec = app.do(t, http.MethodPatch, "/api/key-requests/"+submitted.ID.String()+"/approve", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, app.keys.Count())
}

func TestApproveTwiceReturnsConflict(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/key-requests", dto.SubmitKeyRequestRequest{
		Name:  "Carol",
		Email: "carol@example.com",
		Usage: "usage",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var submitted dto.SubmitKeyRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))

	path := "/api/key-requests/" + submitted.ID.String() + "/approve"
	rec = app.do(t, http.MethodPatch, path, nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPatch, path, nil, adminHeaders())
	assert.Equal(t, http.StatusConflict, rec.Code)

	var errResp dto.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "ALREADY_APPROVED", errResp.Code)
	assert.Equal(t, 1, app.keys.Count())
}

func TestRejectAfterApproveReturnsConflict(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/key-requests", dto.SubmitKeyRequestRequest{
		Name:  "Dave",
		Email: "dave@example.com",
		Usage: "usage",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var submitted dto.SubmitKeyRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))

	rec = app.do(t, http.MethodPatch, "/api/key-requests/"+submitted.ID.String()+"/approve", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPatch, "/api/key-requests/"+submitted.ID.String()+"/reject", nil, adminHeaders())
	assert.Equal(t, http.StatusConflict, rec.Code)

	stored, err := app.requests.FindByID(context.Background(), submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, keyrequest.StatusApproved, stored.Status)
}

func TestApproveUnknownRequestReturns404(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPatch, "/api/key-requests/11111111-2222-3333-4444-555555555555/approve", nil, adminHeaders())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveMalformedIDReturns400(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPatch, "/api/key-requests/not-a-uuid/approve", nil, adminHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRequestsShowsStatusAndKeyLink(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/key-requests", dto.SubmitKeyRequestRequest{
		Name:  "Erin",
		Email: "erin@example.com",
		Usage: "usage",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var submitted dto.SubmitKeyRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))

	rec = app.do(t, http.MethodPatch, "/api/key-requests/"+submitted.ID.String()+"/approve", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/key-requests", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []dto.KeyRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, keyrequest.StatusApproved, listed[0].Status)
	require.NotNil(t, listed[0].APIKeyID)
}

func TestCatalogHidesUnpublishedQuotes(t *testing.T) {
	app := newTestApp(t)

	draft := false
	rec := app.do(t, http.MethodPost, "/api/admin/quotes", dto.CreateQuoteRequest{
		Text:        "Unfinished thought.",
		Author:      "Anon",
		IsPublished: &draft,
	}, adminHeaders())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created dto.QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	key := seedActiveKey(t, app)

	rec = app.do(t, http.MethodGet, "/api/quotes", nil, map[string]string{"X-API-Key": key})
	require.Equal(t, http.StatusOK, rec.Code)

	var list dto.QuoteListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, int64(0), list.Pagination.Total)

	rec = app.do(t, http.MethodGet, "/api/quotes/"+created.ID.String(), nil, map[string]string{"X-API-Key": key})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The admin surface still returns it.
	rec = app.do(t, http.MethodGet, "/api/admin/quotes/"+created.ID.String(), nil, adminHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDuplicateQuoteReturnsConflict(t *testing.T) {
	app := newTestApp(t)

	body := dto.CreateQuoteRequest{Text: "Repeated wisdom.", Author: "Anon"}
	rec := app.do(t, http.MethodPost, "/api/admin/quotes", body, adminHeaders())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/admin/quotes", body, adminHeaders())
	assert.Equal(t, http.StatusConflict, rec.Code)

	var errResp dto.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "DUPLICATE_QUOTE", errResp.Code)
}

// seedActiveKey issues a key through the admin endpoint and returns the
// raw secret.
func seedActiveKey(t *testing.T, app *testApp) string {
	t.Helper()

	rec := app.do(t, http.MethodPost, "/api/keys", dto.CreateAPIKeyRequest{Name: "seed"}, adminHeaders())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created dto.CreateAPIKeyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created.Key
}
