package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/domain/apikey"
	"github.com/ndquotes/quote-api/internal/ierr"
	"github.com/ndquotes/quote-api/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAPIKeyService(repo apikey.Repository) *APIKeyService {
	return NewAPIKeyService(repo, zap.NewNop())
}

func TestGenerateKeyProducesHexToken(t *testing.T) {
	repo := memstorage.NewAPIKeyRepository()
	svc := newAPIKeyService(repo)

	created, err := svc.GenerateKey(context.Background(), "Alice's Key", "Requested by alice@example.com for: testing")
	require.NoError(t, err)

	assert.Len(t, created.Key, apikey.SecretBytes*2)
	assert.Regexp(t, "^[0-9a-f]+$", created.Key)
	assert.True(t, created.Active)
	assert.Equal(t, []string{apikey.DefaultPermission}, created.Permissions)
	assert.Equal(t, int64(0), created.UsageCount)
	assert.Nil(t, created.LastUsedAt)

	// The stored record must be findable by the raw token.
	found, err := repo.FindActiveByKey(context.Background(), created.Key)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestGenerateKeyTokensAreUnique(t *testing.T) {
	repo := memstorage.NewAPIKeyRepository()
	svc := newAPIKeyService(repo)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		created, err := svc.GenerateKey(context.Background(), "key", "")
		require.NoError(t, err)
		assert.False(t, seen[created.Key], "token generated twice")
		seen[created.Key] = true
	}
}

func TestGenerateKeyRequiresName(t *testing.T) {
	svc := newAPIKeyService(memstorage.NewAPIKeyRepository())

	_, err := svc.GenerateKey(context.Background(), "   ", "desc")
	assert.ErrorIs(t, err, ierr.ErrValidation)
}

func TestGenerateKeyRepositoryFailure(t *testing.T) {
	repo := memstorage.NewAPIKeyRepository()
	repo.FailOp = "create"
	svc := newAPIKeyService(repo)

	_, err := svc.GenerateKey(context.Background(), "broken", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ierr.ErrValidation)
	assert.Equal(t, 0, repo.Count())
}

func TestUpdateKeyDeactivates(t *testing.T) {
	repo := memstorage.NewAPIKeyRepository()
	svc := newAPIKeyService(repo)

	created, err := svc.GenerateKey(context.Background(), "rotating", "")
	require.NoError(t, err)

	inactive := false
	updated, err := svc.UpdateKey(context.Background(), created.ID, apikey.UpdateParams{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	_, err = repo.FindActiveByKey(context.Background(), created.Key)
	assert.True(t, errors.Is(err, apikey.ErrAPIKeyNotFound))
}

func TestUpdateKeyNotFound(t *testing.T) {
	svc := newAPIKeyService(memstorage.NewAPIKeyRepository())

	name := "renamed"
	_, err := svc.UpdateKey(context.Background(), uuid.New(), apikey.UpdateParams{Name: &name})
	assert.ErrorIs(t, err, ierr.ErrNotFound)
}

func TestDeleteKeyNotFound(t *testing.T) {
	svc := newAPIKeyService(memstorage.NewAPIKeyRepository())

	err := svc.DeleteKey(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ierr.ErrNotFound)
}
