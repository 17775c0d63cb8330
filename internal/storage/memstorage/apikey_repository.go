package memstorage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/domain/apikey"
)

// APIKeyRepository is an in-memory apikey.Repository used by tests. It
// mirrors the postgres semantics: unique token constraint and atomic
// usage increments under a mutex.
type APIKeyRepository struct {
	mu     sync.RWMutex
	keys   map[uuid.UUID]*apikey.APIKey
	byKey  map[string]uuid.UUID
	FailOp string
}

func NewAPIKeyRepository() *APIKeyRepository {
	return &APIKeyRepository{
		keys:  make(map[uuid.UUID]*apikey.APIKey),
		byKey: make(map[string]uuid.UUID),
	}
}

var _ apikey.Repository = (*APIKeyRepository)(nil)

func (r *APIKeyRepository) Create(ctx context.Context, key *apikey.APIKey) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failIf("create"); err != nil {
		return uuid.Nil, err
	}

	if _, exists := r.byKey[key.Key]; exists {
		return uuid.Nil, apikey.ErrDuplicateKey
	}

	stored := *key
	stored.ID = uuid.New()
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Permissions == nil {
		stored.Permissions = []string{apikey.DefaultPermission}
	}

	r.keys[stored.ID] = &stored
	r.byKey[stored.Key] = stored.ID
	return stored.ID, nil
}

func (r *APIKeyRepository) FindByID(ctx context.Context, id uuid.UUID) (*apikey.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.keys[id]
	if !ok {
		return nil, apikey.ErrAPIKeyNotFound
	}
	cp := *key
	return &cp, nil
}

func (r *APIKeyRepository) FindActiveByKey(ctx context.Context, rawKey string) (*apikey.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[rawKey]
	if !ok {
		return nil, apikey.ErrAPIKeyNotFound
	}
	key := r.keys[id]
	if !key.Active {
		return nil, apikey.ErrAPIKeyNotFound
	}
	cp := *key
	return &cp, nil
}

func (r *APIKeyRepository) List(ctx context.Context) ([]*apikey.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]*apikey.APIKey, 0, len(r.keys))
	for _, key := range r.keys {
		cp := *key
		keys = append(keys, &cp)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (r *APIKeyRepository) Update(ctx context.Context, id uuid.UUID, params apikey.UpdateParams) (*apikey.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[id]
	if !ok {
		return nil, apikey.ErrAPIKeyNotFound
	}

	if params.Name != nil {
		key.Name = *params.Name
	}
	if params.Description != nil {
		key.Description = *params.Description
	}
	if params.Active != nil {
		key.Active = *params.Active
	}
	key.UpdatedAt = time.Now().UTC()

	cp := *key
	return &cp, nil
}

func (r *APIKeyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[id]
	if !ok {
		return apikey.ErrAPIKeyNotFound
	}
	delete(r.byKey, key.Key)
	delete(r.keys, id)
	return nil
}

func (r *APIKeyRepository) RecordUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failIf("recordUsage"); err != nil {
		return err
	}

	key, ok := r.keys[id]
	if !ok {
		return nil
	}
	key.UsageCount++
	at := usedAt
	key.LastUsedAt = &at
	return nil
}

// Count reports how many keys currently exist.
func (r *APIKeyRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

func (r *APIKeyRepository) failIf(op string) error {
	if r.FailOp == op {
		return errInjected
	}
	return nil
}
