package memstorage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/domain/keyrequest"
)

var errInjected = errors.New("memstorage: injected failure")

type KeyRequestRepository struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*keyrequest.KeyRequest
	FailOp   string
}

func NewKeyRequestRepository() *KeyRequestRepository {
	return &KeyRequestRepository{
		requests: make(map[uuid.UUID]*keyrequest.KeyRequest),
	}
}

var _ keyrequest.Repository = (*KeyRequestRepository)(nil)

func (r *KeyRequestRepository) Create(ctx context.Context, req *keyrequest.KeyRequest) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *req
	stored.ID = uuid.New()
	stored.Status = keyrequest.StatusPending
	stored.CreatedAt = time.Now().UTC()

	r.requests[stored.ID] = &stored
	return stored.ID, nil
}

func (r *KeyRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*keyrequest.KeyRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, keyrequest.ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *KeyRequestRepository) List(ctx context.Context) ([]*keyrequest.KeyRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requests := make([]*keyrequest.KeyRequest, 0, len(r.requests))
	for _, req := range r.requests {
		cp := *req
		requests = append(requests, &cp)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

func (r *KeyRequestRepository) ListPending(ctx context.Context) ([]*keyrequest.KeyRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requests := make([]*keyrequest.KeyRequest, 0)
	for _, req := range r.requests {
		if req.Status == keyrequest.StatusPending {
			cp := *req
			requests = append(requests, &cp)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
	return requests, nil
}

func (r *KeyRequestRepository) MarkApproved(ctx context.Context, id uuid.UUID, apiKeyID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailOp == "markApproved" {
		return errInjected
	}

	req, ok := r.requests[id]
	if !ok {
		return keyrequest.ErrRequestNotFound
	}
	if req.Status != keyrequest.StatusPending {
		return keyrequest.ErrNotPending
	}

	req.Status = keyrequest.StatusApproved
	keyID := apiKeyID
	req.APIKeyID = &keyID
	return nil
}

func (r *KeyRequestRepository) MarkRejected(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return keyrequest.ErrRequestNotFound
	}
	if req.Status != keyrequest.StatusPending {
		return keyrequest.ErrNotPending
	}

	req.Status = keyrequest.StatusRejected
	return nil
}
