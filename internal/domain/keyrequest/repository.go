package keyrequest

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrRequestNotFound = errors.New("key request not found")

	// ErrNotPending is returned by the conditional status updates when the
	// request has already reached a terminal state.
	ErrNotPending = errors.New("key request is not pending")
)

type Repository interface {
	Create(ctx context.Context, req *KeyRequest) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*KeyRequest, error)
	// List returns all requests ordered by creation time, newest first.
	List(ctx context.Context) ([]*KeyRequest, error)
	// ListPending returns pending requests ordered oldest first.
	ListPending(ctx context.Context) ([]*KeyRequest, error)
	// MarkApproved moves a request to approved and records the issued key
	// id. The write is conditional on the current status being pending;
	// a lost race or an already-decided request yields ErrNotPending.
	MarkApproved(ctx context.Context, id uuid.UUID, apiKeyID uuid.UUID) error
	// MarkRejected moves a request to rejected under the same condition.
	MarkRejected(ctx context.Context, id uuid.UUID) error
}
