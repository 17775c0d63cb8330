package apikey

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAPIKeyNotFound = errors.New("api key not found or inactive")
	ErrDuplicateKey   = errors.New("api key token already exists")
)

// UpdateParams carries the mutable subset of an APIKey. Nil fields are
// left untouched.
type UpdateParams struct {
	Name        *string
	Description *string
	Active      *bool
}

type Repository interface {
	Create(ctx context.Context, key *APIKey) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*APIKey, error)
	// FindActiveByKey resolves a raw secret to its record. Inactive and
	// nonexistent keys both return ErrAPIKeyNotFound.
	FindActiveByKey(ctx context.Context, rawKey string) (*APIKey, error)
	List(ctx context.Context) ([]*APIKey, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*APIKey, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// RecordUsage increments the usage counter and stamps the last-used
	// time in a single atomic statement.
	RecordUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error
}
