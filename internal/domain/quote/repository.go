package quote

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrDuplicateText signals the case-insensitive uniqueness constraint
	// on quote text.
	ErrDuplicateText = errors.New("quote text already exists")
)

type UpdateParams struct {
	Text        *string
	Author      *string
	Source      *string
	Tags        *[]string
	IsPublished *bool
}

type Repository interface {
	Create(ctx context.Context, q *Quote) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	List(ctx context.Context, params ListParams) ([]*Quote, int64, error)
	// Random returns one published quote chosen uniformly.
	Random(ctx context.Context) (*Quote, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Quote, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
