package quote

import (
	"time"

	"github.com/google/uuid"
)

type Quote struct {
	ID          uuid.UUID `db:"id"`
	Text        string    `db:"text"`
	Author      string    `db:"author"`
	Source      string    `db:"source"`
	Tags        []string  `db:"tags"`
	IsPublished bool      `db:"is_published"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// ListParams filters and paginates quote listings. Page and Limit are
// 1-based; a nil IsPublished means "any".
type ListParams struct {
	Page        int
	Limit       int
	IsPublished *bool
	Tag         string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 10
	}
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}
