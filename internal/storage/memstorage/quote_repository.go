package memstorage

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/domain/quote"
)

type QuoteRepository struct {
	mu     sync.RWMutex
	quotes map[uuid.UUID]*quote.Quote
}

func NewQuoteRepository() *QuoteRepository {
	return &QuoteRepository{
		quotes: make(map[uuid.UUID]*quote.Quote),
	}
}

var _ quote.Repository = (*QuoteRepository)(nil)

func (r *QuoteRepository) Create(ctx context.Context, q *quote.Quote) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.quotes {
		if strings.EqualFold(existing.Text, q.Text) {
			return uuid.Nil, quote.ErrDuplicateText
		}
	}

	stored := *q
	stored.ID = uuid.New()
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.quotes[stored.ID] = &stored
	return stored.ID, nil
}

func (r *QuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.quotes[id]
	if !ok {
		return nil, quote.ErrQuoteNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *QuoteRepository) List(ctx context.Context, params quote.ListParams) ([]*quote.Quote, int64, error) {
	params.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*quote.Quote, 0, len(r.quotes))
	for _, q := range r.quotes {
		if params.IsPublished != nil && q.IsPublished != *params.IsPublished {
			continue
		}
		if params.Tag != "" && !hasTag(q.Tags, params.Tag) {
			continue
		}
		cp := *q
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := params.Offset()
	if start >= len(matched) {
		return []*quote.Quote{}, total, nil
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *QuoteRepository) Random(ctx context.Context) (*quote.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	published := make([]*quote.Quote, 0, len(r.quotes))
	for _, q := range r.quotes {
		if q.IsPublished {
			published = append(published, q)
		}
	}
	if len(published) == 0 {
		return nil, quote.ErrQuoteNotFound
	}
	cp := *published[rand.Intn(len(published))]
	return &cp, nil
}

func (r *QuoteRepository) Update(ctx context.Context, id uuid.UUID, params quote.UpdateParams) (*quote.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.quotes[id]
	if !ok {
		return nil, quote.ErrQuoteNotFound
	}

	if params.Text != nil {
		for otherID, other := range r.quotes {
			if otherID != id && strings.EqualFold(other.Text, *params.Text) {
				return nil, quote.ErrDuplicateText
			}
		}
		q.Text = *params.Text
	}
	if params.Author != nil {
		q.Author = *params.Author
	}
	if params.Source != nil {
		q.Source = *params.Source
	}
	if params.Tags != nil {
		q.Tags = append([]string(nil), (*params.Tags)...)
	}
	if params.IsPublished != nil {
		q.IsPublished = *params.IsPublished
	}
	q.UpdatedAt = time.Now().UTC()

	cp := *q
	return &cp, nil
}

func (r *QuoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.quotes[id]; !ok {
		return quote.ErrQuoteNotFound
	}
	delete(r.quotes, id)
	return nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
