package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/domain/quote"
	"github.com/ndquotes/quote-api/internal/ierr"
	"go.uber.org/zap"
)

type QuoteService struct {
	repo   quote.Repository
	logger *zap.Logger
}

func NewQuoteService(repo quote.Repository, logger *zap.Logger) *QuoteService {
	return &QuoteService{
		repo:   repo,
		logger: logger.Named("QuoteService"),
	}
}

func (s *QuoteService) Create(ctx context.Context, q *quote.Quote) (*quote.Quote, error) {
	q.Text = strings.TrimSpace(q.Text)
	q.Author = strings.TrimSpace(q.Author)
	if q.Text == "" || q.Author == "" {
		return nil, fmt.Errorf("%w: text and author are required", ierr.ErrValidation)
	}

	insertedID, err := s.repo.Create(ctx, q)
	if err != nil {
		if errors.Is(err, quote.ErrDuplicateText) {
			return nil, fmt.Errorf("%w", ierr.ErrDuplicateQuote)
		}
		s.logger.Error("Failed to create quote", zap.Error(err))
		return nil, fmt.Errorf("repository error creating quote: %w", err)
	}

	created, err := s.repo.FindByID(ctx, insertedID)
	if err != nil {
		s.logger.Error("Failed to read back created quote", zap.String("id", insertedID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve created quote (id: %s): %w", insertedID, err)
	}

	s.logger.Info("Quote created", zap.String("id", created.ID.String()), zap.String("author", created.Author))
	return created, nil
}

// GetPublished serves the catalog surface: unpublished quotes look
// nonexistent to API-key callers.
func (s *QuoteService) GetPublished(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.IsPublished {
		return nil, fmt.Errorf("%w: quote %s", ierr.ErrNotFound, id)
	}
	return q, nil
}

func (s *QuoteService) Get(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	return s.get(ctx, id)
}

func (s *QuoteService) get(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, quote.ErrQuoteNotFound) {
			return nil, fmt.Errorf("%w: quote %s", ierr.ErrNotFound, id)
		}
		s.logger.Error("Failed to find quote", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("repository error finding quote %s: %w", id, err)
	}
	return q, nil
}

// ListPublished pins the published filter for the public catalog.
func (s *QuoteService) ListPublished(ctx context.Context, page, limit int) ([]*quote.Quote, int64, error) {
	published := true
	return s.list(ctx, quote.ListParams{Page: page, Limit: limit, IsPublished: &published})
}

// ListAll is the operator view: optional publication and tag filters.
func (s *QuoteService) ListAll(ctx context.Context, params quote.ListParams) ([]*quote.Quote, int64, error) {
	return s.list(ctx, params)
}

func (s *QuoteService) list(ctx context.Context, params quote.ListParams) ([]*quote.Quote, int64, error) {
	quotes, total, err := s.repo.List(ctx, params)
	if err != nil {
		s.logger.Error("Failed to list quotes", zap.Error(err))
		return nil, 0, fmt.Errorf("repository error listing quotes: %w", err)
	}
	return quotes, total, nil
}

func (s *QuoteService) Random(ctx context.Context) (*quote.Quote, error) {
	q, err := s.repo.Random(ctx)
	if err != nil {
		if errors.Is(err, quote.ErrQuoteNotFound) {
			return nil, fmt.Errorf("%w: no quotes found", ierr.ErrNotFound)
		}
		s.logger.Error("Failed to fetch random quote", zap.Error(err))
		return nil, fmt.Errorf("repository error fetching random quote: %w", err)
	}
	return q, nil
}

func (s *QuoteService) Update(ctx context.Context, id uuid.UUID, params quote.UpdateParams) (*quote.Quote, error) {
	q, err := s.repo.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, quote.ErrQuoteNotFound) {
			return nil, fmt.Errorf("%w: quote %s", ierr.ErrNotFound, id)
		}
		if errors.Is(err, quote.ErrDuplicateText) {
			return nil, fmt.Errorf("%w", ierr.ErrDuplicateQuote)
		}
		s.logger.Error("Failed to update quote", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("repository error updating quote %s: %w", id, err)
	}

	s.logger.Info("Quote updated", zap.String("id", id.String()))
	return q, nil
}

func (s *QuoteService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, quote.ErrQuoteNotFound) {
			return fmt.Errorf("%w: quote %s", ierr.ErrNotFound, id)
		}
		s.logger.Error("Failed to delete quote", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("repository error deleting quote %s: %w", id, err)
	}

	s.logger.Info("Quote deleted", zap.String("id", id.String()))
	return nil
}
