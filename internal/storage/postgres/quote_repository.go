package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ndquotes/quote-api/internal/domain/quote"
	"go.uber.org/zap"
)

type QuoteRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewQuoteRepository(db *pgxpool.Pool, logger *zap.Logger) *QuoteRepository {
	return &QuoteRepository{
		db:     db,
		logger: logger.Named("QuoteRepository"),
	}
}

var _ quote.Repository = (*QuoteRepository)(nil)

const quoteColumns = `id, text, author, source, tags, is_published, created_at, updated_at`

func (r *QuoteRepository) Create(ctx context.Context, q *quote.Quote) (uuid.UUID, error) {
	query := `
		INSERT INTO quotes (text, author, source, tags, is_published)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var insertedID uuid.UUID

	err := r.db.QueryRow(ctx, query,
		q.Text,
		q.Author,
		q.Source,
		q.Tags,
		q.IsPublished,
	).Scan(&insertedID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			r.logger.Warn("Attempted to create duplicate quote", zap.String("author", q.Author))
			return uuid.Nil, quote.ErrDuplicateText
		}
		r.logger.Error("Failed to create quote in database", zap.Error(err))
		return uuid.Nil, fmt.Errorf("db error creating quote: %w", err)
	}

	return insertedID, nil
}

func (r *QuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`
	q, err := r.scanQuote(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, quote.ErrQuoteNotFound
		}
		r.logger.Error("Failed to find quote by id", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("db error finding quote: %w", err)
	}
	return q, nil
}

func (r *QuoteRepository) List(ctx context.Context, params quote.ListParams) ([]*quote.Quote, int64, error) {
	params.Normalize()

	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)

	if params.IsPublished != nil {
		args = append(args, *params.IsPublished)
		where = append(where, fmt.Sprintf("is_published = $%d", len(args)))
	}
	if params.Tag != "" {
		args = append(args, params.Tag)
		where = append(where, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM quotes`+whereClause, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count quotes", zap.Error(err))
		return nil, 0, fmt.Errorf("db error counting quotes: %w", err)
	}

	args = append(args, params.Limit, params.Offset())
	query := fmt.Sprintf(`SELECT `+quoteColumns+` FROM quotes%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		whereClause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query list of quotes", zap.Error(err))
		return nil, 0, fmt.Errorf("db error listing quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]*quote.Quote, 0)
	for rows.Next() {
		q, err := r.scanQuote(rows)
		if err != nil {
			r.logger.Error("Failed to scan quote row during list", zap.Error(err))
			return nil, 0, fmt.Errorf("db scan error during quote list: %w", err)
		}
		quotes = append(quotes, q)
	}

	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating quote rows", zap.Error(err))
		return nil, 0, fmt.Errorf("db iteration error on quote list: %w", err)
	}

	return quotes, total, nil
}

func (r *QuoteRepository) Random(ctx context.Context) (*quote.Quote, error) {
	// The catalog is small; letting postgres shuffle beats the racy
	// count-then-skip approach under concurrent writes.
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE is_published = TRUE ORDER BY random() LIMIT 1`
	q, err := r.scanQuote(r.db.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, quote.ErrQuoteNotFound
		}
		r.logger.Error("Failed to fetch random quote", zap.Error(err))
		return nil, fmt.Errorf("db error fetching random quote: %w", err)
	}
	return q, nil
}

func (r *QuoteRepository) Update(ctx context.Context, id uuid.UUID, params quote.UpdateParams) (*quote.Quote, error) {
	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)

	if params.Text != nil {
		args = append(args, *params.Text)
		sets = append(sets, fmt.Sprintf("text = $%d", len(args)))
	}
	if params.Author != nil {
		args = append(args, *params.Author)
		sets = append(sets, fmt.Sprintf("author = $%d", len(args)))
	}
	if params.Source != nil {
		args = append(args, *params.Source)
		sets = append(sets, fmt.Sprintf("source = $%d", len(args)))
	}
	if params.Tags != nil {
		args = append(args, *params.Tags)
		sets = append(sets, fmt.Sprintf("tags = $%d", len(args)))
	}
	if params.IsPublished != nil {
		args = append(args, *params.IsPublished)
		sets = append(sets, fmt.Sprintf("is_published = $%d", len(args)))
	}

	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE quotes SET %s WHERE id = $%d RETURNING `+quoteColumns,
		strings.Join(sets, ", "), len(args))

	q, err := r.scanQuote(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, quote.ErrQuoteNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, quote.ErrDuplicateText
		}
		r.logger.Error("Failed to update quote", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("db error updating quote: %w", err)
	}

	return q, nil
}

func (r *QuoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete quote", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error deleting quote: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return quote.ErrQuoteNotFound
	}
	return nil
}

func (r *QuoteRepository) scanQuote(row pgx.Row) (*quote.Quote, error) {
	var q quote.Quote
	err := row.Scan(
		&q.ID,
		&q.Text,
		&q.Author,
		&q.Source,
		&q.Tags,
		&q.IsPublished,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}
