package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ndquotes/quote-api/internal/domain/apikey"
	"go.uber.org/zap"
)

const uniqueViolationCode = "23505"

type APIKeyRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAPIKeyRepository(db *pgxpool.Pool, logger *zap.Logger) *APIKeyRepository {
	return &APIKeyRepository{
		db:     db,
		logger: logger.Named("APIKeyRepository"),
	}
}

var _ apikey.Repository = (*APIKeyRepository)(nil)

const apiKeyColumns = `id, key, name, description, usage_count, last_used_at, active, permissions, created_at, updated_at`

func (r *APIKeyRepository) Create(ctx context.Context, key *apikey.APIKey) (uuid.UUID, error) {
	query := `
		INSERT INTO api_keys (key, name, description, active, permissions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var insertedID uuid.UUID

	err := r.db.QueryRow(ctx, query,
		key.Key,
		key.Name,
		key.Description,
		key.Active,
		key.Permissions,
	).Scan(&insertedID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			r.logger.Warn("Attempted to create API key with duplicate token",
				zap.String("constraint", pgErr.ConstraintName),
				zap.String("name", key.Name),
			)
			return uuid.Nil, apikey.ErrDuplicateKey
		}
		r.logger.Error("Failed to create api key in database", zap.Error(err))
		return uuid.Nil, fmt.Errorf("db error creating api key: %w", err)
	}

	r.logger.Info("API key created", zap.String("id", insertedID.String()), zap.String("name", key.Name))
	return insertedID, nil
}

func (r *APIKeyRepository) FindByID(ctx context.Context, id uuid.UUID) (*apikey.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE id = $1`
	key, err := r.scanAPIKey(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apikey.ErrAPIKeyNotFound
		}
		r.logger.Error("Failed to find api key by id", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("db error finding api key: %w", err)
	}
	return key, nil
}

func (r *APIKeyRepository) FindActiveByKey(ctx context.Context, rawKey string) (*apikey.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key = $1 AND active = TRUE`
	key, err := r.scanAPIKey(r.db.QueryRow(ctx, query, rawKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("API key not found or inactive")
			return nil, apikey.ErrAPIKeyNotFound
		}
		r.logger.Error("Failed to find api key by token", zap.Error(err))
		return nil, fmt.Errorf("db error finding api key: %w", err)
	}
	return key, nil
}

func (r *APIKeyRepository) List(ctx context.Context) ([]*apikey.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query list of api keys", zap.Error(err))
		return nil, fmt.Errorf("db error listing api keys: %w", err)
	}
	defer rows.Close()

	keys := make([]*apikey.APIKey, 0)
	for rows.Next() {
		key, err := r.scanAPIKey(rows)
		if err != nil {
			r.logger.Error("Failed to scan api key row during list", zap.Error(err))
			return nil, fmt.Errorf("db scan error during api key list: %w", err)
		}
		keys = append(keys, key)
	}

	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating api key rows", zap.Error(err))
		return nil, fmt.Errorf("db iteration error on api key list: %w", err)
	}

	return keys, nil
}

func (r *APIKeyRepository) Update(ctx context.Context, id uuid.UUID, params apikey.UpdateParams) (*apikey.APIKey, error) {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	if params.Name != nil {
		args = append(args, *params.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if params.Description != nil {
		args = append(args, *params.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if params.Active != nil {
		args = append(args, *params.Active)
		sets = append(sets, fmt.Sprintf("active = $%d", len(args)))
	}

	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE api_keys SET %s WHERE id = $%d RETURNING `+apiKeyColumns,
		strings.Join(sets, ", "), len(args))

	key, err := r.scanAPIKey(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("API key not found for update", zap.String("id", id.String()))
			return nil, apikey.ErrAPIKeyNotFound
		}
		r.logger.Error("Failed to update api key", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("db error updating api key: %w", err)
	}

	r.logger.Info("API key updated", zap.String("id", id.String()))
	return key, nil
}

func (r *APIKeyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete api key", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error deleting api key: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apikey.ErrAPIKeyNotFound
	}

	r.logger.Info("API key deleted", zap.String("id", id.String()))
	return nil
}

// RecordUsage is a single atomic increment so concurrent authentications
// with the same key never lose updates.
func (r *APIKeyRepository) RecordUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	query := `UPDATE api_keys SET usage_count = usage_count + 1, last_used_at = $1 WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, query, usedAt, id)
	if err != nil {
		r.logger.Error("Failed to record api key usage", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error recording api key usage: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("API key not found when recording usage", zap.String("id", id.String()))
	}
	return nil
}

func (r *APIKeyRepository) scanAPIKey(row pgx.Row) (*apikey.APIKey, error) {
	var key apikey.APIKey
	err := row.Scan(
		&key.ID,
		&key.Key,
		&key.Name,
		&key.Description,
		&key.UsageCount,
		&key.LastUsedAt,
		&key.Active,
		&key.Permissions,
		&key.CreatedAt,
		&key.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &key, nil
}
