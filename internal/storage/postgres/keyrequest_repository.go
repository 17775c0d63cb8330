package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ndquotes/quote-api/internal/domain/keyrequest"
	"go.uber.org/zap"
)

type KeyRequestRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewKeyRequestRepository(db *pgxpool.Pool, logger *zap.Logger) *KeyRequestRepository {
	return &KeyRequestRepository{
		db:     db,
		logger: logger.Named("KeyRequestRepository"),
	}
}

var _ keyrequest.Repository = (*KeyRequestRepository)(nil)

const keyRequestColumns = `id, name, email, usage, status, api_key_id, created_at`

func (r *KeyRequestRepository) Create(ctx context.Context, req *keyrequest.KeyRequest) (uuid.UUID, error) {
	query := `
		INSERT INTO key_requests (name, email, usage, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var insertedID uuid.UUID

	err := r.db.QueryRow(ctx, query,
		req.Name,
		req.Email,
		req.Usage,
		keyrequest.StatusPending,
	).Scan(&insertedID)

	if err != nil {
		r.logger.Error("Failed to create key request in database", zap.Error(err))
		return uuid.Nil, fmt.Errorf("db error creating key request: %w", err)
	}

	r.logger.Info("Key request created", zap.String("id", insertedID.String()), zap.String("email", req.Email))
	return insertedID, nil
}

func (r *KeyRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*keyrequest.KeyRequest, error) {
	query := `SELECT ` + keyRequestColumns + ` FROM key_requests WHERE id = $1`
	req, err := r.scanKeyRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, keyrequest.ErrRequestNotFound
		}
		r.logger.Error("Failed to find key request by id", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("db error finding key request: %w", err)
	}
	return req, nil
}

func (r *KeyRequestRepository) List(ctx context.Context) ([]*keyrequest.KeyRequest, error) {
	query := `SELECT ` + keyRequestColumns + ` FROM key_requests ORDER BY created_at DESC`
	return r.queryMany(ctx, query)
}

func (r *KeyRequestRepository) ListPending(ctx context.Context) ([]*keyrequest.KeyRequest, error) {
	query := `SELECT ` + keyRequestColumns + ` FROM key_requests WHERE status = $1 ORDER BY created_at ASC`
	return r.queryMany(ctx, query, keyrequest.StatusPending)
}

// MarkApproved is conditional on the request still being pending, so only
// one of several concurrent approvals can transition the row.
func (r *KeyRequestRepository) MarkApproved(ctx context.Context, id uuid.UUID, apiKeyID uuid.UUID) error {
	query := `UPDATE key_requests SET status = $1, api_key_id = $2 WHERE id = $3 AND status = $4`
	cmdTag, err := r.db.Exec(ctx, query, keyrequest.StatusApproved, apiKeyID, id, keyrequest.StatusPending)
	if err != nil {
		r.logger.Error("Failed to mark key request approved", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error approving key request: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return keyrequest.ErrNotPending
	}

	r.logger.Info("Key request approved", zap.String("id", id.String()), zap.String("api_key_id", apiKeyID.String()))
	return nil
}

func (r *KeyRequestRepository) MarkRejected(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE key_requests SET status = $1 WHERE id = $2 AND status = $3`
	cmdTag, err := r.db.Exec(ctx, query, keyrequest.StatusRejected, id, keyrequest.StatusPending)
	if err != nil {
		r.logger.Error("Failed to mark key request rejected", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error rejecting key request: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return keyrequest.ErrNotPending
	}

	r.logger.Info("Key request rejected", zap.String("id", id.String()))
	return nil
}

func (r *KeyRequestRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*keyrequest.KeyRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query key requests", zap.Error(err))
		return nil, fmt.Errorf("db error listing key requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*keyrequest.KeyRequest, 0)
	for rows.Next() {
		req, err := r.scanKeyRequest(rows)
		if err != nil {
			r.logger.Error("Failed to scan key request row", zap.Error(err))
			return nil, fmt.Errorf("db scan error during key request list: %w", err)
		}
		requests = append(requests, req)
	}

	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating key request rows", zap.Error(err))
		return nil, fmt.Errorf("db iteration error on key request list: %w", err)
	}

	return requests, nil
}

func (r *KeyRequestRepository) scanKeyRequest(row pgx.Row) (*keyrequest.KeyRequest, error) {
	var req keyrequest.KeyRequest
	err := row.Scan(
		&req.ID,
		&req.Name,
		&req.Email,
		&req.Usage,
		&req.Status,
		&req.APIKeyID,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
