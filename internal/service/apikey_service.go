package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/domain/apikey"
	"github.com/ndquotes/quote-api/internal/ierr"
	"go.uber.org/zap"
)

// createAttempts bounds retries when a freshly generated token collides
// with an existing one. Each attempt draws new randomness, so retrying is
// safe; more than a couple of collisions means something is badly wrong.
const createAttempts = 3

type APIKeyService struct {
	repo   apikey.Repository
	logger *zap.Logger
}

func NewAPIKeyService(repo apikey.Repository, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{
		repo:   repo,
		logger: logger.Named("APIKeyService"),
	}
}

// GenerateKey mints a new API key. The returned record carries the raw
// secret; this is the only moment it is ever handed out.
func (s *APIKeyService) GenerateKey(ctx context.Context, name, description string) (*apikey.APIKey, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required for api key", ierr.ErrValidation)
	}

	s.logger.Info("Generating new API key", zap.String("name", name))

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		token, err := generateToken()
		if err != nil {
			s.logger.Error("Failed to generate api key token", zap.Error(err))
			return nil, fmt.Errorf("%w: failed generating key token: %v", ierr.ErrInternalServer, err)
		}

		newKey := &apikey.APIKey{
			Key:         token,
			Name:        name,
			Description: description,
			Active:      true,
			Permissions: []string{apikey.DefaultPermission},
		}

		insertedID, err := s.repo.Create(ctx, newKey)
		if err != nil {
			if errors.Is(err, apikey.ErrDuplicateKey) {
				s.logger.Warn("Generated token collided, regenerating", zap.Int("attempt", attempt+1))
				lastErr = err
				continue
			}
			s.logger.Error("Failed to save new api key", zap.Error(err))
			return nil, fmt.Errorf("repository error creating api key: %w", err)
		}

		created, err := s.repo.FindByID(ctx, insertedID)
		if err != nil {
			s.logger.Error("Failed to read back created api key", zap.String("id", insertedID.String()), zap.Error(err))
			return nil, fmt.Errorf("failed to retrieve created api key (id: %s): %w", insertedID, err)
		}
		created.Key = token

		s.logger.Info("API key created", zap.String("id", created.ID.String()), zap.String("name", name))
		return created, nil
	}

	return nil, fmt.Errorf("repository error creating api key after %d attempts: %w", createAttempts, lastErr)
}

func (s *APIKeyService) ListKeys(ctx context.Context) ([]*apikey.APIKey, error) {
	s.logger.Debug("Listing API keys")
	keys, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list api keys from repository", zap.Error(err))
		return nil, fmt.Errorf("repository error listing api keys: %w", err)
	}
	return keys, nil
}

func (s *APIKeyService) UpdateKey(ctx context.Context, id uuid.UUID, params apikey.UpdateParams) (*apikey.APIKey, error) {
	key, err := s.repo.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, apikey.ErrAPIKeyNotFound) {
			return nil, fmt.Errorf("%w: api key %s", ierr.ErrNotFound, id)
		}
		s.logger.Error("Failed to update api key via repository", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("repository error updating api key %s: %w", id, err)
	}

	s.logger.Info("API key updated", zap.String("id", id.String()))
	return key, nil
}

func (s *APIKeyService) DeleteKey(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, apikey.ErrAPIKeyNotFound) {
			return fmt.Errorf("%w: api key %s", ierr.ErrNotFound, id)
		}
		s.logger.Error("Failed to delete api key via repository", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("repository error deleting api key %s: %w", id, err)
	}

	s.logger.Info("API key deleted", zap.String("id", id.String()))
	return nil
}

// generateToken returns a hex-encoded secret with SecretBytes of entropy.
// The token is pure randomness, never derived from requester metadata.
func generateToken() (string, error) {
	buf := make([]byte, apikey.SecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
