package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/domain/apikey"
)

type CreateAPIKeyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateAPIKeyResponse is the only message that ever carries the raw
// secret.
type CreateAPIKeyResponse struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpdateAPIKeyRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type APIKeyUsage struct {
	Count    int64      `json:"count"`
	LastUsed *time.Time `json:"lastUsed,omitempty"`
}

type APIKeyResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Usage       APIKeyUsage `json:"usage"`
	Active      bool        `json:"active"`
	Permissions []string    `json:"permissions"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewAPIKeyResponse maps a key record to its public shape, dropping the
// secret.
func NewAPIKeyResponse(key *apikey.APIKey) *APIKeyResponse {
	return &APIKeyResponse{
		ID:          key.ID,
		Name:        key.Name,
		Description: key.Description,
		Usage: APIKeyUsage{
			Count:    key.UsageCount,
			LastUsed: key.LastUsedAt,
		},
		Active:      key.Active,
		Permissions: key.Permissions,
		CreatedAt:   key.CreatedAt,
		UpdatedAt:   key.UpdatedAt,
	}
}
