package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/domain/keyrequest"
)

type SubmitKeyRequestRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Usage string `json:"usage" binding:"required"`
}

type SubmitKeyRequestResponse struct {
	ID uuid.UUID `json:"id"`
}

type KeyRequestResponse struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Usage     string            `json:"usage"`
	Status    keyrequest.Status `json:"status"`
	APIKeyID  *uuid.UUID        `json:"apiKeyId,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

func NewKeyRequestResponse(req *keyrequest.KeyRequest) *KeyRequestResponse {
	return &KeyRequestResponse{
		ID:        req.ID,
		Name:      req.Name,
		Email:     req.Email,
		Usage:     req.Usage,
		Status:    req.Status,
		APIKeyID:  req.APIKeyID,
		CreatedAt: req.CreatedAt,
	}
}

type ApproveKeyRequestResponse struct {
	RequestID uuid.UUID `json:"requestId"`
	APIKeyID  uuid.UUID `json:"apiKeyId"`
	EmailSent bool      `json:"emailSent"`
}

type RejectKeyRequestResponse struct {
	RequestID uuid.UUID `json:"requestId"`
	EmailSent bool      `json:"emailSent"`
}
