package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/domain/keyrequest"
	"github.com/ndquotes/quote-api/internal/ierr"
	"github.com/ndquotes/quote-api/internal/notify"
	"go.uber.org/zap"
)

// KeyRequestService drives a request through its one-way state machine:
// pending, then exactly one of approved or rejected.
type KeyRequestService struct {
	requests    keyrequest.Repository
	issuer      *APIKeyService
	notifier    notify.Notifier
	autoApprove bool
	logger      *zap.Logger
}

func NewKeyRequestService(requests keyrequest.Repository, issuer *APIKeyService, notifier notify.Notifier, autoApprove bool, logger *zap.Logger) *KeyRequestService {
	return &KeyRequestService{
		requests:    requests,
		issuer:      issuer,
		notifier:    notifier,
		autoApprove: autoApprove,
		logger:      logger.Named("KeyRequestService"),
	}
}

// ApprovalResult separates the committed state change from the
// best-effort delivery outcome. EmailSent=false never means the approval
// failed.
type ApprovalResult struct {
	RequestID uuid.UUID
	APIKeyID  uuid.UUID
	EmailSent bool
}

type RejectionResult struct {
	RequestID uuid.UUID
	EmailSent bool
}

func (s *KeyRequestService) Submit(ctx context.Context, name, email, usage string) (*keyrequest.KeyRequest, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(usage) == "" {
		return nil, fmt.Errorf("%w: name, email, and usage description are required", ierr.ErrValidation)
	}

	req := &keyrequest.KeyRequest{
		Name:   name,
		Email:  strings.ToLower(strings.TrimSpace(email)),
		Usage:  usage,
		Status: keyrequest.StatusPending,
	}

	insertedID, err := s.requests.Create(ctx, req)
	if err != nil {
		s.logger.Error("Failed to create key request", zap.Error(err))
		return nil, fmt.Errorf("repository error creating key request: %w", err)
	}

	if s.autoApprove {
		// The submission has committed; a failing auto-approval leaves
		// the request pending for a manual decision instead of failing
		// the submission.
		if _, err := s.Approve(ctx, insertedID); err != nil {
			s.logger.Error("Auto-approval failed, request left pending",
				zap.String("request_id", insertedID.String()), zap.Error(err))
		}
	} else {
		if err := s.notifier.SendAdminAlert(ctx, &keyrequest.KeyRequest{
			ID:    insertedID,
			Name:  req.Name,
			Email: req.Email,
			Usage: req.Usage,
		}); err != nil {
			s.logger.Warn("Failed to notify operator of new key request",
				zap.String("request_id", insertedID.String()), zap.Error(err))
		}
	}

	created, err := s.requests.FindByID(ctx, insertedID)
	if err != nil {
		s.logger.Error("Failed to read back created key request", zap.String("id", insertedID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve created key request (id: %s): %w", insertedID, err)
	}

	return created, nil
}

func (s *KeyRequestService) List(ctx context.Context) ([]*keyrequest.KeyRequest, error) {
	requests, err := s.requests.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list key requests", zap.Error(err))
		return nil, fmt.Errorf("repository error listing key requests: %w", err)
	}
	return requests, nil
}

// Approve issues a key for a pending request. The status transition is a
// conditional write, so concurrent approvals of the same request produce
// exactly one surviving key and one delivery email.
func (s *KeyRequestService) Approve(ctx context.Context, id uuid.UUID) (*ApprovalResult, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, keyrequest.ErrRequestNotFound) {
			return nil, fmt.Errorf("%w: key request %s", ierr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("repository error loading key request %s: %w", id, err)
	}

	if req.Status == keyrequest.StatusApproved {
		return nil, fmt.Errorf("%w: request %s", ierr.ErrAlreadyApproved, id)
	}
	if req.Status == keyrequest.StatusRejected {
		return nil, fmt.Errorf("%w: request %s was rejected", ierr.ErrAlreadyDecided, id)
	}

	key, err := s.issuer.GenerateKey(ctx,
		fmt.Sprintf("%s's Key", req.Name),
		fmt.Sprintf("Requested by %s for: %s", req.Email, req.Usage),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to issue api key for request %s: %w", id, err)
	}

	if err := s.requests.MarkApproved(ctx, id, key.ID); err != nil {
		if errors.Is(err, keyrequest.ErrNotPending) {
			// Lost the race against a concurrent decision. Withdraw the
			// key we just minted so only the winner's key survives.
			if delErr := s.issuer.DeleteKey(ctx, key.ID); delErr != nil {
				s.logger.Error("Failed to remove key after losing approval race",
					zap.String("request_id", id.String()),
					zap.String("api_key_id", key.ID.String()),
					zap.Error(delErr))
			}
			return nil, s.concurrentDecisionError(ctx, id)
		}

		// The key exists but the request still reads pending. Reported,
		// not retried: an operator resolves it from the log.
		s.logger.Error("Approval commit failed after key issuance, orphaned key left behind",
			zap.String("request_id", id.String()),
			zap.String("api_key_id", key.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("repository error approving key request %s: %w", id, err)
	}

	result := &ApprovalResult{RequestID: id, APIKeyID: key.ID, EmailSent: true}

	if err := s.notifier.SendAPIKey(ctx, req.Email, req.Name, key.Key); err != nil {
		// The approval stands; the missing email is an operator followup.
		s.logger.Error("Approved key request but delivery email failed",
			zap.String("request_id", id.String()),
			zap.String("api_key_id", key.ID.String()),
			zap.String("email", req.Email),
			zap.Error(err))
		result.EmailSent = false
	}

	return result, nil
}

// Reject declines a pending request. A request that already reached a
// terminal state is left untouched and reported as a conflict.
func (s *KeyRequestService) Reject(ctx context.Context, id uuid.UUID) (*RejectionResult, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, keyrequest.ErrRequestNotFound) {
			return nil, fmt.Errorf("%w: key request %s", ierr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("repository error loading key request %s: %w", id, err)
	}

	if err := s.requests.MarkRejected(ctx, id); err != nil {
		if errors.Is(err, keyrequest.ErrNotPending) {
			return nil, s.concurrentDecisionError(ctx, id)
		}
		if errors.Is(err, keyrequest.ErrRequestNotFound) {
			return nil, fmt.Errorf("%w: key request %s", ierr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("repository error rejecting key request %s: %w", id, err)
	}

	result := &RejectionResult{RequestID: id, EmailSent: true}

	if err := s.notifier.SendRejection(ctx, req.Email, req.Name); err != nil {
		s.logger.Error("Rejected key request but notification email failed",
			zap.String("request_id", id.String()),
			zap.String("email", req.Email),
			zap.Error(err))
		result.EmailSent = false
	}

	return result, nil
}

// concurrentDecisionError re-reads the request to report which terminal
// state won.
func (s *KeyRequestService) concurrentDecisionError(ctx context.Context, id uuid.UUID) error {
	current, err := s.requests.FindByID(ctx, id)
	if err == nil && current.Status == keyrequest.StatusApproved {
		return fmt.Errorf("%w: request %s", ierr.ErrAlreadyApproved, id)
	}
	return fmt.Errorf("%w: request %s", ierr.ErrAlreadyDecided, id)
}
