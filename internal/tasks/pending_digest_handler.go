package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/ndquotes/quote-api/internal/domain/keyrequest"
	"github.com/ndquotes/quote-api/internal/notify"
	"go.uber.org/zap"
)

// PendingDigestHandler periodically reminds the operator of requests
// still waiting for a decision, so an approval that never got its email
// (or never happened) does not go unnoticed.
type PendingDigestHandler struct {
	requests keyrequest.Repository
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewPendingDigestHandler(requests keyrequest.Repository, notifier notify.Notifier, logger *zap.Logger) *PendingDigestHandler {
	return &PendingDigestHandler{
		requests: requests,
		notifier: notifier,
		logger:   logger.Named("PendingDigestHandler"),
	}
}

func (h *PendingDigestHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypePendingDigest {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var p PendingDigestPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal pending digest payload", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("invalid payload: %v", err)
	}

	pending, err := h.requests.ListPending(ctx)
	if err != nil {
		h.logger.Error("Failed to list pending key requests for digest", zap.Error(err))
		return fmt.Errorf("repository error listing pending requests: %w", err)
	}

	if len(pending) == 0 {
		h.logger.Debug("No pending key requests, skipping digest")
		return nil
	}

	if err := h.notifier.SendPendingDigest(ctx, pending); err != nil {
		h.logger.Error("Failed to send pending request digest", zap.Int("pending", len(pending)), zap.Error(err))
		return fmt.Errorf("digest delivery failed: %w", err)
	}

	h.logger.Info("Pending key request digest sent", zap.Int("pending", len(pending)))
	return nil
}
