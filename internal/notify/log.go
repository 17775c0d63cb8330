package notify

import (
	"context"

	"github.com/ndquotes/quote-api/internal/domain/keyrequest"
	"go.uber.org/zap"
)

// LogNotifier records what would have been sent. Used when SMTP is
// disabled, so local development never needs a mail server.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("LogNotifier")}
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) SendAPIKey(ctx context.Context, email, name, rawKey string) error {
	n.logger.Info("Would send API key email", zap.String("to", email), zap.String("name", name))
	return nil
}

func (n *LogNotifier) SendRejection(ctx context.Context, email, name string) error {
	n.logger.Info("Would send rejection email", zap.String("to", email), zap.String("name", name))
	return nil
}

func (n *LogNotifier) SendAdminAlert(ctx context.Context, req *keyrequest.KeyRequest) error {
	n.logger.Info("Would send admin alert", zap.String("request_id", req.ID.String()))
	return nil
}

func (n *LogNotifier) SendPendingDigest(ctx context.Context, requests []*keyrequest.KeyRequest) error {
	n.logger.Info("Would send pending request digest", zap.Int("pending", len(requests)))
	return nil
}
