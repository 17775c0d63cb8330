package notify

import (
	"context"

	"github.com/ndquotes/quote-api/internal/domain/keyrequest"
)

// Notifier delivers transactional mail for the key workflow. Every method
// is best-effort from the caller's point of view: a delivery failure must
// never undo the state transition that triggered it.
type Notifier interface {
	// SendAPIKey delivers a freshly issued raw key to the requester.
	SendAPIKey(ctx context.Context, email, name, rawKey string) error
	// SendRejection tells the requester their application was declined.
	SendRejection(ctx context.Context, email, name string) error
	// SendAdminAlert tells the operator a new request is waiting.
	SendAdminAlert(ctx context.Context, req *keyrequest.KeyRequest) error
	// SendPendingDigest summarizes requests still awaiting a decision.
	SendPendingDigest(ctx context.Context, requests []*keyrequest.KeyRequest) error
}
