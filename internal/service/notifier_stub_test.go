package service

import (
	"context"
	"errors"
	"sync"

	"github.com/ndquotes/quote-api/internal/domain/keyrequest"
)

var errMailDown = errors.New("smtp connection refused")

// stubNotifier records every delivery and can be told to fail a single
// method by name.
type stubNotifier struct {
	mu         sync.Mutex
	failMethod string

	apiKeyMails    []apiKeyMail
	rejectionMails []string
	adminAlerts    []string
	digests        int
}

type apiKeyMail struct {
	email  string
	name   string
	rawKey string
}

func (n *stubNotifier) SendAPIKey(ctx context.Context, email, name, rawKey string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failMethod == "sendAPIKey" {
		return errMailDown
	}
	n.apiKeyMails = append(n.apiKeyMails, apiKeyMail{email: email, name: name, rawKey: rawKey})
	return nil
}

func (n *stubNotifier) SendRejection(ctx context.Context, email, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failMethod == "sendRejection" {
		return errMailDown
	}
	n.rejectionMails = append(n.rejectionMails, email)
	return nil
}

func (n *stubNotifier) SendAdminAlert(ctx context.Context, req *keyrequest.KeyRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failMethod == "sendAdminAlert" {
		return errMailDown
	}
	n.adminAlerts = append(n.adminAlerts, req.Email)
	return nil
}

func (n *stubNotifier) SendPendingDigest(ctx context.Context, requests []*keyrequest.KeyRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failMethod == "sendPendingDigest" {
		return errMailDown
	}
	n.digests++
	return nil
}

func (n *stubNotifier) sentAPIKeyMails() []apiKeyMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]apiKeyMail, len(n.apiKeyMails))
	copy(out, n.apiKeyMails)
	return out
}
