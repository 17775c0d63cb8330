package keyrequest

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// KeyRequest is an application for an API key. Once a request leaves
// pending it never transitions again; APIKeyID is set exactly when the
// request becomes approved.
type KeyRequest struct {
	ID        uuid.UUID  `db:"id"`
	Name      string     `db:"name"`
	Email     string     `db:"email"`
	Usage     string     `db:"usage"`
	Status    Status     `db:"status"`
	APIKeyID  *uuid.UUID `db:"api_key_id"`
	CreatedAt time.Time  `db:"created_at"`
}
