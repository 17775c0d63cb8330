package apikey

import (
	"time"

	"github.com/google/uuid"
)

// SecretBytes is the amount of entropy behind every issued key. The raw
// secret is the hex encoding of this many random bytes.
const SecretBytes = 32

const DefaultPermission = "read"

type APIKey struct {
	ID          uuid.UUID  `db:"id"`
	Key         string     `db:"key"`
	Name        string     `db:"name"`
	Description string     `db:"description"`
	UsageCount  int64      `db:"usage_count"`
	LastUsedAt  *time.Time `db:"last_used_at"`
	Active      bool       `db:"active"`
	Permissions []string   `db:"permissions"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}
