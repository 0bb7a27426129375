package ports

import (
	"context"
	"time"
)

// BanRecord is the authoritative server-side ban entry. Client-local lockout
// timers are cosmetic; this record is the only source of truth.
type BanRecord struct {
	PlayerID  string    `json:"playerId"`
	Reason    string    `json:"reason"`
	BannedAt  time.Time `json:"bannedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Active reports whether the ban window still covers the given instant.
func (r BanRecord) Active(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// BanStore persists ban records across module restarts.
type BanStore interface {
	Put(ctx context.Context, rec BanRecord) error
	Get(ctx context.Context, playerID string) (BanRecord, bool, error)
	Delete(ctx context.Context, playerID string) error
	List(ctx context.Context) ([]BanRecord, error)
}
