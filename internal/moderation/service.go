package moderation

import (
	"context"
	"errors"
	"time"

	jwt "github.com/form3tech-oss/jwt-go"

	"bluff/internal/ports"
)

var (
	ErrInvalidToken = errors.New("moderation: invalid admin token")
	ErrNotAdmin     = errors.New("moderation: token lacks admin role")
	ErrNotBanned    = errors.New("moderation: player is not banned")
)

// DefaultBanDuration applies when an admin issues a ban without a duration.
const DefaultBanDuration = 24 * time.Hour

// Service owns the ban registry and the admin token check guarding it.
// All durations are server-side; clients never decide when a ban ends.
type Service struct {
	store  ports.BanStore
	secret []byte
	now    func() time.Time
}

func NewService(store ports.BanStore, adminSecret string) *Service {
	return &Service{
		store:  store,
		secret: []byte(adminSecret),
		now:    time.Now,
	}
}

// Ban records a timed ban for the player. A zero duration falls back to
// DefaultBanDuration. Re-banning overwrites the previous record.
func (s *Service) Ban(ctx context.Context, playerID, reason string, d time.Duration) (ports.BanRecord, error) {
	if d <= 0 {
		d = DefaultBanDuration
	}
	now := s.now()
	rec := ports.BanRecord{
		PlayerID:  playerID,
		Reason:    reason,
		BannedAt:  now,
		ExpiresAt: now.Add(d),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return ports.BanRecord{}, err
	}
	return rec, nil
}

// Unban lifts a ban early. Unbanning a player with no active record is an error
// so admin tooling can surface typos.
func (s *Service) Unban(ctx context.Context, playerID string) error {
	_, ok, err := s.store.Get(ctx, playerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotBanned
	}
	return s.store.Delete(ctx, playerID)
}

// CheckBanned reports whether the player is currently banned. Expired records
// are deleted lazily on first sight.
func (s *Service) CheckBanned(ctx context.Context, playerID string) (ports.BanRecord, bool, error) {
	rec, ok, err := s.store.Get(ctx, playerID)
	if err != nil || !ok {
		return ports.BanRecord{}, false, err
	}
	if !rec.Active(s.now()) {
		_ = s.store.Delete(ctx, playerID)
		return ports.BanRecord{}, false, nil
	}
	return rec, true, nil
}

// ListActive returns the bans still in force, dropping expired entries.
func (s *Service) ListActive(ctx context.Context) ([]ports.BanRecord, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := all[:0]
	for _, rec := range all {
		if rec.Active(now) {
			active = append(active, rec)
		}
	}
	return active, nil
}

// VerifyAdminToken checks an HS256 token carrying a "role":"admin" claim.
// Expiry is enforced by the jwt library through the standard exp claim.
func (s *Service) VerifyAdminToken(token string) error {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidToken
	}
	if role, _ := claims["role"].(string); role != "admin" {
		return ErrNotAdmin
	}
	return nil
}

// NewAdminToken mints a short-lived admin token. Exposed for operator tooling
// and tests; production tokens normally come from the ops pipeline.
func (s *Service) NewAdminToken(ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"role": "admin",
		"iat":  s.now().Unix(),
		"exp":  s.now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
