package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	jwt "github.com/form3tech-oss/jwt-go"

	"bluff/internal/ports"
)

type memBanStore struct {
	recs map[string]ports.BanRecord
	err  error
}

func newMemBanStore() *memBanStore {
	return &memBanStore{recs: map[string]ports.BanRecord{}}
}

func (m *memBanStore) Put(_ context.Context, rec ports.BanRecord) error {
	if m.err != nil {
		return m.err
	}
	m.recs[rec.PlayerID] = rec
	return nil
}

func (m *memBanStore) Get(_ context.Context, playerID string) (ports.BanRecord, bool, error) {
	if m.err != nil {
		return ports.BanRecord{}, false, m.err
	}
	rec, ok := m.recs[playerID]
	return rec, ok, nil
}

func (m *memBanStore) Delete(_ context.Context, playerID string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.recs, playerID)
	return nil
}

func (m *memBanStore) List(_ context.Context) ([]ports.BanRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]ports.BanRecord, 0, len(m.recs))
	for _, rec := range m.recs {
		out = append(out, rec)
	}
	return out, nil
}

func newTestService(store ports.BanStore) (*Service, *time.Time) {
	// Frozen clock. Based on wall time because the jwt library checks exp
	// against time.Now internally.
	svc := NewService(store, "test-secret")
	now := time.Now().UTC().Truncate(time.Second)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestBanAndCheck(t *testing.T) {
	store := newMemBanStore()
	svc, now := newTestService(store)
	ctx := context.Background()

	rec, err := svc.Ban(ctx, "p1", "spamming", time.Hour)
	if err != nil {
		t.Fatalf("Ban() error = %v", err)
	}
	if rec.ExpiresAt != now.Add(time.Hour) {
		t.Errorf("ExpiresAt = %v, want %v", rec.ExpiresAt, now.Add(time.Hour))
	}

	got, banned, err := svc.CheckBanned(ctx, "p1")
	if err != nil || !banned {
		t.Fatalf("CheckBanned() = %v, %v, %v, want banned", got, banned, err)
	}
	if got.Reason != "spamming" {
		t.Errorf("Reason = %q, want %q", got.Reason, "spamming")
	}

	if _, banned, _ := svc.CheckBanned(ctx, "p2"); banned {
		t.Error("CheckBanned() reported ban for unbanned player")
	}
}

func TestBanZeroDurationUsesDefault(t *testing.T) {
	store := newMemBanStore()
	svc, now := newTestService(store)

	rec, err := svc.Ban(context.Background(), "p1", "", 0)
	if err != nil {
		t.Fatalf("Ban() error = %v", err)
	}
	if rec.ExpiresAt != now.Add(DefaultBanDuration) {
		t.Errorf("ExpiresAt = %v, want default window", rec.ExpiresAt)
	}
}

func TestExpiredBanClearsLazily(t *testing.T) {
	store := newMemBanStore()
	svc, now := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Ban(ctx, "p1", "afk abuse", time.Minute); err != nil {
		t.Fatalf("Ban() error = %v", err)
	}
	*now = now.Add(2 * time.Minute)

	if _, banned, _ := svc.CheckBanned(ctx, "p1"); banned {
		t.Fatal("CheckBanned() reported expired ban as active")
	}
	if _, ok := store.recs["p1"]; ok {
		t.Error("expired record was not deleted")
	}
}

func TestUnban(t *testing.T) {
	store := newMemBanStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Ban(ctx, "p1", "x", time.Hour); err != nil {
		t.Fatalf("Ban() error = %v", err)
	}
	if err := svc.Unban(ctx, "p1"); err != nil {
		t.Fatalf("Unban() error = %v", err)
	}
	if _, banned, _ := svc.CheckBanned(ctx, "p1"); banned {
		t.Error("player still banned after Unban")
	}
	if err := svc.Unban(ctx, "p1"); !errors.Is(err, ErrNotBanned) {
		t.Errorf("Unban() on clean player = %v, want ErrNotBanned", err)
	}
}

func TestListActiveFiltersExpired(t *testing.T) {
	store := newMemBanStore()
	svc, now := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Ban(ctx, "short", "x", time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Ban(ctx, "long", "x", time.Hour); err != nil {
		t.Fatal(err)
	}
	*now = now.Add(10 * time.Minute)

	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(active) != 1 || active[0].PlayerID != "long" {
		t.Errorf("ListActive() = %v, want only the hour-long ban", active)
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	store := newMemBanStore()
	store.err = errors.New("storage down")
	svc, _ := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Ban(ctx, "p1", "x", time.Hour); err == nil {
		t.Error("Ban() swallowed store error")
	}
	if _, _, err := svc.CheckBanned(ctx, "p1"); err == nil {
		t.Error("CheckBanned() swallowed store error")
	}
	if _, err := svc.ListActive(ctx); err == nil {
		t.Error("ListActive() swallowed store error")
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService(newMemBanStore())

	token, err := svc.NewAdminToken(time.Hour)
	if err != nil {
		t.Fatalf("NewAdminToken() error = %v", err)
	}
	if err := svc.VerifyAdminToken(token); err != nil {
		t.Errorf("VerifyAdminToken() = %v, want nil", err)
	}
}

func TestAdminTokenRejections(t *testing.T) {
	svc, _ := newTestService(newMemBanStore())
	other := NewService(newMemBanStore(), "other-secret")
	other.now = svc.now

	wrongKey, err := other.NewAdminToken(time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not.a.jwt", ErrInvalidToken},
		{"empty", "", ErrInvalidToken},
		{"wrong key", wrongKey, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.VerifyAdminToken(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("VerifyAdminToken() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAdminTokenRequiresRole(t *testing.T) {
	svc, now := newTestService(newMemBanStore())

	// Correctly signed token without the admin role.
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "player",
		"exp":  now.Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.VerifyAdminToken(token); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("VerifyAdminToken() = %v, want ErrNotAdmin", err)
	}
}

func TestExpiredAdminTokenRejected(t *testing.T) {
	svc, _ := newTestService(newMemBanStore())

	token, err := svc.NewAdminToken(-time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.VerifyAdminToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyAdminToken() on expired token = %v, want ErrInvalidToken", err)
	}
}
