package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"bluff/internal/ports"
)

// StorageBanStore persists ban records in Nakama storage under the banned
// player's user id so bans survive module restarts. Records are server-owned:
// clients can neither read nor rewrite them.
type StorageBanStore struct {
	nk runtime.NakamaModule
}

func NewStorageBanStore(nk runtime.NakamaModule) *StorageBanStore {
	return &StorageBanStore{nk: nk}
}

func (s *StorageBanStore) Put(ctx context.Context, rec ports.BanRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ban record: %w", err)
	}

	_, err = s.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      BanCollection,
			Key:             BanKey,
			UserID:          rec.PlayerID,
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write ban record: %w", err)
	}
	return nil
}

func (s *StorageBanStore) Get(ctx context.Context, playerID string) (ports.BanRecord, bool, error) {
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: BanCollection, Key: BanKey, UserID: playerID},
	})
	if err != nil {
		return ports.BanRecord{}, false, fmt.Errorf("failed to read ban record: %w", err)
	}
	if len(objects) == 0 {
		return ports.BanRecord{}, false, nil
	}

	var rec ports.BanRecord
	if err := json.Unmarshal([]byte(objects[0].Value), &rec); err != nil {
		return ports.BanRecord{}, false, fmt.Errorf("failed to unmarshal ban record: %w", err)
	}
	return rec, true, nil
}

func (s *StorageBanStore) Delete(ctx context.Context, playerID string) error {
	err := s.nk.StorageDelete(ctx, []*runtime.StorageDelete{
		{Collection: BanCollection, Key: BanKey, UserID: playerID},
	})
	if err != nil {
		return fmt.Errorf("failed to delete ban record: %w", err)
	}
	return nil
}

func (s *StorageBanStore) List(ctx context.Context) ([]ports.BanRecord, error) {
	var out []ports.BanRecord
	cursor := ""
	for {
		objects, next, err := s.nk.StorageList(ctx, "", "", BanCollection, 100, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to list ban records: %w", err)
		}
		for _, obj := range objects {
			var rec ports.BanRecord
			if err := json.Unmarshal([]byte(obj.Value), &rec); err != nil {
				continue
			}
			out = append(out, rec)
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return out, nil
}

var _ ports.BanStore = (*StorageBanStore)(nil)
