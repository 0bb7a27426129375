package nakama

import (
	"context"
	"database/sql"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"bluff/internal/config"
)

var moduleStart = time.Now()

// InitModule wires RPCs, hooks and the match handler for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("InitModule: Could not load game config, using defaults: %v", err)
	}

	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcIdCreateRoom:      RpcCreateRoom,
		RpcIdListRooms:       RpcListRooms,
		RpcIdQuickMatch:      RpcQuickMatch,
		RpcIdAdminKick:       RpcAdminKick,
		RpcIdAdminBan:        RpcAdminBan,
		RpcIdAdminUnban:      RpcAdminUnban,
		RpcIdAdminListBans:   RpcAdminListBans,
		RpcIdAdminSystemInfo: RpcAdminSystemInfo,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}

	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}
	if err := initializer.RegisterAfterAuthenticateCustom(AfterAuthenticateCustom); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameBluff, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(), nil
	}); err != nil {
		return err
	}

	logger.Info("Bluff Go module loaded.")
	return nil
}
