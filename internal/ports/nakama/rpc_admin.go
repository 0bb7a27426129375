package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	goruntime "runtime"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"bluff/internal/app"
	"bluff/internal/config"
	"bluff/internal/moderation"
	"bluff/internal/ports"
)

func moderationService(nk runtime.NakamaModule) *moderation.Service {
	return moderation.NewService(NewStorageBanStore(nk), config.GetGameConfig().AdminSecret)
}

// RpcAdminKick ejects a player from a room. The removal is delivered through a
// match signal so it serializes with the room's own action handling.
//
// Payload: {"token": "...", "matchId": "...", "userId": "...", "reason": "..."}
func RpcAdminKick(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var request AdminKickRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		return "", runtime.NewError("malformed admin_kick payload", 3)
	}
	svc := moderationService(nk)
	if err := svc.VerifyAdminToken(request.Token); err != nil {
		return "", runtime.NewError("admin authorization failed", 7)
	}
	if request.MatchID == "" || request.UserID == "" {
		return "", runtime.NewError("matchId and userId are required", 3)
	}

	signal, _ := json.Marshal(ModerationSignal{Action: "kick", UserID: request.UserID, Reason: request.Reason})
	result, err := nk.MatchSignal(ctx, request.MatchID, string(signal))
	if err != nil {
		logger.Error("RpcAdminKick: Signal to match %s failed: %v", request.MatchID, err)
		return "", runtime.NewError("failed to reach room", 13)
	}
	if result != "ok" {
		return "", runtime.NewError(result, 9)
	}

	logger.Info("RpcAdminKick: %s kicked from %s.", request.UserID, request.MatchID)
	return `{"status":"ok"}`, nil
}

// RpcAdminBan records a timed ban, force-logs the player out, and when a match
// ID is supplied ejects them from that room as well. Future authentications
// are rejected by the after-auth hooks until the ban expires.
//
// Payload: {"token": "...", "userId": "...", "reason": "...",
//	"durationMinutes": 60, "matchId": "..."}
func RpcAdminBan(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var request AdminBanRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		return "", runtime.NewError("malformed admin_ban payload", 3)
	}
	svc := moderationService(nk)
	if err := svc.VerifyAdminToken(request.Token); err != nil {
		return "", runtime.NewError("admin authorization failed", 7)
	}
	if request.UserID == "" {
		return "", runtime.NewError("userId is required", 3)
	}

	rec, err := svc.Ban(ctx, request.UserID, request.Reason, time.Duration(request.DurationMinutes)*time.Minute)
	if err != nil {
		logger.Error("RpcAdminBan: Failed to record ban for %s: %v", request.UserID, err)
		return "", runtime.NewError("failed to record ban", 13)
	}

	// Invalidate live sessions so the ban takes effect immediately.
	if err := nk.SessionLogout(request.UserID, "", ""); err != nil {
		logger.Warn("RpcAdminBan: Session logout for %s failed: %v", request.UserID, err)
	}

	if request.MatchID != "" {
		signal, _ := json.Marshal(ModerationSignal{Action: "ban", UserID: request.UserID, Reason: request.Reason})
		if _, err := nk.MatchSignal(ctx, request.MatchID, string(signal)); err != nil {
			logger.Warn("RpcAdminBan: Signal to match %s failed: %v", request.MatchID, err)
		}
	}

	logger.Info("RpcAdminBan: %s banned until %s (%s).", request.UserID, rec.ExpiresAt.Format(time.RFC3339), request.Reason)
	response, err := json.Marshal(rec)
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(response), nil
}

// RpcAdminUnban lifts a ban early.
//
// Payload: {"token": "...", "userId": "..."}
func RpcAdminUnban(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var request AdminUnbanRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		return "", runtime.NewError("malformed admin_unban payload", 3)
	}
	svc := moderationService(nk)
	if err := svc.VerifyAdminToken(request.Token); err != nil {
		return "", runtime.NewError("admin authorization failed", 7)
	}

	if err := svc.Unban(ctx, request.UserID); err != nil {
		if err == moderation.ErrNotBanned {
			return "", runtime.NewError("player is not banned", 5)
		}
		logger.Error("RpcAdminUnban: Failed for %s: %v", request.UserID, err)
		return "", runtime.NewError("failed to lift ban", 13)
	}

	logger.Info("RpcAdminUnban: Ban lifted for %s.", request.UserID)
	return `{"status":"ok"}`, nil
}

// RpcAdminListBans returns all bans currently in force.
//
// Payload: {"token": "..."}
func RpcAdminListBans(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var request AdminListBansRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		return "", runtime.NewError("malformed admin_list_bans payload", 3)
	}
	svc := moderationService(nk)
	if err := svc.VerifyAdminToken(request.Token); err != nil {
		return "", runtime.NewError("admin authorization failed", 7)
	}

	bans, err := svc.ListActive(ctx)
	if err != nil {
		logger.Error("RpcAdminListBans: %v", err)
		return "", runtime.NewError("failed to list bans", 13)
	}
	if bans == nil {
		bans = []ports.BanRecord{}
	}

	response, err := json.Marshal(map[string]interface{}{"bans": bans})
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(response), nil
}

// RpcAdminSystemInfo reports module health for operator dashboards.
//
// Payload: {"token": "..."}
func RpcAdminSystemInfo(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var request AdminSystemInfoRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		return "", runtime.NewError("malformed admin_system_info payload", 3)
	}
	svc := moderationService(nk)
	if err := svc.VerifyAdminToken(request.Token); err != nil {
		return "", runtime.NewError("admin authorization failed", 7)
	}

	minSize := 0
	maxSize := app.MaxRoomCapacity
	matches, err := nk.MatchList(ctx, 100, true, "", &minSize, &maxSize, "*")
	if err != nil {
		logger.Error("RpcAdminSystemInfo: Match list failed: %v", err)
		return "", runtime.NewError("failed to inspect rooms", 13)
	}

	var mem goruntime.MemStats
	goruntime.ReadMemStats(&mem)

	info := map[string]interface{}{
		"uptimeSeconds":  int64(time.Since(moduleStart).Seconds()),
		"roomCount":      len(matches),
		"goroutines":     goruntime.NumGoroutine(),
		"heapAllocBytes": mem.HeapAlloc,
	}
	response, err := json.Marshal(info)
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(response), nil
}
