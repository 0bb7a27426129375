package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"bluff/internal/app"
	"bluff/internal/config"
	"bluff/internal/domain"
)

// RpcCreateRoom creates a new room match and returns its ID. The caller joins
// through the normal match join flow and becomes host as first human in.
//
// Payload: {"name": "...", "maxPlayers": 4} (both optional)
// Returns: {"matchId": "..."}
func RpcCreateRoom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	request := CreateRoomRequest{MaxPlayers: config.GetGameConfig().MaxPlayers}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			return "", runtime.NewError("malformed create_room payload", 3)
		}
	}
	if request.MaxPlayers < app.MinRoomCapacity || request.MaxPlayers > app.MaxRoomCapacity {
		return "", runtime.NewError(fmt.Sprintf("maxPlayers must be between %d and %d", app.MinRoomCapacity, app.MaxRoomCapacity), 3)
	}

	params := map[string]interface{}{
		"name":        request.Name,
		"max_players": request.MaxPlayers,
	}
	matchId, err := nk.MatchCreate(ctx, MatchNameBluff, params)
	if err != nil {
		logger.Error("RpcCreateRoom [User:%s]: Failed to create match: %v", userId, err)
		return "", runtime.NewError("failed to create room", 13)
	}

	logger.Info("RpcCreateRoom [User:%s]: Created room %s", userId, matchId)
	response, err := json.Marshal(CreateRoomResponse{MatchID: matchId})
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(response), nil
}

// RpcListRooms returns the current room directory from match labels. It also
// serves as the HTTP fallback for clients without a live socket.
//
// Payload: (Optional) Unused for now.
// Returns: {"rooms": [...]}
func RpcListRooms(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	limit := 100
	authoritative := true
	minSize := 0
	maxSize := app.MaxRoomCapacity

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, "*")
	if err != nil {
		logger.Error("RpcListRooms: Failed to list matches: %v", err)
		return "", runtime.NewError("failed to list rooms", 13)
	}

	rooms := make([]RoomInfo, 0, len(matches))
	for _, match := range matches {
		var label domain.Label
		if err := json.Unmarshal([]byte(match.GetLabel().GetValue()), &label); err != nil {
			// Matches from other handlers carry foreign labels, skip them.
			continue
		}
		rooms = append(rooms, RoomInfo{
			MatchID:     match.GetMatchId(),
			Name:        label.Name,
			Status:      label.Status,
			PlayerCount: label.PlayerCount,
			MaxPlayers:  label.MaxPlayers,
			HostName:    label.HostName,
			Open:        label.Open,
		})
	}

	response, err := json.Marshal(ListRoomsResponse{Rooms: rooms})
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(response), nil
}

// RpcQuickMatch finds a waiting room with an open seat, creating one when none
// exists, and returns the match ID to join.
//
// Payload: (Optional) Unused for now.
// Returns: {"matchId": "..."}
func RpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	limit := 1
	authoritative := true
	minSize := 0
	maxSize := app.MaxRoomCapacity
	labelQuery := fmt.Sprintf("+label.%s:>=1", MatchLabelKey_OpenSeats)

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, labelQuery)
	if err != nil {
		logger.Error("RpcQuickMatch [User:%s]: Failed to list matches: %v", userId, err)
		return "", runtime.NewError("failed to find room", 13)
	}

	matchId := ""
	if len(matches) > 0 {
		matchId = matches[0].MatchId
		logger.Info("RpcQuickMatch [User:%s]: Found existing room %s", userId, matchId)
	} else {
		matchId, err = nk.MatchCreate(ctx, MatchNameBluff, nil)
		if err != nil {
			logger.Error("RpcQuickMatch [User:%s]: Failed to create match: %v", userId, err)
			return "", runtime.NewError("failed to create room", 13)
		}
		logger.Info("RpcQuickMatch [User:%s]: Created new room %s", userId, matchId)
	}

	response, err := json.Marshal(CreateRoomResponse{MatchID: matchId})
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(response), nil
}
