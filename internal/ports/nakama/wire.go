package nakama

import (
	"bluff/internal/domain"
)

// Client command payloads. All match data is JSON.

type StartGameRequest struct {
	DeckCount     int  `json:"deckCount"`
	IncludeJokers bool `json:"includeJokers"`
}

type PlayCardsRequest struct {
	Cards         []domain.Card `json:"cards"`
	DeclaredRank  int           `json:"declaredRank"`
	DeclaredCount int           `json:"declaredCount"`
}

type AddRobotRequest struct {
	Difficulty string `json:"difficulty"`
}

type RemoveRobotRequest struct {
	RobotID string `json:"robotId"`
}

type ChatRequest struct {
	Text string `json:"text"`
}

type KickPlayerRequest struct {
	TargetID string `json:"targetId"`
	Reason   string `json:"reason"`
}

// Server event envelope used on OpNotification: Type carries the app event
// kind, Data the event payload. Snapshots, hands, challenge results and game
// end reports ride their own op codes with the payload sent bare.
type Notification struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ChatMessage is relayed as-is and never persisted.
type ChatMessage struct {
	SenderID string `json:"senderId"`
	Sender   string `json:"sender"`
	Text     string `json:"text"`
}

type GameError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPC payloads.

type CreateRoomRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
}

type CreateRoomResponse struct {
	MatchID string `json:"matchId"`
}

type RoomInfo struct {
	MatchID     string `json:"matchId"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	HostName    string `json:"hostName"`
	Open        int    `json:"open"`
}

type ListRoomsResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}

// Admin RPC payloads. Token is verified against the moderation secret.

type AdminKickRequest struct {
	Token   string `json:"token"`
	MatchID string `json:"matchId"`
	UserID  string `json:"userId"`
	Reason  string `json:"reason"`
}

type AdminBanRequest struct {
	Token           string `json:"token"`
	MatchID         string `json:"matchId,omitempty"`
	UserID          string `json:"userId"`
	Reason          string `json:"reason"`
	DurationMinutes int    `json:"durationMinutes"`
}

type AdminUnbanRequest struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type AdminListBansRequest struct {
	Token string `json:"token"`
}

type AdminSystemInfoRequest struct {
	Token string `json:"token"`
}

// moderation signal sent into a match via MatchSignal.
type ModerationSignal struct {
	Action string `json:"action"` // "kick" or "ban"
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}
