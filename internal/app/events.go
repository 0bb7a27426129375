package app

import "bluff/internal/domain"

// EventKind identifies emitted app events for transport dispatch.
type EventKind string

const (
	EventRoomState         EventKind = "room_state"
	EventPlayerJoined      EventKind = "player_joined"
	EventPlayerLeft        EventKind = "player_left"
	EventHandDealt         EventKind = "hand_dealt"
	EventHandUpdated       EventKind = "hand_updated"
	EventGameStarted       EventKind = "game_started"
	EventCardsPlayed       EventKind = "cards_played"
	EventTurnPassed        EventKind = "turn_passed"
	EventChallengeResolved EventKind = "challenge_resolved"
	EventPlayerFinished    EventKind = "player_finished"
	EventGameEnded         EventKind = "game_ended"
	EventRoomReset         EventKind = "room_reset"
	EventRoomDissolved     EventKind = "room_dissolved"
	EventForcedExit        EventKind = "forced_exit"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // player ids; empty means room broadcast
}

// PlayerPublic is the per-seat view safe to broadcast: hand sizes only, never
// hand contents.
type PlayerPublic struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Ready     bool   `json:"ready"`
	Robot     bool   `json:"robot"`
	Online    bool   `json:"online"`
	HandCount int    `json:"handCount"`
	Finished  bool   `json:"finished"`
}

// ClaimPublic is the broadcastable view of the unresolved claim.
type ClaimPublic struct {
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"`
	Count    int    `json:"count"`
}

// Snapshot is the complete authoritative room view published after every
// mutation. Clients treat it as truth, never as a diff.
type Snapshot struct {
	RoomID      string         `json:"roomId"`
	Name        string         `json:"name"`
	HostID      string         `json:"hostId"`
	Status      domain.Status  `json:"status"`
	MaxPlayers  int            `json:"maxPlayers"`
	Players     []PlayerPublic `json:"players"`
	PileCount   int            `json:"pileCount"`
	LastClaim   *ClaimPublic   `json:"lastClaim,omitempty"`
	CurrentID   string         `json:"currentId,omitempty"`
	TurnOrder   []string       `json:"turnOrder,omitempty"`
	FinishOrder []string       `json:"finishOrder,omitempty"`
}

type PlayerJoinedPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Rejoined bool   `json:"rejoined"`
}

type PlayerLeftPayload struct {
	PlayerID  string `json:"playerId"`
	Forced    bool   `json:"forced"`
	NewHostID string `json:"newHostId,omitempty"`
}

type HandPayload struct {
	PlayerID string        `json:"playerId"`
	Hand     []domain.Card `json:"hand"`
}

type GameStartedPayload struct {
	FirstTurnID string `json:"firstTurnId"`
	DeckCount   int    `json:"deckCount"`
	HandSize    int    `json:"handSize"`
}

type CardsPlayedPayload struct {
	PlayerID      string `json:"playerId"`
	DeclaredRank  int    `json:"declaredRank"`
	DeclaredCount int    `json:"declaredCount"`
	NextTurnID    string `json:"nextTurnId"`
	PileCount     int    `json:"pileCount"`
}

type TurnPassedPayload struct {
	PlayerID   string `json:"playerId"`
	NextTurnID string `json:"nextTurnId"`
}

type ChallengeResolvedPayload struct {
	ChallengerID string        `json:"challengerId"`
	ClaimantID   string        `json:"claimantId"`
	Revealed     []domain.Card `json:"revealed"`
	ClaimWasTrue bool          `json:"claimWasTrue"`
	LoserID      string        `json:"loserId"`
	NextTurnID   string        `json:"nextTurnId"`
}

type PlayerFinishedPayload struct {
	PlayerID string `json:"playerId"`
	Place    int    `json:"place"`
}

// RankEntry is one row of the final ranking: finish order first, then the
// players still holding cards ordered by ascending hand size.
type RankEntry struct {
	PlayerID  string `json:"playerId"`
	Place     int    `json:"place"`
	CardsLeft int    `json:"cardsLeft"`
}

type GameEndedPayload struct {
	Ranking []RankEntry `json:"ranking"`
}

type RoomDissolvedPayload struct {
	Reason string `json:"reason"`
}

type ForcedExitPayload struct {
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"`
}
