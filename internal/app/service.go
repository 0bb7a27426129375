package app

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"bluff/internal/domain"
)

// Service contains the bluff game use-cases operating on room state. Every
// method mutates the given room and returns the events to dispatch; callers
// must invoke it from the room's single serialized loop.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a time-seeded
// default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

var (
	ErrNotHost         = errors.New("actor is not room host")
	ErrNotWaiting      = errors.New("room is not waiting for players")
	ErrNotPlaying      = errors.New("room is not in a running game")
	ErrNotFinished     = errors.New("game has not finished")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrRoomFull        = errors.New("room is full")
	ErrGameInProgress  = errors.New("game already in progress")
	ErrUnknownPlayer   = errors.New("player not in room")
	ErrTooFewPlayers   = errors.New("not enough players to start")
	ErrPlayersNotReady = errors.New("not every player is ready")
	ErrNoCards         = errors.New("must play at least one card")
	ErrCardsNotHeld    = errors.New("cards are not in your hand")
	ErrCountMismatch   = errors.New("declared count does not match played cards")
	ErrBadRank         = errors.New("declared rank out of range")
	ErrNoClaim         = errors.New("no claim to act on")
	ErrBadDeckCount    = errors.New("deck count out of range")
	ErrOwnClaim        = errors.New("cannot challenge your own claim")
)

// Join seats a player, or resyncs one who is already seated. Joining twice is
// a safe no-op that re-emits the authoritative state, so a client retrying a
// timed-out join never gets a duplicate seat.
func (s *Service) Join(room *domain.Room, playerID, displayName string) ([]Event, error) {
	if room.InRoster(playerID) {
		room.Offline[playerID] = false
		events := []Event{{
			Kind:       EventPlayerJoined,
			Payload:    PlayerJoinedPayload{PlayerID: playerID, Name: room.Names[playerID], Rejoined: true},
			Recipients: []string{playerID},
		}}
		if hand, ok := room.Hands[playerID]; ok && room.Status == domain.StatusPlaying {
			events = append(events, handEvent(EventHandDealt, playerID, hand))
		}
		return s.withSnapshot(room, events), nil
	}

	if room.Status == domain.StatusPlaying || room.Status == domain.StatusFinished {
		return nil, ErrGameInProgress
	}
	if len(room.Roster) >= room.MaxPlayers {
		return nil, ErrRoomFull
	}

	room.Roster = append(room.Roster, playerID)
	room.Names[playerID] = displayName
	room.Record(playerID, "join", "")

	events := []Event{{
		Kind:    EventPlayerJoined,
		Payload: PlayerJoinedPayload{PlayerID: playerID, Name: displayName},
	}}
	return s.withSnapshot(room, events), nil
}

// Leave removes a player from the room. Mid-game the seat folds: the hand
// leaves play and the turn order skips the player from now on. Host departure
// reassigns the host to the next human in roster order. The caller dissolves
// the room when no humans remain.
func (s *Service) Leave(room *domain.Room, playerID string) ([]Event, error) {
	return s.removePlayer(room, playerID, false, "")
}

// Kick removes the target exactly as Leave, but only the host may do it and
// the target receives a private forced-exit notification distinguishing it
// from a voluntary departure.
func (s *Service) Kick(room *domain.Room, hostID, targetID, reason string) ([]Event, error) {
	if hostID != room.HostID {
		return nil, ErrNotHost
	}
	if !room.InRoster(targetID) {
		return nil, ErrUnknownPlayer
	}
	return s.removePlayer(room, targetID, true, reason)
}

// ForceRemove ejects the target on moderator authority. Unlike Kick it does not
// require the host, so admin tooling can reach into any room.
func (s *Service) ForceRemove(room *domain.Room, targetID, reason string) ([]Event, error) {
	if !room.InRoster(targetID) {
		return nil, ErrUnknownPlayer
	}
	return s.removePlayer(room, targetID, true, reason)
}

func (s *Service) removePlayer(room *domain.Room, playerID string, forced bool, reason string) ([]Event, error) {
	if !room.InRoster(playerID) {
		return nil, ErrUnknownPlayer
	}

	var events []Event
	if forced {
		events = append(events, Event{
			Kind:       EventForcedExit,
			Payload:    ForcedExitPayload{PlayerID: playerID, Reason: reason},
			Recipients: []string{playerID},
		})
	}

	wasCurrent := room.CurrentID == playerID
	// Resolve the successor while the leaver still anchors the circular
	// order; an empty hand makes NextActive skip them.
	delete(room.Hands, playerID)
	successor := room.NextActive(playerID)
	room.DropFromTurnOrder(playerID)
	room.RemoveFromRoster(playerID)
	kind := "leave"
	if forced {
		kind = "kick"
	}
	room.Record(playerID, kind, reason)

	newHost := ""
	if room.HostID == playerID {
		newHost = room.FirstHuman()
		if newHost == "" && len(room.Roster) > 0 {
			newHost = room.Roster[0]
		}
		room.HostID = newHost
	}

	events = append(events, Event{
		Kind:    EventPlayerLeft,
		Payload: PlayerLeftPayload{PlayerID: playerID, Forced: forced, NewHostID: newHost},
	})

	if room.Status == domain.StatusPlaying {
		if wasCurrent {
			room.CurrentID = successor
		}
		// The departed claim stays challengeable only while its owner can be
		// punished; drop it when the claimant walks out.
		if room.LastClaim != nil && room.LastClaim.PlayerID == playerID {
			room.LastClaim = nil
		}
		if room.ActiveCount() <= 1 {
			events = append(events, s.endGame(room)...)
		}
	} else if room.Status == domain.StatusReady && !room.AllHumansReady() {
		room.Status = domain.StatusWaiting
	}

	return s.withSnapshot(room, events), nil
}

// ReadyToggle flips the player's ready flag. Valid only while waiting; the
// room derives READY status when every human is ready and the roster can
// start a game.
func (s *Service) ReadyToggle(room *domain.Room, playerID string) ([]Event, error) {
	if room.Status != domain.StatusWaiting && room.Status != domain.StatusReady {
		return nil, ErrNotWaiting
	}
	if !room.InRoster(playerID) {
		return nil, ErrUnknownPlayer
	}

	room.Ready[playerID] = !room.Ready[playerID]
	room.Record(playerID, "ready", fmt.Sprintf("%t", room.Ready[playerID]))

	if room.AllHumansReady() && len(room.Roster) >= MinPlayersToStart {
		room.Status = domain.StatusReady
	} else {
		room.Status = domain.StatusWaiting
	}

	return s.withSnapshot(room, nil), nil
}

// Start deals a fresh game. Only the host may start, the roster must hold at
// least MinPlayersToStart seats, and every human must be ready (robots are
// always ready). A non-positive deck count falls back to DefaultDeckCount;
// anything above MaxDeckCount is rejected.
func (s *Service) Start(room *domain.Room, hostID string, deckCount int, includeJokers bool) ([]Event, error) {
	if hostID != room.HostID {
		return nil, ErrNotHost
	}
	if room.Status != domain.StatusWaiting && room.Status != domain.StatusReady {
		return nil, ErrGameInProgress
	}
	if len(room.Roster) < MinPlayersToStart {
		return nil, ErrTooFewPlayers
	}
	if !room.AllHumansReady() {
		return nil, ErrPlayersNotReady
	}
	if deckCount < 1 {
		deckCount = DefaultDeckCount
	}
	if deckCount > MaxDeckCount {
		return nil, ErrBadDeckCount
	}

	deck := domain.NewShuffledDeck(s.rng, deckCount, includeJokers)
	room.Hands = domain.Deal(deck, room.Roster)
	room.DeckCount = deckCount
	room.Pile = nil
	room.LastClaim = nil
	room.TurnOrder = append([]string{}, room.Roster...)
	room.CurrentID = room.TurnOrder[0]
	room.FinishOrder = nil
	room.Status = domain.StatusPlaying
	room.Record(hostID, "start", fmt.Sprintf("decks=%d", deckCount))

	handSize := len(room.Hands[room.Roster[0]])
	events := make([]Event, 0, len(room.Roster)+1)
	for _, id := range room.Roster {
		if room.IsRobot(id) {
			continue
		}
		events = append(events, handEvent(EventHandDealt, id, room.Hands[id]))
	}
	events = append(events, Event{
		Kind:    EventGameStarted,
		Payload: GameStartedPayload{FirstTurnID: room.CurrentID, DeckCount: deckCount, HandSize: handSize},
	})

	return s.withSnapshot(room, events), nil
}

// Play moves the given cards face-down into the pile under a declared
// (rank, count) claim. The true identities stay server-side in the claim;
// the broadcast only ever carries the declaration.
func (s *Service) Play(room *domain.Room, playerID string, cards []domain.Card, declaredRank, declaredCount int) ([]Event, error) {
	if room.Status != domain.StatusPlaying {
		return nil, ErrNotPlaying
	}
	if room.CurrentID != playerID {
		return nil, ErrNotYourTurn
	}
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	if declaredCount != len(cards) {
		return nil, ErrCountMismatch
	}
	if declaredRank < domain.RankAce || declaredRank > domain.RankKing {
		return nil, ErrBadRank
	}
	hand := room.Hands[playerID]
	if !domain.ContainsAll(hand, cards) {
		return nil, ErrCardsNotHeld
	}

	turnPos := 0
	for i, id := range room.TurnOrder {
		if id == playerID {
			turnPos = i
			break
		}
	}
	room.Hands[playerID] = domain.RemoveCards(hand, cards)
	room.Pile = append(room.Pile, cards...)
	room.LastClaim = &domain.Claim{
		PlayerID: playerID,
		Rank:     declaredRank,
		Count:    declaredCount,
		Cards:    append([]domain.Card{}, cards...),
		TurnPos:  turnPos,
	}
	room.Record(playerID, "play", fmt.Sprintf("%d x rank %d", declaredCount, declaredRank))

	events := []Event{handEvent(EventHandUpdated, playerID, room.Hands[playerID])}

	// Resolve the successor before any turn-order surgery: the actor's
	// emptied hand already makes NextActive skip them.
	next := room.NextActive(playerID)
	if len(room.Hands[playerID]) == 0 {
		events = append(events, s.markFinished(room, playerID)...)
	}
	room.CurrentID = next
	events = append(events, Event{
		Kind: EventCardsPlayed,
		Payload: CardsPlayedPayload{
			PlayerID:      playerID,
			DeclaredRank:  declaredRank,
			DeclaredCount: declaredCount,
			NextTurnID:    next,
			PileCount:     len(room.Pile),
		},
	})

	if room.ActiveCount() <= 1 {
		events = append(events, s.endGame(room)...)
	}

	return s.withSnapshot(room, events), nil
}

// Pass gives up the turn. Passing is only legal once a claim exists.
func (s *Service) Pass(room *domain.Room, playerID string) ([]Event, error) {
	if room.Status != domain.StatusPlaying {
		return nil, ErrNotPlaying
	}
	if room.CurrentID != playerID {
		return nil, ErrNotYourTurn
	}
	if room.LastClaim == nil {
		return nil, ErrNoClaim
	}

	next := room.NextActive(playerID)
	room.CurrentID = next
	room.Record(playerID, "pass", "")

	events := []Event{{
		Kind:    EventTurnPassed,
		Payload: TurnPassedPayload{PlayerID: playerID, NextTurnID: next},
	}}
	return s.withSnapshot(room, events), nil
}

// Challenge reveals the most recent claim. A false claim sends the whole pile
// to the claimant and the turn to the player after the claimant; a true claim
// sends the pile to the challenger and the turn to the player after the
// challenger. Only the current player may challenge.
func (s *Service) Challenge(room *domain.Room, playerID string) ([]Event, error) {
	if room.Status != domain.StatusPlaying {
		return nil, ErrNotPlaying
	}
	if room.CurrentID != playerID {
		return nil, ErrNotYourTurn
	}
	claim := room.LastClaim
	if claim == nil || len(room.Pile) == 0 {
		return nil, ErrNoClaim
	}
	if claim.PlayerID == playerID {
		return nil, ErrOwnClaim
	}

	claimWasTrue := domain.AllMatchRank(claim.Cards, claim.Rank)
	loser := claim.PlayerID
	if claimWasTrue {
		loser = playerID
	}

	// The entire pile transfers to exactly one party; nothing is duplicated
	// or dropped.
	room.Hands[loser] = append(room.Hands[loser], room.Pile...)
	room.Pile = nil
	revealed := claim.Cards
	room.LastClaim = nil
	room.Record(playerID, "challenge", fmt.Sprintf("claimant=%s true=%t", claim.PlayerID, claimWasTrue))

	var events []Event

	// A claimant who emptied their hand on a lie rejoins play when the pile
	// comes back to them, in their original slot.
	if loser == claim.PlayerID {
		s.unfinish(room, loser, claim.TurnPos)
	}

	next := room.NextActive(loser)
	room.CurrentID = next

	events = append(events, Event{
		Kind: EventChallengeResolved,
		Payload: ChallengeResolvedPayload{
			ChallengerID: playerID,
			ClaimantID:   claim.PlayerID,
			Revealed:     revealed,
			ClaimWasTrue: claimWasTrue,
			LoserID:      loser,
			NextTurnID:   next,
		},
	})
	if !room.IsRobot(loser) {
		events = append(events, handEvent(EventHandUpdated, loser, room.Hands[loser]))
	}

	if room.ActiveCount() <= 1 {
		events = append(events, s.endGame(room)...)
	}

	return s.withSnapshot(room, events), nil
}

// Restart returns a finished room to the waiting state, preserving roster and
// host and clearing every per-game field.
func (s *Service) Restart(room *domain.Room, hostID string) ([]Event, error) {
	if hostID != room.HostID {
		return nil, ErrNotHost
	}
	if room.Status != domain.StatusFinished {
		return nil, ErrNotFinished
	}

	room.Status = domain.StatusWaiting
	room.Hands = make(map[string][]domain.Card)
	room.Pile = nil
	room.LastClaim = nil
	room.TurnOrder = nil
	room.CurrentID = ""
	room.FinishOrder = nil
	room.Ready = make(map[string]bool)
	room.Record(hostID, "restart", "")

	events := []Event{{Kind: EventRoomReset, Payload: struct{}{}}}
	return s.withSnapshot(room, events), nil
}

// AddRobot seats a synthetic player. Host-only, lobby-only.
func (s *Service) AddRobot(room *domain.Room, hostID, robotID, name string, difficulty domain.Difficulty) ([]Event, error) {
	if hostID != room.HostID {
		return nil, ErrNotHost
	}
	if room.Status != domain.StatusWaiting && room.Status != domain.StatusReady {
		return nil, ErrGameInProgress
	}
	if len(room.Roster) >= room.MaxPlayers {
		return nil, ErrRoomFull
	}

	room.Roster = append(room.Roster, robotID)
	room.Names[robotID] = name
	room.Robots[robotID] = difficulty
	room.Record(hostID, "robot_add", robotID)

	// A robot joining can complete readiness if all humans were already set.
	if room.AllHumansReady() && len(room.Roster) >= MinPlayersToStart {
		room.Status = domain.StatusReady
	}

	events := []Event{{
		Kind:    EventPlayerJoined,
		Payload: PlayerJoinedPayload{PlayerID: robotID, Name: name},
	}}
	return s.withSnapshot(room, events), nil
}

// RemoveRobot unseats a robot. Removing one that no longer exists is a no-op,
// not an error. Host-only, lobby-only.
func (s *Service) RemoveRobot(room *domain.Room, hostID, robotID string) ([]Event, error) {
	if hostID != room.HostID {
		return nil, ErrNotHost
	}
	if room.Status != domain.StatusWaiting && room.Status != domain.StatusReady {
		return nil, ErrGameInProgress
	}
	if !room.IsRobot(robotID) {
		return s.withSnapshot(room, nil), nil
	}
	return s.removePlayer(room, robotID, false, "")
}

// Disconnect marks a human as offline. In the lobby the seat is released
// immediately; mid-game the seat is held for the transport layer's grace
// period before ForceTurn or Leave applies.
func (s *Service) Disconnect(room *domain.Room, playerID string) ([]Event, error) {
	if !room.InRoster(playerID) {
		return nil, ErrUnknownPlayer
	}
	if room.Status != domain.StatusPlaying {
		return s.removePlayer(room, playerID, false, "")
	}
	room.Offline[playerID] = true
	room.Record(playerID, "offline", "")
	return s.withSnapshot(room, nil), nil
}

// ForceTurn resolves a stalled turn for an offline player: pass when a claim
// exists, otherwise play the first card with a truthful claim so the room
// never waits on a dead connection.
func (s *Service) ForceTurn(room *domain.Room, playerID string) ([]Event, error) {
	if room.Status != domain.StatusPlaying || room.CurrentID != playerID {
		return s.withSnapshot(room, nil), nil
	}
	if room.LastClaim != nil {
		return s.Pass(room, playerID)
	}
	hand := room.Hands[playerID]
	if len(hand) == 0 {
		room.CurrentID = room.NextActive(playerID)
		return s.withSnapshot(room, nil), nil
	}
	card := hand[0]
	rank := card.Rank
	if card.IsJoker() {
		// A joker cannot be claimed truthfully; declare an ace.
		rank = domain.RankAce
	}
	return s.Play(room, playerID, []domain.Card{card}, rank, 1)
}

// Dissolve emits the final notifications for a room that is being torn down.
func (s *Service) Dissolve(room *domain.Room, reason string) []Event {
	room.Record("", "dissolve", reason)
	return []Event{{
		Kind:    EventRoomDissolved,
		Payload: RoomDissolvedPayload{Reason: reason},
	}}
}

// BuildSnapshot assembles the public authoritative view: hand counts only,
// claims without card identities.
func BuildSnapshot(room *domain.Room) Snapshot {
	snap := Snapshot{
		RoomID:      room.ID,
		Name:        room.Name,
		HostID:      room.HostID,
		Status:      room.Status,
		MaxPlayers:  room.MaxPlayers,
		PileCount:   len(room.Pile),
		CurrentID:   room.CurrentID,
		TurnOrder:   append([]string{}, room.TurnOrder...),
		FinishOrder: append([]string{}, room.FinishOrder...),
	}
	if room.LastClaim != nil {
		snap.LastClaim = &ClaimPublic{
			PlayerID: room.LastClaim.PlayerID,
			Rank:     room.LastClaim.Rank,
			Count:    room.LastClaim.Count,
		}
	}
	for _, id := range room.Roster {
		snap.Players = append(snap.Players, PlayerPublic{
			ID:        id,
			Name:      room.Names[id],
			Ready:     room.Ready[id] || room.IsRobot(id),
			Robot:     room.IsRobot(id),
			Online:    !room.Offline[id],
			HandCount: len(room.Hands[id]),
			Finished:  isFinished(room, id),
		})
	}
	return snap
}

func isFinished(room *domain.Room, id string) bool {
	for _, fid := range room.FinishOrder {
		if fid == id {
			return true
		}
	}
	return false
}

func (s *Service) markFinished(room *domain.Room, playerID string) []Event {
	room.FinishOrder = append(room.FinishOrder, playerID)
	room.DropFromTurnOrder(playerID)
	return []Event{{
		Kind:    EventPlayerFinished,
		Payload: PlayerFinishedPayload{PlayerID: playerID, Place: len(room.FinishOrder)},
	}}
}

// unfinish reverses a finished-in-place marking when a challenged lie hands
// the pile back to a player who had emptied their hand.
func (s *Service) unfinish(room *domain.Room, playerID string, turnPos int) {
	for i, id := range room.FinishOrder {
		if id != playerID {
			continue
		}
		room.FinishOrder = append(room.FinishOrder[:i], room.FinishOrder[i+1:]...)
		if turnPos > len(room.TurnOrder) {
			turnPos = len(room.TurnOrder)
		}
		room.TurnOrder = append(room.TurnOrder[:turnPos], append([]string{playerID}, room.TurnOrder[turnPos:]...)...)
		return
	}
}

// endGame closes the room's game and builds the ranking: finish order first,
// then remaining players by ascending hand size.
func (s *Service) endGame(room *domain.Room) []Event {
	room.Status = domain.StatusFinished

	ranking := make([]RankEntry, 0, len(room.Roster))
	for i, id := range room.FinishOrder {
		ranking = append(ranking, RankEntry{PlayerID: id, Place: i + 1})
	}
	remaining := make([]string, 0, len(room.TurnOrder))
	remaining = append(remaining, room.TurnOrder...)
	sort.SliceStable(remaining, func(i, j int) bool {
		return len(room.Hands[remaining[i]]) < len(room.Hands[remaining[j]])
	})
	for _, id := range remaining {
		ranking = append(ranking, RankEntry{
			PlayerID:  id,
			Place:     len(ranking) + 1,
			CardsLeft: len(room.Hands[id]),
		})
	}

	room.CurrentID = ""
	room.Record("", "game_end", "")

	return []Event{{
		Kind:    EventGameEnded,
		Payload: GameEndedPayload{Ranking: ranking},
	}}
}

// withSnapshot appends the authoritative snapshot broadcast to the event
// list. Every successful mutation publishes one.
func (s *Service) withSnapshot(room *domain.Room, events []Event) []Event {
	return append(events, Event{Kind: EventRoomState, Payload: BuildSnapshot(room)})
}

func handEvent(kind EventKind, playerID string, hand []domain.Card) Event {
	return Event{
		Kind:       kind,
		Payload:    HandPayload{PlayerID: playerID, Hand: append([]domain.Card{}, hand...)},
		Recipients: []string{playerID},
	}
}
