package domain

// Status represents the lifecycle stage of a room.
type Status string

const (
	// StatusWaiting is the pre-game state where players can join and ready up.
	StatusWaiting Status = "WAITING"
	// StatusReady means every human in the roster is marked ready.
	StatusReady Status = "READY"
	// StatusPlaying is the active game state.
	StatusPlaying Status = "PLAYING"
	// StatusFinished is the state after a game concludes, before restart or
	// dissolution.
	StatusFinished Status = "FINISHED"
)

// Difficulty tunes how a robot bluffs and challenges.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyNormal Difficulty = "NORMAL"
	DifficultyHard   Difficulty = "HARD"
)

// Claim is a declared (rank, count) pair bound to the exact face-down cards
// the claimant placed. Cards holds the true identities and never leaves the
// server before a challenge resolves.
type Claim struct {
	PlayerID string
	Rank     int
	Count    int
	Cards    []Card

	// TurnPos remembers the claimant's slot in the turn order at play time
	// so a caught lie can reseat them in place.
	TurnPos int
}

// ActionRecord is one entry in the room's action history log.
type ActionRecord struct {
	Seq      int    `json:"seq"`
	PlayerID string `json:"playerId"`
	Kind     string `json:"kind"`
	Detail   string `json:"detail,omitempty"`
}

// Room holds the authoritative state for one room instance. It is owned by a
// single match loop and must never be shared across goroutines.
type Room struct {
	ID         string
	Name       string
	HostID     string
	MaxPlayers int
	Status     Status

	// Roster is the ordered seat list; Names maps ids to display names.
	Roster []string
	Names  map[string]string

	// Ready tracks which humans toggled ready. Robots are always ready.
	Ready map[string]bool

	// Robots maps robot ids to their difficulty.
	Robots map[string]Difficulty

	// Offline tracks humans whose connection dropped without a LEAVE action.
	Offline map[string]bool

	// Hands are owned by the room for the lifetime of a game.
	Hands map[string][]Card

	// Pile is the shared pool of face-down cards at stake.
	Pile      []Card
	LastClaim *Claim

	DeckCount int

	// TurnOrder is the circular sequence of active actors; players leave it
	// when their hand empties.
	TurnOrder   []string
	CurrentID   string
	FinishOrder []string

	History []ActionRecord
}

// NewRoom returns a WAITING room with the host as sole member.
func NewRoom(id, name, hostID, hostName string, maxPlayers int) *Room {
	r := &Room{
		ID:         id,
		Name:       name,
		HostID:     hostID,
		MaxPlayers: maxPlayers,
		Status:     StatusWaiting,
		Roster:     []string{hostID},
		Names:      map[string]string{hostID: hostName},
		Ready:      make(map[string]bool),
		Robots:     make(map[string]Difficulty),
		Offline:    make(map[string]bool),
		Hands:      make(map[string][]Card),
	}
	return r
}

// NewOpenRoom returns a WAITING room with no seats taken. The transport layer
// uses this when the creator joins through the normal join path; the first
// human to join becomes host.
func NewOpenRoom(id, name string, maxPlayers int) *Room {
	return &Room{
		ID:         id,
		Name:       name,
		MaxPlayers: maxPlayers,
		Status:     StatusWaiting,
		Names:      make(map[string]string),
		Ready:      make(map[string]bool),
		Robots:     make(map[string]Difficulty),
		Offline:    make(map[string]bool),
		Hands:      make(map[string][]Card),
	}
}

// InRoster reports whether the id currently holds a seat.
func (r *Room) InRoster(id string) bool {
	for _, pid := range r.Roster {
		if pid == id {
			return true
		}
	}
	return false
}

// IsRobot reports whether the seat belongs to a synthetic player.
func (r *Room) IsRobot(id string) bool {
	_, ok := r.Robots[id]
	return ok
}

// HumanCount returns the number of non-robot seats.
func (r *Room) HumanCount() int {
	n := 0
	for _, id := range r.Roster {
		if !r.IsRobot(id) {
			n++
		}
	}
	return n
}

// AllHumansReady reports whether every human in the roster toggled ready.
// Robots count as always ready.
func (r *Room) AllHumansReady() bool {
	for _, id := range r.Roster {
		if r.IsRobot(id) {
			continue
		}
		if !r.Ready[id] {
			return false
		}
	}
	return true
}

// FirstHuman returns the first non-robot id in roster order, or "".
func (r *Room) FirstHuman() string {
	for _, id := range r.Roster {
		if !r.IsRobot(id) {
			return id
		}
	}
	return ""
}

// NextActive returns the next id in TurnOrder after the given id whose hand
// is non-empty. Returns "" when no such player exists.
func (r *Room) NextActive(after string) string {
	if len(r.TurnOrder) == 0 {
		return ""
	}
	start := -1
	for i, id := range r.TurnOrder {
		if id == after {
			start = i
			break
		}
	}
	// The reference player may already be out of the order (just finished or
	// removed); fall back to scanning from the slot it used to occupy.
	if start == -1 {
		start = len(r.TurnOrder) - 1
	}
	for step := 1; step <= len(r.TurnOrder); step++ {
		id := r.TurnOrder[(start+step)%len(r.TurnOrder)]
		if len(r.Hands[id]) > 0 {
			return id
		}
	}
	return ""
}

// ActiveCount returns the number of turn-order players still holding cards.
func (r *Room) ActiveCount() int {
	n := 0
	for _, id := range r.TurnOrder {
		if len(r.Hands[id]) > 0 {
			n++
		}
	}
	return n
}

// DropFromTurnOrder removes the id from the turn order, preserving the
// circular sequence of the remaining players.
func (r *Room) DropFromTurnOrder(id string) {
	for i, pid := range r.TurnOrder {
		if pid == id {
			r.TurnOrder = append(r.TurnOrder[:i], r.TurnOrder[i+1:]...)
			return
		}
	}
}

// RemoveFromRoster frees the seat and all per-player room state. Turn order
// and hand cleanup is the caller's concern since mid-game departures fold the
// hand into the discard rather than deleting it silently.
func (r *Room) RemoveFromRoster(id string) {
	for i, pid := range r.Roster {
		if pid == id {
			r.Roster = append(r.Roster[:i], r.Roster[i+1:]...)
			break
		}
	}
	delete(r.Ready, id)
	delete(r.Offline, id)
	delete(r.Names, id)
	delete(r.Robots, id)
}

// CardsInPlay returns the total number of cards across all hands and the
// pile. While a game runs this stays constant at dealt-hand total.
func (r *Room) CardsInPlay() int {
	n := len(r.Pile)
	for _, h := range r.Hands {
		n += len(h)
	}
	return n
}

// Record appends an action history entry.
func (r *Room) Record(playerID, kind, detail string) {
	r.History = append(r.History, ActionRecord{
		Seq:      len(r.History) + 1,
		PlayerID: playerID,
		Kind:     kind,
		Detail:   detail,
	})
}

// Label is the room summary advertised for lobby listing queries.
type Label struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	HostName    string `json:"hostName"`
	Open        int    `json:"open"`
}

// ComputeLabel derives the advertised label from room state. Open counts the
// joinable seats; it is zero once a game is in progress.
func ComputeLabel(r *Room) Label {
	open := 0
	if r.Status == StatusWaiting || r.Status == StatusReady {
		open = r.MaxPlayers - len(r.Roster)
		if open < 0 {
			open = 0
		}
	}
	return Label{
		Name:        r.Name,
		Status:      string(r.Status),
		PlayerCount: len(r.Roster),
		MaxPlayers:  r.MaxPlayers,
		HostName:    r.Names[r.HostID],
		Open:        open,
	}
}
