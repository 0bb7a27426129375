package integration

import (
	"math/rand"
	"testing"

	"bluff/internal/app"
	"bluff/internal/domain"
	"bluff/internal/robot"
)

// table drives a full game in process: humans act through scripted policies,
// robots through their real agents, all through the same service entry points
// the transport layer uses.
type table struct {
	t      *testing.T
	svc    *app.Service
	room   *domain.Room
	agents map[string]*robot.Agent
	total  int // cards dealt, for conservation checks
}

func newTable(t *testing.T, seed int64, humans ...string) *table {
	t.Helper()
	svc := app.NewService(rand.New(rand.NewSource(seed)))
	room := domain.NewOpenRoom("room-1", "Integration", 8)
	for _, id := range humans {
		if _, err := svc.Join(room, id, id); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	room.HostID = room.FirstHuman()
	return &table{t: t, svc: svc, room: room, agents: map[string]*robot.Agent{}}
}

func (tb *table) addRobot(difficulty domain.Difficulty, rng *rand.Rand) {
	tb.t.Helper()
	agent := robot.NewAgent(difficulty, rng)
	if _, err := tb.svc.AddRobot(tb.room, tb.room.HostID, agent.ID, agent.Name, agent.Difficulty); err != nil {
		tb.t.Fatalf("add robot: %v", err)
	}
	tb.agents[agent.ID] = agent
}

func (tb *table) start(deckCount int, jokers bool) {
	tb.t.Helper()
	for _, id := range tb.room.Roster {
		if tb.room.IsRobot(id) {
			continue
		}
		if _, err := tb.svc.ReadyToggle(tb.room, id); err != nil {
			tb.t.Fatalf("ready %s: %v", id, err)
		}
	}
	if _, err := tb.svc.Start(tb.room, tb.room.HostID, deckCount, jokers); err != nil {
		tb.t.Fatalf("start: %v", err)
	}
	tb.total = tb.room.CardsInPlay()
}

// checkInvariants asserts the properties that must hold after every action.
func (tb *table) checkInvariants() {
	tb.t.Helper()
	if tb.room.Status != domain.StatusPlaying {
		return
	}
	if got := tb.room.CardsInPlay(); got != tb.total {
		tb.t.Fatalf("card conservation broken: %d in play, dealt %d", got, tb.total)
	}
	current := tb.room.CurrentID
	if !tb.room.InRoster(current) {
		tb.t.Fatalf("current player %s holds no seat", current)
	}
	if len(tb.room.Hands[current]) == 0 {
		tb.t.Fatalf("turn rests on %s who has no cards", current)
	}
	snap := app.BuildSnapshot(tb.room)
	for _, p := range snap.Players {
		if p.HandCount != len(tb.room.Hands[p.ID]) {
			tb.t.Fatalf("snapshot hand count for %s = %d, want %d", p.ID, p.HandCount, len(tb.room.Hands[p.ID]))
		}
	}
}

// stepRobot lets the seated agent act once through the service.
func (tb *table) stepRobot(robotID string) {
	tb.t.Helper()
	agent := tb.agents[robotID]
	decision := agent.Decide(tb.room)

	var err error
	switch {
	case decision.Challenge:
		_, err = tb.svc.Challenge(tb.room, robotID)
	case decision.Pass:
		_, err = tb.svc.Pass(tb.room, robotID)
	default:
		_, err = tb.svc.Play(tb.room, robotID, decision.Cards, decision.DeclaredRank, len(decision.Cards))
	}
	if err != nil {
		tb.t.Fatalf("robot %s produced illegal action: %v", robotID, err)
	}
}

// truthfulLowest plays the player's lowest card declaring its actual rank.
// Jokers are declared as aces, matching the forced-turn policy.
func (tb *table) truthfulLowest(playerID string) {
	tb.t.Helper()
	hand := tb.room.Hands[playerID]
	lowest := hand[0]
	for _, c := range hand[1:] {
		if c.Rank != domain.RankJoker && (lowest.Rank == domain.RankJoker || c.Rank < lowest.Rank) {
			lowest = c
		}
	}
	rank := lowest.Rank
	if rank == domain.RankJoker {
		rank = domain.RankAce
	}
	if _, err := tb.svc.Play(tb.room, playerID, []domain.Card{lowest}, rank, 1); err != nil {
		tb.t.Fatalf("truthful play by %s: %v", playerID, err)
	}
}
