package robot

import (
	"math/rand"
	"time"

	"bluff/internal/domain"
)

// Agent represents one seated synthetic player.
type Agent struct {
	ID         string
	Name       string
	Difficulty domain.Difficulty
	brain      Brain
}

// NewAgent creates an agent with a fresh identity and a brain for the given
// difficulty.
func NewAgent(difficulty domain.Difficulty, rng *rand.Rand) *Agent {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if _, ok := tunings[difficulty]; !ok {
		difficulty = domain.DifficultyNormal
	}
	id, name := NewIdentity(rng)
	return &Agent{
		ID:         id,
		Name:       name,
		Difficulty: difficulty,
		brain:      NewBrain(difficulty, rng),
	}
}

// Decide computes the agent's move from the room state. The returned decision
// is fed through the same app entry points as human input.
func (a *Agent) Decide(room *domain.Room) Decision {
	return a.brain.Decide(BuildView(room, a.ID))
}
