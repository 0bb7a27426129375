package robot

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// IDPrefix marks synthetic player ids so transport code can tell them from
// human session ids at a glance.
const IDPrefix = "robot-"

// namePool provides display names for synthetic players. Names repeat with a
// numeric suffix once the pool is exhausted within a room.
var namePool = []string{
	"Ace Hunter",
	"Bluff Master",
	"Card Shark",
	"Dicey Dan",
	"Eagle Eye",
	"Five Star",
	"Grifter",
	"High Roller",
	"Iron Face",
	"Joker Wild",
	"Poker Face",
	"Wildcard",
}

// NewIdentity returns a fresh robot id and display name.
func NewIdentity(rng *rand.Rand) (id, name string) {
	id = IDPrefix + uuid.NewString()[:8]
	name = namePool[rng.Intn(len(namePool))]
	return id, name
}

// IsRobotID reports whether the id belongs to a synthetic player.
func IsRobotID(id string) bool {
	return strings.HasPrefix(id, IDPrefix)
}

// UniqueName disambiguates a display name against those already in use.
func UniqueName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s %d", name, i)
		if !taken[candidate] {
			return candidate
		}
	}
}
