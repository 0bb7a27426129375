package integration

import (
	"math/rand"
	"testing"

	"bluff/internal/domain"
)

// TestTruthfulPlayerBeatsSerialChallenger runs a complete two-player game with
// scripted policies: alice always plays her lowest card truthfully, bob
// challenges every claim. Every challenge resolves true, so bob keeps absorbing
// the pile while alice sheds a card per cycle and wins by truthful finish.
func TestTruthfulPlayerBeatsSerialChallenger(t *testing.T) {
	tb := newTable(t, 1, "alice", "bob")
	tb.start(1, false)

	startingHand := len(tb.room.Hands["alice"])
	cycles := 0
	for tb.room.Status == domain.StatusPlaying {
		cycles++
		if cycles > startingHand+5 {
			t.Fatalf("game did not finish within %d cycles", startingHand+5)
		}

		if tb.room.CurrentID != "alice" {
			t.Fatalf("cycle %d: turn on %s, scripted flow expects alice", cycles, tb.room.CurrentID)
		}
		tb.truthfulLowest("alice")
		tb.checkInvariants()
		if tb.room.Status != domain.StatusPlaying {
			break
		}

		if tb.room.CurrentID != "bob" {
			t.Fatalf("cycle %d: turn on %s after alice's claim, want bob", cycles, tb.room.CurrentID)
		}
		if _, err := tb.svc.Challenge(tb.room, "bob"); err != nil {
			t.Fatalf("cycle %d: bob's challenge: %v", cycles, err)
		}
		tb.checkInvariants()
	}

	if tb.room.Status != domain.StatusFinished {
		t.Fatalf("room status = %s, want FINISHED", tb.room.Status)
	}
	if len(tb.room.FinishOrder) != 1 || tb.room.FinishOrder[0] != "alice" {
		t.Fatalf("finish order = %v, want [alice]", tb.room.FinishOrder)
	}
	// A true claim punishes the challenger, so the turn returned to alice
	// every cycle and she emptied her hand in exactly startingHand plays.
	if cycles != startingHand {
		t.Errorf("cycles = %d, want %d (one shed card per cycle)", cycles, startingHand)
	}
}

// TestRobotTableStaysConsistent seats one scripted human with three robot
// agents and runs the game forward, checking conservation and turn sanity
// after every single action.
func TestRobotTableStaysConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	tb := newTable(t, 99, "alice")
	tb.addRobot(domain.DifficultyEasy, rng)
	tb.addRobot(domain.DifficultyNormal, rng)
	tb.addRobot(domain.DifficultyHard, rng)
	tb.start(1, true)

	const maxActions = 5000
	actions := 0
	for tb.room.Status == domain.StatusPlaying && actions < maxActions {
		actions++
		current := tb.room.CurrentID
		if tb.room.IsRobot(current) {
			tb.stepRobot(current)
		} else {
			// The human mirrors the forced-turn policy: pass on an open
			// claim, otherwise shed the lowest card truthfully.
			if tb.room.LastClaim != nil {
				if _, err := tb.svc.Pass(tb.room, current); err != nil {
					t.Fatalf("action %d: pass: %v", actions, err)
				}
			} else {
				tb.truthfulLowest(current)
			}
		}
		tb.checkInvariants()
	}

	if tb.room.Status == domain.StatusFinished {
		if len(tb.room.FinishOrder) == 0 {
			t.Error("finished game has an empty finish order")
		}
		for _, id := range tb.room.FinishOrder {
			if len(tb.room.Hands[id]) != 0 {
				t.Errorf("finisher %s still holds %d cards", id, len(tb.room.Hands[id]))
			}
		}
	}
}

// TestMidGameDepartureKeepsTableHealthy removes a player mid-game and checks
// the table continues cleanly without them.
func TestMidGameDepartureKeepsTableHealthy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tb := newTable(t, 7, "alice", "bob")
	tb.addRobot(domain.DifficultyNormal, rng)
	tb.start(1, true)

	if _, err := tb.svc.Leave(tb.room, "bob"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if tb.room.InRoster("bob") {
		t.Fatal("bob still seated after leaving")
	}
	tb.total = tb.room.CardsInPlay()

	actions := 0
	for tb.room.Status == domain.StatusPlaying && actions < 2000 {
		actions++
		current := tb.room.CurrentID
		if current == "bob" {
			t.Fatal("turn reached a departed player")
		}
		if tb.room.IsRobot(current) {
			tb.stepRobot(current)
		} else {
			if tb.room.LastClaim != nil {
				if _, err := tb.svc.Pass(tb.room, current); err != nil {
					t.Fatalf("action %d: pass: %v", actions, err)
				}
			} else {
				tb.truthfulLowest(current)
			}
		}
		tb.checkInvariants()
	}
}
