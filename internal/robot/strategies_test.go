package robot

import (
	"math/rand"
	"testing"

	"bluff/internal/domain"
)

func card(suit domain.Suit, rank int) domain.Card {
	return domain.Card{Suit: suit, Rank: rank}
}

// decisionIsLegal checks the decision against the view the way the state
// machine would: passing requires a claim, played cards must come from the
// hand, and the declared rank must be in range.
func decisionIsLegal(view View, d Decision) bool {
	if d.Challenge {
		return view.HasClaim
	}
	if d.Pass {
		return view.HasClaim
	}
	if len(d.Cards) == 0 {
		return false
	}
	if d.DeclaredRank < domain.RankAce || d.DeclaredRank > domain.RankKing {
		return false
	}
	return domain.ContainsAll(view.Hand, d.Cards)
}

func sampleHand() []domain.Card {
	return []domain.Card{
		card(domain.SuitSpades, 3),
		card(domain.SuitHearts, 3),
		card(domain.SuitClubs, 7),
		card(domain.SuitDiamonds, 11),
		card(domain.SuitJoker, domain.RankJoker),
	}
}

func TestDecisionsAreAlwaysLegal(t *testing.T) {
	views := []View{
		{Hand: sampleHand()},
		{Hand: sampleHand(), HasClaim: true, ClaimRank: 3, ClaimCount: 2, PileCount: 2, OpponentCounts: []int{5, 9}},
		{Hand: sampleHand(), HasClaim: true, ClaimRank: 9, ClaimCount: 5, PileCount: 8, OpponentCounts: []int{1}},
		{Hand: []domain.Card{card(domain.SuitJoker, domain.RankJoker)}},
	}

	for _, difficulty := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyNormal, domain.DifficultyHard} {
		brain := NewBrain(difficulty, rand.New(rand.NewSource(11)))
		for vi, view := range views {
			for i := 0; i < 200; i++ {
				d := brain.Decide(view)
				if !decisionIsLegal(view, d) {
					t.Fatalf("%s produced illegal decision %+v for view %d", difficulty, d, vi)
				}
			}
		}
	}
}

func TestLeadDeclaresInRange(t *testing.T) {
	brain := NewBrain(domain.DifficultyHard, rand.New(rand.NewSource(3)))
	view := View{Hand: sampleHand()}

	for i := 0; i < 500; i++ {
		d := brain.Decide(view)
		if d.DeclaredRank < domain.RankAce || d.DeclaredRank > domain.RankKing {
			t.Fatalf("declared rank %d out of range", d.DeclaredRank)
		}
	}
}

func TestFollowDeclaresClaimRank(t *testing.T) {
	brain := NewBrain(domain.DifficultyNormal, rand.New(rand.NewSource(5)))
	view := View{Hand: sampleHand(), HasClaim: true, ClaimRank: 3, ClaimCount: 1, PileCount: 1}

	for i := 0; i < 200; i++ {
		d := brain.Decide(view)
		if len(d.Cards) > 0 && d.DeclaredRank != 3 {
			t.Fatalf("follow-up declared rank %d, expected the claimed 3", d.DeclaredRank)
		}
	}
}

func TestHardChallengesImplausibleClaims(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	brain := NewBrain(domain.DifficultyHard, rng)

	// The robot holds three 7s; a claim of four more 7s is nearly impossible
	// in a single deck. The hard brain should challenge most of the time.
	hand := []domain.Card{
		card(domain.SuitSpades, 7),
		card(domain.SuitHearts, 7),
		card(domain.SuitClubs, 7),
		card(domain.SuitDiamonds, 2),
	}
	view := View{Hand: hand, HasClaim: true, ClaimRank: 7, ClaimCount: 4, PileCount: 4}

	challenges := 0
	for i := 0; i < 1000; i++ {
		if brain.Decide(view).Challenge {
			challenges++
		}
	}
	if challenges < 700 {
		t.Fatalf("hard brain challenged only %d/1000 implausible claims", challenges)
	}
}

func TestEasyChallengesRarely(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	brain := NewBrain(domain.DifficultyEasy, rng)

	hand := sampleHand()
	hand = append(hand, card(domain.SuitSpades, 4), card(domain.SuitHearts, 4))
	view := View{Hand: hand, HasClaim: true, ClaimRank: 5, ClaimCount: 1, PileCount: 1}

	challenges := 0
	for i := 0; i < 1000; i++ {
		if brain.Decide(view).Challenge {
			challenges++
		}
	}
	// Base rate 0.2 with no situational bumps for a seven-card hand.
	if challenges > 350 {
		t.Fatalf("easy brain challenged %d/1000 ordinary claims", challenges)
	}
}

func TestNewAgentIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := NewAgent(domain.DifficultyEasy, rng)
	b := NewAgent(domain.DifficultyEasy, rng)

	if !IsRobotID(a.ID) || !IsRobotID(b.ID) {
		t.Fatalf("robot ids missing prefix: %s %s", a.ID, b.ID)
	}
	if a.ID == b.ID {
		t.Fatal("robot ids must be unique")
	}
	if a.Name == "" {
		t.Fatal("robot needs a display name")
	}
}

func TestUniqueName(t *testing.T) {
	taken := map[string]bool{"Wildcard": true, "Wildcard 2": true}
	if got := UniqueName("Wildcard", taken); got != "Wildcard 3" {
		t.Fatalf("expected Wildcard 3, got %q", got)
	}
	if got := UniqueName("Grifter", taken); got != "Grifter" {
		t.Fatalf("expected Grifter untouched, got %q", got)
	}
}

func TestBuildViewHidesOpponentHands(t *testing.T) {
	room := domain.NewRoom("r", "t", "alice", "Alice", 4)
	room.Roster = append(room.Roster, "robot-1")
	room.Robots["robot-1"] = domain.DifficultyEasy
	room.TurnOrder = []string{"alice", "robot-1"}
	room.Hands = map[string][]domain.Card{
		"alice":   {card(domain.SuitSpades, 1), card(domain.SuitSpades, 2)},
		"robot-1": {card(domain.SuitHearts, 9)},
	}
	room.Pile = []domain.Card{card(domain.SuitClubs, 5)}
	room.LastClaim = &domain.Claim{PlayerID: "alice", Rank: 5, Count: 1, Cards: room.Pile}

	view := BuildView(room, "robot-1")
	if len(view.Hand) != 1 || view.Hand[0].Rank != 9 {
		t.Fatalf("robot sees wrong hand: %+v", view.Hand)
	}
	if !view.HasClaim || view.ClaimRank != 5 {
		t.Fatalf("claim summary missing: %+v", view)
	}
	if len(view.OpponentCounts) != 1 || view.OpponentCounts[0] != 2 {
		t.Fatalf("opponent counts wrong: %v", view.OpponentCounts)
	}
}
