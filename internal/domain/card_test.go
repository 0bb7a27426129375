package domain

import (
	"math/rand"
	"testing"
)

func TestNewDeckSize(t *testing.T) {
	tests := []struct {
		name          string
		deckCount     int
		includeJokers bool
		expected      int
	}{
		{name: "single deck", deckCount: 1, includeJokers: false, expected: 52},
		{name: "single deck with jokers", deckCount: 1, includeJokers: true, expected: 54},
		{name: "double deck", deckCount: 2, includeJokers: false, expected: 104},
		{name: "double deck with jokers", deckCount: 2, includeJokers: true, expected: 108},
		{name: "zero clamps to one", deckCount: 0, includeJokers: false, expected: 52},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deck := NewDeck(tt.deckCount, tt.includeJokers)
			if len(deck) != tt.expected {
				t.Fatalf("expected %d cards, got %d", tt.expected, len(deck))
			}
		})
	}
}

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck(1, true)

	jokers := 0
	ranks := make(map[int]int)
	for _, c := range deck {
		if c.IsJoker() {
			jokers++
			if c.Rank != RankJoker {
				t.Fatalf("joker with rank %d", c.Rank)
			}
			continue
		}
		ranks[c.Rank]++
	}

	if jokers != 2 {
		t.Fatalf("expected 2 jokers, got %d", jokers)
	}
	for r := RankAce; r <= RankKing; r++ {
		if ranks[r] != 4 {
			t.Fatalf("rank %d appears %d times, expected 4", r, ranks[r])
		}
	}
}

func TestNewShuffledDeckPreservesCards(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	shuffled := NewShuffledDeck(rng, 2, true)

	counts := make(map[Card]int)
	for _, c := range shuffled {
		counts[c]++
	}
	for _, c := range NewDeck(2, true) {
		counts[c]--
	}
	for c, n := range counts {
		if n != 0 {
			t.Fatalf("card %v off by %d after shuffle", c, n)
		}
	}
}

func TestDealExcludesRemainder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	deck := NewShuffledDeck(rng, 1, false)

	hands := Deal(deck, []string{"a", "b", "c"})
	for id, hand := range hands {
		if len(hand) != 17 {
			t.Fatalf("player %s got %d cards, expected 17", id, len(hand))
		}
	}
}

func TestDealTwoPlayersSingleDeck(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	deck := NewShuffledDeck(rng, 1, true)

	hands := Deal(deck, []string{"a", "b"})
	if len(hands["a"]) != 27 || len(hands["b"]) != 27 {
		t.Fatalf("expected 27/27 split, got %d/%d", len(hands["a"]), len(hands["b"]))
	}
}

func TestRemoveCards(t *testing.T) {
	hand := []Card{
		{Suit: SuitSpades, Rank: 7},
		{Suit: SuitHearts, Rank: 7},
		{Suit: SuitSpades, Rank: 7}, // duplicate from a second deck
		{Suit: SuitClubs, Rank: 2},
	}

	updated := RemoveCards(hand, []Card{{Suit: SuitSpades, Rank: 7}})
	if len(updated) != 3 {
		t.Fatalf("expected 3 cards left, got %d", len(updated))
	}
	// Only one copy of the duplicate is removed.
	if CountByRank(updated, 7) != 2 {
		t.Fatalf("expected 2 sevens left, got %d", CountByRank(updated, 7))
	}
}

func TestContainsAll(t *testing.T) {
	hand := []Card{
		{Suit: SuitSpades, Rank: 7},
		{Suit: SuitSpades, Rank: 7},
		{Suit: SuitClubs, Rank: 2},
	}

	tests := []struct {
		name     string
		cards    []Card
		expected bool
	}{
		{name: "empty", cards: nil, expected: true},
		{name: "present", cards: []Card{{Suit: SuitClubs, Rank: 2}}, expected: true},
		{name: "duplicate present twice", cards: []Card{{Suit: SuitSpades, Rank: 7}, {Suit: SuitSpades, Rank: 7}}, expected: true},
		{name: "duplicate requested three times", cards: []Card{{Suit: SuitSpades, Rank: 7}, {Suit: SuitSpades, Rank: 7}, {Suit: SuitSpades, Rank: 7}}, expected: false},
		{name: "absent", cards: []Card{{Suit: SuitHearts, Rank: 9}}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsAll(hand, tt.cards); got != tt.expected {
				t.Fatalf("ContainsAll = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestAllMatchRank(t *testing.T) {
	truthful := []Card{{Suit: SuitSpades, Rank: 7}, {Suit: SuitHearts, Rank: 7}}
	if !AllMatchRank(truthful, 7) {
		t.Fatal("expected truthful claim to match")
	}
	lie := []Card{{Suit: SuitSpades, Rank: 7}, {Suit: SuitHearts, Rank: 8}}
	if AllMatchRank(lie, 7) {
		t.Fatal("expected lie to be detected")
	}
}
