package domain

import "math/rand"

// Suit identifies a card suit. Jokers carry their own suit so a multi-deck
// shoe can hold them without colliding with ranked cards.
type Suit string

const (
	SuitSpades   Suit = "S"
	SuitHearts   Suit = "H"
	SuitDiamonds Suit = "D"
	SuitClubs    Suit = "C"
	SuitJoker    Suit = "J"
)

// RankJoker is the rank sentinel for joker cards.
const RankJoker = 0

// Ranks run 1 (ace) through 13 (king).
const (
	RankAce  = 1
	RankKing = 13
)

// Card is an immutable card value. Rank is 1..13, or RankJoker when Suit is
// SuitJoker.
type Card struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

// IsJoker reports whether the card is a joker.
func (c Card) IsJoker() bool {
	return c.Suit == SuitJoker
}

var orderedSuits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// NewDeck returns deckCount standard 52-card decks, each optionally followed
// by two jokers, in a fixed order.
func NewDeck(deckCount int, includeJokers bool) []Card {
	if deckCount < 1 {
		deckCount = 1
	}
	size := deckCount * 52
	if includeJokers {
		size += deckCount * 2
	}
	deck := make([]Card, 0, size)
	for d := 0; d < deckCount; d++ {
		for _, s := range orderedSuits {
			for r := RankAce; r <= RankKing; r++ {
				deck = append(deck, Card{Suit: s, Rank: r})
			}
		}
		if includeJokers {
			deck = append(deck, Card{Suit: SuitJoker, Rank: RankJoker}, Card{Suit: SuitJoker, Rank: RankJoker})
		}
	}
	return deck
}

// NewShuffledDeck returns a freshly shuffled shoe of deckCount decks.
func NewShuffledDeck(rng *rand.Rand, deckCount int, includeJokers bool) []Card {
	deck := NewDeck(deckCount, includeJokers)
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// Deal splits the deck evenly across playerIDs in order. The remainder when
// len(deck) is not divisible by the player count is excluded from play, so
// every hand has exactly len(deck)/len(playerIDs) cards.
func Deal(deck []Card, playerIDs []string) map[string][]Card {
	hands := make(map[string][]Card, len(playerIDs))
	if len(playerIDs) == 0 {
		return hands
	}
	per := len(deck) / len(playerIDs)
	idx := 0
	for _, id := range playerIDs {
		hands[id] = append([]Card{}, deck[idx:idx+per]...)
		idx += per
	}
	return hands
}

// RemoveCards removes toRemove from hand by value, once per occurrence, and
// returns the updated hand. Cards not present are ignored.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}

	return updated
}

// ContainsAll reports whether hand holds every card in cards, counting
// duplicates. A multi-deck shoe can legitimately hold the same card twice.
func ContainsAll(hand []Card, cards []Card) bool {
	if len(cards) == 0 {
		return true
	}
	have := make(map[Card]int, len(hand))
	for _, c := range hand {
		have[c]++
	}
	for _, c := range cards {
		if have[c] == 0 {
			return false
		}
		have[c]--
	}
	return true
}

// CountByRank returns how many cards in the set carry the given rank.
func CountByRank(cards []Card, rank int) int {
	n := 0
	for _, c := range cards {
		if c.Rank == rank {
			n++
		}
	}
	return n
}

// AllMatchRank reports whether every card has the declared rank. Used when a
// challenge reveals the face-down cards of the most recent claim.
func AllMatchRank(cards []Card, rank int) bool {
	for _, c := range cards {
		if c.Rank != rank {
			return false
		}
	}
	return true
}
