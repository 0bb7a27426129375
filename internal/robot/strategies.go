package robot

import (
	"math/rand"

	"bluff/internal/domain"
)

// tuning holds the probability knobs for one difficulty level.
type tuning struct {
	// challengeBase is the base probability of challenging an outstanding
	// claim before situational adjustments.
	challengeBase float64
	// lieWhenFollowing is the chance of bluffing when the hand holds no card
	// of the claimed rank; below it the robot passes instead.
	lieWhenFollowing float64
	// lieWhenLeading is the chance of declaring a false rank on a fresh
	// claim.
	lieWhenLeading float64
	// maxFollowCards caps how many matching cards are dumped on a follow-up.
	maxFollowCards int
	// minLeadCards / maxLeadCards bound the opening play size.
	minLeadCards int
	maxLeadCards int
	// rankAware robots raise the challenge rate using what their own hand
	// implies about the claim.
	rankAware bool
}

var tunings = map[domain.Difficulty]tuning{
	domain.DifficultyEasy: {
		challengeBase:    0.2,
		lieWhenFollowing: 0.3,
		lieWhenLeading:   0.1,
		maxFollowCards:   1,
		minLeadCards:     1,
		maxLeadCards:     2,
	},
	domain.DifficultyNormal: {
		challengeBase:    0.4,
		lieWhenFollowing: 0.5,
		lieWhenLeading:   0.3,
		maxFollowCards:   2,
		minLeadCards:     1,
		maxLeadCards:     3,
	},
	domain.DifficultyHard: {
		challengeBase:    0.6,
		lieWhenFollowing: 0.7,
		lieWhenLeading:   0.5,
		maxFollowCards:   3,
		minLeadCards:     2,
		maxLeadCards:     3,
		rankAware:        true,
	},
}

// strategy implements Brain for one difficulty level.
type strategy struct {
	tune domain.Difficulty
	rng  *rand.Rand
}

// NewBrain returns the strategy for the given difficulty. Unknown values get
// NORMAL behavior.
func NewBrain(difficulty domain.Difficulty, rng *rand.Rand) Brain {
	if _, ok := tunings[difficulty]; !ok {
		difficulty = domain.DifficultyNormal
	}
	return &strategy{tune: difficulty, rng: rng}
}

func (s *strategy) Decide(view View) Decision {
	if len(view.Hand) == 0 {
		return Decision{Pass: true}
	}
	t := tunings[s.tune]

	if view.HasClaim {
		// Challenging your own claim is never legal.
		if !view.OwnClaim && s.rng.Float64() < s.challengeChance(t, view) {
			return Decision{Challenge: true}
		}
		return s.follow(t, view)
	}
	return s.lead(t, view)
}

// challengeChance adjusts the base rate the way the observed play policy
// does: short hands press harder, implausible counts get called.
func (s *strategy) challengeChance(t tuning, view View) float64 {
	p := t.challengeBase

	if len(view.Hand) <= 3 {
		p += 0.2
	}

	mine := domain.CountByRank(view.Hand, view.ClaimRank)
	if view.ClaimCount > 4 || view.ClaimCount+mine > 4 {
		p += 0.3
	}
	if t.rankAware {
		if mine == 0 {
			p += 0.2
		}
		if mine >= 3 {
			p += 0.15
		}
	}
	return p
}

// follow answers an outstanding claim: play matching cards, bluff, or pass.
func (s *strategy) follow(t tuning, view View) Decision {
	matching := cardsOfRank(view.Hand, view.ClaimRank)

	if len(matching) == 0 {
		if s.rng.Float64() >= t.lieWhenFollowing {
			return Decision{Pass: true}
		}
		n := 1 + s.rng.Intn(2)
		if n > len(view.Hand) {
			n = len(view.Hand)
		}
		return Decision{Cards: view.Hand[:n], DeclaredRank: view.ClaimRank}
	}

	n := t.maxFollowCards
	if n > len(matching) {
		n = len(matching)
	}
	return Decision{Cards: matching[:n], DeclaredRank: view.ClaimRank}
}

// lead opens a fresh claim, picking the rank the hand is deepest in and
// sometimes declaring a nearby false rank instead.
func (s *strategy) lead(t tuning, view View) Decision {
	rank := s.bestLeadRank(view.Hand)
	pool := cardsOfRank(view.Hand, rank)

	n := t.minLeadCards + s.rng.Intn(t.maxLeadCards-t.minLeadCards+1)
	if n > len(pool) {
		n = len(pool)
	}
	if n == 0 {
		// Hand is all jokers; lead one and declare an ace.
		return Decision{Cards: view.Hand[:1], DeclaredRank: domain.RankAce}
	}

	declared := rank
	if s.rng.Float64() < t.lieWhenLeading {
		declared = s.nearbyRank(rank)
	}
	return Decision{Cards: pool[:n], DeclaredRank: declared}
}

// bestLeadRank returns the most common non-joker rank in the hand; harder
// levels always exploit depth, easier levels pick at random.
func (s *strategy) bestLeadRank(hand []domain.Card) int {
	counts := make(map[int]int)
	for _, c := range hand {
		if c.IsJoker() {
			continue
		}
		counts[c.Rank]++
	}
	if len(counts) == 0 {
		return domain.RankAce
	}

	if s.tune == domain.DifficultyEasy {
		ranks := make([]int, 0, len(counts))
		for r := range counts {
			ranks = append(ranks, r)
		}
		return ranks[s.rng.Intn(len(ranks))]
	}

	best, bestN := 0, 0
	for r := domain.RankAce; r <= domain.RankKing; r++ {
		if counts[r] > bestN {
			best, bestN = r, counts[r]
		}
	}
	return best
}

// nearbyRank picks a false rank. Hard robots stay within two steps of the
// truth so the claim stays plausible against card-counting opponents.
func (s *strategy) nearbyRank(actual int) int {
	if s.tune == domain.DifficultyHard {
		for tries := 0; tries < 8; tries++ {
			delta := s.rng.Intn(5) - 2
			r := actual + delta
			if r >= domain.RankAce && r <= domain.RankKing && r != actual {
				return r
			}
		}
	}
	for {
		r := domain.RankAce + s.rng.Intn(domain.RankKing)
		if r != actual {
			return r
		}
	}
}

func cardsOfRank(hand []domain.Card, rank int) []domain.Card {
	var out []domain.Card
	for _, c := range hand {
		if c.Rank == rank {
			out = append(out, c)
		}
	}
	return out
}
