package robot

import "bluff/internal/domain"

// View is everything a robot is allowed to see when deciding: its own hand
// plus the public room state. Robots never see opponents' hands or the true
// identities of piled cards, so the state machine needs no robot-specific
// code path.
type View struct {
	Hand           []domain.Card
	HasClaim       bool
	OwnClaim       bool
	ClaimRank      int
	ClaimCount     int
	PileCount      int
	OpponentCounts []int
}

// Decision is the move a brain produces. Exactly one of Challenge, Pass, or
// a non-empty Cards set is meaningful; DeclaredRank accompanies Cards.
type Decision struct {
	Challenge    bool
	Pass         bool
	Cards        []domain.Card
	DeclaredRank int
}

// Brain is the interface all robot strategies implement.
type Brain interface {
	Decide(view View) Decision
}

// BuildView assembles the permitted view for a seated robot.
func BuildView(room *domain.Room, robotID string) View {
	v := View{
		Hand:      append([]domain.Card{}, room.Hands[robotID]...),
		PileCount: len(room.Pile),
	}
	if room.LastClaim != nil {
		v.HasClaim = true
		v.OwnClaim = room.LastClaim.PlayerID == robotID
		v.ClaimRank = room.LastClaim.Rank
		v.ClaimCount = room.LastClaim.Count
	}
	for _, id := range room.TurnOrder {
		if id == robotID {
			continue
		}
		if n := len(room.Hands[id]); n > 0 {
			v.OpponentCounts = append(v.OpponentCounts, n)
		}
	}
	return v
}
