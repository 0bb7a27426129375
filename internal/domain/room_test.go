package domain

import "testing"

func newTestRoom() *Room {
	r := NewRoom("room-1", "table one", "alice", "Alice", 4)
	r.Roster = append(r.Roster, "bob", "carol")
	r.Names["bob"] = "Bob"
	r.Names["carol"] = "Carol"
	return r
}

func TestAllHumansReady(t *testing.T) {
	r := newTestRoom()
	r.Robots["carol"] = DifficultyEasy

	if r.AllHumansReady() {
		t.Fatal("nobody is ready yet")
	}
	r.Ready["alice"] = true
	r.Ready["bob"] = true
	if !r.AllHumansReady() {
		t.Fatal("all humans ready, robot should not gate readiness")
	}
}

func TestNextActiveSkipsEmptyHands(t *testing.T) {
	r := newTestRoom()
	r.TurnOrder = []string{"alice", "bob", "carol"}
	r.Hands = map[string][]Card{
		"alice": {{Suit: SuitSpades, Rank: 1}},
		"bob":   {},
		"carol": {{Suit: SuitHearts, Rank: 2}},
	}

	if next := r.NextActive("alice"); next != "carol" {
		t.Fatalf("expected carol (bob is out of cards), got %q", next)
	}
	if next := r.NextActive("carol"); next != "alice" {
		t.Fatalf("expected wrap-around to alice, got %q", next)
	}
}

func TestNextActiveAfterRemovedPlayer(t *testing.T) {
	r := newTestRoom()
	r.TurnOrder = []string{"alice", "bob", "carol"}
	r.Hands = map[string][]Card{
		"alice": {{Suit: SuitSpades, Rank: 1}},
		"bob":   {{Suit: SuitClubs, Rank: 3}},
		"carol": {{Suit: SuitHearts, Rank: 2}},
	}
	r.DropFromTurnOrder("carol")

	// The reference id is no longer in the order; the scan must still land on
	// a live player instead of returning "".
	if next := r.NextActive("carol"); next != "alice" {
		t.Fatalf("expected alice, got %q", next)
	}
}

func TestRemoveFromRosterClearsPerPlayerState(t *testing.T) {
	r := newTestRoom()
	r.Ready["bob"] = true
	r.Offline["bob"] = true

	r.RemoveFromRoster("bob")

	if r.InRoster("bob") {
		t.Fatal("bob still in roster")
	}
	if r.Ready["bob"] || r.Offline["bob"] {
		t.Fatal("per-player state not cleared")
	}
	if len(r.Roster) != 2 {
		t.Fatalf("expected 2 seats left, got %d", len(r.Roster))
	}
}

func TestComputeLabel(t *testing.T) {
	r := newTestRoom()

	label := ComputeLabel(r)
	if label.Open != 1 {
		t.Fatalf("expected 1 open seat, got %d", label.Open)
	}
	if label.HostName != "Alice" {
		t.Fatalf("expected host name Alice, got %q", label.HostName)
	}

	r.Status = StatusPlaying
	if ComputeLabel(r).Open != 0 {
		t.Fatal("playing room must advertise zero open seats")
	}
}

func TestCardsInPlay(t *testing.T) {
	r := newTestRoom()
	r.Hands = map[string][]Card{
		"alice": {{Suit: SuitSpades, Rank: 1}, {Suit: SuitSpades, Rank: 2}},
		"bob":   {{Suit: SuitHearts, Rank: 3}},
	}
	r.Pile = []Card{{Suit: SuitClubs, Rank: 4}}

	if n := r.CardsInPlay(); n != 4 {
		t.Fatalf("expected 4 cards in play, got %d", n)
	}
}
