package app

// MinPlayersToStart defines the minimum roster size required to start a game.
// Keep this centralized so tests or local runs can adjust the rule without
// touching multiple call sites.
const MinPlayersToStart = 2

// Room capacity bounds enforced at creation time.
const (
	MinRoomCapacity = 2
	MaxRoomCapacity = 8
)

// DefaultDeckCount is used when a start request does not specify one.
const DefaultDeckCount = 1

// MaxDeckCount caps the shoe size a host may request. Dealing an oversized
// shoe would balloon the match state, so anything larger is rejected outright.
const MaxDeckCount = 8
