package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type GameConfig struct {
	MinPlayers     int  `json:"min_players"`
	MaxPlayers     int  `json:"max_players"`
	DefaultDecks   int  `json:"default_decks"`
	IncludeJokers  bool `json:"include_jokers"`
	TickRate       int  `json:"tick_rate"`
	EmptyRoomTicks int  `json:"empty_room_ticks"`
	// TurnGraceSeconds is how long an offline player's turn is held before the
	// server acts on their behalf.
	TurnGraceSeconds int `json:"turn_grace_seconds"`
	// Robot "thinking" delay window, in seconds.
	RobotMinDelaySeconds int    `json:"robot_min_delay_seconds"`
	RobotMaxDelaySeconds int    `json:"robot_max_delay_seconds"`
	RobotDifficulty      string `json:"robot_difficulty"`
	// RobotAutoFillDelaySeconds configures how many seconds a solo human lobby
	// waits before a robot is seated. Zero disables auto-fill.
	RobotAutoFillDelaySeconds int    `json:"robot_auto_fill_delay_seconds"`
	AdminSecret               string `json:"admin_secret"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path. Missing
// fields keep their defaults, and BLUFF_ADMIN_SECRET overrides the file value.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		c := defaults()
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		if secret := os.Getenv("BLUFF_ADMIN_SECRET"); secret != "" {
			c.AdminSecret = secret
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, falling back to
// defaults when no config file was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		d := defaults()
		return &d
	}
	return cfg
}

func defaults() GameConfig {
	return GameConfig{
		MinPlayers:                2,
		MaxPlayers:                8,
		DefaultDecks:              1,
		IncludeJokers:             true,
		TickRate:                  2,
		EmptyRoomTicks:            30,
		TurnGraceSeconds:          20,
		RobotMinDelaySeconds:      1,
		RobotMaxDelaySeconds:      4,
		RobotDifficulty:           "NORMAL",
		RobotAutoFillDelaySeconds: 0,
	}
}
