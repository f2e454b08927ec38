package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		// PlayURL is where /play sends the chat-bot's entry link.
		PlayURL string `yaml:"play_url"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Game struct {
		// Pointer tunables distinguish "not set" from an explicit zero,
		// so e.g. hint_grant: 0 disables grants rather than snapping back
		// to the default.
		InitialHints     *int   `yaml:"initial_hints"`
		PointsPerCorrect *int   `yaml:"points_per_correct"`
		HintGrant        *int   `yaml:"hint_grant"`
		LeaderboardSize  *int   `yaml:"leaderboard_size"`
		CacheTTL         string `yaml:"cache_ttl"`
		// DegradedStart serves a flagged default session state when the
		// store is unreachable instead of failing the request.
		DegradedStart bool `yaml:"degraded_start"`
	} `yaml:"game"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Rules resolves the game tunables, filling absent values with the defaults
// the original deployment used. Explicitly configured values, zero included,
// are kept as-is.
func (c Config) Rules() Rules {
	return Rules{
		InitialHints:     intOr(c.Game.InitialHints, 3),
		PointsPerCorrect: intOr(c.Game.PointsPerCorrect, 10),
		HintGrant:        intOr(c.Game.HintGrant, 1),
		LeaderboardSize:  intOr(c.Game.LeaderboardSize, 10),
		DegradedStart:    c.Game.DegradedStart,
	}
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

// Rules are the resolved game tunables handed to the service layer.
type Rules struct {
	InitialHints     int
	PointsPerCorrect int
	HintGrant        int
	LeaderboardSize  int
	DegradedStart    bool
}

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
