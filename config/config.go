package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"
)

// AITierParams holds the tuning for one AI difficulty tier.
type AITierParams struct {
	ThinkDelayMS int `json:"think_delay_ms"`
}

// AIConfig maps difficulty names to their parameters.
type AIConfig struct {
	Easy   AITierParams `json:"easy"`
	Medium AITierParams `json:"medium"`
	Hard   AITierParams `json:"hard"`
	Expert AITierParams `json:"expert"`
	Hell   AITierParams `json:"hell"`
}

// TierParams returns the parameters for the given difficulty name.
// Unknown difficulties fall back to medium.
func (a AIConfig) TierParams(difficulty string) AITierParams {
	switch difficulty {
	case "easy":
		return a.Easy
	case "medium":
		return a.Medium
	case "hard":
		return a.Hard
	case "expert":
		return a.Expert
	case "hell":
		return a.Hell
	default:
		return a.Medium
	}
}

// Config holds all configurable server parameters.
type Config struct {
	Port           int    `json:"port"`
	Environment    string `json:"environment"`
	RedisURL       string `json:"redis_url"`
	RoomTTLSeconds int    `json:"room_ttl_seconds"`

	// CORSOrigins are the origins accepted for HTTP and websocket upgrades.
	CORSOrigins []string `json:"cors_origins"`

	// Timings of the room sub-protocols, in milliseconds.
	OrderGraceMS  int `json:"order_grace_ms"`  // pause after second seat before ORDER_DECISION_START
	OrderRevealMS int `json:"order_reveal_ms"` // pause between start and ORDER_DECISION_RESULT
	RoundPauseMS  int `json:"round_pause_ms"`  // pause between round resolution and next round

	MaxNameLength int `json:"max_name_length"`

	// ReconnectGraceS is how long a detached seat's snapshot stays
	// rejoinable relative to the room TTL refresh, in seconds.
	ReconnectGraceS int `json:"reconnect_grace_s"`

	AI AIConfig `json:"ai"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Port:            3001,
		Environment:     "development",
		RoomTTLSeconds:  3600,
		CORSOrigins:     []string{"http://localhost:5173"},
		OrderGraceMS:    1000,
		OrderRevealMS:   2000,
		RoundPauseMS:    2500,
		MaxNameLength:   24,
		ReconnectGraceS: 120,
		AI: AIConfig{
			Easy:   AITierParams{ThinkDelayMS: 1400},
			Medium: AITierParams{ThinkDelayMS: 1000},
			Hard:   AITierParams{ThinkDelayMS: 700},
			Expert: AITierParams{ThinkDelayMS: 500},
			Hell:   AITierParams{ThinkDelayMS: 350},
		},
	}
}

// Load reads configuration from an optional config.json file, then applies
// environment variable overrides. Fields not set in either source retain
// their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			log.Printf("Warning: failed to parse config.json: %v", err)
		}
	}

	overrideInt(&cfg.Port, "PORT")
	overrideString(&cfg.Environment, "NODE_ENV")
	overrideString(&cfg.Environment, "APP_ENV")
	overrideString(&cfg.RedisURL, "REDIS_URL")
	overrideInt(&cfg.RoomTTLSeconds, "ROOM_TTL_SECONDS")
	overrideInt(&cfg.OrderGraceMS, "ORDER_GRACE_MS")
	overrideInt(&cfg.OrderRevealMS, "ORDER_REVEAL_MS")
	overrideInt(&cfg.RoundPauseMS, "ROUND_PAUSE_MS")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideInt(&cfg.ReconnectGraceS, "RECONNECT_GRACE_S")
	overrideInt(&cfg.AI.Easy.ThinkDelayMS, "AI_EASY_DELAY_MS")
	overrideInt(&cfg.AI.Medium.ThinkDelayMS, "AI_MEDIUM_DELAY_MS")
	overrideInt(&cfg.AI.Hard.ThinkDelayMS, "AI_HARD_DELAY_MS")
	overrideInt(&cfg.AI.Expert.ThinkDelayMS, "AI_EXPERT_DELAY_MS")
	overrideInt(&cfg.AI.Hell.ThinkDelayMS, "AI_HELL_DELAY_MS")

	if val := os.Getenv("CORS_ORIGINS"); val != "" {
		var origins []string
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.CORSOrigins = origins
		}
	}

	return cfg
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
