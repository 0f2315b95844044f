// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all server and simulation settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// GameConfig holds the fixed-rate simulation settings shared by every match.
// The tick rate is global: there is no per-match rate customization.
type GameConfig struct {
	TickRate    int     // Simulation ticks per second
	FieldWidth  float64 // Play field width in world units
	FieldHeight float64 // Play field height in world units
	ServeDelay  float64 // Seconds between a goal and the next serve
}

// DefaultGame returns the default simulation configuration.
func DefaultGame() GameConfig {
	return GameConfig{
		TickRate:    60, // ~16.67ms per tick
		FieldWidth:  800,
		FieldHeight: 450,
		ServeDelay:  1.0,
	}
}

// GameFromEnv returns simulation configuration with environment overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if w := getEnvFloat("FIELD_WIDTH", 0); w > 0 {
		cfg.FieldWidth = w
	}
	if h := getEnvFloat("FIELD_HEIGHT", 0); h > 0 {
		cfg.FieldHeight = h
	}
	if d := getEnvFloat("SERVE_DELAY", -1); d >= 0 {
		cfg.ServeDelay = d
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int
	CORSOrigins []string

	// InternalToken guards the trusted simulation channel. Empty means the
	// channel accepts only loopback connections.
	InternalToken string
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3000,
		CORSOrigins: []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		},
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = strings.Split(origins, ",")
	}
	if tok := os.Getenv("INTERNAL_TOKEN"); tok != "" {
		cfg.InternalToken = tok
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits controls DoS protection and capacity limits.
type ResourceLimits struct {
	MaxRooms          int // Hard cap on live rooms
	MaxWSConnections  int // Hard cap on total WebSocket connections
	MaxWSPerIP        int // WebSocket connections per IP
	MaxMessagesPerSec int // Inbound client messages per second per connection
	MaxTournamentSize int // Largest allowed tournament roster (power of two)
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxRooms:          1000,
		MaxWSConnections:  500,
		MaxWSPerIP:        10,
		MaxMessagesPerSec: 60,
		MaxTournamentSize: 16,
	}
}

// LimitsFromEnv returns resource limits with environment overrides.
func LimitsFromEnv() ResourceLimits {
	cfg := DefaultLimits()

	if v := getEnvInt("MAX_ROOMS", 0); v > 0 {
		cfg.MaxRooms = v
	}
	if v := getEnvInt("MAX_WS_CONNECTIONS", 0); v > 0 {
		cfg.MaxWSConnections = v
	}
	if v := getEnvInt("MAX_WS_PER_IP", 0); v > 0 {
		cfg.MaxWSPerIP = v
	}

	return cfg
}

// =============================================================================
// EXTERNAL COLLABORATORS
// =============================================================================

// CollaboratorConfig holds endpoints for the external services the core
// talks to. Both are best-effort: failures are logged, never fatal.
type CollaboratorConfig struct {
	ProfileBaseURL string  // Profile/stats service (fire-and-forget results)
	AIServiceURL   string  // AI decision service ("" = local fallback tracker)
	AISampleEvery  float64 // Seconds between AI target refreshes
}

// DefaultCollaborators returns the default collaborator configuration.
func DefaultCollaborators() CollaboratorConfig {
	return CollaboratorConfig{
		ProfileBaseURL: "",
		AIServiceURL:   "",
		AISampleEvery:  1.0,
	}
}

// CollaboratorsFromEnv returns collaborator configuration with environment
// overrides.
func CollaboratorsFromEnv() CollaboratorConfig {
	cfg := DefaultCollaborators()

	if u := os.Getenv("PROFILE_SERVICE_URL"); u != "" {
		cfg.ProfileBaseURL = u
	}
	if u := os.Getenv("AI_SERVICE_URL"); u != "" {
		cfg.AIServiceURL = u
	}
	if v := getEnvFloat("AI_SAMPLE_EVERY", 0); v > 0 {
		cfg.AISampleEvery = v
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Game          GameConfig
	Server        ServerConfig
	Limits        ResourceLimits
	Collaborators CollaboratorConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Game:          GameFromEnv(),
		Server:        ServerFromEnv(),
		Limits:        LimitsFromEnv(),
		Collaborators: CollaboratorsFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
