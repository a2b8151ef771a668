// Package config loads runtime configuration from the environment. A
// local .env file is honored in development; real deployments set the
// variables directly.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/omnilodge/concierge/usecase"
)

// StoreKind selects the booking store backend.
type StoreKind string

const (
	StoreMongo  StoreKind = "mongo"
	StoreMemory StoreKind = "memory"
)

// Config is everything the process needs to start.
type Config struct {
	Port string

	GeminiAPIKey string
	LiveModel    string
	LiveVoice    string
	Toolset      usecase.Toolset

	Store         StoreKind
	MongoURI      string
	MongoDatabase string

	// ComposeEmails enables Gemini-drafted confirmation emails; off
	// means the canned template.
	ComposeEmails bool
}

// Load reads the environment, honoring a .env file when present.
// GEMINI_API_KEY is the one hard requirement.
func Load() (*Config, error) {
	// Missing .env is fine; variables may come from the real environment.
	_ = godotenv.Load()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	cfg := &Config{
		Port:          envOr("PORT", "8080"),
		GeminiAPIKey:  apiKey,
		LiveModel:     os.Getenv("CONCIERGE_LIVE_MODEL"),
		LiveVoice:     os.Getenv("CONCIERGE_LIVE_VOICE"),
		Toolset:       usecase.ToolsetFull,
		Store:         StoreKind(envOr("CONCIERGE_STORE", string(StoreMongo))),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: os.Getenv("MONGODB_DATABASE"),
		ComposeEmails: os.Getenv("CONCIERGE_COMPOSE_EMAILS") == "true",
	}

	switch os.Getenv("CONCIERGE_TOOLSET") {
	case "", "full":
	case "basic":
		cfg.Toolset = usecase.ToolsetBasic
	default:
		return nil, fmt.Errorf("CONCIERGE_TOOLSET must be full or basic, got %q", os.Getenv("CONCIERGE_TOOLSET"))
	}

	switch cfg.Store {
	case StoreMongo, StoreMemory:
	default:
		return nil, fmt.Errorf("CONCIERGE_STORE must be mongo or memory, got %q", cfg.Store)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
