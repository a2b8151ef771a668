package config

import (
	"testing"

	"github.com/omnilodge/concierge/usecase"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without GEMINI_API_KEY")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "")
	t.Setenv("CONCIERGE_TOOLSET", "")
	t.Setenv("CONCIERGE_STORE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Toolset != usecase.ToolsetFull {
		t.Errorf("expected full toolset by default, got %v", cfg.Toolset)
	}
	if cfg.Store != StoreMongo {
		t.Errorf("expected mongo store by default, got %v", cfg.Store)
	}
}

func TestLoadBasicToolset(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("CONCIERGE_TOOLSET", "basic")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Toolset != usecase.ToolsetBasic {
		t.Errorf("expected basic toolset, got %v", cfg.Toolset)
	}
}

func TestLoadRejectsUnknownToolset(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("CONCIERGE_TOOLSET", "everything")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown toolset")
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("CONCIERGE_TOOLSET", "")
	t.Setenv("CONCIERGE_STORE", "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown store")
	}
}
