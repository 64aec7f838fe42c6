package config

import (
	"os"
	"testing"
	"time"
)

func TestNewValidProvider(t *testing.T) {
	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", settings.LLM.Provider)
	}
}

func TestNewWithAlias(t *testing.T) {
	settings, err := New("claude")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic' (normalized from 'claude'), got %q", settings.LLM.Provider)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("unknown_provider")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestOrchestratorDefaults(t *testing.T) {
	settings, err := New("gemini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Orchestrator.MaxTurns != 10 {
		t.Errorf("expected default 10 turns, got %d", settings.Orchestrator.MaxTurns)
	}
	if settings.Orchestrator.TurnDelay != time.Second {
		t.Errorf("expected default 1s turn delay, got %v", settings.Orchestrator.TurnDelay)
	}
	if settings.Orchestrator.SessionDBPath == "" {
		t.Error("expected default session db path")
	}
}

func TestOrchestratorOverrides(t *testing.T) {
	t.Setenv("ASSIST_MAX_TURNS", "3")
	t.Setenv("ASSIST_TURN_DELAY_MS", "0")
	t.Setenv("ASSIST_SESSION_DB", "/tmp/custom.db")

	settings, err := New("gemini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Orchestrator.MaxTurns != 3 {
		t.Errorf("expected 3 turns, got %d", settings.Orchestrator.MaxTurns)
	}
	if settings.Orchestrator.TurnDelay != 0 {
		t.Errorf("expected zero delay, got %v", settings.Orchestrator.TurnDelay)
	}
	if settings.Orchestrator.SessionDBPath != "/tmp/custom.db" {
		t.Errorf("unexpected session db path %q", settings.Orchestrator.SessionDBPath)
	}
}

func TestAPIKeyForValidProvider(t *testing.T) {
	original := os.Getenv("OPENAI_API_KEY")
	os.Setenv("OPENAI_API_KEY", "test-key")
	defer os.Setenv("OPENAI_API_KEY", original)

	key, err := APIKeyFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "test-key" {
		t.Errorf("expected 'test-key', got %q", key)
	}
}

func TestAPIKeyForMissing(t *testing.T) {
	original := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", original)

	_, err := APIKeyFor("openai")
	if err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestAPIKeyForUnknownProvider(t *testing.T) {
	_, err := APIKeyFor("unknown")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestModelFor(t *testing.T) {
	model, err := ModelFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model == "" {
		t.Error("expected non-empty model")
	}
}

func TestNewWithInvalidEnvVar(t *testing.T) {
	original := os.Getenv("LLM_MAX_TOKENS")
	os.Setenv("LLM_MAX_TOKENS", "not-a-number")
	defer os.Setenv("LLM_MAX_TOKENS", original)

	_, err := New("openai")
	if err == nil {
		t.Error("expected error for invalid LLM_MAX_TOKENS")
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for unknown provider")
		}
	}()
	MustNew("unknown_provider")
}

func TestSupportedProviders(t *testing.T) {
	providers := SupportedProviders()
	if len(providers) == 0 {
		t.Error("expected at least one supported provider")
	}
}
