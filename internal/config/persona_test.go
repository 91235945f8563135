package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPersonaDefaults(t *testing.T) {
	persona, err := LoadPersona("")
	if err != nil {
		t.Fatalf("LoadPersona failed: %v", err)
	}
	if persona.Greeting == "" || persona.SystemPrompt == "" || persona.ResetMessage == "" {
		t.Error("default persona has empty core texts")
	}
	if persona.Errors.Unconfigured == "" || persona.Errors.Upstream == "" {
		t.Error("default persona has empty error texts")
	}
}

func TestLoadPersonaOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	data := "greeting: 你好，我是測試老師！\nerrors:\n  rate_limited: 請稍候\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write persona file: %v", err)
	}

	persona, err := LoadPersona(path)
	if err != nil {
		t.Fatalf("LoadPersona failed: %v", err)
	}
	if persona.Greeting != "你好，我是測試老師！" {
		t.Errorf("greeting not overridden: %q", persona.Greeting)
	}
	if persona.Errors.RateLimited != "請稍候" {
		t.Errorf("rate_limited not overridden: %q", persona.Errors.RateLimited)
	}

	// Fields absent from the file keep their defaults
	defaults := DefaultPersona()
	if persona.SystemPrompt != defaults.SystemPrompt {
		t.Error("system prompt should keep its default")
	}
	if persona.Errors.Network != defaults.Errors.Network {
		t.Error("network text should keep its default")
	}
}

func TestLoadPersonaMissingFile(t *testing.T) {
	if _, err := LoadPersona(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing persona file")
	}
}
