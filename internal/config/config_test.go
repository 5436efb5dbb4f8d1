package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BackendURL != DefaultBackendURL {
		t.Errorf("Expected default backend URL, got %q", cfg.BackendURL)
	}
	if cfg.HTTPTimeout != 60*time.Second {
		t.Errorf("Expected 60s timeout, got %v", cfg.HTTPTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://rag.example.com")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BackendURL != "https://rag.example.com" {
		t.Errorf("Expected override, got %q", cfg.BackendURL)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("Expected 10s timeout, got %v", cfg.HTTPTimeout)
	}
}

func TestLoad_RejectsBadBackendURL(t *testing.T) {
	t.Setenv("BACKEND_URL", "localhost:8000")

	if _, err := Load(); err == nil {
		t.Error("Expected error for scheme-less backend URL")
	}
}

func TestLoadStub_Defaults(t *testing.T) {
	cfg, err := LoadStub()
	if err != nil {
		t.Fatalf("LoadStub failed: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Expected port 8000, got %q", cfg.Port)
	}
}
