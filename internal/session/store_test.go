package session

import (
	"path/filepath"
	"testing"

	"github.com/studyrag/ragchat/internal/domain"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("tok-abc", domain.RoleAdmin); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := s.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Token != "tok-abc" || got.Role != domain.RoleAdmin {
		t.Errorf("Expected {tok-abc admin}, got %+v", got)
	}
}

func TestSQLiteStore_ClearRemovesBoth(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("tok-abc", domain.RoleStudent); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	got, err := s.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Token != "" || got.Role != "" {
		t.Errorf("Expected empty session after Clear, got %+v", got)
	}
	if got.Authenticated() {
		t.Error("Cleared session must not report authenticated")
	}
}

func TestSQLiteStore_ClearIdempotent(t *testing.T) {
	s := newTestStore(t)

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear on empty store failed: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Second Clear failed: %v", err)
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	if err := s.Set("tok-persist", domain.RoleStudent); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Simulates a client restart.
	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get()
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.Token != "tok-persist" {
		t.Errorf("Expected persisted token, got %+v", got)
	}
}

func TestMemStore_RoundTrip(t *testing.T) {
	s := NewMem()

	if err := s.Set("tok", domain.RoleAdmin); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, _ := s.Get()
	if got.Token != "tok" || got.Role != domain.RoleAdmin {
		t.Errorf("Expected {tok admin}, got %+v", got)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	got, _ = s.Get()
	if got.Authenticated() {
		t.Errorf("Expected unauthenticated after Clear, got %+v", got)
	}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return s
}
