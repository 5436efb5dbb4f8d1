package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/studyrag/ragchat/internal/domain"
	"github.com/studyrag/ragchat/internal/gateway"
	"github.com/studyrag/ragchat/internal/session"
	"github.com/studyrag/ragchat/internal/stub"
)

// newClient wires a Client to a live stub backend over real HTTP.
func newClient(t *testing.T) (*Client, *stub.Server, *session.MemStore) {
	t.Helper()
	backend := stub.New(nil)
	srv := httptest.NewServer(backend.Router())
	t.Cleanup(srv.Close)

	store := session.NewMem()
	gw := gateway.New(srv.URL, store, 5*time.Second, nil)
	return New(gw, nil), backend, store
}

func TestLogin_ThenMe(t *testing.T) {
	client, backend, store := newClient(t)
	if err := backend.Seed("root", "toor", domain.RoleAdmin); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	token, err := client.Login(context.Background(), "root", "toor")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Fatal("Login returned an empty token")
	}

	// The role fetch needs the credential in the store, as the real login
	// flow stores the token before asking for the role.
	if err := store.Set(token, ""); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	role, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if role != domain.RoleAdmin {
		t.Errorf("Expected admin, got %q", role)
	}
}

func TestAuthenticate_StoresTokenAndRole(t *testing.T) {
	client, backend, store := newClient(t)
	if err := backend.Seed("root", "toor", domain.RoleAdmin); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	if err := client.Authenticate(context.Background(), store, "root", "toor"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	sess, err := store.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !sess.Authenticated() {
		t.Fatal("Expected an authenticated session")
	}
	if sess.Role != domain.RoleAdmin {
		t.Errorf("Expected admin role stored alongside the token, got %q", sess.Role)
	}
}

func TestAuthenticate_BadCredentialsLeaveStoreEmpty(t *testing.T) {
	client, backend, store := newClient(t)
	if err := backend.Seed("alice", "secret", domain.RoleStudent); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	err := client.Authenticate(context.Background(), store, "alice", "wrong")
	if !errors.Is(err, gateway.ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}

	sess, _ := store.Get()
	if sess.Authenticated() {
		t.Errorf("Expected empty store after failed login, got %+v", sess)
	}
}

func TestAuthenticate_RoleFetchFailureRollsBack(t *testing.T) {
	// A backend whose token exchange works but whose role endpoint is broken.
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"access_token": "tok-half"}`))
	})
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := session.NewMem()
	client := New(gateway.New(srv.URL, store, 5*time.Second, nil), nil)

	err := client.Authenticate(context.Background(), store, "root", "toor")
	var reqErr *gateway.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected RequestError from the role fetch, got %v", err)
	}

	sess, getErr := store.Get()
	if getErr != nil {
		t.Fatalf("Get failed: %v", getErr)
	}
	if sess.Authenticated() {
		t.Errorf("Half login survived: %+v", sess)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	client, backend, _ := newClient(t)
	if err := backend.Seed("alice", "secret", domain.RoleStudent); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	_, err := client.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, gateway.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for bad credentials, got %v", err)
	}
}

func TestRegister_SurfacesDetail(t *testing.T) {
	client, backend, _ := newClient(t)
	if err := backend.Seed("alice", "secret", domain.RoleStudent); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	err := client.Register(context.Background(), "alice", "pw", domain.RoleStudent)
	var reqErr *gateway.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected RequestError, got %v", err)
	}
	if reqErr.Detail != "username already registered" {
		t.Errorf("Unexpected detail: %q", reqErr.Detail)
	}
}

func TestAsk_ReturnsAnswer(t *testing.T) {
	client, backend, _ := newClient(t)
	backend.SeedDocument("rag.md", "Retrieval-Augmented Generation grounds answers in retrieved context.")

	answer, err := client.Ask(context.Background(), "What is retrieval-augmented generation?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer == "" {
		t.Error("Expected a non-empty answer")
	}
}

func TestUpload_FullFlow(t *testing.T) {
	client, backend, store := newClient(t)
	if err := backend.Seed("root", "toor", domain.RoleAdmin); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	token, err := client.Login(context.Background(), "root", "toor")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := store.Set(token, domain.RoleAdmin); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := client.Upload(context.Background(), "notes.txt", []byte("gophers everywhere")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
}

func TestUpload_ExpiredTokenClearsSession(t *testing.T) {
	client, _, store := newClient(t)
	if err := store.Set("forged-token", domain.RoleAdmin); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	err := client.Upload(context.Background(), "notes.txt", []byte("x"))
	if !errors.Is(err, gateway.ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}

	sess, _ := store.Get()
	if sess.Authenticated() {
		t.Error("Session survived a backend rejection")
	}
}
