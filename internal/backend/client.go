// Package backend is the typed client for the RAG backend's HTTP API.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/studyrag/ragchat/internal/domain"
	"github.com/studyrag/ragchat/internal/gateway"
	"github.com/studyrag/ragchat/internal/session"
)

// Client exposes the backend operations the ragchat client consumes. All
// calls go through the authenticated request gateway; this package never
// inspects transport-level detail itself.
type Client struct {
	gw     *gateway.Gateway
	logger *slog.Logger
}

// New creates a Client on top of gw.
func New(gw *gateway.Gateway, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{gw: gw, logger: logger}
}

// Login exchanges credentials for an access token. The request is sent
// unauthenticated; a present stale token is harmless because the backend
// ignores it on this endpoint.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.gw.SendForm(ctx, "/token", form, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &gateway.MalformedResponseError{Err: fmt.Errorf("token response missing access_token")}
	}
	return out.AccessToken, nil
}

// Authenticate performs the full login exchange: token first, then role,
// both stored together. The token must be stored before the role fetch
// because /users/me requires the bearer credential; a failed role fetch
// rolls the session back so a half login never survives — the store ends
// up holding either both values or neither.
func (c *Client) Authenticate(ctx context.Context, store session.Store, username, password string) error {
	token, err := c.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := store.Set(token, ""); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	role, err := c.Me(ctx)
	if err != nil {
		// The 401 path has already cleared the store; roll back for the
		// other failure kinds too so no role-less token lingers.
		if !errors.Is(err, gateway.ErrUnauthorized) {
			if clearErr := store.Clear(); clearErr != nil {
				c.logger.Error("failed to roll back partial login", "error", clearErr)
			}
		}
		return err
	}

	if err := store.Set(token, role); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Me fetches the role of the currently authenticated user.
func (c *Client) Me(ctx context.Context) (domain.Role, error) {
	var out struct {
		Role domain.Role `json:"role"`
	}
	if err := c.gw.SendJSON(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return "", err
	}
	return out.Role, nil
}

// Register creates a new account with the given role. Server-side rejection
// detail (duplicate username, invalid role) arrives via RequestError.
func (c *Client) Register(ctx context.Context, username, password string, role domain.Role) error {
	payload := struct {
		Username string      `json:"username"`
		Password string      `json:"password"`
		Role     domain.Role `json:"role"`
	}{username, password, role}

	return c.gw.SendJSON(ctx, http.MethodPost, "/register", payload, nil)
}

// Ask submits a question and returns the answer text.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	payload := struct {
		Question string `json:"question"`
	}{question}

	var out struct {
		Answer string `json:"answer"`
	}
	if err := c.gw.SendJSON(ctx, http.MethodPost, "/ask", payload, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

// Upload submits a document for indexing. Requires an admin session; a
// rejection flows back through the gateway's standard expiry path.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) error {
	return c.gw.SendMultipart(ctx, "/upload", "file", filename, data)
}
