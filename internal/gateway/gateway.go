// Package gateway sends authenticated requests to the RAG backend.
//
// Every outbound call in the client goes through this package. It reads the
// session store immediately before each request, attaches the bearer
// credential when one is present, and translates raw transport outcomes into
// the client's error taxonomy. It is also the single place that reacts to an
// authentication rejection: on a 401 it clears the stored session and fires
// the expiry hook, so chat, upload, and any future protected call share one
// expiry path.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/studyrag/ragchat/internal/session"
)

// Gateway attaches session credentials to backend requests and normalizes
// their outcomes.
type Gateway struct {
	baseURL string
	store   session.Store
	client  *http.Client
	logger  *slog.Logger

	mu        sync.Mutex
	onExpired func()
}

// New creates a Gateway for the backend at baseURL, reading credentials from
// store.
func New(baseURL string, store session.Store, timeout time.Duration, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// OnSessionExpired registers the hook invoked after a 401 has cleared the
// session. The presentation layer uses it to navigate back to the login view.
func (g *Gateway) OnSessionExpired(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onExpired = fn
}

// SendJSON sends a request with an optional JSON payload and decodes the JSON
// response body into out (when out is non-nil).
func (g *Gateway) SendJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request payload: %w", err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	raw, err := g.send(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// SendForm sends a form-encoded POST and decodes the JSON response body into
// out (when out is non-nil). Used by the login exchange.
func (g *Gateway) SendForm(ctx context.Context, path string, form url.Values, out any) error {
	raw, err := g.send(ctx, http.MethodPost, path, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// SendMultipart sends data as a multipart file upload under the given form
// field name.
func (g *Gateway) SendMultipart(ctx context.Context, path, field, filename string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	_, err = g.send(ctx, http.MethodPost, path, mw.FormDataContentType(), &buf)
	return err
}

// send performs one request/response cycle. It is the sole suspension point
// of the client and the sole translator from transport outcomes to the error
// taxonomy.
func (g *Gateway) send(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	sess, err := g.store.Get()
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sess.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("backend unreachable", "method", method, "path", path, "error", err)
		return nil, &UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		g.expireSession(method, path)
		return nil, ErrUnauthorized
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnreachableError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := extractDetail(raw)
		g.logger.Warn("backend request failed",
			"method", method, "path", path, "status", resp.StatusCode, "detail", detail)
		return nil, &RequestError{Status: resp.StatusCode, Detail: detail}
	}

	return raw, nil
}

// expireSession erases the stored credential and notifies the presentation
// layer. The backend's rejection is the only authority on validity; no local
// expiry clock exists.
func (g *Gateway) expireSession(method, path string) {
	if err := g.store.Clear(); err != nil {
		g.logger.Error("failed to clear expired session", "error", err)
	}
	g.logger.Info("session expired, cleared credentials", "method", method, "path", path)

	g.mu.Lock()
	fn := g.onExpired
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func decode(raw []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &MalformedResponseError{Err: err}
	}
	return nil
}

// extractDetail pulls a human-readable message out of an error body. The
// backend uses {"detail": ...}; the stub's helpers use {"error": ...}.
func extractDetail(raw []byte) string {
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Detail != "" {
		return body.Detail
	}
	return body.Error
}
