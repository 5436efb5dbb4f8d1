// Package upload owns the lifecycle of a privileged document upload.
package upload

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/studyrag/ragchat/internal/domain"
	"github.com/studyrag/ragchat/internal/gateway"
)

// User-facing status notices.
const (
	NoticeUploading = "Uploading..."
	NoticeSucceeded = "Upload successful and file indexed!"
	NoticeFailed    = "Error uploading file."
)

// Uploader is the backend operation the orchestrator drives.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) error
}

// Step is the deferred network half of an upload attempt.
type Step func(ctx context.Context) Outcome

// Outcome carries the resolution of one attempt.
type Outcome struct {
	Err error
}

// Orchestrator tracks the selected file and a single in-flight upload.
// It does not decide who may upload; visibility of the affordance is the
// view gate's job. A backend rejection still flows through the gateway's
// standard expiry path.
type Orchestrator struct {
	uploader Uploader
	logger   *slog.Logger

	mu      sync.Mutex
	attempt domain.UploadAttempt
}

// New creates an orchestrator with no file selected.
func New(uploader Uploader, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{uploader: uploader, logger: logger}
}

// Attempt returns the current attempt state.
func (o *Orchestrator) Attempt() domain.UploadAttempt {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attempt
}

// Select replaces the selected file. Ignored while an upload is in flight.
func (o *Orchestrator) Select(name string, data []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt.Status == domain.UploadInFlight {
		return
	}
	o.attempt = domain.UploadAttempt{Name: name, Data: data, Status: domain.UploadIdle}
}

// Start begins uploading the selected file. It is a no-op (ok false) when no
// file is selected or an attempt is already in flight.
func (o *Orchestrator) Start() (step Step, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.attempt.HasFile() || o.attempt.Status == domain.UploadInFlight {
		return nil, false
	}

	o.attempt.Status = domain.UploadInFlight
	o.attempt.Notice = NoticeUploading
	name, data := o.attempt.Name, o.attempt.Data

	return func(ctx context.Context) Outcome {
		return Outcome{Err: o.uploader.Upload(ctx, name, data)}
	}, true
}

// Apply resolves the in-flight attempt. The selected file is kept on failure
// so the user can retry. The concrete failure kind is logged for diagnostics
// but the user sees only a generic notice.
func (o *Orchestrator) Apply(out Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt.Status != domain.UploadInFlight {
		return
	}

	switch {
	case out.Err == nil:
		o.attempt.Status = domain.UploadSucceeded
		o.attempt.Notice = NoticeSucceeded
		o.logger.Info("document uploaded", "file", o.attempt.Name)
	case errors.Is(out.Err, gateway.ErrUnauthorized):
		o.attempt.Status = domain.UploadFailed
		o.attempt.Notice = NoticeFailed
		o.logger.Info("upload rejected, session expired", "file", o.attempt.Name)
	default:
		o.attempt.Status = domain.UploadFailed
		o.attempt.Notice = NoticeFailed
		o.logger.Warn("upload failed", "file", o.attempt.Name, "error", out.Err)
	}
}
