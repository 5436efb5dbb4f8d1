// Package chat owns the conversation transcript and the lifecycle of each
// question/answer exchange.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/studyrag/ragchat/internal/domain"
	"github.com/studyrag/ragchat/internal/gateway"
)

// FallbackNotice is appended in place of an answer when the exchange fails
// for any reason other than an expired session.
const FallbackNotice = "Sorry, I had trouble connecting to the server. Please check your backend connection."

// Asker is the backend operation the orchestrator drives.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// State is the per-conversation request state.
type State int

const (
	// Idle means no exchange is outstanding; Submit is accepted.
	Idle State = iota
	// Pending means a question is in flight; further Submits are ignored.
	Pending
)

// Step is the deferred network half of a submission. The presentation layer
// runs it off the update loop and feeds the Outcome back into Apply.
type Step func(ctx context.Context) Outcome

// Outcome carries the resolution of one exchange, tagged with the
// conversation generation it belongs to.
type Outcome struct {
	gen    uint64
	Answer string
	Err    error
}

// Orchestrator is a single-writer state machine over one conversation.
type Orchestrator struct {
	asker  Asker
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	gen      uint64
	messages []domain.Message
}

// New creates an orchestrator in the Idle state with an empty conversation.
func New(asker Asker, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{asker: asker, logger: logger}
}

// State returns the current request state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Messages returns a copy of the transcript in display order.
func (o *Orchestrator) Messages() []domain.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// Submit starts an exchange for text. The user message is appended
// immediately, before any network round trip, so the transcript acknowledges
// the input at once. The returned Step performs the ask; its Outcome must be
// handed to Apply.
//
// Empty (after trimming) input and submissions while an exchange is already
// pending are rejected: ok is false and nothing changes.
func (o *Orchestrator) Submit(text string) (step Step, ok bool) {
	question := strings.TrimSpace(text)
	if question == "" {
		return nil, false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == Pending {
		return nil, false
	}

	o.messages = append(o.messages, domain.UserMessage(question))
	o.state = Pending
	gen := o.gen

	return func(ctx context.Context) Outcome {
		answer, err := o.asker.Ask(ctx, question)
		return Outcome{gen: gen, Answer: answer, Err: err}
	}, true
}

// Apply resolves an exchange. An outcome from a superseded generation (the
// conversation was reset while it was in flight) is discarded whole and
// applied is false.
//
// On success the answer is appended; on failure a single fallback assistant
// message is appended so every user message ends up with exactly one paired
// response — except an expired session, where the gateway has already
// cleared the credential and the view is about to be replaced, so no
// fallback is written.
func (o *Orchestrator) Apply(out Outcome) (applied bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if out.gen != o.gen {
		o.logger.Debug("discarding stale exchange outcome", "gen", out.gen, "current", o.gen)
		return false
	}
	o.state = Idle

	switch {
	case out.Err == nil:
		o.messages = append(o.messages, domain.AssistantMessage(out.Answer))
	case errors.Is(out.Err, gateway.ErrUnauthorized):
		o.logger.Info("exchange rejected, session expired")
	default:
		o.logger.Warn("exchange failed", "error", out.Err)
		o.messages = append(o.messages, domain.AssistantMessage(FallbackNotice))
	}
	return true
}

// Reset clears the conversation and returns to Idle unconditionally. Bumping
// the generation soft-cancels any in-flight exchange: its outcome will no
// longer match and Apply will drop it.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = nil
	o.state = Idle
	o.gen++
}
