// Package view decides which top-level view a session is entitled to.
package view

import "github.com/studyrag/ragchat/internal/domain"

// Kind discriminates the two top-level views.
type Kind int

const (
	// Login is shown to unauthenticated sessions.
	Login Kind = iota
	// Protected is the chat application, shown when a token is present.
	Protected
)

// View is the gate's decision. ShowUpload is meaningful only for Protected.
type View struct {
	Kind       Kind
	ShowUpload bool
}

// Compute maps a session to its view. It is pure: callers re-evaluate it
// whenever the session changes (login, logout, expiry-triggered clear).
// An absent token wins over any stale role value.
func Compute(s domain.Session) View {
	if !s.Authenticated() {
		return View{Kind: Login}
	}
	return View{Kind: Protected, ShowUpload: s.IsAdmin()}
}
