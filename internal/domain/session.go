// Package domain contains core domain types for the ragchat client.
package domain

// Role is the privilege level granted to an authenticated user.
type Role string

const (
	// RoleStudent is the default role; it may only ask questions.
	RoleStudent Role = "student"
	// RoleAdmin may additionally upload documents into the knowledge base.
	RoleAdmin Role = "admin"
)

// Session is the credential state held by the client. A zero Session is
// unauthenticated.
type Session struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
}

// Authenticated reports whether the session holds a credential. Role is
// meaningful only when this returns true; a stale role with no token still
// counts as unauthenticated.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// IsAdmin reports whether the session is authenticated with the admin role.
func (s Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == RoleAdmin
}
