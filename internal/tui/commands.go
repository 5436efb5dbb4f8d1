package tui

import (
	"context"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studyrag/ragchat/internal/chat"
	"github.com/studyrag/ragchat/internal/domain"
	"github.com/studyrag/ragchat/internal/upload"
)

const requestTimeout = 90 * time.Second

// SessionExpiredMsg is sent from the gateway's expiry hook when a 401 has
// cleared the session. Exported so main can wire the hook to program.Send.
type SessionExpiredMsg struct{}

type loginDoneMsg struct{ err error }

type registerDoneMsg struct{ err error }

type askResolvedMsg struct{ out chat.Outcome }

type uploadResolvedMsg struct{ out upload.Outcome }

type fileReadMsg struct {
	name string
	data []byte
	err  error
}

// loginCmd runs the login exchange off the update loop. The flow itself —
// token then role, with rollback on a half login — lives on backend.Client.
func (m Model) loginCmd(username, password string) tea.Cmd {
	store, api := m.store, m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return loginDoneMsg{err: api.Authenticate(ctx, store, username, password)}
	}
}

func (m Model) registerCmd(username, password string, role domain.Role) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return registerDoneMsg{err: api.Register(ctx, username, password, role)}
	}
}

func askCmd(step chat.Step) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return askResolvedMsg{out: step(ctx)}
	}
}

func uploadCmd(step upload.Step) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return uploadResolvedMsg{out: step(ctx)}
	}
}

func readFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		return fileReadMsg{name: path, data: data, err: err}
	}
}
