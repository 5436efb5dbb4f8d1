// Package tui is the terminal presentation layer. It renders state owned by
// the core packages (session, chat, upload, view) and forwards user intents
// into them; it holds no interaction logic of its own.
package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/studyrag/ragchat/internal/backend"
	"github.com/studyrag/ragchat/internal/chat"
	"github.com/studyrag/ragchat/internal/domain"
	"github.com/studyrag/ragchat/internal/session"
	"github.com/studyrag/ragchat/internal/upload"
	"github.com/studyrag/ragchat/internal/view"
)

type screen int

const (
	screenLogin screen = iota
	screenRegister
	screenChat
)

// form field indexes shared by the login and register screens
const (
	fieldUsername = iota
	fieldPassword
)

// Model is the bubbletea model for the whole client.
type Model struct {
	store   session.Store
	api     *backend.Client
	chat    *chat.Orchestrator
	uploads *upload.Orchestrator
	logger  *slog.Logger

	screen screen
	gate   view.View

	// auth forms
	inputs     []textinput.Model
	focus      int
	regRole    domain.Role
	formErr    string
	formNotice string
	busy       bool // an auth request is outstanding

	// chat
	vp       viewport.Model
	ta       textarea.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	// upload
	picker     filepicker.Model
	pickerOpen bool

	width, height int
	ready         bool
}

// New builds the initial model. The starting screen comes from the view gate
// over whatever session survived in the store.
func New(store session.Store, api *backend.Client, chatOrch *chat.Orchestrator, uploadOrch *upload.Orchestrator, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 64
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	ta := textarea.New()
	ta.Placeholder = "Ask the knowledge base..."
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	fp := filepicker.New()
	fp.AllowedTypes = []string{".txt", ".md", ".pdf"}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(defaultWrapWidth),
	)
	if err != nil {
		logger.Warn("markdown renderer unavailable, falling back to plain text", "error", err)
		renderer = nil
	}

	m := Model{
		store:    store,
		api:      api,
		chat:     chatOrch,
		uploads:  uploadOrch,
		logger:   logger,
		inputs:   []textinput.Model{username, password},
		regRole:  domain.RoleStudent,
		ta:       ta,
		spin:     sp,
		picker:   fp,
		renderer: renderer,
	}
	m.refreshGate()
	return m
}

// Init starts the spinner tick.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// refreshGate re-evaluates the view gate against the store and moves to the
// screen the session is entitled to. Called after every session change.
func (m *Model) refreshGate() {
	sess, err := m.store.Get()
	if err != nil {
		m.logger.Error("failed to read session", "error", err)
		sess = domain.Session{}
	}
	m.gate = view.Compute(sess)

	if m.gate.Kind == view.Login {
		if m.screen == screenChat {
			m.screen = screenLogin
			m.resetForm()
		} else if m.screen != screenRegister {
			m.screen = screenLogin
		}
	} else {
		m.screen = screenChat
	}
	if !m.gate.ShowUpload {
		m.pickerOpen = false
	}
}

func (m *Model) resetForm() {
	for i := range m.inputs {
		m.inputs[i].Reset()
		m.inputs[i].Blur()
	}
	m.focus = fieldUsername
	m.inputs[fieldUsername].Focus()
	m.formErr = ""
	m.formNotice = ""
	m.busy = false
}
