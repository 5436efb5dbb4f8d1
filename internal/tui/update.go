package tui

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studyrag/ragchat/internal/domain"
	"github.com/studyrag/ragchat/internal/gateway"
)

// role selector occupies a third focus position on the register screen
const fieldRole = 2

// Update routes messages into the core packages and re-renders from their
// state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.ready = true
		m.refreshTranscript()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case SessionExpiredMsg:
		m.refreshGate()
		return m, nil

	case loginDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.formErr = authErrorText(msg.err)
			return m, nil
		}
		m.resetForm() // don't keep the typed password around
		m.refreshGate()
		m.refreshTranscript()
		return m, nil

	case registerDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.formErr = authErrorText(msg.err)
			return m, nil
		}
		m.screen = screenLogin
		m.resetForm()
		m.formNotice = "Account created. Please sign in."
		return m, nil

	case askResolvedMsg:
		m.chat.Apply(msg.out)
		m.refreshGate()
		m.refreshTranscript()
		return m, nil

	case uploadResolvedMsg:
		m.uploads.Apply(msg.out)
		m.refreshGate()
		return m, nil

	case fileReadMsg:
		if msg.err != nil {
			m.logger.Warn("failed to read selected file", "file", msg.name, "error", msg.err)
			return m, nil
		}
		m.uploads.Select(filepath.Base(msg.name), msg.data)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateComponents(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.screen {
	case screenLogin, screenRegister:
		return m.handleFormKey(msg)
	default:
		return m.handleChatKey(msg)
	}
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fields := len(m.inputs)
	if m.screen == screenRegister {
		fields++ // role selector
	}

	switch msg.String() {
	case "tab", "down":
		m.setFocus((m.focus + 1) % fields)
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focus + fields - 1) % fields)
		return m, nil
	case "ctrl+r":
		// Toggle between the login and register forms.
		if m.screen == screenLogin {
			m.screen = screenRegister
		} else {
			m.screen = screenLogin
		}
		m.resetForm()
		return m, nil
	case "left", "right", " ":
		if m.screen == screenRegister && m.focus == fieldRole {
			if m.regRole == domain.RoleStudent {
				m.regRole = domain.RoleAdmin
			} else {
				m.regRole = domain.RoleStudent
			}
			return m, nil
		}
	case "enter":
		return m.submitForm()
	}

	if m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	username := strings.TrimSpace(m.inputs[fieldUsername].Value())
	password := m.inputs[fieldPassword].Value()
	if username == "" || password == "" {
		m.formErr = "Username and password are required."
		return m, nil
	}

	m.formErr = ""
	m.formNotice = ""
	m.busy = true
	if m.screen == screenRegister {
		return m, m.registerCmd(username, password, m.regRole)
	}
	return m, m.loginCmd(username, password)
}

func (m *Model) setFocus(focus int) {
	m.focus = focus
	for i := range m.inputs {
		if i == focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pickerOpen {
		return m.handlePickerKey(msg)
	}

	switch msg.String() {
	case "enter":
		step, ok := m.chat.Submit(m.ta.Value())
		if !ok {
			return m, nil
		}
		m.ta.Reset()
		m.refreshTranscript()
		return m, askCmd(step)

	case "alt+enter":
		// Newline inside the composer.
		m.ta.InsertString("\n")
		return m, nil

	case "ctrl+n":
		m.chat.Reset()
		m.refreshTranscript()
		return m, nil

	case "ctrl+l":
		if err := m.store.Clear(); err != nil {
			m.logger.Error("logout failed to clear session", "error", err)
		}
		m.refreshGate()
		return m, nil

	case "ctrl+u":
		if !m.gate.ShowUpload {
			return m, nil
		}
		m.pickerOpen = true
		return m, m.picker.Init()

	case "ctrl+s":
		if !m.gate.ShowUpload {
			return m, nil
		}
		step, ok := m.uploads.Start()
		if !ok {
			return m, nil
		}
		return m, uploadCmd(step)

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.pickerOpen = false
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.pickerOpen = false
		return m, tea.Batch(cmd, readFileCmd(path))
	}
	return m, cmd
}

func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.pickerOpen {
		m.picker, cmd = m.picker.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.vp, cmd = m.vp.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) layout() {
	m.ta.SetWidth(m.width - 4)
	m.vp.Width = m.width
	m.vp.Height = m.height - m.ta.Height() - chromeHeight
	if m.vp.Height < 1 {
		m.vp.Height = 1
	}
	m.picker.Height = m.height - chromeHeight
}

// authErrorText maps the gateway taxonomy to a login/register form message.
func authErrorText(err error) string {
	var reqErr *gateway.RequestError
	switch {
	case errors.Is(err, gateway.ErrUnauthorized):
		return "Login failed. Check credentials."
	case errors.As(err, &reqErr) && reqErr.Detail != "":
		return reqErr.Detail
	default:
		var unreachable *gateway.UnreachableError
		if errors.As(err, &unreachable) {
			return "Could not reach the backend. Is it running?"
		}
		return "Something went wrong. Please try again."
	}
}
