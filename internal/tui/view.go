package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/studyrag/ragchat/internal/chat"
	"github.com/studyrag/ragchat/internal/domain"
)

const (
	defaultWrapWidth = 80
	// rows consumed by the title, status, and help lines around the viewport
	chromeHeight = 6
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("141"))
	botStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("77"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("77"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	uploadStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("222"))
	formBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 3)
	composerStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238"))
)

// View renders the current screen.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	switch m.screen {
	case screenLogin:
		return m.formView("Sign in", "ctrl+r register · enter submit · ctrl+c quit")
	case screenRegister:
		return m.formView("Create account", "ctrl+r back to login · space toggle role · enter submit")
	default:
		return m.chatView()
	}
}

func (m Model) formView(title, help string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ragchat — "+title) + "\n\n")

	labels := []string{"Username", "Password"}
	for i, in := range m.inputs {
		cursor := "  "
		if m.focus == i {
			cursor = focusStyle.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%s%s\n%s%s\n\n", cursor, labels[i], "  ", in.View()))
	}

	if m.screen == screenRegister {
		cursor := "  "
		if m.focus == fieldRole {
			cursor = focusStyle.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%sRole: %s\n\n", cursor, string(m.regRole)))
	}

	if m.busy {
		b.WriteString(m.spin.View() + " contacting backend...\n")
	}
	if m.formErr != "" {
		b.WriteString(errStyle.Render(m.formErr) + "\n")
	}
	if m.formNotice != "" {
		b.WriteString(noticeStyle.Render(m.formNotice) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(help))

	box := formBoxStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) chatView() string {
	if m.pickerOpen {
		return titleStyle.Render("Select a document to upload") + "\n\n" +
			m.picker.View() + "\n" +
			helpStyle.Render("esc cancel")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("ragchat") + "\n")
	b.WriteString(m.vp.View() + "\n")
	b.WriteString(composerStyle.Render(m.ta.View()) + "\n")
	b.WriteString(m.statusLine() + "\n")
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) statusLine() string {
	parts := []string{}
	if m.chat.State() == chat.Pending {
		parts = append(parts, m.spin.View()+" thinking...")
	}
	if m.gate.ShowUpload {
		att := m.uploads.Attempt()
		switch {
		case att.Status == domain.UploadInFlight:
			parts = append(parts, uploadStyle.Render(m.spin.View()+" "+att.Notice))
		case att.Notice != "":
			parts = append(parts, uploadStyle.Render(att.Notice))
		case att.HasFile():
			parts = append(parts, uploadStyle.Render("Selected: "+att.Name))
		}
	}
	return strings.Join(parts, "   ")
}

func (m Model) helpLine() string {
	help := "enter send · alt+enter newline · ctrl+n new chat · ctrl+l logout · ctrl+c quit"
	if m.gate.ShowUpload {
		help += " · ctrl+u pick file · ctrl+s upload"
	}
	return help
}

// refreshTranscript re-renders the conversation into the viewport and keeps
// it pinned to the latest turn.
func (m *Model) refreshTranscript() {
	msgs := m.chat.Messages()
	if len(msgs) == 0 {
		m.vp.SetContent(helpStyle.Render("\n  How can I help you today?\n"))
		return
	}

	var b strings.Builder
	for _, msg := range msgs {
		if msg.Role == domain.MessageRoleUser {
			b.WriteString(userStyle.Render("You") + "\n")
			b.WriteString(msg.Content + "\n\n")
			continue
		}
		b.WriteString(botStyle.Render("Assistant") + "\n")
		b.WriteString(m.renderMarkdown(msg.Content) + "\n")
	}
	m.vp.SetContent(b.String())
	m.vp.GotoBottom()
}

func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content + "\n"
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}
