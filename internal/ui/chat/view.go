// Package chat implements visual presentation for the conversation view.
// This file renders the header with the session status and end-chat hint, the
// scrollable transcript with sender-specific styling, the input component with
// its disabled state, and the footer notice line.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/studychat/console/internal/conversation"
	"github.com/studychat/console/internal/ui/components"
)

// Fixed section heights used by the responsive layout
const (
	headerHeight = 2
	inputHeight  = 3
	footerHeight = 1
)

// Styling definitions for the conversation view
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	userMessageStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#89B4FA"))

	botMessageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1"))

	errorMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F38BA8")).
				Italic(true)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#6C7086")).
			Padding(0, 1)

	inputActiveStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(lipgloss.Color("#89B4FA")).
				Padding(0, 1)
)

// senderPrefixes label transcript entries in the rendered view
var senderPrefixes = map[conversation.Sender]string{
	conversation.SenderUser:  "YOU>",
	conversation.SenderBot:   "BOT>",
	conversation.SenderError: "  !>",
}

// View implements the tea.Model interface to render the complete conversation view
func (m *ChatModel) View() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	if m.vpReady {
		sections = append(sections, m.transcriptVP.View())
	} else {
		sections = append(sections, m.renderTranscript())
	}
	sections = append(sections, m.renderInputComponent())

	if m.notice != "" {
		sections = append(sections, components.RenderNotice(m.notice))
	}

	return strings.Join(sections, "\n")
}

// renderHeader creates the header with the session status and end-chat control hint
func (m *ChatModel) renderHeader() string {
	title := "Study Chat"
	if m.profile != nil && m.profile.Name != "" && m.profile.Name != "default" {
		title = fmt.Sprintf("Study Chat [%s]", m.profile.Name)
	}

	status := components.RenderSessionStatus(m.session.Status())
	hint := lipgloss.NewStyle().Faint(true).Render("esc: end chat")

	header := fmt.Sprintf("%s  %s  %s", title, status, hint)
	return headerStyle.Width(m.terminalWidth).Render(header)
}

// renderTranscript formats the ordered transcript snapshot with sender styling
func (m *ChatModel) renderTranscript() string {
	messages := m.transcript.Messages()
	if len(messages) == 0 {
		return lipgloss.NewStyle().Faint(true).Render("No messages yet.")
	}

	var lines []string
	for _, msg := range messages {
		prefix := senderPrefixes[msg.Sender]

		var style lipgloss.Style
		switch msg.Sender {
		case conversation.SenderUser:
			style = m.themedStyle(userMessageStyle, msg.Sender)
		case conversation.SenderBot:
			style = m.themedStyle(botMessageStyle, msg.Sender)
		case conversation.SenderError:
			style = m.themedStyle(errorMessageStyle, msg.Sender)
		default:
			style = lipgloss.NewStyle()
		}

		lines = append(lines, style.Render(fmt.Sprintf("%s %s", prefix, msg.Text)))
	}

	return strings.Join(lines, "\n")
}

// themedStyle applies the profile theme color for a sender when configured
func (m *ChatModel) themedStyle(base lipgloss.Style, sender conversation.Sender) lipgloss.Style {
	if m.theme == nil {
		return base
	}

	var color string
	switch sender {
	case conversation.SenderUser:
		color = m.theme.User
	case conversation.SenderBot:
		color = m.theme.Bot
	case conversation.SenderError:
		color = m.theme.Error
	}

	if color == "" {
		return base
	}
	return base.Foreground(lipgloss.Color(color))
}

// renderInputComponent creates the message input with its enabled/disabled state
func (m *ChatModel) renderInputComponent() string {
	width := m.terminalWidth - 2
	if width < 20 {
		width = 20
	}

	if m.canSend() {
		return inputActiveStyle.Width(width).Render(m.messageInput.View())
	}

	// Sending is disallowed: no session yet, session failed, an exchange is
	// in flight, or the chat has ended. The input renders dimmed.
	disabled := lipgloss.NewStyle().Faint(true).Render(m.messageInput.View())
	return inputStyle.Width(width).Render(disabled)
}
