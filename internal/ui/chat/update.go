// Package chat implements input processing and state transitions for the
// conversation view. This file contains the Bubble Tea update function that
// handles message submission, the end-chat control, and the resolution
// messages produced by the session and exchange commands.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studychat/console/internal/interfaces"
)

// Update implements the tea.Model interface for conversation view input processing
func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var commands []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.handleKeyInput(msg)
		if cmd != nil {
			commands = append(commands, cmd)
		}

	case tea.WindowSizeMsg:
		m.setTerminalSize(msg.Width, msg.Height)

	case sessionStartedMsg:
		m.handleSessionStarted(msg)

	case exchangeResolvedMsg:
		m.handleExchangeResolved(msg)

	case chatEndedMsg:
		m.handleChatEnded(msg)

	default:
		var cmd tea.Cmd
		m.messageInput, cmd = m.messageInput.Update(msg)
		if cmd != nil {
			commands = append(commands, cmd)
		}
	}

	m.refreshTranscriptView()

	if len(commands) > 0 {
		return m, tea.Batch(commands...)
	}
	return m, nil
}

// handleKeyInput processes keyboard input for the conversation view
func (m *ChatModel) handleKeyInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit

	case "esc", "ctrl+e":
		return m.handleEndChat()

	case "enter":
		return m.handleSubmit()

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.transcriptVP, cmd = m.transcriptVP.Update(msg)
		return cmd

	default:
		// Typing stays enabled even while sending is not; only submission
		// is gated. The participant never loses drafted text.
		var cmd tea.Cmd
		m.messageInput, cmd = m.messageInput.Update(msg)
		return cmd
	}
}

// handleSubmit validates the drafted text and launches one exchange
func (m *ChatModel) handleSubmit() tea.Cmd {
	if !m.canSend() {
		return nil
	}

	text := strings.TrimSpace(m.messageInput.Value())
	if text == "" {
		// Whitespace-only input is silently ignored: no transcript entry,
		// no request, no turn change.
		return nil
	}

	m.messageInput.SetValue("")
	m.exchangeInFlight = true
	return m.sendMessage(text)
}

// handleEndChat raises the end-chat signal from the header control
func (m *ChatModel) handleEndChat() tea.Cmd {
	if m.chatEnded {
		return tea.Quit
	}

	if m.session.Status() != interfaces.SessionReady {
		m.notice = "Chat ended."
		m.chatEnded = true
		return nil
	}

	m.notice = "Ending chat…"
	return m.endChat()
}

// handleSessionStarted records the outcome of the one session-start attempt
func (m *ChatModel) handleSessionStarted(msg sessionStartedMsg) {
	if msg.err != nil {
		// The view stays interactive to show the failure state, but
		// sending remains disallowed for its whole lifetime.
		m.notice = "Could not reach the study server. Please return to the survey and try reloading."
		m.logger.Error("Session start failed", "error", msg.err.Error())
		return
	}

	m.notice = ""
	m.logger.Debug("Session ready", "status", m.session.Status().String())
}

// handleExchangeResolved re-enables sending once an exchange has resolved.
// The transcript entries were already appended by the exchanger.
func (m *ChatModel) handleExchangeResolved(msg exchangeResolvedMsg) {
	m.exchangeInFlight = false

	switch msg.result.Outcome {
	case interfaces.OutcomeReply, interfaces.OutcomeFailed:
		m.scrollToBottom()
	case interfaces.OutcomeNoSession:
		m.logger.Warn("Exchange attempted without a session")
	}
}

// handleChatEnded shows the end-of-chat placeholder notice
func (m *ChatModel) handleChatEnded(msg chatEndedMsg) {
	if msg.err != nil {
		m.notice = "Could not end the chat cleanly. You may close this window."
		m.logger.Error("Chat end failed", "error", msg.err.Error())
		return
	}

	m.chatEnded = true
	if msg.redirectURL != "" {
		m.notice = "Chat ended. Continue to the post-survey: " + msg.redirectURL
	} else {
		m.notice = "Chat ended. You may close this window."
	}
}

// setTerminalSize updates the layout for the current terminal dimensions
func (m *ChatModel) setTerminalSize(width, height int) {
	m.terminalWidth = width
	m.terminalHeight = height

	inputWidth := width - 6
	if inputWidth > 20 {
		m.messageInput.Width = inputWidth
	}

	vpHeight := height - headerHeight - inputHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.vpReady {
		m.transcriptVP = viewport.New(width, vpHeight)
		m.vpReady = true
	} else {
		m.transcriptVP.Width = width
		m.transcriptVP.Height = vpHeight
	}
	m.refreshTranscriptView()
	m.scrollToBottom()
}

// refreshTranscriptView re-renders the transcript snapshot into the viewport
func (m *ChatModel) refreshTranscriptView() {
	if !m.vpReady {
		return
	}
	m.transcriptVP.SetContent(m.renderTranscript())
}

// scrollToBottom keeps the newest entries visible
func (m *ChatModel) scrollToBottom() {
	if m.vpReady {
		m.transcriptVP.GotoBottom()
	}
}
