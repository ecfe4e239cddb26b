// Package chat implements the conversation view of the Research Study Chat
// Console. This file defines the ChatModel structure: injected dependencies,
// input component state, and the flags that gate message sending. All session
// and turn state lives in the session and exchange packages; the view is a
// function of (session status, transcript snapshot, in-flight flag).
package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studychat/console/internal/conversation"
	"github.com/studychat/console/internal/interfaces"
	"github.com/studychat/console/internal/logging"
)

// requestTimeout bounds the wait on each backend call issued from the view.
const requestTimeout = 60 * time.Second

// ChatModel represents the complete state and dependencies for the conversation view
type ChatModel struct {
	// Injected dependencies for external system integration
	profile    *interfaces.Profile
	session    interfaces.SessionManager
	exchanger  interfaces.TurnExchanger
	transcript *conversation.Transcript
	theme      *interfaces.Theme
	logger     *logging.Logger

	// Input component and transcript viewport
	messageInput textinput.Model
	transcriptVP viewport.Model
	vpReady      bool

	// Sending is gated on session readiness and on the previous exchange
	// having resolved (exchanges are serialized by design).
	exchangeInFlight bool
	chatEnded        bool

	// Footer notice shown to the participant (end-chat placeholder, redirect URL)
	notice string

	// Terminal dimensions for responsive layout
	terminalWidth  int
	terminalHeight int
}

// NewChatModel creates the conversation view with its dependencies injected
func NewChatModel(
	profile *interfaces.Profile,
	session interfaces.SessionManager,
	exchanger interfaces.TurnExchanger,
	transcript *conversation.Transcript,
	configManager interfaces.ConfigManager,
) *ChatModel {
	messageInput := textinput.New()
	messageInput.Placeholder = "Type a message…"
	messageInput.CharLimit = 4000
	messageInput.Width = 50
	messageInput.Focus()

	var theme *interfaces.Theme
	if profile.Theme != "" && configManager != nil {
		if loadedTheme, err := configManager.LoadTheme(profile.Theme); err == nil {
			theme = loadedTheme
		}
	}

	return &ChatModel{
		profile:      profile,
		session:      session,
		exchanger:    exchanger,
		transcript:   transcript,
		theme:        theme,
		logger:       logging.GetUILogger(),
		messageInput: messageInput,
	}
}

// Init implements the tea.Model interface. Mounting the view starts the
// session exactly once; the manager rejects any further attempt.
func (m *ChatModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.startSession(),
	)
}

// canSend reports whether message submission is currently allowed
func (m *ChatModel) canSend() bool {
	return m.session.Status() == interfaces.SessionReady &&
		!m.exchangeInFlight &&
		!m.chatEnded
}

// Message types for the Bubble Tea command system

// sessionStartedMsg carries the result of the one session-start attempt
type sessionStartedMsg struct {
	err error
}

// exchangeResolvedMsg carries the result of one message exchange
type exchangeResolvedMsg struct {
	result interfaces.ExchangeResult
}

// chatEndedMsg carries the result of ending the chat
type chatEndedMsg struct {
	redirectURL string
	err         error
}

// startSession issues the session-start request off the UI goroutine
func (m *ChatModel) startSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return sessionStartedMsg{err: m.session.Start(ctx)}
	}
}

// sendMessage runs one exchange off the UI goroutine. The exchanger appends
// both transcript entries itself; the resulting message only tells the view
// to re-render and re-enable the input.
func (m *ChatModel) sendMessage(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return exchangeResolvedMsg{result: m.exchanger.Send(ctx, text)}
	}
}

// endChat marks the backend session completed. The returned redirect URL is
// shown as a notice only; no survey handoff is performed.
func (m *ChatModel) endChat() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		redirectURL, err := m.session.End(ctx)
		return chatEndedMsg{redirectURL: redirectURL, err: err}
	}
}
