package exchange

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studychat/console/internal/conversation"
	"github.com/studychat/console/internal/interfaces"
)

type sendCall struct {
	request interfaces.SendMessageRequest
}

type scriptedReply struct {
	response *interfaces.SendMessageResponse
	err      error
}

type mockClient struct {
	replies []scriptedReply
	calls   []sendCall
}

func (m *mockClient) StartSession(_ context.Context, _ interfaces.StartSessionRequest) (*interfaces.StartSessionResponse, error) {
	return nil, errors.New("not used")
}

func (m *mockClient) SendMessage(_ context.Context, request interfaces.SendMessageRequest) (*interfaces.SendMessageResponse, error) {
	m.calls = append(m.calls, sendCall{request: request})
	if len(m.replies) == 0 {
		return nil, errors.New("no reply configured")
	}
	idx := len(m.calls) - 1
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	return m.replies[idx].response, m.replies[idx].err
}

func (m *mockClient) EndSession(_ context.Context, _ interfaces.EndSessionRequest) (*interfaces.EndSessionResponse, error) {
	return nil, errors.New("not used")
}

func (m *mockClient) CheckHealth(_ context.Context) (*interfaces.HealthResponse, error) {
	return &interfaces.HealthResponse{Status: "ok"}, nil
}

func (m *mockClient) Host() string { return "localhost:8000" }

func (m *mockClient) GetLastError() error { return nil }

type stubSession struct {
	status    interfaces.SessionStatus
	sessionID string
}

func (s *stubSession) Start(_ context.Context) error { return nil }

func (s *stubSession) Status() interfaces.SessionStatus { return s.status }

func (s *stubSession) SessionID() string { return s.sessionID }

func (s *stubSession) End(_ context.Context) (string, error) { return "", nil }

func readySession(id string) *stubSession {
	return &stubSession{status: interfaces.SessionReady, sessionID: id}
}

func failedSession() *stubSession {
	return &stubSession{status: interfaces.SessionFailed}
}

func reply(text string) scriptedReply {
	return scriptedReply{response: &interfaces.SendMessageResponse{Response: text}}
}

func failure(err error) scriptedReply {
	return scriptedReply{err: err}
}

func newTestExchanger(t *testing.T, client *mockClient, session interfaces.SessionManager) (*Exchanger, *conversation.Transcript) {
	t.Helper()
	transcript := conversation.NewTranscript()
	ex, err := NewExchanger(client, session, transcript)
	require.NoError(t, err)
	return ex, transcript
}

func TestNewExchanger_ValidatesDependencies(t *testing.T) {
	transcript := conversation.NewTranscript()

	_, err := NewExchanger(nil, readySession("abc"), transcript)
	require.Error(t, err)

	_, err = NewExchanger(&mockClient{}, nil, transcript)
	require.Error(t, err)

	_, err = NewExchanger(&mockClient{}, readySession("abc"), nil)
	require.Error(t, err)
}

func TestSend_HappyPath(t *testing.T) {
	client := &mockClient{replies: []scriptedReply{reply("Hi there!")}}
	ex, transcript := newTestExchanger(t, client, readySession("abc123"))

	result := ex.Send(context.Background(), "Hello")
	require.Equal(t, interfaces.OutcomeReply, result.Outcome)
	require.Equal(t, "Hi there!", result.Reply)
	require.Equal(t, 2, ex.Turn())

	messages := transcript.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, conversation.SenderUser, messages[0].Sender)
	require.Equal(t, "Hello", messages[0].Text)
	require.Equal(t, conversation.SenderBot, messages[1].Sender)
	require.Equal(t, "Hi there!", messages[1].Text)

	require.Len(t, client.calls, 1)
	require.Equal(t, "Hello", client.calls[0].request.UserMessage)
	require.Equal(t, "1", client.calls[0].request.ClientTurnID)
	require.Equal(t, "abc123", client.calls[0].request.ChatSessionID)
}

func TestSend_SuccessfulSequenceAdvancesTurnPerExchange(t *testing.T) {
	const n = 5
	client := &mockClient{replies: []scriptedReply{reply("ok")}}
	ex, transcript := newTestExchanger(t, client, readySession("abc123"))

	for i := 0; i < n; i++ {
		result := ex.Send(context.Background(), fmt.Sprintf("message %d", i+1))
		require.Equal(t, interfaces.OutcomeReply, result.Outcome)
	}

	require.Equal(t, 1+n, ex.Turn())

	messages := transcript.Messages()
	require.Len(t, messages, 2*n)
	for i, msg := range messages {
		if i%2 == 0 {
			require.Equal(t, conversation.SenderUser, msg.Sender)
		} else {
			require.Equal(t, conversation.SenderBot, msg.Sender)
		}
	}

	// Turn numbers embedded in the envelopes count up without gaps
	for i, call := range client.calls {
		require.Equal(t, fmt.Sprintf("%d", i+1), call.request.ClientTurnID)
	}
}

func TestSend_EmptyAndWhitespaceInputIsSkipped(t *testing.T) {
	client := &mockClient{replies: []scriptedReply{reply("ok")}}
	ex, transcript := newTestExchanger(t, client, readySession("abc123"))

	for _, input := range []string{"", "   ", "\t\n "} {
		result := ex.Send(context.Background(), input)
		require.Equal(t, interfaces.OutcomeSkipped, result.Outcome)
	}

	require.Zero(t, transcript.Len())
	require.Equal(t, 1, ex.Turn())
	require.Empty(t, client.calls)
}

func TestSend_FailureAppendsNoticeAndKeepsTurn(t *testing.T) {
	client := &mockClient{replies: []scriptedReply{failure(errors.New("connection refused"))}}
	ex, transcript := newTestExchanger(t, client, readySession("abc123"))

	result := ex.Send(context.Background(), "Hello")
	require.Equal(t, interfaces.OutcomeFailed, result.Outcome)
	require.Error(t, result.Err)
	require.Equal(t, 1, ex.Turn())

	messages := transcript.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, conversation.SenderUser, messages[0].Sender)
	require.Equal(t, "Hello", messages[0].Text)
	require.Equal(t, conversation.SenderError, messages[1].Sender)
	require.Equal(t, ErrorNotice, messages[1].Text)
}

func TestSend_FailedTurnNumberIsReused(t *testing.T) {
	client := &mockClient{replies: []scriptedReply{
		failure(errors.New("timeout")),
		reply("Recovered"),
	}}
	ex, transcript := newTestExchanger(t, client, readySession("abc123"))

	result := ex.Send(context.Background(), "First try")
	require.Equal(t, interfaces.OutcomeFailed, result.Outcome)
	require.Equal(t, 1, ex.Turn())

	result = ex.Send(context.Background(), "Second try")
	require.Equal(t, interfaces.OutcomeReply, result.Outcome)
	require.Equal(t, 2, ex.Turn())

	require.Len(t, client.calls, 2)
	require.Equal(t, "1", client.calls[0].request.ClientTurnID)
	require.Equal(t, "1", client.calls[1].request.ClientTurnID)

	messages := transcript.Messages()
	require.Len(t, messages, 4)
	require.Equal(t, conversation.SenderError, messages[1].Sender)
	require.Equal(t, conversation.SenderBot, messages[3].Sender)
}

func TestSend_WithoutSessionSendsNothing(t *testing.T) {
	client := &mockClient{replies: []scriptedReply{reply("ok")}}
	ex, transcript := newTestExchanger(t, client, failedSession())

	result := ex.Send(context.Background(), "Hello")
	require.Equal(t, interfaces.OutcomeNoSession, result.Outcome)
	require.Zero(t, transcript.Len())
	require.Equal(t, 1, ex.Turn())
	require.Empty(t, client.calls)
}
