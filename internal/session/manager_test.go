package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studychat/console/internal/interfaces"
)

type mockClient struct {
	startResponse *interfaces.StartSessionResponse
	startErr      error
	startCalls    []interfaces.StartSessionRequest

	endResponse *interfaces.EndSessionResponse
	endErr      error
	endCalls    []interfaces.EndSessionRequest
}

func (m *mockClient) StartSession(_ context.Context, request interfaces.StartSessionRequest) (*interfaces.StartSessionResponse, error) {
	m.startCalls = append(m.startCalls, request)
	return m.startResponse, m.startErr
}

func (m *mockClient) SendMessage(_ context.Context, _ interfaces.SendMessageRequest) (*interfaces.SendMessageResponse, error) {
	return nil, errors.New("not used")
}

func (m *mockClient) EndSession(_ context.Context, request interfaces.EndSessionRequest) (*interfaces.EndSessionResponse, error) {
	m.endCalls = append(m.endCalls, request)
	return m.endResponse, m.endErr
}

func (m *mockClient) CheckHealth(_ context.Context) (*interfaces.HealthResponse, error) {
	return &interfaces.HealthResponse{Status: "ok"}, nil
}

func (m *mockClient) Host() string { return "localhost:8000" }

func (m *mockClient) GetLastError() error { return nil }

func testParticipant() interfaces.ParticipantContext {
	return interfaces.ParticipantContext{
		ParticipantID:     "P123",
		StudyID:           "S456",
		ProlificSessionID: "PS789",
		PreSurveyToken:    "QR001",
		ExperimentID:      "E1",
	}
}

func TestNewManager_RequiresClient(t *testing.T) {
	_, err := NewManager(nil, testParticipant())
	require.Error(t, err)
}

func TestStart_Success(t *testing.T) {
	client := &mockClient{
		startResponse: &interfaces.StartSessionResponse{ChatSessionID: "sess_42"},
	}
	manager, err := NewManager(client, testParticipant())
	require.NoError(t, err)
	require.Equal(t, interfaces.SessionInitializing, manager.Status())
	require.Empty(t, manager.SessionID())

	err = manager.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, interfaces.SessionReady, manager.Status())
	require.Equal(t, "sess_42", manager.SessionID())

	require.Len(t, client.startCalls, 1)
	sent := client.startCalls[0]
	require.Equal(t, "P123", sent.ParticipantID)
	require.Equal(t, "S456", sent.StudyID)
	require.Equal(t, "PS789", sent.ProlificSessionID)
	require.Equal(t, "QR001", sent.PreSurveyToken)
	require.Equal(t, "E1", sent.ExperimentID)
}

func TestStart_FailureIsFatal(t *testing.T) {
	cause := errors.New("connection refused")
	client := &mockClient{startErr: cause}
	manager, err := NewManager(client, testParticipant())
	require.NoError(t, err)

	err = manager.Start(context.Background())
	require.Error(t, err)
	require.Equal(t, interfaces.SessionFailed, manager.Status())
	require.Empty(t, manager.SessionID())

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	require.ErrorIs(t, err, cause)
	require.Equal(t, err, manager.LastError())
}

func TestStart_SecondAttemptRejectedWithoutRequest(t *testing.T) {
	client := &mockClient{
		startResponse: &interfaces.StartSessionResponse{ChatSessionID: "sess_42"},
	}
	manager, err := NewManager(client, testParticipant())
	require.NoError(t, err)

	require.NoError(t, manager.Start(context.Background()))
	err = manager.Start(context.Background())
	require.ErrorIs(t, err, ErrAlreadyStarted)
	require.Len(t, client.startCalls, 1)
}

func TestStart_NoRetryAfterFailure(t *testing.T) {
	client := &mockClient{startErr: errors.New("timeout")}
	manager, err := NewManager(client, testParticipant())
	require.NoError(t, err)

	require.Error(t, manager.Start(context.Background()))

	err = manager.Start(context.Background())
	require.ErrorIs(t, err, ErrAlreadyStarted)
	require.Equal(t, interfaces.SessionFailed, manager.Status())
	require.Len(t, client.startCalls, 1)
}

func TestEnd_RequiresReadySession(t *testing.T) {
	client := &mockClient{startErr: errors.New("down")}
	manager, err := NewManager(client, testParticipant())
	require.NoError(t, err)

	_, err = manager.End(context.Background())
	require.ErrorIs(t, err, ErrNotReady)

	require.Error(t, manager.Start(context.Background()))
	_, err = manager.End(context.Background())
	require.ErrorIs(t, err, ErrNotReady)
	require.Empty(t, client.endCalls)
}

func TestEnd_RunsOnceAndReturnsRedirect(t *testing.T) {
	client := &mockClient{
		startResponse: &interfaces.StartSessionResponse{ChatSessionID: "sess_42"},
		endResponse:   &interfaces.EndSessionResponse{RedirectURL: "https://example.com/post"},
	}
	manager, err := NewManager(client, testParticipant())
	require.NoError(t, err)
	require.NoError(t, manager.Start(context.Background()))

	redirect, err := manager.End(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://example.com/post", redirect)
	require.Len(t, client.endCalls, 1)
	require.Equal(t, "sess_42", client.endCalls[0].ChatSessionID)

	_, err = manager.End(context.Background())
	require.ErrorIs(t, err, ErrAlreadyEnded)
	require.Len(t, client.endCalls, 1)
}

func TestEnd_FailureAllowsRetry(t *testing.T) {
	client := &mockClient{
		startResponse: &interfaces.StartSessionResponse{ChatSessionID: "sess_42"},
		endErr:        errors.New("backend unavailable"),
	}
	manager, err := NewManager(client, testParticipant())
	require.NoError(t, err)
	require.NoError(t, manager.Start(context.Background()))

	_, err = manager.End(context.Background())
	require.Error(t, err)
	require.Len(t, client.endCalls, 1)

	client.endErr = nil
	client.endResponse = &interfaces.EndSessionResponse{RedirectURL: "https://example.com/post"}

	redirect, err := manager.End(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://example.com/post", redirect)
	require.Len(t, client.endCalls, 2)
}
