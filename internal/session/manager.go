// Package session owns the lifecycle of a single chat session: it acquires the
// backend session identifier once, exposes readiness status, and supplies the
// identifier to later calls. A manager is created per conversation view; a
// fresh view gets a fresh manager, never a restarted one.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/studychat/console/internal/interfaces"
	"github.com/studychat/console/internal/logging"
)

// ErrAlreadyStarted is returned when Start is invoked more than once
var ErrAlreadyStarted = errors.New("session start already attempted")

// ErrNotReady is returned when an operation requires an established session
var ErrNotReady = errors.New("session is not ready")

// ErrAlreadyEnded is returned when End is invoked more than once
var ErrAlreadyEnded = errors.New("session already ended")

// InitError wraps the root cause of a failed session start. It is fatal to the
// session: messaging stays disabled and no automatic retry is attempted.
type InitError struct {
	Cause error
}

// Error implements the error interface for InitError
func (e *InitError) Error() string {
	return fmt.Sprintf("session initialization failed: %v", e.Cause)
}

// Unwrap provides access to the underlying cause
func (e *InitError) Unwrap() error {
	return e.Cause
}

// Manager implements the SessionManager interface for one conversation view
type Manager struct {
	client      interfaces.BackendClient
	participant interfaces.ParticipantContext
	logger      *logging.Logger

	mutex     sync.RWMutex
	status    interfaces.SessionStatus
	sessionID string
	started   bool
	ended     bool
	lastError error
}

// NewManager creates a session manager for the given participant context
func NewManager(client interfaces.BackendClient, participant interfaces.ParticipantContext) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}

	return &Manager{
		client:      client,
		participant: participant,
		logger:      logging.GetSessionLogger(),
		status:      interfaces.SessionInitializing,
	}, nil
}

// Start issues the one session-start request of this manager's lifetime.
// On success the manager becomes Ready and holds the backend session id; on
// any transport or protocol failure it becomes Failed and stays that way.
func (m *Manager) Start(ctx context.Context) error {
	m.mutex.Lock()
	if m.started {
		m.mutex.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.status = interfaces.SessionInitializing
	m.mutex.Unlock()

	m.logger.LogSessionStart(m.client.Host(), m.participant.ParticipantID, m.participant.ExperimentID)

	request := interfaces.StartSessionRequest{
		ParticipantID:     m.participant.ParticipantID,
		StudyID:           m.participant.StudyID,
		ProlificSessionID: m.participant.ProlificSessionID,
		PreSurveyToken:    m.participant.PreSurveyToken,
		ExperimentID:      m.participant.ExperimentID,
	}

	startTime := time.Now()
	response, err := m.client.StartSession(ctx, request)
	duration := time.Since(startTime)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err != nil {
		initErr := &InitError{Cause: err}
		m.status = interfaces.SessionFailed
		m.lastError = initErr
		m.logger.LogSessionFailure(m.client.Host(), err, duration)
		return initErr
	}

	m.status = interfaces.SessionReady
	m.sessionID = response.ChatSessionID
	m.logger.LogSessionReady(response.ChatSessionID, duration)
	return nil
}

// Status reports the current lifecycle state
func (m *Manager) Status() interfaces.SessionStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.status
}

// SessionID returns the backend-assigned identifier, or "" until Ready
func (m *Manager) SessionID() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.sessionID
}

// LastError returns the error that moved the session to Failed, if any
func (m *Manager) LastError() error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.lastError
}

// End marks the backend session completed and returns the post-survey redirect
// URL. It requires an established session and runs at most once.
func (m *Manager) End(ctx context.Context) (string, error) {
	m.mutex.Lock()
	if m.status != interfaces.SessionReady {
		m.mutex.Unlock()
		return "", ErrNotReady
	}
	if m.ended {
		m.mutex.Unlock()
		return "", ErrAlreadyEnded
	}
	m.ended = true
	sessionID := m.sessionID
	m.mutex.Unlock()

	response, err := m.client.EndSession(ctx, interfaces.EndSessionRequest{ChatSessionID: sessionID})
	if err != nil {
		m.logger.Error("Session end failed", "chat_session_id", sessionID, "error", err.Error())
		// The session stays usable; ending it again is allowed after a failure.
		m.mutex.Lock()
		m.ended = false
		m.mutex.Unlock()
		return "", err
	}

	m.logger.Info("Session ended", "chat_session_id", sessionID)
	return response.RedirectURL, nil
}
