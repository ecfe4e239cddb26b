// Package interfaces defines the core interfaces required for dependency injection
// and testability throughout the Research Study Chat Console.
package interfaces

import (
	"context"
)

// ParticipantContext bundles the external identifiers that correlate a chat
// session with one study run. No local validation is performed beyond the
// required-field checks in the config layer; the backend is the source of
// truth for validity.
type ParticipantContext struct {
	ParticipantID     string `yaml:"pid" json:"pid"`
	StudyID           string `yaml:"study_id" json:"study_id"`
	ProlificSessionID string `yaml:"prolific_session_id" json:"prolific_session_id"`
	PreSurveyToken    string `yaml:"qr_pre" json:"qr_pre"`
	ExperimentID      string `yaml:"experiment_id" json:"experiment_id"`
}

// Profile represents a complete configuration profile for talking to a study backend
type Profile struct {
	Name        string             `yaml:"name"`
	Host        string             `yaml:"host"`
	Theme       string             `yaml:"theme"`
	Participant ParticipantContext `yaml:"participant"`
}

// Theme represents visual styling configuration for the transcript view
type Theme struct {
	Name  string `yaml:"name"`
	User  string `yaml:"user"`
	Bot   string `yaml:"bot"`
	Error string `yaml:"error"`
	Info  string `yaml:"info"`
}

// ConfigManager handles profile management
type ConfigManager interface {
	// LoadProfile retrieves a profile by name from the configuration file
	LoadProfile(name string) (*Profile, error)

	// SaveProfile persists a profile to the configuration file
	SaveProfile(profile *Profile) error

	// ListProfiles returns all available profile names
	ListProfiles() ([]string, error)

	// LoadTheme retrieves theme configuration by name
	LoadTheme(name string) (*Theme, error)

	// ValidateProfile ensures profile has all required fields
	ValidateProfile(profile *Profile) error

	// GetConfigPath returns the path to the configuration file
	GetConfigPath() string
}

// StartSessionRequest is the body of POST /session/start
type StartSessionRequest struct {
	ParticipantID     string `json:"pid"`
	StudyID           string `json:"study_id"`
	ProlificSessionID string `json:"prolific_session_id"`
	PreSurveyToken    string `json:"qr_pre"`
	ExperimentID      string `json:"experiment_id"`
}

// StartSessionResponse carries the backend-assigned session identifier.
// A response without a chat_session_id is a protocol failure.
type StartSessionResponse struct {
	ChatSessionID string `json:"chat_session_id"`
	ConditionID   string `json:"condition_id,omitempty"`
	ConditionName string `json:"condition_name,omitempty"`
}

// SendMessageRequest is the body of POST /chat for one conversation turn
type SendMessageRequest struct {
	UserMessage   string `json:"user_message"`
	ClientTurnID  string `json:"client_turn_id"`
	ChatSessionID string `json:"chat_session_id"`
}

// SendMessageResponse carries the assistant reply for one turn.
// A response without a response field is a protocol failure.
type SendMessageResponse struct {
	Response string `json:"response"`
	Model    string `json:"model,omitempty"`
}

// EndSessionRequest is the body of POST /session/end
type EndSessionRequest struct {
	ChatSessionID string `json:"chat_session_id"`
}

// EndSessionResponse carries the post-survey redirect URL. The console only
// displays the URL; it performs no survey handoff.
type EndSessionResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// BackendClient handles HTTP communication with the study backend
type BackendClient interface {
	// StartSession opens a backend conversation record for one participant
	StartSession(ctx context.Context, request StartSessionRequest) (*StartSessionResponse, error)

	// SendMessage performs the request half of one conversation turn
	SendMessage(ctx context.Context, request SendMessageRequest) (*SendMessageResponse, error)

	// EndSession marks the backend session completed and returns the redirect URL
	EndSession(ctx context.Context, request EndSessionRequest) (*EndSessionResponse, error)

	// CheckHealth probes backend reachability
	CheckHealth(ctx context.Context) (*HealthResponse, error)

	// Host returns the backend host this client targets
	Host() string

	// GetLastError returns the last communication error
	GetLastError() error
}

// SessionStatus describes the lifecycle of a chat session
type SessionStatus int

const (
	SessionInitializing SessionStatus = iota
	SessionReady
	SessionFailed
)

// String returns the string representation of the session status
func (s SessionStatus) String() string {
	switch s {
	case SessionInitializing:
		return "initializing"
	case SessionReady:
		return "ready"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionManager owns the lifecycle of a single chat session
type SessionManager interface {
	// Start issues the one session-start request of this manager's lifetime.
	// A second call is rejected without contacting the backend.
	Start(ctx context.Context) error

	// Status reports the current lifecycle state
	Status() SessionStatus

	// SessionID returns the backend-assigned identifier, or "" until Ready
	SessionID() string

	// End marks the backend session completed and returns the redirect URL
	End(ctx context.Context) (string, error)
}

// ExchangeOutcome classifies the result of one Send call
type ExchangeOutcome int

const (
	// OutcomeReply indicates the bot message was appended and the turn counter advanced
	OutcomeReply ExchangeOutcome = iota
	// OutcomeFailed indicates an error message was appended and the turn counter is unchanged
	OutcomeFailed
	// OutcomeSkipped indicates empty input: nothing appended, no request sent
	OutcomeSkipped
	// OutcomeNoSession indicates no session identifier was held: nothing appended, no request sent
	OutcomeNoSession
)

// ExchangeResult reports what one Send call did
type ExchangeResult struct {
	Outcome ExchangeOutcome
	Reply   string
	Turn    int
	Err     error
}

// TurnExchanger performs one request/response cycle per user-submitted message
type TurnExchanger interface {
	// Send runs one full exchange. It never panics and never surfaces a failure
	// it has not already recorded in the transcript.
	Send(ctx context.Context, text string) ExchangeResult

	// Turn returns the current turn counter value
	Turn() int
}
