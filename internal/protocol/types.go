// Package protocol implements HTTP communication with the study backend.
// This file defines the endpoint paths, timeout policy, error taxonomy, and
// request validation used by the client.
package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/studychat/console/internal/interfaces"
)

// HTTP endpoint paths exposed by the study backend
const (
	EndpointStartSession = "/session/start"
	EndpointChat         = "/chat"
	EndpointEndSession   = "/session/end"
	EndpointHealth       = "/health"
)

// HTTP timeout configurations for reliable communication.
// Chat turns wait on an LLM upstream, so they get the longest budget.
const (
	DefaultRequestTimeout = 60 * time.Second
	SessionStartTimeout   = 15 * time.Second
	HealthTimeout         = 5 * time.Second
)

// ConnectionStatistics tracks communication metrics for monitoring and debugging
type ConnectionStatistics struct {
	TotalRequests       int           `json:"totalRequests"`
	SuccessfulRequests  int           `json:"successfulRequests"`
	FailedRequests      int           `json:"failedRequests"`
	AverageResponseTime time.Duration `json:"averageResponseTime"`
	LastRequestTime     time.Time     `json:"lastRequestTime"`
}

// HTTPErrorDetails provides detailed information about HTTP-level errors
type HTTPErrorDetails struct {
	StatusCode  int    `json:"statusCode"`
	StatusText  string `json:"statusText"`
	Body        string `json:"body,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// ProtocolError represents errors that occur during backend communication.
// Type is one of "network" (transport failure), "http" (non-2xx status), or
// "protocol" (well-formed transport, malformed or incomplete body).
type ProtocolError struct {
	Type          string            `json:"type"`
	Message       string            `json:"message"`
	Endpoint      string            `json:"endpoint,omitempty"`
	RequestID     string            `json:"requestId,omitempty"`
	HTTPDetails   *HTTPErrorDetails `json:"httpDetails,omitempty"`
	OriginalError error             `json:"-"`
	Timestamp     time.Time         `json:"timestamp"`
	Recoverable   bool              `json:"recoverable"`
}

// Error implements the error interface for ProtocolError
func (pe *ProtocolError) Error() string {
	return pe.Message
}

// Unwrap provides access to the original underlying error
func (pe *ProtocolError) Unwrap() error {
	return pe.OriginalError
}

// IsRetryable determines if the error condition might be resolved by retrying
func (pe *ProtocolError) IsRetryable() bool {
	switch pe.Type {
	case "network":
		return true
	case "http":
		return pe.HTTPDetails != nil && (pe.HTTPDetails.StatusCode == 429 || pe.HTTPDetails.StatusCode >= 500)
	case "protocol":
		return false
	default:
		return pe.Recoverable
	}
}

// backendErrorBody is the FastAPI-style error payload the backend returns on
// non-2xx statuses
type backendErrorBody struct {
	Detail string `json:"detail"`
}

// ValidationError represents errors in request validation before sending
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface for ValidationError
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", ve.Field, ve.Message)
}

// RequestValidator provides validation for outgoing envelopes before transmission
type RequestValidator struct {
	strictMode bool
}

// NewRequestValidator creates a new request validator with specified validation mode
func NewRequestValidator(strictMode bool) *RequestValidator {
	return &RequestValidator{
		strictMode: strictMode,
	}
}

// ValidateStartSessionRequest ensures session-start requests carry the
// identifiers the backend requires
func (rv *RequestValidator) ValidateStartSessionRequest(req *interfaces.StartSessionRequest) error {
	if req == nil {
		return &ValidationError{Field: "request", Message: "request cannot be nil"}
	}

	if strings.TrimSpace(req.ParticipantID) == "" {
		return &ValidationError{Field: "pid", Message: "participant id cannot be empty"}
	}

	if strings.TrimSpace(req.ExperimentID) == "" {
		return &ValidationError{Field: "experiment_id", Message: "experiment id cannot be empty"}
	}

	return nil
}

// ValidateSendMessageRequest ensures chat envelopes are complete and correlated
func (rv *RequestValidator) ValidateSendMessageRequest(req *interfaces.SendMessageRequest) error {
	if req == nil {
		return &ValidationError{Field: "request", Message: "request cannot be nil"}
	}

	if strings.TrimSpace(req.UserMessage) == "" {
		return &ValidationError{Field: "user_message", Message: "user message cannot be empty"}
	}

	if strings.TrimSpace(req.ChatSessionID) == "" {
		return &ValidationError{Field: "chat_session_id", Message: "chat session id cannot be empty"}
	}

	if req.ClientTurnID == "" {
		return &ValidationError{Field: "client_turn_id", Message: "client turn id cannot be empty"}
	}

	if rv.strictMode {
		if turn, err := strconv.Atoi(req.ClientTurnID); err != nil || turn < 1 {
			return &ValidationError{Field: "client_turn_id", Message: "client turn id must be a positive integer"}
		}
		if len(req.UserMessage) > 4000 {
			return &ValidationError{Field: "user_message", Message: "message exceeds maximum length of 4000 characters"}
		}
	}

	return nil
}

// ValidateEndSessionRequest ensures end-session requests name a session
func (rv *RequestValidator) ValidateEndSessionRequest(req *interfaces.EndSessionRequest) error {
	if req == nil {
		return &ValidationError{Field: "request", Message: "request cannot be nil"}
	}

	if strings.TrimSpace(req.ChatSessionID) == "" {
		return &ValidationError{Field: "chat_session_id", Message: "chat session id cannot be empty"}
	}

	return nil
}
