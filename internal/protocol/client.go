// Package protocol implements HTTP communication with the study backend.
// This file provides the concrete implementation of the BackendClient interface
// with timeout management, request correlation, and failure classification.
package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studychat/console/internal/interfaces"
	"github.com/studychat/console/internal/logging"
)

// Client implements the BackendClient interface against one backend host
type Client struct {
	httpClient *http.Client
	host       string
	userAgent  string
	validator  *RequestValidator
	logger     *logging.Logger

	mutex      sync.RWMutex
	lastError  error
	statistics ConnectionStatistics
}

// NewClient creates a backend client bound to the given host
func NewClient(host string) (*Client, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("host cannot be empty")
	}

	httpClient := &http.Client{
		Timeout: DefaultRequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
	}

	return &Client{
		httpClient: httpClient,
		host:       host,
		userAgent:  "Study-Chat-Console/1.0",
		validator:  NewRequestValidator(true),
		logger:     logging.GetProtocolLogger(),
	}, nil
}

// Host returns the backend host this client targets
func (c *Client) Host() string {
	return c.host
}

// StartSession opens a backend conversation record for one participant
func (c *Client) StartSession(ctx context.Context, request interfaces.StartSessionRequest) (*interfaces.StartSessionResponse, error) {
	if err := c.validator.ValidateStartSessionRequest(&request); err != nil {
		return nil, fmt.Errorf("invalid session start request: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, SessionStartTimeout)
	defer cancel()

	body, err := c.executeJSONRequest(startCtx, EndpointStartSession, request)
	if err != nil {
		return nil, err
	}

	var resp interfaces.StartSessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.wrapProtocolError(EndpointStartSession, "failed to parse session start response", err)
	}

	if strings.TrimSpace(resp.ChatSessionID) == "" {
		return nil, c.wrapProtocolError(EndpointStartSession, "session start response missing chat_session_id", nil)
	}

	return &resp, nil
}

// SendMessage performs the request half of one conversation turn
func (c *Client) SendMessage(ctx context.Context, request interfaces.SendMessageRequest) (*interfaces.SendMessageResponse, error) {
	if err := c.validator.ValidateSendMessageRequest(&request); err != nil {
		return nil, fmt.Errorf("invalid chat request: %w", err)
	}

	body, err := c.executeJSONRequest(ctx, EndpointChat, request)
	if err != nil {
		return nil, err
	}

	var resp interfaces.SendMessageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.wrapProtocolError(EndpointChat, "failed to parse chat response", err)
	}

	if strings.TrimSpace(resp.Response) == "" {
		return nil, c.wrapProtocolError(EndpointChat, "chat response missing response field", nil)
	}

	return &resp, nil
}

// EndSession marks the backend session completed and returns the redirect URL
func (c *Client) EndSession(ctx context.Context, request interfaces.EndSessionRequest) (*interfaces.EndSessionResponse, error) {
	if err := c.validator.ValidateEndSessionRequest(&request); err != nil {
		return nil, fmt.Errorf("invalid session end request: %w", err)
	}

	body, err := c.executeJSONRequest(ctx, EndpointEndSession, request)
	if err != nil {
		return nil, err
	}

	var resp interfaces.EndSessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.wrapProtocolError(EndpointEndSession, "failed to parse session end response", err)
	}

	return &resp, nil
}

// CheckHealth probes backend reachability
func (c *Client) CheckHealth(ctx context.Context) (*interfaces.HealthResponse, error) {
	healthCtx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(healthCtx, http.MethodGet, c.buildURL(EndpointHealth), nil)
	if err != nil {
		return nil, c.wrapProtocolError(EndpointHealth, "failed to create health request", err)
	}
	c.setStandardHeaders(req, uuid.NewString())

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	responseTime := time.Since(startTime)
	c.updateRequestStatistics(responseTime, err == nil)

	if err != nil {
		return nil, c.wrapNetworkError(EndpointHealth, "health request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.wrapNetworkError(EndpointHealth, "failed to read health response", err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.handleHTTPError(EndpointHealth, resp, body)
	}

	var health interfaces.HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, c.wrapProtocolError(EndpointHealth, "failed to parse health response", err)
	}

	return &health, nil
}

// GetLastError returns the last communication error
func (c *Client) GetLastError() error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.lastError
}

// GetStatistics returns a copy of the request statistics for debugging
func (c *Client) GetStatistics() ConnectionStatistics {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.statistics
}

// Helper methods for internal operation

// buildURL constructs the full URL for an endpoint
func (c *Client) buildURL(endpoint string) string {
	host := c.host
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}

	baseURL, _ := url.Parse(host)
	endpointURL, _ := url.Parse(endpoint)
	return baseURL.ResolveReference(endpointURL).String()
}

// setStandardHeaders sets common headers for all requests
func (c *Client) setStandardHeaders(req *http.Request, requestID string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
}

// executeJSONRequest POSTs a JSON payload and returns the raw response body
func (c *Client) executeJSONRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, c.wrapProtocolError(endpoint, "failed to marshal request payload", err)
	}

	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(endpoint), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, c.wrapProtocolError(endpoint, "failed to create request", err)
	}

	c.setStandardHeaders(req, requestID)
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	responseTime := time.Since(startTime)

	c.updateRequestStatistics(responseTime, err == nil)

	if err != nil {
		return nil, c.wrapNetworkError(endpoint, "request execution failed", err)
	}
	defer resp.Body.Close()

	c.logger.LogHTTPRequest(http.MethodPost, req.URL.String(), resp.StatusCode, responseTime)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.wrapNetworkError(endpoint, "failed to read response body", err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.handleHTTPError(endpoint, resp, body)
	}

	return body, nil
}

// Error handling and wrapping methods

// wrapNetworkError wraps transport-level failures
func (c *Client) wrapNetworkError(endpoint string, message string, err error) error {
	protocolErr := &ProtocolError{
		Type:          "network",
		Message:       fmt.Sprintf("%s: %v", message, err),
		Endpoint:      endpoint,
		OriginalError: err,
		Timestamp:     time.Now(),
		Recoverable:   true,
	}

	c.setLastError(protocolErr)
	return protocolErr
}

// wrapProtocolError wraps malformed or incomplete responses
func (c *Client) wrapProtocolError(endpoint string, message string, err error) error {
	text := message
	if err != nil {
		text = fmt.Sprintf("%s: %v", message, err)
	}

	protocolErr := &ProtocolError{
		Type:          "protocol",
		Message:       text,
		Endpoint:      endpoint,
		OriginalError: err,
		Timestamp:     time.Now(),
		Recoverable:   false,
	}

	c.setLastError(protocolErr)
	return protocolErr
}

// handleHTTPError processes non-2xx responses
func (c *Client) handleHTTPError(endpoint string, resp *http.Response, body []byte) error {
	message := fmt.Sprintf("HTTP error %d: %s", resp.StatusCode, resp.Status)

	// The backend reports request problems as {"detail": "..."}
	var errorBody backendErrorBody
	if err := json.Unmarshal(body, &errorBody); err == nil && errorBody.Detail != "" {
		message = errorBody.Detail
	}

	protocolErr := &ProtocolError{
		Type:        "http",
		Message:     message,
		Endpoint:    endpoint,
		Timestamp:   time.Now(),
		Recoverable: resp.StatusCode >= 500,
		HTTPDetails: &HTTPErrorDetails{
			StatusCode:  resp.StatusCode,
			StatusText:  resp.Status,
			Body:        string(body),
			ContentType: resp.Header.Get("Content-Type"),
		},
	}

	c.setLastError(protocolErr)
	return protocolErr
}

// setLastError records the latest communication error
func (c *Client) setLastError(err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.lastError = err
}

// updateRequestStatistics updates the rolling request statistics
func (c *Client) updateRequestStatistics(responseTime time.Duration, success bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	stats := &c.statistics
	stats.TotalRequests++
	stats.LastRequestTime = time.Now()

	if success {
		stats.SuccessfulRequests++
	} else {
		stats.FailedRequests++
	}

	if stats.TotalRequests == 1 {
		stats.AverageResponseTime = responseTime
	} else {
		total := stats.AverageResponseTime * time.Duration(stats.TotalRequests-1)
		stats.AverageResponseTime = (total + responseTime) / time.Duration(stats.TotalRequests)
	}
}
