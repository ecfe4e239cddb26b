// Package exchange performs one request/response cycle per user-submitted
// message. It owns the turn counter and keeps the transcript consistent:
// every non-skipped call appends exactly one user entry followed by exactly
// one bot or error entry, and the counter advances only on success.
package exchange

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/studychat/console/internal/conversation"
	"github.com/studychat/console/internal/interfaces"
	"github.com/studychat/console/internal/logging"
)

// ErrorNotice is the fixed transcript entry shown when an exchange fails.
// The underlying cause goes to the diagnostic log, never to the participant.
const ErrorNotice = "Error sending message."

// Exchanger implements the TurnExchanger interface. Exchanges are serialized:
// the mutex covers the full request/response cycle, so a second Send blocks
// until the first resolves and transcript entries always land in pairs.
type Exchanger struct {
	client     interfaces.BackendClient
	session    interfaces.SessionManager
	transcript *conversation.Transcript
	logger     *logging.Logger

	mutex sync.Mutex
	turn  int
}

// NewExchanger creates a turn exchanger bound to one session and transcript
func NewExchanger(client interfaces.BackendClient, session interfaces.SessionManager, transcript *conversation.Transcript) (*Exchanger, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	if transcript == nil {
		return nil, fmt.Errorf("transcript cannot be nil")
	}

	return &Exchanger{
		client:     client,
		session:    session,
		transcript: transcript,
		logger:     logging.GetExchangeLogger(),
		turn:       1,
	}, nil
}

// Send runs one full exchange for the given input.
//
// Empty or whitespace-only input is a silent no-op: nothing is appended, no
// request is sent, the counter is unchanged. A missing session id rejects the
// call before any append — the caller keeps the input disabled unless the
// session is Ready, so this path only guards against misuse. Otherwise the
// user message is echoed to the transcript before the network call, and the
// call resolves into either a bot entry (counter advances) or the fixed error
// notice (counter unchanged). Send never panics and never surfaces a failure
// it has not already recorded in the transcript.
func (e *Exchanger) Send(ctx context.Context, text string) interfaces.ExchangeResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return interfaces.ExchangeResult{Outcome: interfaces.OutcomeSkipped, Turn: e.Turn()}
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	sessionID := e.session.SessionID()
	if sessionID == "" {
		e.logger.Warn("Send invoked without an established session")
		return interfaces.ExchangeResult{Outcome: interfaces.OutcomeNoSession, Turn: e.turn}
	}

	// Optimistic echo: the participant's own text is never blocked on
	// network success.
	e.transcript.Append(conversation.SenderUser, text)

	request := interfaces.SendMessageRequest{
		UserMessage:   text,
		ClientTurnID:  strconv.Itoa(e.turn),
		ChatSessionID: sessionID,
	}

	startTime := time.Now()
	response, err := e.client.SendMessage(ctx, request)
	duration := time.Since(startTime)

	if err != nil {
		e.transcript.Append(conversation.SenderError, ErrorNotice)
		e.logger.LogExchange(e.turn, false, duration, err)
		return interfaces.ExchangeResult{Outcome: interfaces.OutcomeFailed, Turn: e.turn, Err: err}
	}

	e.transcript.Append(conversation.SenderBot, response.Response)
	e.turn++
	e.logger.LogExchange(e.turn-1, true, duration, nil)
	return interfaces.ExchangeResult{Outcome: interfaces.OutcomeReply, Reply: response.Response, Turn: e.turn}
}

// Turn returns the current turn counter value
func (e *Exchanger) Turn() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.turn
}
