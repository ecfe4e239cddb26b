// Package conversation holds the append-only transcript shown to the participant.
// The transcript is the single user-visible record of the chat: every exchange
// resolves into entries here, including failures.
package conversation

import (
	"sync"
	"time"
)

// Sender identifies who produced a transcript entry
type Sender string

const (
	SenderUser  Sender = "user"
	SenderBot   Sender = "bot"
	SenderError Sender = "error"
)

// Message is one immutable transcript entry
type Message struct {
	Sender Sender
	Text   string
	At     time.Time
}

// Transcript is the ordered, append-only record of all messages for one view
// lifetime. Entries are never edited or removed; insertion order is display
// order. Appends may come from the exchange goroutine while the UI reads
// snapshots, so access is guarded.
type Transcript struct {
	mutex    sync.RWMutex
	messages []Message
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{
		messages: make([]Message, 0),
	}
}

// Append adds one message to the end of the transcript
func (t *Transcript) Append(sender Sender, text string) Message {
	msg := Message{
		Sender: sender,
		Text:   text,
		At:     time.Now(),
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.messages = append(t.messages, msg)
	return msg
}

// Messages returns a snapshot copy of the transcript in insertion order
func (t *Transcript) Messages() []Message {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	snapshot := make([]Message, len(t.messages))
	copy(snapshot, t.messages)
	return snapshot
}

// Len returns the number of transcript entries
func (t *Transcript) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.messages)
}

// Last returns the most recent entry, if any
func (t *Transcript) Last() (Message, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}
