package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Turn is one completed (query, response) exchange.
type Turn struct {
	// Query is the user's question.
	Query string

	// Response is the synthesized answer.
	Response string

	// NoEvidence marks a response produced without any retrieved evidence.
	NoEvidence bool

	// At is when the turn completed.
	At time.Time
}

// Conversation is the ordered, append-only history of a session.
// It is owned by the caller of the orchestrator and explicitly
// resettable; no state survives outside this value.
type Conversation struct {
	mu    sync.RWMutex
	id    string
	turns []Turn
}

// NewConversation creates an empty conversation with a fresh session id.
func NewConversation() *Conversation {
	return &Conversation{id: uuid.New().String()}
}

// ID returns the session identifier.
func (c *Conversation) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Append records a completed turn.
func (c *Conversation) Append(turn Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if turn.At.IsZero() {
		turn.At = time.Now()
	}
	c.turns = append(c.turns, turn)
}

// Turns returns a copy of the full history in order.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Recent returns up to n most recent turns in chronological order.
func (c *Conversation) Recent(n int) []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n <= 0 || len(c.turns) == 0 {
		return nil
	}
	if n > len(c.turns) {
		n = len(c.turns)
	}
	out := make([]Turn, n)
	copy(out, c.turns[len(c.turns)-n:])
	return out
}

// Len returns the number of recorded turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Reset clears the history and rotates the session id.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
	c.id = uuid.New().String()
}
