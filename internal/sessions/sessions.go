// Package sessions keeps short-lived conversation history in memory, one
// bounded turn log per conversation id. Nothing here survives a restart.
package sessions

import (
	"sync"

	"mlimi/internal/domain"
)

// MaxTurns caps every conversation's history; appending past the cap
// evicts the oldest turn first.
const MaxTurns = 10

type conversation struct {
	mu    sync.Mutex
	turns []domain.Turn
}

// Context manages per-conversation histories. Each conversation has its own
// lock, so slow work on one chat never blocks another. Callers must not hold
// results across adapter calls expecting them to stay current; History
// returns a snapshot copy.
type Context struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
}

func NewContext() *Context {
	return &Context{conversations: make(map[string]*conversation)}
}

// History returns a copy of the conversation's turns, oldest first. Unseen
// ids yield an empty slice.
func (c *Context) History(id string) []domain.Turn {
	c.mu.RLock()
	conv, ok := c.conversations[id]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	out := make([]domain.Turn, len(conv.turns))
	copy(out, conv.turns)
	return out
}

// Append adds a turn to the conversation, evicting the oldest once the cap
// is reached. Appends for the same id are serialized; distinct ids are
// fully independent.
func (c *Context) Append(id string, role domain.Role, content string) {
	conv := c.entry(id)

	conv.mu.Lock()
	defer conv.mu.Unlock()
	conv.turns = append(conv.turns, domain.Turn{Role: role, Content: content})
	if len(conv.turns) > MaxTurns {
		over := len(conv.turns) - MaxTurns
		conv.turns = append(conv.turns[:0], conv.turns[over:]...)
	}
}

// Clear drops a conversation's history entirely.
func (c *Context) Clear(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conversations, id)
}

func (c *Context) entry(id string) *conversation {
	c.mu.RLock()
	conv, ok := c.conversations[id]
	c.mu.RUnlock()
	if ok {
		return conv
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if conv, ok = c.conversations[id]; ok {
		return conv
	}
	conv = &conversation{}
	c.conversations[id] = conv
	return conv
}
