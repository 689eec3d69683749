// Package history keeps the ordered message log of one conversation.
//
// The log retains every system message plus the most recent
// maxHistory - (#system) non-system messages. History is not safe for
// concurrent use; the host serialises turns.
package history

import (
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation log.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Entry is the wire form of a message sent to the chat API.
type Entry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is an ordered message log with a system-preserving eviction policy.
type History struct {
	messages   []Message
	maxHistory int
	now        func() time.Time
}

// New creates an empty History holding at most maxHistory messages
// (system messages are never evicted, so they may exceed the bound).
func New(maxHistory int) *History {
	return &History{
		maxHistory: maxHistory,
		now:        time.Now,
	}
}

// WithClock replaces the timestamp source (for tests).
func (h *History) WithClock(now func() time.Time) *History {
	h.now = now
	return h
}

// Append adds a message stamped with the current time and applies eviction.
func (h *History) Append(role Role, content string) {
	h.messages = append(h.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: h.now(),
	})
	h.evict()
}

// evict drops the oldest non-system messages until at most
// maxHistory - (#system) of them remain. Relative order is preserved.
func (h *History) evict() {
	if len(h.messages) <= h.maxHistory {
		return
	}

	systemCount := 0
	for _, m := range h.messages {
		if m.Role == RoleSystem {
			systemCount++
		}
	}
	keep := max(h.maxHistory-systemCount, 0)
	drop := len(h.messages) - systemCount - keep

	kept := make([]Message, 0, systemCount+keep)
	for _, m := range h.messages {
		if m.Role != RoleSystem && drop > 0 {
			drop--
			continue
		}
		kept = append(kept, m)
	}
	h.messages = kept
}

// Entries returns the ordered role/content pairs sent to the chat API.
func (h *History) Entries() []Entry {
	entries := make([]Entry, len(h.messages))
	for i, m := range h.messages {
		entries[i] = Entry{Role: m.Role, Content: m.Content}
	}
	return entries
}

// Messages returns a copy of the log.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages currently held.
func (h *History) Len() int {
	return len(h.messages)
}

// Reset removes every non-system message. The system prompt is kept.
func (h *History) Reset() {
	kept := h.messages[:0]
	for _, m := range h.messages {
		if m.Role == RoleSystem {
			kept = append(kept, m)
		}
	}
	clear(h.messages[len(kept):])
	h.messages = kept
}

// SetSystemPrompt replaces the content of the first system message, or appends
// one when none exists. Any further system messages are removed so exactly one
// authoritative system prompt remains.
func (h *History) SetSystemPrompt(text string) {
	first := -1
	kept := h.messages[:0]
	for _, m := range h.messages {
		if m.Role == RoleSystem {
			if first >= 0 {
				continue
			}
			first = len(kept)
			m.Content = text
		}
		kept = append(kept, m)
	}
	clear(h.messages[len(kept):])
	h.messages = kept

	if first < 0 {
		h.Append(RoleSystem, text)
	}
}

// SystemPrompt returns the authoritative system prompt, or "" if none is set.
func (h *History) SystemPrompt() string {
	for _, m := range h.messages {
		if m.Role == RoleSystem {
			return m.Content
		}
	}
	return ""
}
