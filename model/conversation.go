package model

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when a history edit targets an entry that does not exist.
var ErrIndexOutOfRange = errors.New("message index out of range")

// Conversation is the ordered log of exchanged messages for one running session.
// Insertion order defines turn order and the recency window. It is not safe for
// concurrent use; the session layer serialises access.
type Conversation struct {
	messages []ChatMessage
}

// NewConversation returns an empty conversation
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message at the end of the log.
func (c *Conversation) Append(msg ChatMessage) {
	c.messages = append(c.messages, msg)
}

// LastN returns the final n messages in original order. If n exceeds the
// length, every message is returned; n <= 0 yields an empty slice.
// The result is a copy.
func (c *Conversation) LastN(n int) []ChatMessage {
	if n <= 0 {
		return []ChatMessage{}
	}
	start := len(c.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]ChatMessage, len(c.messages)-start)
	copy(out, c.messages[start:])
	return out
}

// RemoveAt deletes the message at index. An index outside [0, Len) is rejected
// with ErrIndexOutOfRange and the conversation is left untouched.
func (c *Conversation) RemoveAt(index int) error {
	if index < 0 || index >= len(c.messages) {
		return fmt.Errorf("remove message %d of %d: %w", index, len(c.messages), ErrIndexOutOfRange)
	}
	c.messages = append(c.messages[:index:index], c.messages[index+1:]...)
	return nil
}

// Clear drops every message.
func (c *Conversation) Clear() {
	c.messages = nil
}

// Len returns the number of messages
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Messages returns a copy of the whole log
func (c *Conversation) Messages() []ChatMessage {
	return c.LastN(len(c.messages))
}

// At returns the message at index.
func (c *Conversation) At(index int) (ChatMessage, error) {
	if index < 0 || index >= len(c.messages) {
		return ChatMessage{}, fmt.Errorf("message %d of %d: %w", index, len(c.messages), ErrIndexOutOfRange)
	}
	return c.messages[index], nil
}
