package model

import "time"

// Role identifies who authored a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of the conversation. It is passed and stored by value,
// so an appended message cannot be changed through a caller's copy.
type ChatMessage struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// NewUserMessage creates a user-authored message stamped with the current time
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// NewAssistantMessage creates a model-authored message stamped with the current time
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}
