// Package assistant talks to an LLM on behalf of a planner user. Every request is
// framed by the user's settings-derived prompt prefix.
package assistant

import (
	"context"
)

// Message roles accepted by Provider.Chat.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider is the interface for chat backends
type Provider interface {
	// Chat sends the conversation and returns the assistant's reply.
	// promptPrefix is prepended to the system prompt when non-empty.
	Chat(ctx context.Context, messages []ChatMessage, promptPrefix string) (*ChatResponse, error)
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=4000"`
}

// ChatResponse represents a response from the assistant
type ChatResponse struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}
