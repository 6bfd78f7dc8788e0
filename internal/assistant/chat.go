package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxSessionMessages bounds how much history is replayed to the provider.
const MaxSessionMessages = 20

// PrefixSource yields the settings-derived prompt prefix for a user.
// *settings.Service satisfies it.
type PrefixSource interface {
	PromptPrefix(ctx context.Context, userID uuid.UUID) (string, error)
}

// ChatService manages per-user chat sessions
type ChatService struct {
	provider Provider
	prefixes PrefixSource
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*ChatSession
}

// ChatSession represents an active chat session
type ChatSession struct {
	UserID       uuid.UUID
	Messages     []ChatMessage
	CreatedAt    time.Time
	LastActivity time.Time
}

// NewChatService creates a new chat service
func NewChatService(provider Provider, prefixes PrefixSource, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		provider: provider,
		prefixes: prefixes,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*ChatSession),
	}
}

func (s *ChatService) session(userID uuid.UUID) *ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if session, ok := s.sessions[userID]; ok {
		session.LastActivity = now
		return session
	}
	session := &ChatSession{
		UserID:       userID,
		Messages:     make([]ChatMessage, 0),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[userID] = session
	return session
}

// History returns a copy of the user's conversation so far.
func (s *ChatService) History(userID uuid.UUID) []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	out := make([]ChatMessage, len(session.Messages))
	copy(out, session.Messages)
	return out
}

// Send appends the user's message, asks the provider for a reply with the user's
// prompt prefix applied, and records the reply. A failed call leaves the history unchanged.
func (s *ChatService) Send(ctx context.Context, userID uuid.UUID, content string) (*ChatResponse, error) {
	prefix := ""
	if s.prefixes != nil {
		p, err := s.prefixes.PromptPrefix(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load prompt prefix: %w", err)
		}
		prefix = p
	}

	session := s.session(userID)

	s.mu.RLock()
	history := make([]ChatMessage, len(session.Messages), len(session.Messages)+1)
	copy(history, session.Messages)
	s.mu.RUnlock()
	history = append(history, ChatMessage{Role: RoleUser, Content: content})

	response, err := s.provider.Chat(ctx, history, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat response: %w", err)
	}

	s.mu.Lock()
	session.Messages = append(session.Messages,
		ChatMessage{Role: RoleUser, Content: content},
		ChatMessage{Role: RoleAssistant, Content: response.Message},
	)
	if excess := len(session.Messages) - MaxSessionMessages; excess > 0 {
		session.Messages = append([]ChatMessage(nil), session.Messages[excess:]...)
	}
	session.LastActivity = s.now()
	s.mu.Unlock()

	s.logger.Debug("chat_turn_completed",
		zap.String("user_id", userID.String()),
		zap.Int("history_length", len(history)),
	)
	return response, nil
}

// CloseSession closes a chat session
func (s *ChatService) CloseSession(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// PruneIdle drops sessions idle for longer than maxIdle and returns how many were removed.
func (s *ChatService) PruneIdle(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for id, session := range s.sessions {
		if session.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
