package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/benvon/smart-planner/internal/assistant"
	"github.com/benvon/smart-planner/internal/logger"
	"github.com/benvon/smart-planner/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ChatSender runs assistant conversations. *assistant.ChatService satisfies it.
type ChatSender interface {
	Send(ctx context.Context, userID uuid.UUID, content string) (*assistant.ChatResponse, error)
	History(userID uuid.UUID) []assistant.ChatMessage
	CloseSession(userID uuid.UUID)
}

// AssistantHandler serves the assistant chat endpoints
type AssistantHandler struct {
	chat   ChatSender
	logger *zap.Logger
}

// NewAssistantHandler creates an assistant handler
func NewAssistantHandler(chat ChatSender, logger *zap.Logger) *AssistantHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantHandler{chat: chat, logger: logger}
}

// RegisterRoutes registers assistant routes on a router already prefixed with /assistant
func (h *AssistantHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat", h.SendMessage).Methods("POST")
	r.HandleFunc("/chat", h.GetHistory).Methods("GET")
	r.HandleFunc("/chat", h.EndSession).Methods("DELETE")
}

// ChatMessageRequest represents a chat message request
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// ChatMessageResponse is the assistant's reply
type ChatMessageResponse struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// SendMessage sends one user message and returns the assistant's reply
func (h *AssistantHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ChatMessageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	req.Message = validation.SanitizeText(req.Message)
	if req.Message == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Message is required and cannot be empty after sanitization")
		return
	}

	resp, err := h.chat.Send(r.Context(), userID, req.Message)
	if err != nil {
		h.respondProviderError(w, userID, err)
		return
	}

	respondJSON(w, http.StatusOK, ChatMessageResponse{Message: resp.Message, Model: resp.Model})
}

// GetHistory returns the current conversation
func (h *AssistantHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	history := h.chat.History(userID)
	if history == nil {
		history = []assistant.ChatMessage{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": history})
}

// EndSession discards the current conversation
func (h *AssistantHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.chat.CloseSession(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AssistantHandler) respondProviderError(w http.ResponseWriter, userID uuid.UUID, err error) {
	classified := err
	apiErr := assistant.ExtractAPIError(err)
	if apiErr != nil {
		classified = apiErr
	}

	switch {
	case assistant.IsQuotaError(classified):
		h.logger.Error("assistant_quota_exhausted", zap.String("user_id", userID.String()), zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Assistant is temporarily unavailable")
	case assistant.IsRateLimitError(classified):
		if apiErr != nil && apiErr.RetryAfter != nil {
			w.Header().Set("Retry-After", strconv.Itoa(int(apiErr.RetryAfter.Seconds())))
		}
		h.logger.Warn("assistant_rate_limited", zap.String("user_id", userID.String()))
		respondJSONError(w, http.StatusTooManyRequests, "Too Many Requests", "Assistant rate limit reached, try again later")
	default:
		h.logger.Error("assistant_chat_failed", zap.String("user_id", userID.String()), zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Assistant request failed")
	}
}
