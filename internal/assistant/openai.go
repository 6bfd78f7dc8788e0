package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"

	basePrompt = "You are a planning assistant. You help the user organize tasks into today, " +
		"the next seven days and later, and keep at most a few goals in focus. Be concise and concrete."
)

// OpenAIProvider implements Provider using an OpenAI-compatible chat completions API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a provider. Empty baseURL and model fall back to the defaults.
func NewOpenAIProvider(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// SystemPrompt joins the fixed assistant instructions with the user's prompt prefix.
func SystemPrompt(promptPrefix string) string {
	prefix := strings.TrimSpace(promptPrefix)
	if prefix == "" {
		return basePrompt
	}
	return prefix + "\n\n" + basePrompt
}

func buildMessages(messages []ChatMessage, promptPrefix string) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	out = append(out, openai.SystemMessage(SystemPrompt(promptPrefix)))
	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// Chat sends the conversation to the chat completions endpoint
func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage, promptPrefix string) (*ChatResponse, error) {
	if len(messages) == 0 {
		return nil, errors.New("no messages to send")
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: buildMessages(messages, promptPrefix),
	}

	if p.debugMode {
		previews := make([]string, 0, len(messages))
		for _, msg := range messages {
			previews = append(previews, SanitizePrompt(msg.Content, false))
		}
		p.logger.Debug("llm_api_request",
			zap.String("operation", "chat"),
			zap.String("model", p.model),
			zap.Int("message_count", len(params.Messages)),
			zap.Bool("has_prompt_prefix", strings.TrimSpace(promptPrefix) != ""),
			zap.Strings("message_previews", previews),
		)
	}

	startTime := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	latency := time.Since(startTime)

	if err != nil {
		p.logger.Warn("llm_api_error",
			zap.String("operation", "chat"),
			zap.String("model", p.model),
			zap.Error(err),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to chat: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "chat"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, false)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return &ChatResponse{
		Message: content,
		Model:   p.model,
	}, nil
}
