package assistant

import "github.com/benvon/smart-planner/internal/logger"

const (
	// MaxPreviewLength bounds prompt and reply previews in logs
	MaxPreviewLength = 200
	// MaxDebugContentLength bounds full-content debug logging
	MaxDebugContentLength = 10000
	// RedactedValue replaces secrets in logs
	RedactedValue = "[REDACTED]"
)

// SanitizeAPIKey keeps the first and last four characters of a key and redacts the rest.
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt returns a loggable preview of a prompt. fullLog raises the cap for debug mode.
func SanitizePrompt(prompt string, fullLog bool) string {
	return preview(prompt, fullLog)
}

// SanitizeResponse returns a loggable preview of a model reply.
func SanitizeResponse(response string, fullLog bool) string {
	return preview(response, fullLog)
}

func preview(s string, fullLog bool) string {
	if fullLog {
		return logger.SanitizeString(s, MaxDebugContentLength)
	}
	return logger.SanitizeString(s, MaxPreviewLength)
}
