package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/settings"
	"github.com/benvon/smart-planner/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SettingsService loads and saves user settings. *settings.Service satisfies it.
type SettingsService interface {
	Load(ctx context.Context, userID uuid.UUID) (models.Settings, error)
	Save(ctx context.Context, userID uuid.UUID, rec models.Settings) error
}

// SettingsHandler serves the user settings record
type SettingsHandler struct {
	settings SettingsService
	logger   *zap.Logger
}

// NewSettingsHandler creates a settings handler
func NewSettingsHandler(svc SettingsService, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{settings: svc, logger: logger}
}

// RegisterRoutes registers settings routes on a router already prefixed with /settings
func (h *SettingsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetSettings).Methods("GET")
	r.HandleFunc("", h.UpdateSettings).Methods("PUT")
}

// SettingsResponse is the settings record with the prompt prefix derived from it
type SettingsResponse struct {
	Settings     models.Settings `json:"settings"`
	PromptPrefix string          `json:"prompt_prefix"`
}

// GetSettings returns the user's settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rec, err := h.settings.Load(r.Context(), userID)
	if err != nil {
		h.logger.Error("settings_load_failed", zap.String("user_id", userID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve settings")
		return
	}

	respondJSON(w, http.StatusOK, SettingsResponse{Settings: rec, PromptPrefix: settings.PromptPrefix(rec)})
}

// UpdateSettings replaces the user's settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var rec models.Settings
	if !decodeAndValidate(w, r, &rec) {
		return
	}
	rec.FullName = validation.SanitizeText(rec.FullName)
	rec.Nickname = validation.SanitizeText(rec.Nickname)
	rec.Preferences = validation.SanitizeText(rec.Preferences)

	if err := h.settings.Save(r.Context(), userID, rec); err != nil {
		h.logger.Error("settings_save_failed", zap.String("user_id", userID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save settings")
		return
	}

	h.logger.Info("settings_updated", zap.String("user_id", userID.String()))
	respondJSON(w, http.StatusOK, SettingsResponse{Settings: rec, PromptPrefix: settings.PromptPrefix(rec)})
}
