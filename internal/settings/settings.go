// Package settings stores the flat user settings record and derives the assistant prompt prefix from it.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/smart-planner/internal/kvstore"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Keys under which each settings field is stored
const (
	KeyFullName    = "settings.full_name"
	KeyNickname    = "settings.nickname"
	KeyPreferences = "settings.preferences"
)

// Service loads and saves settings through a key-value store
type Service struct {
	store  kvstore.Store
	logger *zap.Logger
}

// NewService creates a settings service
func NewService(store kvstore.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Save validates and persists s. Loading afterwards returns an equal record.
func (s *Service) Save(ctx context.Context, userID uuid.UUID, rec models.Settings) error {
	if err := validation.Validate.Struct(rec); err != nil {
		return fmt.Errorf("invalid settings: %s", validation.FormatErrors(err))
	}

	fields := []struct {
		key, value string
	}{
		{KeyFullName, rec.FullName},
		{KeyNickname, rec.Nickname},
		{KeyPreferences, rec.Preferences},
	}
	for _, f := range fields {
		if err := s.store.Set(ctx, userID, f.key, f.value); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
	}

	s.logger.Debug("settings_saved", zap.String("user_id", userID.String()))
	return nil
}

// Load returns the stored settings. Missing fields load as empty strings.
func (s *Service) Load(ctx context.Context, userID uuid.UUID) (models.Settings, error) {
	var rec models.Settings
	targets := []struct {
		key string
		dst *string
	}{
		{KeyFullName, &rec.FullName},
		{KeyNickname, &rec.Nickname},
		{KeyPreferences, &rec.Preferences},
	}
	for _, t := range targets {
		v, err := s.store.Get(ctx, userID, t.key)
		if errors.Is(err, kvstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
		}
		*t.dst = v
	}
	return rec, nil
}

// PromptPrefix loads the user's settings and renders them with PromptPrefix.
func (s *Service) PromptPrefix(ctx context.Context, userID uuid.UUID) (string, error) {
	rec, err := s.Load(ctx, userID)
	if err != nil {
		return "", err
	}
	return PromptPrefix(rec), nil
}

// PromptPrefix renders settings as the text block prepended to assistant prompts:
//
//	About the user:
//	- Full name: <name>
//	- Nickname: <nickname>
//
//	User preferences:
//	<preferences>
//
// Blank fields are left out, as is a block with nothing in it. All-blank settings render as "".
func PromptPrefix(rec models.Settings) string {
	fullName := strings.TrimSpace(rec.FullName)
	nickname := strings.TrimSpace(rec.Nickname)
	prefs := strings.TrimSpace(rec.Preferences)

	var blocks []string

	if fullName != "" || nickname != "" {
		var b strings.Builder
		b.WriteString("About the user:")
		if fullName != "" {
			b.WriteString("\n- Full name: " + fullName)
		}
		if nickname != "" {
			b.WriteString("\n- Nickname: " + nickname)
		}
		blocks = append(blocks, b.String())
	}

	if prefs != "" {
		blocks = append(blocks, "User preferences:\n"+prefs)
	}

	return strings.Join(blocks, "\n\n")
}
