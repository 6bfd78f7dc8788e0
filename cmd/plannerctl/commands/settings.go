package commands

import (
	"context"
	"fmt"

	"github.com/benvon/smart-planner/internal/config"
	"github.com/benvon/smart-planner/internal/database"
	"github.com/benvon/smart-planner/internal/kvstore"
	"github.com/benvon/smart-planner/internal/settings"
	"github.com/benvon/smart-planner/internal/validation"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const settingsKeyPrefix = "planner:settings"

// storeOpener opens the settings store and returns a func that releases it
type storeOpener func(ctx context.Context) (kvstore.Store, func(), error)

// NewSettingsCmd creates the settings command with get and set subcommands.
func NewSettingsCmd() *cobra.Command {
	return newSettingsCmd(openConfiguredStore)
}

func newSettingsCmd(open storeOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage user settings",
		Long:  "Read or update a user's settings in the configured backend (postgres or redis).",
	}
	cmd.AddCommand(newSettingsGetCmd(open))
	cmd.AddCommand(newSettingsSetCmd(open))
	return cmd
}

func newSettingsGetCmd(open storeOpener) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show a user's settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			store, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			svc := settings.NewService(store, nil)
			rec, err := svc.Load(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			if rec.IsEmpty() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No settings stored for this user.")
				return nil
			}
			return writeYAML(cmd.OutOrStdout(), map[string]string{
				"full_name":     rec.FullName,
				"nickname":      rec.Nickname,
				"preferences":   rec.Preferences,
				"prompt_prefix": settings.PromptPrefix(rec),
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	return cmd
}

func newSettingsSetCmd(open storeOpener) *cobra.Command {
	var user, fullName, nickname, preferences string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update a user's settings",
		Long:  "Update the given fields of a user's settings. Fields not passed keep their stored value.",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("full-name") && !flags.Changed("nickname") && !flags.Changed("preferences") {
				return fmt.Errorf("at least one of --full-name, --nickname or --preferences is required")
			}
			store, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			svc := settings.NewService(store, nil)
			rec, err := svc.Load(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			if flags.Changed("full-name") {
				rec.FullName = validation.SanitizeText(fullName)
			}
			if flags.Changed("nickname") {
				rec.Nickname = validation.SanitizeText(nickname)
			}
			if flags.Changed("preferences") {
				rec.Preferences = validation.SanitizeText(preferences)
			}
			if err := svc.Save(cmd.Context(), userID, rec); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Settings updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	cmd.Flags().StringVar(&fullName, "full-name", "", "Full name")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Nickname")
	cmd.Flags().StringVar(&preferences, "preferences", "", "Free-form preferences passed to the assistant")
	return cmd
}

func parseUser(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("--user is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --user: %w", err)
	}
	return id, nil
}

// openConfiguredStore opens the settings backend named by SETTINGS_BACKEND
func openConfiguredStore(ctx context.Context) (kvstore.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.SettingsBackend == config.SettingsBackendRedis {
		client, err := kvstore.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return kvstore.NewRedisStore(client, settingsKeyPrefix), func() { _ = client.Close() }, nil
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return database.NewKVRepository(db), func() { _ = db.Close() }, nil
}
