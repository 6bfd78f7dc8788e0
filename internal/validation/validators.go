package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("objective_status", validateObjectiveStatus); err != nil {
		panic(fmt.Sprintf("failed to register objective_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("task_filter", validateTaskFilter); err != nil {
		panic(fmt.Sprintf("failed to register task_filter validator: %v", err))
	}
	if err := Validate.RegisterValidation("timezone", validateTimezone); err != nil {
		panic(fmt.Sprintf("failed to register timezone validator: %v", err))
	}
}

func isObjectiveStatus(value string) bool {
	switch models.ObjectiveStatus(value) {
	case models.ObjectiveStatusAvailable, models.ObjectiveStatusInProgress, models.ObjectiveStatusCompleted,
		models.ObjectiveStatusLocked, models.ObjectiveStatusSkipped:
		return true
	default:
		return false
	}
}

func isTaskFilter(value string) bool {
	switch models.TaskFilter(value) {
	case models.TaskFilterInbox, models.TaskFilterToday, models.TaskFilterUpcoming,
		models.TaskFilterSomeday, models.TaskFilterOpen, models.TaskFilterCompleted:
		return true
	default:
		return false
	}
}

// validateObjectiveStatus validates that a string is a valid ObjectiveStatus enum value
func validateObjectiveStatus(fl validator.FieldLevel) bool {
	return isObjectiveStatus(fl.Field().String())
}

// validateTaskFilter validates that a string is a valid TaskFilter enum value
func validateTaskFilter(fl validator.FieldLevel) bool {
	return isTaskFilter(fl.Field().String())
}

// validateTimezone accepts IANA zone names the runtime can load
func validateTimezone(fl validator.FieldLevel) bool {
	_, err := time.LoadLocation(fl.Field().String())
	return err == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateObjectiveStatus validates an ObjectiveStatus string value
func ValidateObjectiveStatus(value string) error {
	if isObjectiveStatus(value) {
		return nil
	}
	return fmt.Errorf("invalid status: %s (must be 'available', 'in_progress', 'completed', 'locked', or 'skipped')", value)
}

// ValidateTaskFilter validates a TaskFilter string value
func ValidateTaskFilter(value string) error {
	if isTaskFilter(value) {
		return nil
	}
	return fmt.Errorf("invalid filter: %s (must be 'inbox', 'today', 'upcoming', 'someday', 'open', or 'completed')", value)
}

// FormatErrors flattens validator errors into a single readable message.
// Errors that are not validation errors are returned as-is.
func FormatErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
