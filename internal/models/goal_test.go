package models

import (
	"testing"
)

func TestObjectiveStatus_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value ObjectiveStatus
		valid bool
	}{
		{"available", ObjectiveStatusAvailable, true},
		{"in_progress", ObjectiveStatusInProgress, true},
		{"completed", ObjectiveStatusCompleted, true},
		{"locked", ObjectiveStatusLocked, true},
		{"skipped", ObjectiveStatusSkipped, true},
		{"invalid", ObjectiveStatus("invalid"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			switch tt.value {
			case ObjectiveStatusAvailable, ObjectiveStatusInProgress, ObjectiveStatusCompleted,
				ObjectiveStatusLocked, ObjectiveStatusSkipped:
				if !tt.valid {
					t.Errorf("Expected %s to be invalid", tt.value)
				}
			default:
				if tt.valid {
					t.Errorf("Expected %s to be valid", tt.value)
				}
			}
		})
	}
}

func TestGoal_IsActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		objectives []Objective
		want       bool
	}{
		{"no objectives", nil, true},
		{"one available", []Objective{{Status: ObjectiveStatusAvailable}}, true},
		{"mixed", []Objective{{Status: ObjectiveStatusCompleted}, {Status: ObjectiveStatusInProgress}}, true},
		{"all completed", []Objective{{Status: ObjectiveStatusCompleted}, {Status: ObjectiveStatusCompleted}}, false},
		{"completed and skipped", []Objective{{Status: ObjectiveStatusCompleted}, {Status: ObjectiveStatusSkipped}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := &Goal{Objectives: tt.objectives}
			if got := g.IsActive(); got != tt.want {
				t.Errorf("Expected IsActive=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestSettings_IsEmpty(t *testing.T) {
	t.Parallel()

	if !(Settings{}).IsEmpty() {
		t.Error("Expected zero settings to be empty")
	}
	if (Settings{Nickname: "Sam"}).IsEmpty() {
		t.Error("Expected settings with nickname to be non-empty")
	}
}
