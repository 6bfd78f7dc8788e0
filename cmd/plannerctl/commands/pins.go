package commands

import (
	"fmt"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/pinning"
	"github.com/benvon/smart-planner/internal/upstream"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewPinsCmd creates the pins command
func NewPinsCmd() *cobra.Command {
	var file, now, pinID, unpinID string
	var maxPinned int
	var auto bool

	cmd := &cobra.Command{
		Use:   "pins",
		Short: "Show or change which goals are pinned",
		Long:  "Read a YAML or JSON list of goals, optionally pin, unpin or auto-pin one, and print the resulting pinned set",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required (use - for stdin)")
			}
			if maxPinned < 1 {
				return fmt.Errorf("--max must be at least 1")
			}
			at, err := parseNow(now)
			if err != nil {
				return err
			}
			records, err := readRecords[upstream.GoalRecord](file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			goals := upstream.GoalsToModels(records)
			manager := pinning.NewManager(maxPinned, zap.NewNop())
			out := cmd.OutOrStdout()

			switch {
			case pinID != "":
				goal, err := goalByID(goals, pinID)
				if err != nil {
					return err
				}
				if evicted := manager.Pin(goal, goals, at); evicted != nil {
					_, _ = fmt.Fprintf(out, "Unpinned %q to make room\n", evicted.Title)
				}
			case unpinID != "":
				goal, err := goalByID(goals, unpinID)
				if err != nil {
					return err
				}
				manager.Unpin(goal)
			case auto:
				if goal := manager.AutoPinGoals(goals, at); goal != nil {
					_, _ = fmt.Fprintf(out, "Auto-pinned %q\n", goal.Title)
				}
			}

			pinned := manager.PinnedGoals(goals)
			_, _ = fmt.Fprintf(out, "Pinned goals (%d of %d):\n", len(pinned), manager.MaxPinned())
			for _, g := range pinned {
				_, _ = fmt.Fprintf(out, "  - %s [%s]\n", g.Title, g.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to the goal list, or - for stdin (required)")
	cmd.Flags().StringVar(&now, "now", "", "Pin as of this timestamp instead of the current time")
	cmd.Flags().StringVar(&pinID, "pin", "", "ID of the goal to pin")
	cmd.Flags().StringVar(&unpinID, "unpin", "", "ID of the goal to unpin")
	cmd.Flags().BoolVar(&auto, "auto", false, "Pin the newest active goal when nothing is pinned")
	cmd.Flags().IntVar(&maxPinned, "max", pinning.MaxPinnedGoals, "Maximum number of pinned goals")
	cmd.MarkFlagsMutuallyExclusive("pin", "unpin", "auto")
	return cmd
}

func goalByID(goals []*models.Goal, raw string) (*models.Goal, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid goal ID %q: %w", raw, err)
	}
	var found *models.Goal
	for _, g := range goals {
		if g.ID != id {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("goal ID %s appears more than once", id)
		}
		found = g
	}
	if found == nil {
		return nil, fmt.Errorf("goal %s not found", id)
	}
	return found, nil
}
