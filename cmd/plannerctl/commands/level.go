package commands

import (
	"fmt"

	"github.com/benvon/smart-planner/internal/progression"
	"github.com/spf13/cobra"
)

// NewLevelCmd creates the level command
func NewLevelCmd() *cobra.Command {
	var points int

	cmd := &cobra.Command{
		Use:   "level",
		Short: "Show the level for a point total",
		Long:  "Print the level, progress and points to the next level for a lifetime point total",
		RunE: func(cmd *cobra.Command, args []string) error {
			if points < 0 {
				return fmt.Errorf("--points must not be negative")
			}
			summary := progression.Summarize(points)
			return writeYAML(cmd.OutOrStdout(), map[string]any{
				"total_points":         summary.TotalPoints,
				"level":                summary.Level,
				"current_level_points": summary.CurrentLevelPoints,
				"next_level_points":    summary.NextLevelPoints,
				"points_to_next_level": summary.PointsToNextLevel,
				"level_progress":       summary.LevelProgress,
			})
		},
	}
	cmd.Flags().IntVar(&points, "points", 0, "Lifetime point total")
	return cmd
}
