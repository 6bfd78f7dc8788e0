package commands

import (
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/timestamp"
	"github.com/spf13/cobra"
)

// NewDecodeTimeCmd creates the decode-time command
func NewDecodeTimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-time <timestamp>...",
		Short: "Decode upstream timestamps",
		Long:  "Run each argument through the timestamp fallback chain and print the decoded UTC instant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, raw := range args {
				t, err := timestamp.Parse(raw)
				if err != nil {
					failed++
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tinvalid\n", raw)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", raw, t.UTC().Format(time.RFC3339Nano))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d timestamps could not be decoded", failed, len(args))
			}
			return nil
		},
	}
}
