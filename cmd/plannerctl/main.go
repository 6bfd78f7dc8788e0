package main

import (
	"fmt"
	"os"

	"github.com/benvon/smart-planner/cmd/plannerctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "plannerctl",
		Short: "Command line tool for the Smart Planner engine",
		Long:  "Inspect task buckets, goal pins, levels and stored user settings from the command line",
	}

	rootCmd.AddCommand(commands.NewLevelCmd())
	rootCmd.AddCommand(commands.NewSectionsCmd())
	rootCmd.AddCommand(commands.NewPinsCmd())
	rootCmd.AddCommand(commands.NewDecodeTimeCmd())
	rootCmd.AddCommand(commands.NewSettingsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
