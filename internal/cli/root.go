package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the foldersync command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "foldersync",
		Short: "One-way periodic folder synchronization",
		Long: `foldersync keeps a replica folder identical to a source folder.
Each cycle copies new and changed files atomically, then removes files and
empty folders that no longer exist in the source.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewSyncCommand())
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
