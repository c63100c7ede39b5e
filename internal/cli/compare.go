package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sdejongh/foldersync/pkg/logging"
	"github.com/sdejongh/foldersync/pkg/models"
	"github.com/sdejongh/foldersync/pkg/output"
	"github.com/sdejongh/foldersync/pkg/sync"
)

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Show what the next sync cycle would change (dry-run)",
		Long: `Scan the source and replica folders and list the changes a sync cycle
would apply, without touching the replica.`,
		RunE: runCompare,
	}

	// Reuse sync flags for comparison
	cmd.Flags().StringVarP(&syncFlags.Source, "source", "s", "", "source folder path (required)")
	cmd.Flags().StringVarP(&syncFlags.Replica, "replica", "r", "", "replica folder path (required)")
	cmd.Flags().BoolVar(&syncFlags.Hash, "hash", false, "compare file contents when timestamps match")
	cmd.Flags().StringVar(&syncFlags.HashAlgorithm, "hash-algorithm", string(models.HashXXH64), "content hash: xxhash, md5, sha256")
	cmd.Flags().StringSliceVar(&syncFlags.Exclude, "exclude", []string{}, "glob patterns to exclude")
	cmd.Flags().StringVarP(&syncFlags.Output, "output", "o", "human", "output format: human, json")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlagsToConfig(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	source, replica, err := ValidatePaths(syncFlags.Source, syncFlags.Replica, false)
	if err != nil {
		return err
	}

	syncCfg, err := cfg.SyncConfiguration(source, replica)
	if err != nil {
		return err
	}

	var logger logging.Logger = logging.NewNullLogger()
	if globalFlags.Verbose {
		l, err := createLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer l.Close()
		logger = l
	}

	report, err := sync.NewReconciler(sync.WithLogger(logger)).Plan(ctx, syncCfg)
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}

	if cfg.Output.Format == "json" {
		return writePlanJSON(cmd.OutOrStdout(), report)
	}
	return writePlanHuman(cmd.OutOrStdout(), report)
}

func writePlanHuman(w io.Writer, report *models.CycleReport) error {
	if len(report.Actions) == 0 && len(report.Errors) == 0 {
		_, err := fmt.Fprintln(w, "Replica is up to date")
		return err
	}

	for _, a := range report.Actions {
		if a.Bytes > 0 {
			fmt.Fprintf(w, "%-11s %s (%s)\n", a.Action, a.RelPath, humanize.IBytes(uint64(a.Bytes)))
		} else {
			fmt.Fprintf(w, "%-11s %s\n", a.Action, a.RelPath)
		}
	}
	for _, e := range report.Errors {
		fmt.Fprintf(w, "%-11s %s: %v\n", "error", e.RelPath, e.Err)
	}

	_, err := fmt.Fprintf(w, "\n%d changes, %s to copy\n",
		report.Stats.Changes(), humanize.IBytes(uint64(report.Stats.BytesTransferred)))
	return err
}

func writePlanJSON(w io.Writer, report *models.CycleReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output.NewJSONReport(report))
}
