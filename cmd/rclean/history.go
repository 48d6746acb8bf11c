package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/rclean/pkg/rclean/config"
	"github.com/jamesainslie/rclean/pkg/rclean/history"
	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past cleaning runs",
	Long: `View the journal of past cleaning runs.

Each executed run is recorded with its totals, so you can audit what
rclean deleted and when. Dry runs are not recorded.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a specific run",
	Long:  `Display detailed information about one run. A unique ID prefix is accepted.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove runs older than the retention period",
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the journal at the configured path.
func openHistory() (*history.Store, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	path := cfg.History.Path
	if path == "" {
		if err := config.EnsureDataDir(); err != nil {
			return nil, nil, err
		}
		path = config.DefaultHistoryPath()
	}

	store, err := history.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			printVerbose("closing history: %v", cerr)
		}
	}()

	recs, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if len(recs) == 0 {
		printInfo("No runs recorded yet.")
		printInfo("Run 'rclean [path]' to clean a directory.")
		return nil
	}

	fmt.Printf("%-10s  %-20s  %-8s  %-8s  %-10s  %s\n",
		"ID", "STARTED", "DELETED", "FAILED", "FREED", "ROOT")
	fmt.Println(strings.Repeat("-", 80))
	for _, rec := range recs {
		fmt.Printf("%-10s  %-20s  %-8d  %-8d  %-10s  %s\n",
			shortID(rec.ID),
			rec.StartedAt.Format("2006-01-02 15:04:05"),
			rec.Deleted,
			rec.Failed,
			types.FormatSize(rec.BytesFreed),
			rec.Root,
		)
	}
	printInfo("\nUse 'rclean history show <id>' for details on a run.")
	return nil
}

// shortID abbreviates a record ID for the listing, tolerating IDs
// shorter than the display width.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			printVerbose("closing history: %v", cerr)
		}
	}()

	rec, err := store.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Println("Run Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", rec.ID)
	fmt.Printf("Started:    %s\n", rec.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Root:       %s\n", rec.Root)
	fmt.Printf("Planned:    %d\n", rec.Planned)
	fmt.Printf("Deleted:    %d\n", rec.Deleted)
	fmt.Printf("Skipped:    %d\n", rec.Skipped)
	fmt.Printf("Failed:     %d\n", rec.Failed)
	fmt.Printf("Freed:      %s\n", types.FormatSize(rec.BytesFreed))
	if rec.Cancelled {
		fmt.Println("Cancelled:  yes")
	}
	if len(rec.FailedPaths) > 0 {
		fmt.Println("Failed paths:")
		for _, p := range rec.FailedPaths {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}

func runHistoryClean(cmd *cobra.Command, args []string) error {
	store, cfg, err := openHistory()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			printVerbose("closing history: %v", cerr)
		}
	}()

	dropped, err := store.Prune(cfg.History.RetentionDays)
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}
	printInfo("Removed %d runs older than %d days.", dropped, cfg.History.RetentionDays)
	return nil
}
