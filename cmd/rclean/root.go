package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes: 0 on success, 1 on a fatal error, 2 when some planned
// deletions failed but the run completed.
const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

var (
	cfgFile string

	flagPresets   []string
	flagPatterns  []string
	flagExclude   []string
	flagOlderThan string
	flagDryRun    bool
	flagYes       bool
	flagTrash     bool
	flagBroken    bool
	flagFormat    string
	flagWorkers   int
	flagStats     bool
	flagQuiet     bool
	flagVerbose   bool

	// exitCode is promoted to exitPartial when deletions fail.
	exitCode = exitOK

	rootCmd = &cobra.Command{
		Use:   "rclean [path]",
		Short: "Remove build artifacts and other filesystem detritus",
		Long: `rclean walks a directory tree, classifies entries against a rule
catalog of known detritus (bytecode caches, log files, build output),
and deletes what matches. Dry-run mode previews the plan without
touching the disk.

Examples:
  rclean --dry-run .          # Preview what would be deleted
  rclean ~/src/project        # Clean a project tree
  rclean -p node -p rust .    # Enable specific rule presets
  rclean --older-than 30d .   # Only delete entries older than 30 days
  rclean --trash -y .         # Move matches to the system trash
  rclean presets              # List built-in rule presets
  rclean history              # Show past runs`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runClean,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .rclean.yaml or ~/.config/rclean/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug output on stderr")

	rootCmd.Flags().StringSliceVarP(&flagPresets, "preset", "p", nil, "rule presets to enable (replaces configured presets)")
	rootCmd.Flags().StringSliceVar(&flagPatterns, "pattern", nil, "extra glob patterns to delete (can be repeated)")
	rootCmd.Flags().StringSliceVarP(&flagExclude, "exclude", "e", nil, "extra exclude patterns (can be repeated)")
	rootCmd.Flags().StringVar(&flagOlderThan, "older-than", "", "only delete entries older than this age (e.g. 30d, 12h)")
	rootCmd.Flags().BoolVarP(&flagDryRun, "dry-run", "d", false, "preview the plan without deleting")
	rootCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "confirm all prompts automatically")
	rootCmd.Flags().BoolVar(&flagTrash, "trash", false, "move matches to the system trash instead of deleting")
	rootCmd.Flags().BoolVar(&flagBroken, "broken-symlinks", false, "also delete symlinks whose target no longer exists")
	rootCmd.Flags().StringVarP(&flagFormat, "format", "o", "", "output format: pretty, plain, json, jsonl, yaml")
	rootCmd.Flags().IntVarP(&flagWorkers, "workers", "w", -1, "stat worker pool size (0=sequential, -1=config)")
	rootCmd.Flags().BoolVar(&flagStats, "stats", false, "print per-category statistics only")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		return exitFatal
	}
	return exitCode
}

// printVerbose prints a debug message when verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if flagVerbose && !flagQuiet {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message unless quiet mode is enabled.
func printInfo(format string, args ...interface{}) {
	if !flagQuiet {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
