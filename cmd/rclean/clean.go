package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/rclean/pkg/rclean/classify"
	"github.com/jamesainslie/rclean/pkg/rclean/config"
	"github.com/jamesainslie/rclean/pkg/rclean/exec"
	"github.com/jamesainslie/rclean/pkg/rclean/history"
	"github.com/jamesainslie/rclean/pkg/rclean/logging"
	"github.com/jamesainslie/rclean/pkg/rclean/output"
	"github.com/jamesainslie/rclean/pkg/rclean/plan"
	"github.com/jamesainslie/rclean/pkg/rclean/rules"
	"github.com/jamesainslie/rclean/pkg/rclean/types"
	"github.com/jamesainslie/rclean/pkg/rclean/walker"
)

// runClean is the traversal-classify-plan-execute pipeline behind the
// bare `rclean [path]` invocation.
func runClean(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlags(cfg)

	if err := initLogging(cfg); err != nil {
		return err
	}
	defer func() {
		if err := logging.Close(); err != nil {
			printVerbose("closing logs: %v", err)
		}
	}()
	logger := logging.Get("cli")

	ruleset, err := buildRuleSet(cfg)
	if err != nil {
		return err
	}
	printVerbose("compiled %d rules", ruleset.Len())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := walker.New(walker.Options{
		Root:    root,
		Exclude: cfg.Exclude,
		Workers: cfg.Workers,
	})
	walkRes, err := w.Walk(ctx)
	if err != nil {
		return err
	}
	logger.Info("walk finished",
		"root", w.Root(), "dirs", walkRes.Dirs, "files", walkRes.Files,
		"errors", walkRes.Errors, "elapsed", walkRes.Elapsed)

	verdicts := classify.All(walkRes.Entries, ruleset, time.Now().Unix())
	if cfg.BrokenSymlinks {
		verdicts = promoteBrokenSymlinks(verdicts)
	}
	if flagOlderThan != "" {
		minAge, err := rules.ParseDuration(flagOlderThan)
		if err != nil {
			return fmt.Errorf("invalid --older-than %q: %w", flagOlderThan, err)
		}
		verdicts = applyAgeFloor(verdicts, minAge, time.Now())
	}

	p := plan.Build(w.Root(), verdicts)
	warnings := collectWarnings(walkRes.Entries)

	var execRes *exec.Result
	if !flagDryRun && p.Len() > 0 {
		if !flagYes {
			preview := output.BuildReport(p, nil, warnings)
			if err := renderReport(cfg, preview); err != nil {
				return err
			}
		}
		if !confirmBatch(stdin, os.Stdout, p.Len(), flagYes, flagQuiet, interactiveStdin()) {
			logger.Info("run cancelled at confirmation", "planned", p.Len())
			printInfo("Cancelled, nothing deleted.")
			return nil
		}
		execRes = exec.Execute(ctx, p, exec.Options{
			Deleter: chooseDeleter(cfg),
			Confirm: confirmFunc(),
		})
		logger.Info("plan executed",
			"deleted", execRes.Deleted, "skipped", execRes.Skipped,
			"failed", execRes.Failed, "freed", execRes.BytesFreed,
			"cancelled", execRes.Cancelled)
		if execRes.Failed > 0 {
			exitCode = exitPartial
		}
	}

	report := output.BuildReport(p, execRes, warnings)
	if err := renderReport(cfg, report); err != nil {
		return err
	}

	if execRes != nil && cfg.History.Enabled {
		if err := recordRun(cfg, p, execRes); err != nil {
			logger.Warn("recording run history failed", "error", err)
		}
	}
	return nil
}

// applyFlags overlays command-line flags onto the loaded config.
func applyFlags(cfg *config.Config) {
	if len(flagPresets) > 0 {
		cfg.Presets = flagPresets
	}
	cfg.Exclude = append(cfg.Exclude, flagExclude...)
	if flagWorkers >= 0 {
		cfg.Workers = flagWorkers
	}
	if flagTrash {
		cfg.Trash = true
	}
	if flagBroken {
		cfg.BrokenSymlinks = true
	}
	if flagFormat != "" {
		cfg.Format = flagFormat
	}
}

func initLogging(cfg *config.Config) error {
	lc := logging.Config{
		Level: cfg.Logging.Level,
		Path:  cfg.Logging.Path,
		Rotation: logging.RotationConfig{
			MaxSize:    cfg.Logging.Rotation.MaxSize,
			MaxAge:     cfg.Logging.Rotation.MaxAge,
			MaxBackups: cfg.Logging.Rotation.MaxBackups,
		},
		Components: cfg.Logging.Components,
	}
	if flagVerbose {
		lc.Level = "debug"
		lc.ConsoleLevel = "debug"
	}
	return logging.Init(lc)
}

// buildRuleSet compiles configured rules plus any --pattern globs.
// Flag patterns go first so they win over configured rules.
func buildRuleSet(cfg *config.Config) (*rules.RuleSet, error) {
	if len(flagPatterns) == 0 {
		return cfg.BuildRules()
	}

	patternRules := make([]config.RuleConfig, 0, len(flagPatterns))
	for _, pattern := range flagPatterns {
		patternRules = append(patternRules, config.RuleConfig{
			Pattern:  pattern,
			Kind:     "glob",
			Category: string(rules.CategoryTemp),
		})
	}
	merged := *cfg
	merged.Rules = append(patternRules, cfg.Rules...)
	return merged.BuildRules()
}

// promoteBrokenSymlinks schedules unmatched symlinks whose target is
// gone for deletion. Verdicts a rule already decided are left alone.
func promoteBrokenSymlinks(verdicts []classify.Verdict) []classify.Verdict {
	out := make([]classify.Verdict, len(verdicts))
	for i, v := range verdicts {
		if v.Disposition == types.Keep && v.Rule == nil &&
			v.Entry.Type == types.TypeSymlink && v.Entry.TargetMissing {
			v.Disposition = types.Delete
			v.Reason = classify.ReasonBrokenSymlink
		}
		out[i] = v
	}
	return out
}

// applyAgeFloor demotes destructive verdicts on entries younger than
// minAge back to Keep.
func applyAgeFloor(verdicts []classify.Verdict, minAge time.Duration, now time.Time) []classify.Verdict {
	cutoff := now.Add(-minAge)
	out := make([]classify.Verdict, len(verdicts))
	for i, v := range verdicts {
		if v.Disposition.Destructive() && v.Entry.ModTime.After(cutoff) {
			v.Disposition = types.Keep
			v.Reason = classify.ReasonTooNew
		}
		out[i] = v
	}
	return out
}

func collectWarnings(entries []types.Entry) []string {
	var out []string
	for _, e := range entries {
		if e.AccessErr != "" {
			out = append(out, fmt.Sprintf("%s: %s (kept)", e.Path, e.AccessErr))
		}
	}
	return out
}

func chooseDeleter(cfg *config.Config) exec.Deleter {
	if cfg.Trash {
		return exec.TrashDeleter{}
	}
	return exec.OSDeleter{}
}

// stdin is shared by the batch and per-entry prompts so buffered input
// is not lost between them.
var stdin = bufio.NewReader(os.Stdin)

// interactiveStdin reports whether stdin is a terminal the user can
// answer prompts on.
func interactiveStdin() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// readYesNo consumes one answer line. Only "y" and "yes" (any case)
// accept; errors and everything else decline.
func readYesNo(r *bufio.Reader) bool {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// confirmBatch decides whether a plan of n actions may execute. --yes
// approves without prompting; quiet or non-interactive runs decline,
// otherwise the user is asked once for the whole batch.
func confirmBatch(in *bufio.Reader, out io.Writer, n int, assumeYes, quiet, interactive bool) bool {
	if assumeYes {
		return true
	}
	if quiet || !interactive {
		return false
	}
	fmt.Fprintf(out, "Delete the %d entries listed above? [y/N] ", n)
	return readYesNo(in)
}

// confirmFunc builds the gate for NeedsConfirmation actions: --yes
// approves everything, quiet or non-interactive runs decline everything,
// otherwise the user is prompted per entry.
func confirmFunc() exec.Confirm {
	if flagYes {
		return func(plan.Action) bool { return true }
	}
	if flagQuiet || !interactiveStdin() {
		return nil
	}

	return func(a plan.Action) bool {
		fmt.Printf("Delete non-empty %s %s (%s)? [y/N] ",
			a.Entry.Type, a.Entry.Path, a.Entry.HumanSize())
		return readYesNo(stdin)
	}
}

func renderReport(cfg *config.Config, report *output.Report) error {
	if flagStats {
		printStats(report)
		return nil
	}

	formatter, err := output.Get(cfg.Format)
	if err != nil {
		return fmt.Errorf("%v (available: %s)", err, strings.Join(output.Available(), ", "))
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		return err
	}
	fmt.Print(buf.String())
	return nil
}

// printStats prints the per-category aggregation only.
func printStats(report *output.Report) {
	for _, st := range report.Categories {
		printInfo("%10s  %s (%d entries)", st.BytesHuman, st.Category, st.Count)
	}
	printInfo("%10s  total reclaimable across %d entries",
		report.Summary.ReclaimableHuman, report.Summary.Entries)
}

func recordRun(cfg *config.Config, p *plan.Plan, res *exec.Result) (err error) {
	path := cfg.History.Path
	if path == "" {
		if err := config.EnsureDataDir(); err != nil {
			return err
		}
		path = config.DefaultHistoryPath()
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err = store.Append(&history.Record{
		Root:        p.Root,
		DryRun:      false,
		Planned:     p.Len(),
		Deleted:     res.Deleted,
		Skipped:     res.Skipped,
		Failed:      res.Failed,
		BytesFreed:  res.BytesFreed,
		Cancelled:   res.Cancelled,
		FailedPaths: res.FailedPaths(),
	}); err != nil {
		return err
	}

	_, err = store.Prune(cfg.History.RetentionDays)
	return err
}
