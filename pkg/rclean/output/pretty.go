package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

// PrettyFormatter formats a report with colors and styling using
// lipgloss, for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatTable(r))
	if len(r.Categories) > 1 {
		w.WriteString("\n")
		w.WriteString(f.formatCategories(r))
	}
	w.WriteString(f.formatFooter(r))

	if len(r.Conflicts) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatConflicts(r.Conflicts))
	}
	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Report) string {
	var lines []string

	rootLabel := LabelStyle.Render("Root:")
	rootValue := ValueStyle.Render(r.Root)
	lines = append(lines, fmt.Sprintf("%s %s", rootLabel, rootValue))

	mode := SuccessStyle.Render("clean")
	if r.DryRun {
		mode = WarningStyle.Render("dry run")
	}
	entriesLabel := LabelStyle.Render("Entries:")
	entriesValue := ValueStyle.Render(fmt.Sprintf("%d planned, %d kept", r.Summary.Entries, r.Summary.Kept))
	lines = append(lines, fmt.Sprintf("%s %s  %s", entriesLabel, entriesValue, mode))

	if r.Cancelled {
		lines = append(lines, WarningStyle.Bold(true).Render("Run cancelled before completion"))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatTable(r *Report) string {
	if len(r.Items) == 0 {
		return MutedStyle.Render("  Nothing to clean\n")
	}

	var sb strings.Builder

	first := "DISPOSITION"
	if !r.DryRun {
		first = "OUTCOME"
	}
	sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		TableHeaderStyle.Render(first),
		TableHeaderStyle.Render("SIZE"),
		TableHeaderStyle.Render("PATH")))

	maxSizeWidth := 8
	for _, item := range r.Items {
		if len(item.SizeHuman) > maxSizeWidth {
			maxSizeWidth = len(item.SizeHuman)
		}
	}

	for _, item := range r.Items {
		label, style := f.itemLabel(r, item)
		sizeStr := SizeStyle.Render(padLeft(item.SizeHuman, maxSizeWidth))
		pathStr := PathStyle.Render(item.Path)
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			style.Render(padRight(label, 18)), sizeStr, pathStr))
	}

	return sb.String()
}

func (f *PrettyFormatter) itemLabel(r *Report, item Item) (string, lipgloss.Style) {
	if r.DryRun {
		switch item.Disposition {
		case "needs-confirmation":
			return item.Disposition, WarningStyle
		default:
			return item.Disposition, ValueStyle
		}
	}
	switch item.Outcome {
	case "deleted":
		return item.Outcome, SuccessStyle
	case "skipped":
		return item.Outcome + " (" + item.Reason + ")", WarningStyle
	case "failed":
		return item.Outcome, ErrorStyle
	default:
		return item.Outcome, MutedStyle
	}
}

func (f *PrettyFormatter) formatCategories(r *Report) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  %s\n", TableHeaderStyle.Render("BY CATEGORY")))
	for _, st := range r.Categories {
		sb.WriteString(fmt.Sprintf("  %s %s (%d)\n",
			SizeStyle.Render(padLeft(st.BytesHuman, 10)),
			ValueStyle.Render(st.Category),
			st.Count))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Report) string {
	var parts []string

	if r.DryRun {
		label := LabelStyle.Render("Reclaimable:")
		value := SizeStyle.Render(r.Summary.ReclaimableHuman)
		parts = append(parts, fmt.Sprintf("%s %s", label, value))
		parts = append(parts, MutedStyle.Render("Run without --dry-run to delete"))
	} else {
		label := LabelStyle.Render("Freed:")
		value := SizeStyle.Render(types.FormatSize(r.Summary.BytesFreed))
		parts = append(parts, fmt.Sprintf("%s %s", label, value))
		counts := fmt.Sprintf("%d deleted, %d skipped, %d failed",
			r.Summary.Deleted, r.Summary.Skipped, r.Summary.Failed)
		if r.Summary.Failed > 0 {
			parts = append(parts, ErrorStyle.Render(counts))
		} else {
			parts = append(parts, ValueStyle.Render(counts))
		}
		if r.Summary.Duration > 0 {
			parts = append(parts, MutedStyle.Render("in "+formatDuration(r.Summary.Duration)))
		}
	}

	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatConflicts(conflicts []ConflictInfo) string {
	var sb strings.Builder
	sb.WriteString(ErrorStyle.Bold(true).Render("Symlink conflicts:"))
	sb.WriteString("\n")
	for _, c := range conflicts {
		sb.WriteString(ErrorStyle.Render(fmt.Sprintf("  %s -> %s (target also planned)", c.Link, c.Target)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
