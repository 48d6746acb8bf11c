package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/rclean/pkg/rclean/rules"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [name]",
	Short: "List built-in rule presets",
	Long: `List the built-in rule presets and their rules.

Without arguments, all preset names are listed. With a preset name,
the rules it contains are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		printInfo("Available presets: %s", strings.Join(rules.PresetNames, ", "))
		printInfo("Use 'rclean presets <name>' to list a preset's rules.")
		return nil
	}

	preset, err := rules.Preset(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%-24s %-8s %-8s %s\n", "PATTERN", "KIND", "CATEGORY", "POLICY")
	for _, r := range preset {
		policy := r.Policy.String()
		if r.Policy == rules.PolicyDeleteIfOlder {
			policy += " " + r.MaxAge.String()
		}
		fmt.Printf("%-24s %-8s %-8s %s\n", r.Pattern, r.Kind, r.Category, policy)
	}
	return nil
}
