package rules

import (
	"errors"
	"fmt"
)

// ErrUnknownPreset indicates that a preset name is not recognized.
var ErrUnknownPreset = errors.New("unknown preset")

// PresetNames lists the available preset names in display order.
var PresetNames = []string{"common", "python", "node", "rust", "java", "c", "go", "all"}

// presets holds the built-in rule lists. Order within each preset is
// significant: matching is first-match-wins across the compiled set.
var presets = map[string][]Rule{
	"common": {
		{Pattern: ".DS_Store", Kind: KindExactName, Category: CategoryTemp, Policy: PolicyDelete},
		{Pattern: "Thumbs.db", Kind: KindExactName, Category: CategoryTemp, Policy: PolicyDelete},
		{Pattern: ".bash_history", Kind: KindExactName, Category: CategoryHistory, Policy: PolicyDelete},
		{Pattern: ".python_history", Kind: KindExactName, Category: CategoryHistory, Policy: PolicyDelete},
		{Pattern: ".swp", Kind: KindSuffix, Category: CategoryTemp, Policy: PolicyDelete},
		{Pattern: ".swo", Kind: KindSuffix, Category: CategoryTemp, Policy: PolicyDelete},
		{Pattern: "~", Kind: KindSuffix, Category: CategoryTemp, Policy: PolicyDelete},
		{Pattern: ".log", Kind: KindSuffix, Category: CategoryLog, Policy: PolicyDelete},
	},
	"python": {
		{Pattern: "__pycache__", Kind: KindDirName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: ".mypy_cache", Kind: KindDirName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: ".pytest_cache", Kind: KindDirName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: ".ruff_cache", Kind: KindDirName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: ".pylint_cache", Kind: KindDirName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: ".ropeproject", Kind: KindDirName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: ".coverage", Kind: KindExactName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: "pip-log.txt", Kind: KindExactName, Category: CategoryLog, Policy: PolicyDelete},
		{Pattern: ".pyc", Kind: KindSuffix, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: ".pyo", Kind: KindSuffix, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: ".egg-info", Kind: KindDirName, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: "dist", Kind: KindDirName, Category: CategoryBuild, Policy: PolicyDeleteIfEmpty},
	},
	"node": {
		{Pattern: "node_modules", Kind: KindDirName, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: ".next", Kind: KindDirName, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: ".nuxt", Kind: KindDirName, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: ".cache", Kind: KindDirName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: ".parcel-cache", Kind: KindDirName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: ".turbo", Kind: KindDirName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: ".eslintcache", Kind: KindExactName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: "coverage", Kind: KindDirName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: ".nyc_output", Kind: KindDirName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: "dist", Kind: KindDirName, Category: CategoryBuild, Policy: PolicyDeleteIfEmpty},
	},
	"rust": {
		{Pattern: "target", Kind: KindDirName, Category: CategoryBuild, Policy: PolicyDelete},
	},
	"java": {
		{Pattern: ".class", Kind: KindSuffix, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: "target", Kind: KindDirName, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: ".gradle", Kind: KindDirName, Category: CategoryCache, Policy: PolicyDelete},
		{Pattern: "build", Kind: KindDirName, Category: CategoryBuild, Policy: PolicyDeleteIfEmpty},
	},
	"c": {
		{Pattern: ".o", Kind: KindSuffix, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: ".obj", Kind: KindSuffix, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: ".a", Kind: KindSuffix, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: ".so", Kind: KindSuffix, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: ".dylib", Kind: KindSuffix, Category: CategoryBuild, Policy: PolicyDelete},
		{Pattern: ".dll", Kind: KindSuffix, Category: CategoryBuild, Policy: PolicyDelete},
	},
	"go": {
		{Pattern: "vendor", Kind: KindDirName, Category: CategoryBuild, Policy: PolicyDeleteIfEmpty},
	},
}

// Preset returns the rules for a named preset. The special name "all"
// concatenates every preset in display order, deduplicating while
// preserving first occurrence order.
func Preset(name string) ([]Rule, error) {
	if name == "all" {
		var all []Rule
		for _, p := range PresetNames {
			if p == "all" {
				continue
			}
			all = appendRules(all, presets[p])
		}
		return all, nil
	}

	rules, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	out := make([]Rule, len(rules))
	copy(out, rules)
	return out, nil
}

// DefaultRules returns the default rule slate: common followed by python,
// deduplicated with first occurrence winning.
func DefaultRules() []Rule {
	var out []Rule
	out = appendRules(out, presets["common"])
	out = appendRules(out, presets["python"])
	return out
}

// appendRules appends rules to dst, skipping pattern+kind pairs already
// present so the result compiles without duplicate errors.
func appendRules(dst, src []Rule) []Rule {
	for _, r := range src {
		dup := false
		for _, have := range dst {
			if have.Pattern == r.Pattern && have.Kind == r.Kind {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, r)
		}
	}
	return dst
}
