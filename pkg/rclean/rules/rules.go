// Package rules provides the declarative rule catalog that identifies
// filesystem detritus for rclean. A RuleSet is compiled once from an ordered
// list of rules and matched against walker entries; matching is
// first-match-wins in declared order, so rule ordering is significant and is
// preserved through compilation.
package rules

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

// ErrConfig indicates a bad rule definition. Compilation errors are fatal
// and abort before any traversal.
var ErrConfig = errors.New("invalid rule configuration")

// Kind identifies how a rule's pattern is interpreted.
type Kind int

const (
	// KindExactName matches the entry basename exactly (case-sensitive).
	KindExactName Kind = iota
	// KindSuffix matches a case-sensitive suffix of the entry basename.
	KindSuffix
	// KindDirName matches the full basename of directory entries only.
	KindDirName
	// KindGlob matches a glob pattern against the slash-separated path.
	KindGlob
)

// String returns the string representation of the rule kind.
func (k Kind) String() string {
	switch k {
	case KindExactName:
		return "exact"
	case KindSuffix:
		return "suffix"
	case KindDirName:
		return "dirname"
	case KindGlob:
		return "glob"
	default:
		return "unknown"
	}
}

// ErrInvalidKind indicates that a kind string could not be parsed.
var ErrInvalidKind = errors.New("invalid rule kind")

// ParseKind parses a string into a Kind. Valid values are "exact",
// "suffix", "dirname", and "glob" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "exact":
		return KindExactName, nil
	case "suffix":
		return KindSuffix, nil
	case "dirname":
		return KindDirName, nil
	case "glob":
		return KindGlob, nil
	default:
		return KindExactName, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Policy determines what a matching rule does with the entry.
type Policy int

const (
	// PolicyDelete removes the entry unconditionally.
	PolicyDelete Policy = iota
	// PolicyDeleteIfEmpty removes the entry only when it is empty; a
	// non-empty match requires confirmation.
	PolicyDeleteIfEmpty
	// PolicyDeleteIfOlder removes the entry only when its modification
	// time is older than the rule's MaxAge.
	PolicyDeleteIfOlder
)

// String returns the string representation of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyDelete:
		return "delete"
	case PolicyDeleteIfEmpty:
		return "if-empty"
	case PolicyDeleteIfOlder:
		return "older-than"
	default:
		return "unknown"
	}
}

// ErrInvalidPolicy indicates that a policy string could not be parsed.
var ErrInvalidPolicy = errors.New("invalid rule policy")

// ParsePolicy parses a string into a Policy. Valid values are "delete",
// "if-empty", and "older-than" (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "delete":
		return PolicyDelete, nil
	case "if-empty":
		return PolicyDeleteIfEmpty, nil
	case "older-than":
		return PolicyDeleteIfOlder, nil
	default:
		return PolicyDelete, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// Category tags a rule for reporting and per-category statistics.
type Category string

// Categories assigned to the built-in presets.
const (
	CategoryCache   Category = "cache"
	CategoryLog     Category = "log"
	CategoryBuild   Category = "build"
	CategoryHistory Category = "history"
	CategoryTemp    Category = "temp"
)

// Rule is one declarative pattern identifying detritus. Rules are immutable
// once compiled into a RuleSet.
type Rule struct {
	// Pattern is the name, suffix, or glob to match, per Kind.
	Pattern string

	// Kind selects the pattern predicate.
	Kind Kind

	// Category tags matches for reporting.
	Category Category

	// Policy is the deletion policy applied on match.
	Policy Policy

	// MaxAge is the age threshold for PolicyDeleteIfOlder rules.
	// Ignored for other policies.
	MaxAge time.Duration

	// matcher is the compiled glob for KindGlob rules.
	matcher glob.Glob
}

// RuleSet is an immutable, ordered catalog of compiled rules. It holds no
// process-wide state; callers pass it by reference into every
// classification call.
type RuleSet struct {
	rules []Rule
}

// Compile validates and compiles an ordered rule list into a RuleSet.
// It fails with an ErrConfig-wrapped error on empty patterns, duplicate
// pattern+kind pairs, missing MaxAge on older-than rules, or malformed
// globs. Rule order is preserved.
func Compile(rules []Rule) (*RuleSet, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no rules defined", ErrConfig)
	}

	compiled := make([]Rule, 0, len(rules))
	seen := make(map[string]struct{}, len(rules))

	for i, r := range rules {
		if r.Pattern == "" {
			return nil, fmt.Errorf("%w: rule %d has an empty pattern", ErrConfig, i)
		}

		key := r.Kind.String() + "\x00" + r.Pattern
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate %s rule %q", ErrConfig, r.Kind, r.Pattern)
		}
		seen[key] = struct{}{}

		switch r.Kind {
		case KindExactName, KindSuffix, KindDirName:
			if strings.ContainsRune(r.Pattern, filepath.Separator) {
				return nil, fmt.Errorf("%w: %s rule %q must not contain a path separator",
					ErrConfig, r.Kind, r.Pattern)
			}
		case KindGlob:
			g, err := glob.Compile(r.Pattern, '/')
			if err != nil {
				return nil, fmt.Errorf("%w: glob rule %q: %v", ErrConfig, r.Pattern, err)
			}
			r.matcher = g
		default:
			return nil, fmt.Errorf("%w: rule %q has unknown kind %d", ErrConfig, r.Pattern, r.Kind)
		}

		if r.Policy == PolicyDeleteIfOlder && r.MaxAge <= 0 {
			return nil, fmt.Errorf("%w: older-than rule %q requires a positive max age",
				ErrConfig, r.Pattern)
		}

		compiled = append(compiled, r)
	}

	return &RuleSet{rules: compiled}, nil
}

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int { return len(rs.rules) }

// Rules returns a copy of the compiled rule list in declared order.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Match returns the first rule in declared order whose pattern predicate is
// true for the entry, or nil when no rule matches. Matching has no side
// effects and never mutates the entry.
func (rs *RuleSet) Match(e types.Entry) *Rule {
	name := filepath.Base(e.Path)

	for i := range rs.rules {
		r := &rs.rules[i]
		if r.matches(e, name) {
			return r
		}
	}
	return nil
}

// matches applies the rule's predicate to the entry.
func (r *Rule) matches(e types.Entry, name string) bool {
	switch r.Kind {
	case KindExactName:
		return name == r.Pattern
	case KindSuffix:
		return strings.HasSuffix(name, r.Pattern)
	case KindDirName:
		return e.Type == types.TypeDir && name == r.Pattern
	case KindGlob:
		if r.matcher.Match(filepath.ToSlash(e.Path)) {
			return true
		}
		// A separator-free glob like "*.pyc" also matches the basename,
		// mirroring how walker exclusion patterns behave.
		return !strings.Contains(r.Pattern, "/") && r.matcher.Match(name)
	default:
		return false
	}
}
