package core

import (
	"fmt"
	"strings"
)

// Group is a test case group. Groups execute in rank order:
// Smoke < Navigation < Functional.
type Group int

const (
	GroupSmoke Group = iota
	GroupNavigation
	GroupFunctional
)

// Rank returns the fixed ordering precedence of the group
func (g Group) Rank() int {
	return int(g)
}

// String returns the lowercase group name
func (g Group) String() string {
	switch g {
	case GroupSmoke:
		return "smoke"
	case GroupNavigation:
		return "navigation"
	case GroupFunctional:
		return "functional"
	default:
		return "unknown"
	}
}

// Letter returns the single-letter prefix used in case identifiers (S1, N3, F9)
func (g Group) Letter() string {
	switch g {
	case GroupSmoke:
		return "S"
	case GroupNavigation:
		return "N"
	case GroupFunctional:
		return "F"
	default:
		return "?"
	}
}

// ParseGroup parses a group from its name or letter, case-insensitive
func ParseGroup(s string) (Group, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "smoke", "s":
		return GroupSmoke, nil
	case "navigation", "nav", "n":
		return GroupNavigation, nil
	case "functional", "func", "f":
		return GroupFunctional, nil
	default:
		return 0, ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown test group %q", s))
	}
}

// DispositionKind says how the orchestrator should treat a case
type DispositionKind int

const (
	DispositionRun             DispositionKind = iota // Execute normally
	DispositionSkip                                   // Skip with a reason, never acquire a session
	DispositionSkipPlatform                           // Skip because the platform cannot exercise the behavior
	DispositionExpectedFail                           // Run; a failure is the expected outcome
	DispositionIntentionalFail                        // Run; fails on purpose to demonstrate failure capture
)

// String returns the disposition name used in reports
func (k DispositionKind) String() string {
	switch k {
	case DispositionRun:
		return "run"
	case DispositionSkip:
		return "skip"
	case DispositionSkipPlatform:
		return "skip-by-platform-limitation"
	case DispositionExpectedFail:
		return "expected-fail"
	case DispositionIntentionalFail:
		return "intentional-fail-for-demo"
	default:
		return "unknown"
	}
}

// Disposition is a case's declared treatment plus the reason behind it
type Disposition struct {
	Kind   DispositionKind
	Reason string
}

// Runs returns the normal run disposition
func Runs() Disposition {
	return Disposition{Kind: DispositionRun}
}

// Skip marks a case skipped with a reason
func Skip(reason string) Disposition {
	return Disposition{Kind: DispositionSkip, Reason: reason}
}

// PlatformLimitation marks a case skipped because the target platform
// cannot exercise the behavior under test
func PlatformLimitation(reason string) Disposition {
	return Disposition{Kind: DispositionSkipPlatform, Reason: reason}
}

// ExpectedFail marks a case whose failure is the expected outcome
func ExpectedFail(reason string) Disposition {
	return Disposition{Kind: DispositionExpectedFail, Reason: reason}
}

// IntentionalFail marks a case that fails on purpose for demonstration
func IntentionalFail(reason string) Disposition {
	return Disposition{Kind: DispositionIntentionalFail, Reason: reason}
}

// IsSkip reports whether the case must transition pending -> skipped
// without entering running
func (d Disposition) IsSkip() bool {
	return d.Kind == DispositionSkip || d.Kind == DispositionSkipPlatform
}

// ExpectsFailure reports whether a body failure counts as the expected outcome
func (d Disposition) ExpectsFailure() bool {
	return d.Kind == DispositionExpectedFail || d.Kind == DispositionIntentionalFail
}
