package engine

import "github.com/sourcegrep/sourcegrep/api/schemas"

// TimeKey identifies one (rule, target) cell of the match-time matrix.
type TimeKey struct {
	RuleID string
	Path   string
}

// DebugStep is one opaque debug record the core emits while evaluating a
// rule. The reporting layer only carries these through to json-debug output.
type DebugStep map[string]any

// Output is everything one completed core invocation hands to the reporting
// layer. Matches are keyed by rule id; Rules preserves the order in which
// rules produced output so downstream accumulation stays deterministic.
type Output struct {
	Matches    map[string][]schemas.RuleMatch
	Rules      []schemas.Rule
	DebugSteps map[string][]DebugStep

	// StatsLine is the one-line human summary the driver logs at close.
	StatsLine string

	// Targets is the set of files actually scanned.
	Targets []string

	// FilteredRules is every rule the core ran, matched or not.
	FilteredRules []schemas.Rule

	// MatchTimes holds per-(rule, target) match durations in seconds,
	// excluding parse time.
	MatchTimes map[TimeKey]float64
}
