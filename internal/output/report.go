package output

import (
	"github.com/sourcegrep/sourcegrep/api/schemas"
	"github.com/sourcegrep/sourcegrep/internal/engine"
	"github.com/sourcegrep/sourcegrep/internal/profiling"
)

// Report is the immutable snapshot a Renderer consumes. The handler builds
// it once at close time; renderers read it and nothing else.
type Report struct {
	// Matches in ingestion order. Rules holds each distinct rule that
	// produced at least one match, in first-seen order.
	Matches []schemas.RuleMatch
	Rules   []schemas.Rule

	// FilteredRules is the full list of rules the engine actually ran,
	// positionally indexing the per-target match-time arrays.
	FilteredRules []schemas.Rule

	Errors []schemas.ScanError

	// DebugSteps by rule id, rendered only by the json-debug format.
	DebugSteps map[string][]engine.DebugStep

	Targets    []string
	MatchTimes map[engine.TimeKey]float64
	StatsLine  string
	Profiler   *profiling.Profiler

	// Render-time options resolved by the handler.
	Colorize  bool
	MaxLines  int
	JSONStats bool
	JSONTime  bool
	Version   string
}
