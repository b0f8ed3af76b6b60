package output

import (
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/sourcegrep/sourcegrep/api/schemas"
	"github.com/sourcegrep/sourcegrep/internal/engine"
)

// jsonRenderer produces the machine-readable report. The debug variant
// additionally carries the per-rule debug steps the core emitted.
type jsonRenderer struct {
	debug bool
}

// jsonReport fixes the top-level key order of the rendered document.
type jsonReport struct {
	Results []any                           `json:"results"`
	Debug   []map[string][]engine.DebugStep `json:"debug,omitempty"`
	Errors  []schemas.ScanError             `json:"errors"`
	Stats   *jsonStats                      `json:"stats,omitempty"`
	Time    *jsonTime                       `json:"time,omitempty"`
}

type jsonStats struct {
	Targets  map[string]int     `json:"targets"`
	Loc      map[string]int     `json:"loc"`
	Profiler map[string]float64 `json:"profiler"`
}

// jsonTime lists rule ids once; each target's match_times array is indexed
// positionally against that rules array.
type jsonTime struct {
	Rules   []jsonTimeRule   `json:"rules"`
	Targets []jsonTimeTarget `json:"targets"`
}

type jsonTimeRule struct {
	ID string `json:"id"`
}

type jsonTimeTarget struct {
	Path       string    `json:"path"`
	MatchTimes []float64 `json:"match_times"`
}

func (j jsonRenderer) Render(r *Report) (string, error) {
	doc := jsonReport{
		Results: make([]any, 0, len(r.Matches)),
		Errors:  r.Errors,
	}
	if doc.Errors == nil {
		doc.Errors = []schemas.ScanError{}
	}
	for i := range r.Matches {
		doc.Results = append(doc.Results, r.Matches[i].ToJSON())
	}

	if j.debug && len(r.DebugSteps) > 0 {
		doc.Debug = []map[string][]engine.DebugStep{r.DebugSteps}
	}

	if r.JSONStats {
		stats := &jsonStats{
			Targets: targetStats(r.Targets),
			Loc:     locStats(r.Targets),
		}
		if r.Profiler != nil {
			stats.Profiler = r.Profiler.DumpStats()
		}
		doc.Stats = stats
	}

	if r.JSONTime {
		doc.Time = buildTime(r)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling json report: %w", err)
	}
	return string(data), nil
}

// buildTime converts the match-time matrix to its wire shape. Pairs with no
// recorded duration report 0.0 so every array has one slot per rule.
func buildTime(r *Report) *jsonTime {
	t := &jsonTime{
		Rules:   make([]jsonTimeRule, 0, len(r.FilteredRules)),
		Targets: make([]jsonTimeTarget, 0, len(r.Targets)),
	}
	for _, rule := range r.FilteredRules {
		t.Rules = append(t.Rules, jsonTimeRule{ID: rule.ID})
	}
	for _, target := range r.Targets {
		times := make([]float64, 0, len(r.FilteredRules))
		for _, rule := range r.FilteredRules {
			times = append(times, r.MatchTimes[engine.TimeKey{RuleID: rule.ID, Path: target}])
		}
		t.Targets = append(t.Targets, jsonTimeTarget{Path: target, MatchTimes: times})
	}
	return t
}
