package engine

import (
	"fmt"
	"sort"

	json "github.com/json-iterator/go"

	"github.com/sourcegrep/sourcegrep/api/schemas"
)

// coreOutput is the wire shape the core binary prints on stdout. Matches
// carry locations and source text only; rule metadata (message, severity)
// is joined back in from the rule set here, since the core does not see it.
type coreOutput struct {
	Matches []coreMatch `json:"matches"`
	Errors  []coreError `json:"errors"`
	Times   []coreTime  `json:"times,omitempty"`
	Debug   map[string][]DebugStep `json:"debug,omitempty"`
}

type coreMatch struct {
	RuleID string           `json:"rule_id"`
	Path   string           `json:"path"`
	Start  schemas.Position `json:"start"`
	End    schemas.Position `json:"end"`
	Lines  []string         `json:"lines"`
}

type coreError struct {
	Kind    string `json:"kind"`
	Level   string `json:"level"`
	Path    string `json:"path,omitempty"`
	RuleID  string `json:"rule_id,omitempty"`
	Message string `json:"message,omitempty"`
}

type coreTime struct {
	RuleID  string  `json:"rule_id"`
	Path    string  `json:"path"`
	Seconds float64 `json:"seconds"`
}

// ParseCoreOutput decodes one core run. Matches referencing a rule id the
// driver never passed are reported as errors rather than silently kept.
func ParseCoreOutput(data []byte, rules []schemas.Rule) (*Output, []schemas.ScanError, error) {
	var raw coreOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decoding core output: %w", err)
	}

	byID := make(map[string]schemas.Rule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}

	out := &Output{
		Matches:       make(map[string][]schemas.RuleMatch),
		DebugSteps:    raw.Debug,
		FilteredRules: rules,
		MatchTimes:    make(map[TimeKey]float64, len(raw.Times)),
	}

	var errs []schemas.ScanError
	seenRule := make(map[string]bool)
	for _, cm := range raw.Matches {
		rule, ok := byID[cm.RuleID]
		if !ok {
			errs = append(errs, schemas.NewFatalError(
				fmt.Sprintf("core reported match for unknown rule %q in %s", cm.RuleID, cm.Path)))
			continue
		}
		if !seenRule[rule.ID] {
			seenRule[rule.ID] = true
			out.Rules = append(out.Rules, rule)
		}
		out.Matches[rule.ID] = append(out.Matches[rule.ID], schemas.RuleMatch{
			RuleID:   rule.ID,
			Path:     cm.Path,
			Severity: rule.Severity,
			Start:    cm.Start,
			End:      cm.End,
			Lines:    cm.Lines,
			Message:  rule.Message,
		})
	}

	for _, ce := range raw.Errors {
		errs = append(errs, scanErrorFromCore(ce))
	}

	targets := make(map[string]bool)
	for _, ct := range raw.Times {
		out.MatchTimes[TimeKey{RuleID: ct.RuleID, Path: ct.Path}] = ct.Seconds
		targets[ct.Path] = true
	}
	for _, cm := range raw.Matches {
		targets[cm.Path] = true
	}
	for path := range targets {
		out.Targets = append(out.Targets, path)
	}
	sort.Strings(out.Targets)

	return out, errs, nil
}

// scanErrorFromCore maps a core error record onto the structured error
// taxonomy. Unknown kinds degrade to the generic fatal kind so nothing the
// core reports is dropped.
func scanErrorFromCore(ce coreError) schemas.ScanError {
	switch schemas.ErrorKind(ce.Kind) {
	case schemas.KindMatchTimeout:
		return schemas.NewMatchTimeoutError(ce.Path, ce.RuleID)
	case schemas.KindSourceParse:
		return schemas.ScanError{
			Kind:   schemas.KindSourceParse,
			Level:  coreLevel(ce.Level),
			Path:   ce.Path,
			RuleID: ce.RuleID,
			Msg:    ce.Message,
			Code:   schemas.ExitFatal,
		}
	case schemas.KindRuleParse:
		return schemas.ScanError{
			Kind:   schemas.KindRuleParse,
			Level:  coreLevel(ce.Level),
			Path:   ce.Path,
			RuleID: ce.RuleID,
			Msg:    ce.Message,
			Code:   schemas.ExitFatal,
		}
	default:
		return schemas.ScanError{
			Kind:   schemas.KindFatal,
			Level:  coreLevel(ce.Level),
			Path:   ce.Path,
			RuleID: ce.RuleID,
			Msg:    ce.Message,
			Code:   schemas.ExitFatal,
		}
	}
}

func coreLevel(s string) schemas.Level {
	if s == "warn" {
		return schemas.LevelWarn
	}
	return schemas.LevelError
}
