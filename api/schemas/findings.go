package schemas

// -- Finding Schemas --

// Severity is the level a rule assigns to its matches. Values are uppercase
// to match the rule-file syntax and the core engine's wire format.
type Severity string

// Constants defining the severity levels a rule may declare.
const (
	SeverityInfo    Severity = "INFO"    // Informational finding.
	SeverityWarning Severity = "WARNING" // Should be looked at, not necessarily a bug.
	SeverityError   Severity = "ERROR"   // High-confidence problem.
)

// Position is a 1-based (line, column) location inside a target file.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// FixRegex describes a regex-based autofix: apply Regex -> Replacement on the
// matched region. Count limits the number of occurrences rewritten; zero
// means all of them.
type FixRegex struct {
	Regex       string `json:"regex"`
	Replacement string `json:"replacement"`
	Count       int    `json:"count,omitempty"`
}

// RuleMatch is one reported match of a rule against a location in a target.
// It is a value record produced by the engine; the only field mutated after
// creation is Ignored, which the suppression filter derives from the matched
// source text.
type RuleMatch struct {
	RuleID   string   `json:"check_id"`
	Path     string   `json:"path"`
	Severity Severity `json:"severity"`
	Start    Position `json:"start"`
	End      Position `json:"end"`

	// Lines holds the literal source lines covered by the match. FixedLines,
	// when present, is the fix-applied variant and takes display precedence.
	Lines      []string `json:"lines"`
	FixedLines []string `json:"fixed_lines,omitempty"`

	Message  string    `json:"message"`
	Fix      string    `json:"fix,omitempty"`
	FixRegex *FixRegex `json:"fix_regex,omitempty"`

	// Ignored is set by the suppression filter, never by the engine.
	Ignored bool `json:"is_ignored"`
}

// DisplayLines returns the lines a renderer should show for this match: the
// fix-applied variant when an autofix was applied, otherwise the raw lines.
func (m *RuleMatch) DisplayLines() []string {
	if len(m.FixedLines) > 0 {
		return m.FixedLines
	}
	return m.Lines
}

// ruleMatchJSON is the canonical serialized form of a finding, mirroring the
// engine's wire format so downstream consumers see one stable shape.
type ruleMatchJSON struct {
	CheckID string         `json:"check_id"`
	Path    string         `json:"path"`
	Start   Position       `json:"start"`
	End     Position       `json:"end"`
	Extra   ruleMatchExtra `json:"extra"`
}

type ruleMatchExtra struct {
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Lines     []string  `json:"lines"`
	Fix       string    `json:"fix,omitempty"`
	FixRegex  *FixRegex `json:"fix_regex,omitempty"`
	IsIgnored bool      `json:"is_ignored"`
}

// ToJSON returns the match in its canonical report shape. The returned value
// is what the JSON renderer places into the top-level results array.
func (m *RuleMatch) ToJSON() any {
	return ruleMatchJSON{
		CheckID: m.RuleID,
		Path:    m.Path,
		Start:   m.Start,
		End:     m.End,
		Extra: ruleMatchExtra{
			Message:   m.Message,
			Severity:  m.Severity,
			Lines:     m.DisplayLines(),
			Fix:       m.Fix,
			FixRegex:  m.FixRegex,
			IsIgnored: m.Ignored,
		},
	}
}
