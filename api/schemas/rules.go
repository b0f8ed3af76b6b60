package schemas

// CLIRuleID is the synthetic rule id assigned when the user supplies a bare
// pattern on the command line instead of a rule file. Renderers treat it as
// "no rule" and omit rule headers for it.
const CLIRuleID = "-"

// Rule identifies a check definition. The reporting layer only reads rules;
// they are owned by rule resolution.
type Rule struct {
	ID       string         `json:"id" yaml:"id"`
	Severity Severity       `json:"severity" yaml:"severity"`
	Message  string         `json:"message" yaml:"message"`
	Pattern  string         `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	// Languages restricts which targets the rule applies to.
	Languages []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	// Metadata carries free-form rule annotations (references, CWE ids, ...)
	// surfaced in SARIF rule properties.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ShortRuleID returns the last dot-separated component of a rule id, the
// form editor integrations display. The full id stays canonical everywhere
// else.
func ShortRuleID(id string) string {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '.' {
			return id[i+1:]
		}
	}
	return id
}
