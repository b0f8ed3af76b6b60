package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sourcegrep/sourcegrep/api/schemas"
)

// emacsRenderer produces one compilation-mode line per finding:
// path:line:col:severity(shortRuleID):firstSourceLine. The rule id suffix is
// omitted for bare CLI patterns.
type emacsRenderer struct{}

func (emacsRenderer) Render(r *Report) (string, error) {
	sorted := make([]*schemas.RuleMatch, len(r.Matches))
	for i := range r.Matches {
		sorted[i] = &r.Matches[i]
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return sorted[i].RuleID < sorted[j].RuleID
	})

	lines := make([]string, 0, len(sorted))
	for _, m := range sorted {
		var info string
		if m.RuleID != "" && m.RuleID != schemas.CLIRuleID {
			info = "(" + schemas.ShortRuleID(m.RuleID) + ")"
		}
		var first string
		if len(m.Lines) > 0 {
			first = strings.TrimRight(m.Lines[0], " \t\r\n")
		}
		lines = append(lines, fmt.Sprintf("%s:%d:%d:%s%s:%s",
			m.Path, m.Start.Line, m.Start.Col, strings.ToLower(string(m.Severity)), info, first))
	}
	return strings.Join(lines, "\n"), nil
}

// vimRenderer produces quickfix lines in ingestion order:
// path:line:col:severityCode:ruleID:message.
type vimRenderer struct{}

func (vimRenderer) Render(r *Report) (string, error) {
	lines := make([]string, 0, len(r.Matches))
	for i := range r.Matches {
		m := &r.Matches[i]
		parts := []string{
			m.Path,
			fmt.Sprintf("%d", m.Start.Line),
			fmt.Sprintf("%d", m.Start.Col),
			vimSeverity(m.Severity),
			m.RuleID,
			m.Message,
		}
		lines = append(lines, strings.Join(parts, ":"))
	}
	return strings.Join(lines, "\n"), nil
}

func vimSeverity(s schemas.Severity) string {
	switch s {
	case schemas.SeverityInfo:
		return "I"
	case schemas.SeverityWarning:
		return "W"
	case schemas.SeverityError:
		return "E"
	default:
		return "I"
	}
}
