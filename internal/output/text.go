package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sourcegrep/sourcegrep/api/schemas"
)

// textRenderer produces the human-readable console format: findings grouped
// by file, rule headers deduplicated, severity-colored prefixes, source
// snippets via the line renderer.
type textRenderer struct{}

func (textRenderer) Render(r *Report) (string, error) {
	var (
		reset, green, yellow, red, blue string
	)
	if r.Colorize {
		reset, green, yellow, red, blue = ansiReset, ansiGreen, ansiYellow, ansiRed, ansiBlue
	}

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

	var (
		out         []string
		lastFile    string
		haveFile    bool
		lastMessage string
		haveMessage bool
	)
	for i, m := range sorted {
		if !haveFile || lastFile != m.Path {
			if haveFile {
				out = append(out, "")
			}
			out = append(out, green+m.Path+reset)
			haveMessage = false
		}

		// The rule header is skipped for bare CLI patterns and when it
		// would repeat the previous finding's header in the same file.
		if m.RuleID != "" && m.RuleID != schemas.CLIRuleID && (!haveMessage || lastMessage != m.Message) {
			severity := strings.ToLower(string(m.Severity))
			var prefix string
			switch severity {
			case "":
			case "error":
				prefix = red + "severity:" + severity + " "
			case "warning":
				prefix = yellow + "severity:" + severity + " "
			default:
				prefix = "severity:" + severity + " "
			}
			out = append(out, fmt.Sprintf("%s%srule:%s: %s%s", prefix, yellow, m.RuleID, m.Message, reset))
		}

		lastFile = m.Path
		haveFile = true
		lastMessage = m.Message
		haveMessage = true

		sameFileNext := i+1 < len(sorted) && sorted[i+1].Path == m.Path
		out = append(out, renderMatchLines(m, r.Colorize, r.MaxLines, sameFileNext)...)

		if m.Fix != "" {
			out = append(out, fmt.Sprintf("%sautofix:%s %s", blue, reset, m.Fix))
		} else if m.FixRegex != nil {
			count := "g"
			if m.FixRegex.Count > 0 {
				count = fmt.Sprintf("%d", m.FixRegex.Count)
			}
			out = append(out, fmt.Sprintf("%sautofix:%s s/%s/%s/%s", blue, reset, m.FixRegex.Regex, m.FixRegex.Replacement, count))
		}
	}

	return strings.Join(out, "\n"), nil
}
