package output_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcegrep/sourcegrep/api/schemas"
	"github.com/sourcegrep/sourcegrep/internal/output"
)

func textRender(t *testing.T, r *output.Report) string {
	t.Helper()
	renderer, err := output.NewRenderer(output.FormatText)
	require.NoError(t, err)
	out, err := renderer.Render(r)
	require.NoError(t, err)
	return out
}

func finding(ruleID, path, message string, line int, severity schemas.Severity) schemas.RuleMatch {
	return schemas.RuleMatch{
		RuleID:   ruleID,
		Path:     path,
		Severity: severity,
		Start:    schemas.Position{Line: line, Col: 1},
		End:      schemas.Position{Line: line, Col: 4},
		Lines:    []string{"code\n"},
		Message:  message,
	}
}

// TestTextRenderer_GroupsByFileAndSortsDeterministically verifies findings
// are grouped under per-file headers ordered by path then rule id, whatever
// order they were ingested in.
func TestTextRenderer_GroupsByFileAndSortsDeterministically(t *testing.T) {
	r := &output.Report{
		Matches: []schemas.RuleMatch{
			finding("z.rule", "b.py", "z message", 3, schemas.SeverityError),
			finding("a.rule", "b.py", "a message", 1, schemas.SeverityError),
			finding("a.rule", "a.py", "a message", 1, schemas.SeverityError),
		},
	}

	out := textRender(t, r)
	lines := strings.Split(out, "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "a.py", lines[0])

	// File headers appear in sorted order, rules sorted within a file.
	aIdx := strings.Index(out, "a.py")
	bIdx := strings.Index(out, "\nb.py")
	require.Greater(t, bIdx, aIdx)
	assert.Less(t, strings.Index(out, "rule:a.rule"), strings.Index(out, "rule:z.rule"))

	// Rendering the same snapshot twice yields identical bytes.
	assert.Equal(t, out, textRender(t, r))
}

// TestTextRenderer_RuleHeaderDeduplication verifies consecutive findings of
// the same rule and message under one file print the header once.
func TestTextRenderer_RuleHeaderDeduplication(t *testing.T) {
	r := &output.Report{
		Matches: []schemas.RuleMatch{
			finding("dup.rule", "a.py", "same message", 1, schemas.SeverityError),
			finding("dup.rule", "a.py", "same message", 5, schemas.SeverityError),
		},
	}

	out := textRender(t, r)
	assert.Equal(t, 1, strings.Count(out, "rule:dup.rule"))
}

// TestTextRenderer_CLIPatternOmitsHeader verifies bare command-line patterns
// never print a rule header.
func TestTextRenderer_CLIPatternOmitsHeader(t *testing.T) {
	r := &output.Report{
		Matches: []schemas.RuleMatch{
			finding(schemas.CLIRuleID, "a.py", "pattern", 1, schemas.SeverityError),
		},
	}

	out := textRender(t, r)
	assert.NotContains(t, out, "rule:")
	assert.Contains(t, out, "a.py")
	assert.Contains(t, out, "1:code")
}

// TestTextRenderer_SeverityPrefix verifies the severity prefix appears
// lowercased in the rule header.
func TestTextRenderer_SeverityPrefix(t *testing.T) {
	r := &output.Report{
		Matches: []schemas.RuleMatch{
			finding("warn.rule", "a.py", "careful", 1, schemas.SeverityWarning),
		},
	}

	out := textRender(t, r)
	assert.Contains(t, out, "severity:warning rule:warn.rule: careful")
}

// TestTextRenderer_SeverityColors verifies error and warning headers carry
// their respective colors when colorize is on.
func TestTextRenderer_SeverityColors(t *testing.T) {
	r := &output.Report{
		Colorize: true,
		Matches: []schemas.RuleMatch{
			finding("err.rule", "a.py", "bad", 1, schemas.SeverityError),
			finding("warn.rule", "b.py", "careful", 1, schemas.SeverityWarning),
		},
	}

	out := textRender(t, r)
	assert.Contains(t, out, "\x1b[31mseverity:error")
	assert.Contains(t, out, "\x1b[33mseverity:warning")
}

// TestTextRenderer_Autofix verifies a literal fix renders as a prefixed
// line and a regex fix renders in substitution syntax.
func TestTextRenderer_Autofix(t *testing.T) {
	literal := finding("fix.rule", "a.py", "fixable", 1, schemas.SeverityError)
	literal.Fix = "replacement()"

	regex := finding("refix.rule", "b.py", "fixable", 1, schemas.SeverityError)
	regex.FixRegex = &schemas.FixRegex{Regex: "old", Replacement: "new"}

	limited := finding("refix2.rule", "c.py", "fixable", 1, schemas.SeverityError)
	limited.FixRegex = &schemas.FixRegex{Regex: "old", Replacement: "new", Count: 2}

	out := textRender(t, &output.Report{Matches: []schemas.RuleMatch{literal, regex, limited}})
	assert.Contains(t, out, "autofix: replacement()")
	assert.Contains(t, out, "autofix: s/old/new/g")
	assert.Contains(t, out, "autofix: s/old/new/2")
}

// TestTextRenderer_SingleFindingShape pins the uncolored shape of one
// ordinary finding end to end.
func TestTextRenderer_SingleFindingShape(t *testing.T) {
	m := schemas.RuleMatch{
		RuleID:   "eqeq-is-bad",
		Path:     "a.py",
		Severity: schemas.SeverityError,
		Start:    schemas.Position{Line: 3, Col: 1},
		End:      schemas.Position{Line: 3, Col: 5},
		Lines:    []string{"a == b\n"},
		Message:  "dangerous ==",
	}

	out := textRender(t, &output.Report{Matches: []schemas.RuleMatch{m}})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "a.py", lines[0])
	assert.Equal(t, "severity:error rule:eqeq-is-bad: dangerous ==", lines[1])
	assert.Equal(t, "3:a == b", lines[2])
}

// TestTextRenderer_Empty verifies an empty report renders to an empty
// string rather than stray separators.
func TestTextRenderer_Empty(t *testing.T) {
	assert.Equal(t, "", textRender(t, &output.Report{}))
}
