package output_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcegrep/sourcegrep/api/schemas"
	"github.com/sourcegrep/sourcegrep/internal/output"
)

// TestEmacsRenderer_LineFormat verifies the compilation-mode shape and that
// output is sorted by path then rule id.
func TestEmacsRenderer_LineFormat(t *testing.T) {
	renderer, err := output.NewRenderer(output.FormatEmacs)
	require.NoError(t, err)

	out, err := renderer.Render(&output.Report{
		Matches: []schemas.RuleMatch{
			finding("pkg.second", "b.py", "msg", 2, schemas.SeverityWarning),
			finding("pkg.first", "a.py", "msg", 1, schemas.SeverityError),
		},
	})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "a.py:1:1:error(first):code", lines[0])
	assert.Equal(t, "b.py:2:1:warning(second):code", lines[1])
}

// TestEmacsRenderer_CLIPatternOmitsRuleID verifies bare command-line
// patterns carry no parenthesized rule id.
func TestEmacsRenderer_CLIPatternOmitsRuleID(t *testing.T) {
	renderer, err := output.NewRenderer(output.FormatEmacs)
	require.NoError(t, err)

	out, err := renderer.Render(&output.Report{
		Matches: []schemas.RuleMatch{finding(schemas.CLIRuleID, "a.py", "msg", 1, schemas.SeverityError)},
	})
	require.NoError(t, err)
	assert.Equal(t, "a.py:1:1:error:code", out)
}

// TestVimRenderer_LineFormat verifies the quickfix shape, the one-letter
// severity codes, and that ingestion order is preserved.
func TestVimRenderer_LineFormat(t *testing.T) {
	renderer, err := output.NewRenderer(output.FormatVim)
	require.NoError(t, err)

	info := finding("pkg.info", "z.py", "heads up", 9, schemas.SeverityInfo)
	errF := finding("pkg.err", "a.py", "broken", 4, schemas.SeverityError)

	out, err := renderer.Render(&output.Report{Matches: []schemas.RuleMatch{info, errF}})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "z.py:9:1:I:pkg.info:heads up", lines[0])
	assert.Equal(t, "a.py:4:1:E:pkg.err:broken", lines[1])
}
