package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sourcegrep/sourcegrep/api/schemas"
	"github.com/sourcegrep/sourcegrep/internal/rules"
)

func writeRuleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoad_ValidFile verifies well-formed rules load in file order.
func TestLoad_ValidFile(t *testing.T) {
	path := writeRuleFile(t, `
rules:
  - id: pkg.eqeq
    severity: ERROR
    message: avoid ==
    pattern: "$X == $X"
    languages: [python]
  - id: pkg.print
    severity: INFO
    message: no prints
    pattern: "print(...)"
`)

	loaded, errs := rules.Load([]string{path}, zaptest.NewLogger(t))
	assert.Empty(t, errs)
	require.Len(t, loaded, 2)
	assert.Equal(t, "pkg.eqeq", loaded[0].ID)
	assert.Equal(t, schemas.SeverityError, loaded[0].Severity)
	assert.Equal(t, []string{"python"}, loaded[0].Languages)
	assert.Equal(t, "pkg.print", loaded[1].ID)
}

// TestLoad_InvalidEntriesKeepValidRemainder verifies broken entries each
// produce one config error while the rest of the file still loads.
func TestLoad_InvalidEntriesKeepValidRemainder(t *testing.T) {
	path := writeRuleFile(t, `
rules:
  - id: pkg.good
    severity: WARNING
    message: fine
    pattern: "foo(...)"
  - id: pkg.noseverity
    message: missing severity
    pattern: "bar(...)"
  - id: pkg.badseverity
    severity: CATASTROPHIC
    message: bogus level
    pattern: "baz(...)"
  - severity: ERROR
    message: missing id
    pattern: "qux(...)"
`)

	loaded, errs := rules.Load([]string{path}, zaptest.NewLogger(t))
	require.Len(t, loaded, 1)
	assert.Equal(t, "pkg.good", loaded[0].ID)

	require.Len(t, errs, 3)
	for _, e := range errs {
		assert.Equal(t, schemas.KindConfig, e.Kind)
		assert.Equal(t, path, e.Path)
		assert.Equal(t, schemas.ExitMissingConfig, e.Code)
	}
	assert.Contains(t, errs[1].Msg, "CATASTROPHIC")
}

// TestLoad_DuplicateIDs verifies a repeated id across files is rejected.
func TestLoad_DuplicateIDs(t *testing.T) {
	content := `
rules:
  - id: pkg.same
    severity: ERROR
    message: m
    pattern: p
`
	first := writeRuleFile(t, content)
	second := writeRuleFile(t, content)

	loaded, errs := rules.Load([]string{first, second}, zaptest.NewLogger(t))
	require.Len(t, loaded, 1)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Msg, "pkg.same")
}

// TestLoad_UnreadableAndUnparsable verifies missing and malformed files
// each produce one config error.
func TestLoad_UnreadableAndUnparsable(t *testing.T) {
	bad := writeRuleFile(t, "rules: [\n")
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	loaded, errs := rules.Load([]string{missing, bad}, zaptest.NewLogger(t))
	assert.Empty(t, loaded)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Msg, "reading rule file")
	assert.Contains(t, errs[1].Msg, "parsing rule file")
}

// TestFromPattern verifies inline patterns wrap into a synthetic rule with
// the reserved CLI id.
func TestFromPattern(t *testing.T) {
	rule := rules.FromPattern("exec(...)", []string{"python"})
	assert.Equal(t, schemas.CLIRuleID, rule.ID)
	assert.Equal(t, "exec(...)", rule.Pattern)
	assert.Equal(t, "exec(...)", rule.Message)
	assert.Equal(t, schemas.SeverityError, rule.Severity)
}

// TestFilterBySeverity verifies severity filtering, with an empty filter
// meaning no filtering.
func TestFilterBySeverity(t *testing.T) {
	all := []schemas.Rule{
		{ID: "a", Severity: schemas.SeverityError},
		{ID: "b", Severity: schemas.SeverityInfo},
		{ID: "c", Severity: schemas.SeverityWarning},
	}

	assert.Equal(t, all, rules.FilterBySeverity(all, nil))

	kept := rules.FilterBySeverity(all, []string{"ERROR", "WARNING"})
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].ID)
	assert.Equal(t, "c", kept[1].ID)
}
