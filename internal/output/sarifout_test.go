package output_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcegrep/sourcegrep/api/schemas"
	"github.com/sourcegrep/sourcegrep/internal/output"
	"github.com/sourcegrep/sourcegrep/internal/output/sarif"
)

func sarifRender(t *testing.T, r *output.Report) *sarif.Log {
	t.Helper()
	renderer, err := output.NewRenderer(output.FormatSARIF)
	require.NoError(t, err)
	out, err := renderer.Render(r)
	require.NoError(t, err)

	var log sarif.Log
	require.NoError(t, json.Unmarshal([]byte(out), &log))
	return &log
}

// TestSARIFRenderer_Envelope verifies the document carries the 2.1.0
// version, the schema URI and the tool identity.
func TestSARIFRenderer_Envelope(t *testing.T) {
	log := sarifRender(t, &output.Report{Version: "0.1.0"})

	assert.Equal(t, sarif.Version, log.Version)
	assert.Equal(t, sarif.Schema, log.Schema)
	require.Len(t, log.Runs, 1)

	driver := log.Runs[0].Tool.Driver
	assert.Equal(t, "sourcegrep", driver.Name)
	require.NotNil(t, driver.SemanticVersion)
	assert.Equal(t, "0.1.0", *driver.SemanticVersion)
}

// TestSARIFRenderer_RulesSortedByID verifies reportingDescriptors appear in
// lexicographic rule-id order regardless of ingestion order.
func TestSARIFRenderer_RulesSortedByID(t *testing.T) {
	log := sarifRender(t, &output.Report{
		Rules: []schemas.Rule{
			{ID: "pkg.zeta", Severity: schemas.SeverityError, Message: "z"},
			{ID: "pkg.alpha", Severity: schemas.SeverityWarning, Message: "a"},
		},
	})

	rules := log.Runs[0].Tool.Driver.Rules
	require.Len(t, rules, 2)
	assert.Equal(t, "pkg.alpha", rules[0].ID)
	assert.Equal(t, "pkg.zeta", rules[1].ID)

	// Short name and default level derive from the rule.
	require.NotNil(t, rules[0].Name)
	assert.Equal(t, "alpha", *rules[0].Name)
	assert.Equal(t, sarif.LevelWarning, rules[0].DefaultLevel.Level)
}

// TestSARIFRenderer_Results verifies each finding maps to one result with a
// physical location region.
func TestSARIFRenderer_Results(t *testing.T) {
	log := sarifRender(t, &output.Report{
		Matches: []schemas.RuleMatch{finding("pkg.rule", "src/a.py", "bad call", 7, schemas.SeverityError)},
	})

	results := log.Runs[0].Results
	require.Len(t, results, 1)
	res := results[0]
	assert.Equal(t, "pkg.rule", res.RuleID)
	assert.Equal(t, sarif.LevelError, res.Level)
	assert.Equal(t, "bad call", *res.Message.Text)

	require.Len(t, res.Locations, 1)
	loc := res.Locations[0].PhysicalLocation
	assert.Equal(t, "src/a.py", *loc.ArtifactLocation.URI)
	assert.Equal(t, 7, *loc.Region.StartLine)
}

// TestSARIFRenderer_Notifications verifies structured errors become
// tool-execution notifications with level mapped from the error level and
// the message falling back through the message variants.
func TestSARIFRenderer_Notifications(t *testing.T) {
	log := sarifRender(t, &output.Report{
		Errors: []schemas.ScanError{
			schemas.NewFatalError("it broke"),
			schemas.NewMatchTimeoutError("a.py", "slow.rule"),
			{Kind: schemas.KindSourceParse, Level: schemas.LevelError, LongMsg: "parse failure"},
			{Kind: schemas.KindSourceParse, Level: schemas.LevelError, ShortMsg: "short only"},
		},
	})

	notes := log.Runs[0].Invocations[0].ToolExecutionNotifications
	require.Len(t, notes, 4)

	assert.Equal(t, "FatalError", notes[0].Descriptor.ID)
	assert.Equal(t, sarif.LevelError, notes[0].Level)
	assert.Equal(t, "it broke", *notes[0].Message.Text)

	// WARN-level timeout errors map to the warning level, and the long
	// message wins over the short one.
	assert.Equal(t, sarif.LevelWarning, notes[1].Level)
	assert.Equal(t, "rule slow.rule timed out on a.py", *notes[1].Message.Text)

	// An error with only a long message reports it at the error level.
	assert.Equal(t, sarif.LevelError, notes[2].Level)
	assert.Equal(t, "parse failure", *notes[2].Message.Text)

	// Only a short message available.
	assert.Equal(t, "short only", *notes[3].Message.Text)
}
