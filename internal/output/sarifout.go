package output

import (
	"fmt"
	"sort"

	json "github.com/json-iterator/go"

	"github.com/sourcegrep/sourcegrep/api/schemas"
	"github.com/sourcegrep/sourcegrep/internal/output/sarif"
)

// Tool identity reported in SARIF output.
const (
	toolName    = "sourcegrep"
	toolInfoURI = "https://github.com/sourcegrep/sourcegrep"
)

// sarifRenderer produces a SARIF 2.1.0 log: one run, one reportingDescriptor
// per distinct rule, one result per finding, and one tool-execution
// notification per structured error.
type sarifRenderer struct{}

func (sarifRenderer) Render(r *Report) (string, error) {
	rules := make([]*sarif.ReportingDescriptor, 0, len(r.Rules))
	for _, rule := range sortedRules(r.Rules) {
		rules = append(rules, sarifRule(rule))
	}

	results := make([]*sarif.Result, 0, len(r.Matches))
	for i := range r.Matches {
		results = append(results, sarifResult(&r.Matches[i]))
	}

	notifications := make([]*sarif.Notification, 0, len(r.Errors))
	for _, e := range r.Errors {
		notifications = append(notifications, sarifNotification(e))
	}

	log := &sarif.Log{
		Version: sarif.Version,
		Schema:  sarif.Schema,
		Runs: []*sarif.Run{
			{
				Tool: &sarif.Tool{
					Driver: &sarif.ToolComponent{
						Name:            toolName,
						SemanticVersion: sarif.String(r.Version),
						InformationURI:  sarif.String(toolInfoURI),
						Rules:           rules,
					},
				},
				Results: results,
				Invocations: []*sarif.Invocation{
					{ToolExecutionNotifications: notifications},
				},
			},
		},
	}

	data, err := json.Marshal(log)
	if err != nil {
		return "", fmt.Errorf("marshaling sarif report: %w", err)
	}
	return string(data), nil
}

func sortedRules(rules []schemas.Rule) []schemas.Rule {
	sorted := make([]schemas.Rule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}

func sarifRule(rule schemas.Rule) *sarif.ReportingDescriptor {
	d := &sarif.ReportingDescriptor{
		ID:   rule.ID,
		Name: sarif.String(schemas.ShortRuleID(rule.ID)),
		DefaultLevel: &sarif.ReportingConfiguration{
			Level: sarifLevel(rule.Severity),
		},
	}
	if rule.Message != "" {
		d.ShortDescription = &sarif.MultiformatMessageString{Text: sarif.String(rule.Message)}
	}
	if len(rule.Metadata) > 0 {
		d.Properties = sarif.PropertyBag(rule.Metadata)
	}
	return d
}

func sarifResult(m *schemas.RuleMatch) *sarif.Result {
	return &sarif.Result{
		RuleID:  m.RuleID,
		Message: &sarif.Message{Text: sarif.String(m.Message)},
		Level:   sarifLevel(m.Severity),
		Locations: []*sarif.Location{
			{
				PhysicalLocation: &sarif.PhysicalLocation{
					ArtifactLocation: &sarif.ArtifactLocation{URI: sarif.String(m.Path)},
					Region: &sarif.Region{
						StartLine:   sarif.Int(m.Start.Line),
						StartColumn: sarif.Int(m.Start.Col),
						EndLine:     sarif.Int(m.End.Line),
						EndColumn:   sarif.Int(m.End.Col),
					},
				},
			},
		},
	}
}

// sarifNotification maps one structured error to a tool-execution
// notification. The message prefers the primary message, then the long, then
// the short variant, and may be empty.
func sarifNotification(e schemas.ScanError) *sarif.Notification {
	level := sarif.LevelError
	if e.Level == schemas.LevelWarn {
		level = sarif.LevelWarning
	}
	return &sarif.Notification{
		Descriptor: &sarif.ReportingDescriptorReference{ID: string(e.Kind)},
		Message:    &sarif.Message{Text: sarif.String(e.PreferredMessage())},
		Level:      level,
	}
}

func sarifLevel(s schemas.Severity) sarif.Level {
	switch s {
	case schemas.SeverityError:
		return sarif.LevelError
	case schemas.SeverityWarning:
		return sarif.LevelWarning
	default:
		return sarif.LevelNote
	}
}
