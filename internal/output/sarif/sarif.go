package sarif

// This file defines the Go structs for the SARIF 2.1.0 standard.
// Pointers are used for optional fields. Required fields use value types.

const (
	Version = "2.1.0"
	Schema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
)

type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []*Run `json:"runs"`
}

type Run struct {
	Tool        *Tool         `json:"tool"`
	Results     []*Result     `json:"results"`
	Invocations []*Invocation `json:"invocations,omitempty"`
}

type Tool struct {
	Driver *ToolComponent `json:"driver"`
}

// ToolComponent describes the tool that produced the results.
type ToolComponent struct {
	Name            string                 `json:"name"`
	SemanticVersion *string                `json:"semanticVersion,omitempty"`
	InformationURI  *string                `json:"informationUri,omitempty"`
	Rules           []*ReportingDescriptor `json:"rules,omitempty"`
}

type ReportingDescriptor struct {
	ID               string                    `json:"id"` // Required
	Name             *string                   `json:"name,omitempty"`
	ShortDescription *MultiformatMessageString `json:"shortDescription,omitempty"`
	FullDescription  *MultiformatMessageString `json:"fullDescription,omitempty"`
	DefaultLevel     *ReportingConfiguration   `json:"defaultConfiguration,omitempty"`
	Help             *MultiformatMessageString `json:"help,omitempty"`
	Properties       PropertyBag               `json:"properties,omitempty"`
}

type ReportingConfiguration struct {
	Level Level `json:"level,omitempty"`
}

type Result struct {
	RuleID    string      `json:"ruleId"` // Required
	Message   *Message    `json:"message"`
	Level     Level       `json:"level,omitempty"`
	Locations []*Location `json:"locations,omitempty"`
}

type Location struct {
	PhysicalLocation *PhysicalLocation `json:"physicalLocation,omitempty"`
	Message          *Message          `json:"message,omitempty"`
}

type PhysicalLocation struct {
	ArtifactLocation *ArtifactLocation `json:"artifactLocation,omitempty"`
	Region           *Region           `json:"region,omitempty"`
}

type ArtifactLocation struct {
	URI *string `json:"uri,omitempty"`
}

// Region is a contiguous portion of an artifact, 1-based inclusive.
type Region struct {
	StartLine   *int `json:"startLine,omitempty"`
	StartColumn *int `json:"startColumn,omitempty"`
	EndLine     *int `json:"endLine,omitempty"`
	EndColumn   *int `json:"endColumn,omitempty"`
}

// Invocation records one run of the tool; notifications attached here carry
// configuration and execution errors rather than results.
type Invocation struct {
	ToolExecutionNotifications []*Notification `json:"toolExecutionNotifications"`
	ExecutionSuccessful        *bool           `json:"executionSuccessful,omitempty"`
}

// Notification reports a condition encountered by the tool during execution.
type Notification struct {
	Descriptor *ReportingDescriptorReference `json:"descriptor,omitempty"`
	Message    *Message                      `json:"message"`
	Level      Level                         `json:"level,omitempty"`
}

type ReportingDescriptorReference struct {
	ID string `json:"id"`
}

type Message struct {
	Text *string `json:"text,omitempty"`
}

type MultiformatMessageString struct {
	Text     *string `json:"text"`
	Markdown *string `json:"markdown,omitempty"`
}

type PropertyBag map[string]interface{}

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelNote    Level = "note"
	LevelNone    Level = "none"
)

// String and Int return pointers for optional fields.
func String(s string) *string { return &s }
func Int(i int) *int          { return &i }
func Bool(b bool) *bool       { return &b }
