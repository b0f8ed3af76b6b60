package schemas

import "fmt"

// Level classifies how severe a structured scan error is. WARN-level errors
// never fail the run unless strict mode is on.
type Level string

const (
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ErrorKind is a machine-readable discriminator for structured scan errors.
// Using a custom type ensures only the predefined constants can appear where
// a kind is expected.
type ErrorKind string

const (
	// -- Engine errors --
	KindFatal        ErrorKind = "FatalError"        // Unclassified engine failure.
	KindSourceParse  ErrorKind = "SourceParseError"  // A target could not be parsed.
	KindRuleParse    ErrorKind = "RuleParseError"    // A rule pattern could not be compiled.
	KindMatchTimeout ErrorKind = "MatchTimeoutError" // A (rule, target) pair exceeded the match timeout.

	// -- Resolution errors --
	KindConfig      ErrorKind = "ConfigError"      // Rule-file or configuration resolution failure.
	KindSuppression ErrorKind = "SuppressionError" // Strict-mode suppression-id mismatch.

	// -- Reporting errors --
	KindDelivery ErrorKind = "DeliveryError" // The rendered report could not be delivered.
)

// Process exit classifications. The reporting layer never exits; cmd maps a
// raised ScanError's Code to the process exit status.
const (
	ExitOK            = 0
	ExitFindings      = 1
	ExitFatal         = 2
	ExitMissingConfig = 7
)

// ScanError is one classified failure encountered during a run, distinct
// from a finding. It is a plain value: two ScanErrors with identical fields
// are the same error, which is what error deduplication relies on.
type ScanError struct {
	Kind   ErrorKind `json:"type"`
	Level  Level     `json:"level"`
	Path   string    `json:"path,omitempty"`
	RuleID string    `json:"rule_id,omitempty"`

	// Msg is the primary human-readable message. ShortMsg and LongMsg carry
	// the terse and expanded variants when the engine reports both.
	Msg      string `json:"message,omitempty"`
	ShortMsg string `json:"short_msg,omitempty"`
	LongMsg  string `json:"long_msg,omitempty"`

	// Code is the exit classification the driver should map this error to.
	Code int `json:"-"`
}

// Error implements the error interface.
func (e ScanError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.LongMsg
	}
	if msg == "" {
		msg = e.ShortMsg
	}
	switch {
	case e.Path != "" && e.RuleID != "":
		return fmt.Sprintf("%s in %s when running %s: %s", e.Kind, e.Path, e.RuleID, msg)
	case e.Path != "":
		return fmt.Sprintf("%s in %s: %s", e.Kind, e.Path, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

// PreferredMessage returns the best available human-readable message,
// trying Msg, then LongMsg, then ShortMsg. It may be empty.
func (e ScanError) PreferredMessage() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.LongMsg != "" {
		return e.LongMsg
	}
	return e.ShortMsg
}

// NewFatalError builds the generic ERROR-level failure used when no more
// specific kind applies.
func NewFatalError(msg string) ScanError {
	return ScanError{Kind: KindFatal, Level: LevelError, Msg: msg, Code: ExitFatal}
}

// NewMatchTimeoutError records that matching one rule against one target
// exceeded the configured timeout. Timeouts are WARN level: the rest of the
// run still produces usable results.
func NewMatchTimeoutError(path, ruleID string) ScanError {
	return ScanError{
		Kind:     KindMatchTimeout,
		Level:    LevelWarn,
		Path:     path,
		RuleID:   ruleID,
		ShortMsg: "match timeout",
		LongMsg:  fmt.Sprintf("rule %s timed out on %s", ruleID, path),
		Code:     ExitFatal,
	}
}

// NewConfigError records a rule-file resolution failure.
func NewConfigError(path, msg string) ScanError {
	return ScanError{
		Kind:  KindConfig,
		Level: LevelError,
		Path:  path,
		Msg:   msg,
		Code:  ExitMissingConfig,
	}
}

// NewSuppressionError reports a strict-mode suppression annotation that
// references an id with no matching rule. It is raised at filter time, not
// deferred to finalize.
func NewSuppressionError(ruleID, annotatedID string) ScanError {
	return ScanError{
		Kind:   KindSuppression,
		Level:  LevelError,
		RuleID: ruleID,
		Msg:    fmt.Sprintf("suppression comment names id %q, but no corresponding rule matched (running rule %q)", annotatedID, ruleID),
		Code:   ExitFatal,
	}
}

// NewDeliveryError reports a failure to deliver the rendered report.
func NewDeliveryError(destination, msg string) ScanError {
	return ScanError{
		Kind:  KindDelivery,
		Level: LevelError,
		Msg:   fmt.Sprintf("delivering report to %s: %s", destination, msg),
		Code:  ExitFatal,
	}
}

// NewFindingsOutcome is the synthetic terminal cause recorded when findings
// exist and the run is configured to fail on findings. It carries no message;
// it exists purely to force the findings exit classification.
func NewFindingsOutcome() ScanError {
	return ScanError{Kind: KindFatal, Level: LevelError, Code: ExitFindings}
}
