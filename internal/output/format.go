package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// Format is the closed set of report formats. Adding a format means adding a
// constant here plus its Renderer; dispatch happens once, at handler
// construction.
type Format string

const (
	FormatText      Format = "text"
	FormatJSON      Format = "json"
	FormatJSONDebug Format = "json-debug"
	FormatSARIF     Format = "sarif"
	FormatJUnitXML  Format = "junit-xml"
	FormatEmacs     Format = "emacs"
	FormatVim       Format = "vim"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatJSONDebug, FormatSARIF, FormatJUnitXML, FormatEmacs, FormatVim:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// Renderer maps an accumulated report snapshot to its serialized form. A
// Renderer must not mutate the report: rendering the same snapshot twice
// yields byte-identical output.
type Renderer interface {
	Render(r *Report) (string, error)
}

// NewRenderer returns the renderer for the given format.
func NewRenderer(f Format) (Renderer, error) {
	switch f {
	case FormatText:
		return textRenderer{}, nil
	case FormatJSON:
		return jsonRenderer{}, nil
	case FormatJSONDebug:
		return jsonRenderer{debug: true}, nil
	case FormatSARIF:
		return sarifRenderer{}, nil
	case FormatJUnitXML:
		return junitRenderer{}, nil
	case FormatEmacs:
		return emacsRenderer{}, nil
	case FormatVim:
		return vimRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", f)
	}
}

// Settings is the full, explicit configuration of the reporting layer.
// There is no process-global verbosity, color, or debug state.
type Settings struct {
	Format      Format
	Destination string
	// BaseDir anchors relative file destinations.
	BaseDir string

	ErrorOnFindings bool
	VerboseErrors   bool
	Strict          bool

	// MaxLinesPerFinding caps the source lines shown per finding in text
	// output. Zero means unlimited.
	MaxLinesPerFinding int

	JSONStats bool
	JSONTime  bool

	// TimeoutThreshold mirrors the engine's per-file timeout cutoff, used
	// only to phrase the aggregate timeout warning.
	TimeoutThreshold int

	// Color is "auto", "always" or "never".
	Color string

	// Version is the tool's semantic version, reported in SARIF output.
	Version string

	// DeliveryTimeout bounds network delivery of the rendered report.
	// Zero selects the default.
	DeliveryTimeout time.Duration
}

// colorize decides whether text output should carry ANSI escapes: forced on
// or off by settings, otherwise only when writing straight to a terminal.
func (s Settings) colorize(w io.Writer) bool {
	switch s.Color {
	case "always":
		return true
	case "never":
		return false
	}
	if s.Destination != "" {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
