package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sourcegrep/sourcegrep/api/schemas"
	"github.com/sourcegrep/sourcegrep/internal/engine"
	"github.com/sourcegrep/sourcegrep/internal/profiling"
)

// Handler accumulates findings, structured errors and run statistics across
// a scan, then renders, delivers and dispositions them exactly once on
// Close. It is the single owner of all reporting state: construct it, feed
// it through the Handle* methods, Close it at process end, and map the
// returned error to an exit status in the caller.
//
// The handler is deliberately single-writer (one engine invocation cycle in
// flight, one Close). Parallelizing ingestion would require a mutex around
// the accumulation fields.
type Handler struct {
	settings Settings
	logger   *zap.Logger
	stdout   io.Writer
	renderer Renderer
	sink     *Sink

	matches       []schemas.RuleMatch
	rules         []schemas.Rule
	ruleSeen      map[string]bool
	debugSteps    map[string][]engine.DebugStep
	statsLine     string
	targets       []string
	profiler      *profiling.Profiler
	filteredRules []schemas.Rule
	matchTimes    map[engine.TimeKey]float64

	errors   []schemas.ScanError
	errorSet map[schemas.ScanError]struct{}

	hasOutput bool
	finalErr  error
	closed    bool
}

// NewHandler builds a Handler for the given settings, writing the rendered
// report (and nothing else) to stdout. The format renderer is selected here,
// once; an unknown format is a construction error, not a Close-time one.
func NewHandler(settings Settings, logger *zap.Logger, stdout io.Writer) (*Handler, error) {
	renderer, err := NewRenderer(settings.Format)
	if err != nil {
		return nil, err
	}
	return &Handler{
		settings: settings,
		logger:   logger.Named("output"),
		stdout:   stdout,
		renderer: renderer,
		sink:     NewSink(settings.BaseDir, settings.DeliveryTimeout, logger),
		ruleSeen: make(map[string]bool),
		errorSet: make(map[schemas.ScanError]struct{}),
	}, nil
}

// HandleErrors ingests a batch of structured errors. Match timeouts are
// pulled aside, deduplicated, and reported as one aggregate warning per
// affected file; everything else goes through HandleError individually.
func (h *Handler) HandleErrors(errs []schemas.ScanError) {
	timeouts := make(map[string][]string)
	for _, e := range errs {
		if e.Kind == schemas.KindMatchTimeout {
			if _, dup := h.errorSet[e]; !dup {
				h.accumulate(e)
				timeouts[e.Path] = append(timeouts[e.Path], e.RuleID)
				continue
			}
		}
		h.HandleError(e)
	}

	if len(timeouts) > 0 && h.settings.Format == FormatText {
		h.reportTimeouts(timeouts)
	}
}

// reportTimeouts emits the aggregate per-file timeout warning, the
// skipped-after-threshold note when the count hit the configured threshold,
// and at most one hint suggesting the threshold option.
func (h *Handler) reportTimeouts(timeouts map[string][]string) {
	paths := make([]string, 0, len(timeouts))
	for path := range timeouts {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	hintThreshold := false
	for _, path := range paths {
		ruleIDs := timeouts[path]
		sort.Strings(ruleIDs)
		msg := fmt.Sprintf("Warning: %d timeout error(s) in %s when running the following rules: [%s]",
			len(ruleIDs), path, strings.Join(ruleIDs, ", "))
		if len(ruleIDs) == h.settings.TimeoutThreshold {
			msg += fmt.Sprintf("\nSourcegrep stopped running rules on %s after %d timeout error(s). See `--timeout-threshold` for more info.",
				path, len(ruleIDs))
		}
		hintThreshold = hintThreshold || (len(ruleIDs) > 5 && h.settings.TimeoutThreshold == 0)
		h.logger.Error(msg)
	}

	if hintThreshold {
		h.logger.Error("You can use the `--timeout-threshold` flag to set a number of timeouts after which a file will be skipped.")
	}
}

// HandleError ingests one structured error, dropping value-equal
// duplicates. In text mode the error is also surfaced immediately, except
// WARN-level errors, which stay quiet unless verbose errors are on.
func (h *Handler) HandleError(e schemas.ScanError) {
	if _, dup := h.errorSet[e]; dup {
		h.hasOutput = true
		return
	}
	h.accumulate(e)
	if h.settings.Format == FormatText && (e.Level != schemas.LevelWarn || h.settings.VerboseErrors) {
		h.logger.Error(e.Error())
	}
}

func (h *Handler) accumulate(e schemas.ScanError) {
	h.hasOutput = true
	h.errors = append(h.errors, e)
	h.errorSet[e] = struct{}{}
}

// HandleCoreOutput merges one completed engine run. Findings append and the
// rule set grows; stats, targets, filtered rules and the match-time matrix
// are replaced wholesale — the model is one engine cycle per run, so repeated
// calls overwrite rather than merge numbers.
func (h *Handler) HandleCoreOutput(out *engine.Output, profiler *profiling.Profiler) {
	h.hasOutput = true

	for _, rule := range out.Rules {
		if !h.ruleSeen[rule.ID] {
			h.ruleSeen[rule.ID] = true
			h.rules = append(h.rules, rule)
		}
		h.matches = append(h.matches, out.Matches[rule.ID]...)
	}

	if h.debugSteps == nil {
		h.debugSteps = make(map[string][]engine.DebugStep)
	}
	for id, steps := range out.DebugSteps {
		h.debugSteps[id] = steps
	}

	h.statsLine = out.StatsLine
	h.targets = out.Targets
	h.profiler = profiler
	h.filteredRules = out.FilteredRules
	h.matchTimes = out.MatchTimes
}

// HandleUnrecoverable records err as the run's terminal cause. Structured
// errors are also accumulated so they appear in the rendered report. Close
// gives a recorded terminal cause priority over every other outcome.
func (h *Handler) HandleUnrecoverable(err error) {
	if se, ok := err.(schemas.ScanError); ok {
		h.HandleError(se)
	}
	h.finalErr = err
}

// Close renders the accumulated state, delivers the report, and returns the
// run's final outcome (nil for success). It must be called exactly once, at
// process end.
//
// Outcome priority: a cause recorded via HandleUnrecoverable, then the
// synthetic findings-present failure when configured, then a summary of
// accumulated errors. An ERROR-level structured cause always fails the run;
// WARN level fails only under strict mode; delivery failures fail
// unconditionally.
func (h *Handler) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	if h.hasOutput {
		rendered, err := h.renderer.Render(h.snapshot())
		if err != nil {
			return schemas.NewFatalError(err.Error())
		}
		if rendered != "" {
			if _, err := fmt.Fprintln(h.stdout, rendered); err != nil {
				// An unwritable report is fatal: it is the run's product.
				return fmt.Errorf("writing report to stdout: %w (if this is an encoding error, set an explicit output encoding, e.g. LC_ALL=C.UTF-8)", err)
			}
		}
		if h.statsLine != "" {
			h.logger.Info(h.statsLine)
		}
		if h.settings.Destination != "" {
			if err := h.sink.Deliver(h.settings.Destination, rendered); err != nil {
				return err
			}
		}
	}

	var (
		finalErr   error
		errorStats string
	)
	switch {
	case h.finalErr != nil:
		finalErr = h.finalErr
	case len(h.matches) > 0 && h.settings.ErrorOnFindings:
		finalErr = schemas.NewFindingsOutcome()
	case len(h.errors) > 0:
		errorStats = fmt.Sprintf("%d files could not be analyzed", len(h.errors))
		finalErr = h.errors[len(h.errors)-1]
	}

	return h.disposition(finalErr, errorStats)
}

// disposition turns the resolved cause into the run's returned outcome.
func (h *Handler) disposition(cause error, errorStats string) error {
	if cause == nil {
		return nil
	}
	se, ok := cause.(schemas.ScanError)
	if !ok {
		return cause
	}
	if se.Level == schemas.LevelError || h.settings.Strict {
		return se
	}
	h.logger.Info(fmt.Sprintf(
		"%s; run with --verbose-errors for details or run with --strict to exit non-zero if any file cannot be analyzed",
		errorStats))
	return nil
}

// snapshot builds the immutable view renderers consume. Rendering never
// mutates handler state: calling the renderer twice on the same snapshot
// yields identical bytes.
func (h *Handler) snapshot() *Report {
	return &Report{
		Matches:       h.matches,
		Rules:         h.rules,
		FilteredRules: h.filteredRules,
		Errors:        h.errors,
		DebugSteps:    h.debugSteps,
		Targets:       h.targets,
		MatchTimes:    h.matchTimes,
		StatsLine:     h.statsLine,
		Profiler:      h.profiler,
		Colorize:      h.settings.colorize(h.stdout),
		MaxLines:      h.settings.MaxLinesPerFinding,
		JSONStats:     h.settings.JSONStats,
		JSONTime:      h.settings.JSONTime,
		Version:       h.settings.Version,
	}
}
