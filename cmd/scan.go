package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sourcegrep/sourcegrep/api/schemas"
	"github.com/sourcegrep/sourcegrep/internal/config"
	"github.com/sourcegrep/sourcegrep/internal/engine"
	"github.com/sourcegrep/sourcegrep/internal/observability"
	"github.com/sourcegrep/sourcegrep/internal/output"
	"github.com/sourcegrep/sourcegrep/internal/profiling"
	"github.com/sourcegrep/sourcegrep/internal/rules"
	"github.com/sourcegrep/sourcegrep/internal/suppress"
)

// newScanCmd creates and configures the `scan` command.
func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [targets...]",
		Short: "Runs the configured rules against the specified targets",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their corresponding Viper keys so command-line
			// flags correctly override values from the config file and
			// environment variables.
			bindings := map[string]string{
				"output.format":                "format",
				"output.destination":           "output",
				"output.error_on_findings":     "error",
				"output.verbose_errors":        "verbose-errors",
				"output.strict":                "strict",
				"output.max_lines_per_finding": "max-lines-per-finding",
				"output.json_stats":            "json-stats",
				"output.json_time":             "time",
				"output.color":                 "color",
				"engine.core_binary":           "core-binary",
				"engine.jobs":                  "jobs",
				"engine.timeout":               "timeout",
				"engine.max_memory":            "max-memory",
				"engine.timeout_threshold":     "timeout-threshold",
			}
			for key, flag := range bindings {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: runScan,
	}

	// Rule selection.
	scanCmd.Flags().StringSliceP("config", "f", nil, "Rule file(s) to run. Repeatable.")
	scanCmd.Flags().StringP("pattern", "e", "", "A single inline pattern to run instead of rule files.")
	scanCmd.Flags().StringSliceP("lang", "l", nil, "Language(s) an inline pattern applies to.")
	scanCmd.Flags().StringSlice("severity", nil, "Only run rules with one of these severities (INFO, WARNING, ERROR).")

	// Reporting.
	scanCmd.Flags().String("format", "text", "Output format: text, json, json-debug, sarif, junit-xml, emacs, vim.")
	scanCmd.Flags().StringP("output", "o", "", "Deliver the report to a file path or URL instead of stdout.")
	scanCmd.Flags().Bool("error", false, "Exit non-zero when findings are reported.")
	scanCmd.Flags().Bool("strict", false, "Treat warnings as failures.")
	scanCmd.Flags().Bool("verbose-errors", false, "Print warning-level errors alongside results.")
	scanCmd.Flags().Int("max-lines-per-finding", 10, "Maximum source lines shown per finding in text output (0 for unlimited).")
	scanCmd.Flags().Bool("json-stats", false, "Include target statistics in JSON output.")
	scanCmd.Flags().Bool("time", false, "Include per-rule match timings in JSON output.")
	scanCmd.Flags().String("color", "auto", "Colorize text output: auto, always, never.")
	scanCmd.Flags().Bool("disable-nogrep", false, "Report findings even when a nogrep comment suppresses them.")

	// Engine overrides.
	scanCmd.Flags().String("core-binary", "", "Path to the matching core executable. (Overrides config/env)")
	scanCmd.Flags().IntP("jobs", "j", 1, "Number of parallel matching jobs. (Overrides config/env)")
	scanCmd.Flags().Duration("timeout", 30*time.Second, "Per-(rule, target) match timeout. (Overrides config/env)")
	scanCmd.Flags().Int("max-memory", 0, "Per-target memory limit in MiB, 0 for unlimited. (Overrides config/env)")
	scanCmd.Flags().Int("timeout-threshold", 0, "Stop running rules on a file after this many timeouts, 0 to disable. (Overrides config/env)")

	return scanCmd
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()
	start := time.Now()

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to re-unmarshal config with flag overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return schemas.NewFatalError(err.Error())
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return schemas.NewFatalError(err.Error())
	}

	settings := output.Settings{
		Format:             format,
		Destination:        cfg.Output.Destination,
		BaseDir:            cfg.Output.BaseDir,
		ErrorOnFindings:    cfg.Output.ErrorOnFindings,
		VerboseErrors:      cfg.Output.VerboseErrors,
		Strict:             cfg.Output.Strict,
		MaxLinesPerFinding: cfg.Output.MaxLinesPerFinding,
		JSONStats:          cfg.Output.JSONStats,
		JSONTime:           cfg.Output.JSONTime,
		TimeoutThreshold:   cfg.Engine.TimeoutThreshold,
		Color:              cfg.Output.Color,
		Version:            Version,
	}
	handler, err := output.NewHandler(settings, logger, os.Stdout)
	if err != nil {
		return schemas.NewFatalError(err.Error())
	}

	profiler := profiling.New()

	// Resolve the rule set: either inline pattern or rule files.
	pattern, _ := cmd.Flags().GetString("pattern")
	ruleFiles, _ := cmd.Flags().GetStringSlice("config")
	langs, _ := cmd.Flags().GetStringSlice("lang")
	severities, _ := cmd.Flags().GetStringSlice("severity")
	disableSuppress, _ := cmd.Flags().GetBool("disable-nogrep")

	var (
		ruleSet []schemas.Rule
		cfgErrs []schemas.ScanError
	)
	switch {
	case pattern != "":
		ruleSet = []schemas.Rule{rules.FromPattern(pattern, langs)}
	case len(ruleFiles) > 0:
		profiler.Track("config_time", func() {
			ruleSet, cfgErrs = rules.Load(ruleFiles, logger)
		})
	default:
		return schemas.NewConfigError("", "no rules to run: pass --config or --pattern")
	}

	handler.HandleErrors(cfgErrs)
	if len(cfgErrs) > 0 && cfg.Output.Strict {
		handler.HandleUnrecoverable(schemas.NewConfigError("",
			fmt.Sprintf("%d rule file error(s) under --strict", len(cfgErrs))))
		return handler.Close()
	}
	if len(ruleSet) == 0 {
		return schemas.NewConfigError("", "no valid rules found in the given rule files")
	}

	filtered := rules.FilterBySeverity(ruleSet, severities)
	if len(filtered) == 0 {
		return schemas.NewConfigError("", "severity filter excluded every rule")
	}

	scanID := uuid.New().String()
	logger.Debug("Starting scan",
		zap.String("scanID", scanID),
		zap.Int("rules", len(filtered)),
		zap.Strings("targets", args),
	)

	runner := engine.NewRunner(cfg.Engine, logger)
	var (
		out      *engine.Output
		coreErrs []schemas.ScanError
		runErr   error
	)
	profiler.Track("core_time", func() {
		out, coreErrs, runErr = runner.Invoke(ctx, filtered, args)
	})
	if runErr != nil {
		handler.HandleUnrecoverable(schemas.NewFatalError(runErr.Error()))
		return handler.Close()
	}
	handler.HandleErrors(coreErrs)

	// Inline suppression filtering.
	filter := suppress.NewFilter(cfg.Output.Strict, logger)
	var supErrs []schemas.ScanError
	findings := 0
	profiler.Track("ignores_time", func() {
		for id, matches := range out.Matches {
			kept := matches[:0]
			for i := range matches {
				suppressed, err := filter.IsSuppressed(&matches[i])
				if err != nil {
					if se, ok := err.(schemas.ScanError); ok {
						supErrs = append(supErrs, se)
					}
				}
				if suppressed {
					if !disableSuppress {
						continue
					}
					matches[i].Ignored = true
				} else {
					findings++
				}
				kept = append(kept, matches[i])
			}
			out.Matches[id] = kept
		}
	})
	handler.HandleErrors(supErrs)
	if cfg.Output.Strict && len(supErrs) > 0 {
		handler.HandleUnrecoverable(supErrs[0])
		return handler.Close()
	}

	out.StatsLine = fmt.Sprintf("ran %d rules on %d files: %d findings",
		len(filtered), len(out.Targets), findings)
	profiler.Save("total_time", time.Since(start))

	handler.HandleCoreOutput(out, profiler)
	return handler.Close()
}
