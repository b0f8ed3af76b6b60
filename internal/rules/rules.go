// Package rules loads check definitions from YAML rule files. It is the
// reporting layer's seam to configuration resolution: invalid entries come
// back as structured errors and flow through the normal error accumulation
// path instead of aborting the run.
package rules

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sourcegrep/sourcegrep/api/schemas"
)

// ruleFile is the on-disk shape of a rule file.
type ruleFile struct {
	Rules []schemas.Rule `yaml:"rules"`
}

// Load reads every given rule file. Files that cannot be read or parsed,
// and entries missing required fields, each produce one ConfigError; the
// valid remainder is still returned so a partially broken config yields
// partial results.
func Load(paths []string, logger *zap.Logger) ([]schemas.Rule, []schemas.ScanError) {
	log := logger.Named("rules")

	var (
		loaded []schemas.Rule
		errs   []schemas.ScanError
	)
	seen := make(map[string]bool)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, schemas.NewConfigError(path, fmt.Sprintf("reading rule file: %v", err)))
			continue
		}

		var rf ruleFile
		if err := yaml.Unmarshal(data, &rf); err != nil {
			errs = append(errs, schemas.NewConfigError(path, fmt.Sprintf("parsing rule file: %v", err)))
			continue
		}

		for i, rule := range rf.Rules {
			if err := validate(rule); err != nil {
				errs = append(errs, schemas.NewConfigError(path, fmt.Sprintf("rule %d: %v", i+1, err)))
				continue
			}
			if seen[rule.ID] {
				errs = append(errs, schemas.NewConfigError(path, fmt.Sprintf("duplicate rule id %q", rule.ID)))
				continue
			}
			seen[rule.ID] = true
			loaded = append(loaded, rule)
		}
	}

	log.Debug("Loaded rules",
		zap.Int("rules", len(loaded)),
		zap.Int("errors", len(errs)),
		zap.Int("files", len(paths)),
	)
	return loaded, errs
}

func validate(rule schemas.Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("missing id")
	}
	if rule.Pattern == "" {
		return fmt.Errorf("rule %q: missing pattern", rule.ID)
	}
	if rule.Message == "" {
		return fmt.Errorf("rule %q: missing message", rule.ID)
	}
	switch rule.Severity {
	case schemas.SeverityInfo, schemas.SeverityWarning, schemas.SeverityError:
		return nil
	case "":
		return fmt.Errorf("rule %q: missing severity", rule.ID)
	default:
		return fmt.Errorf("rule %q: unknown severity %q", rule.ID, rule.Severity)
	}
}

// FromPattern wraps a bare command-line pattern in a synthetic rule carrying
// the CLI rule id, so the rest of the pipeline needs no special case.
func FromPattern(pattern string, languages []string) schemas.Rule {
	return schemas.Rule{
		ID:        schemas.CLIRuleID,
		Severity:  schemas.SeverityError,
		Message:   pattern,
		Pattern:   pattern,
		Languages: languages,
	}
}

// FilterBySeverity keeps only rules whose severity is in keep. An empty
// keep list means no filtering.
func FilterBySeverity(all []schemas.Rule, keep []string) []schemas.Rule {
	if len(keep) == 0 {
		return all
	}
	want := make(map[schemas.Severity]bool, len(keep))
	for _, s := range keep {
		want[schemas.Severity(s)] = true
	}
	var out []schemas.Rule
	for _, r := range all {
		if want[r.Severity] {
			out = append(out, r)
		}
	}
	return out
}
