package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sourcegrep/sourcegrep/api/schemas"
	"github.com/sourcegrep/sourcegrep/internal/config"
)

// coreBinaryName is the external matcher executable this layer drives.
// Pattern matching itself lives entirely in that binary.
const coreBinaryName = "sourcegrep-core"

// Runner invokes the external matching core and decodes its output.
type Runner struct {
	cfg    config.EngineConfig
	logger *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg config.EngineConfig, logger *zap.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger.Named("engine")}
}

// resolveCoreBinary locates the core executable: explicit config override,
// then PATH, then alongside our own executable.
func (r *Runner) resolveCoreBinary() (string, error) {
	if r.cfg.CoreBinary != "" {
		return r.cfg.CoreBinary, nil
	}
	if path, err := exec.LookPath(coreBinaryName); err == nil {
		return path, nil
	}
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), coreBinaryName)
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			return sibling, nil
		}
	}
	return "", fmt.Errorf("could not locate the %q binary", coreBinaryName)
}

// Invoke runs the core once over the given rules and targets and returns its
// decoded output plus any structured errors it reported. The returned error
// is reserved for invocation-level failures (missing binary, undecodable
// output); per-target failures come back as ScanErrors.
func (r *Runner) Invoke(ctx context.Context, rules []schemas.Rule, targets []string) (*Output, []schemas.ScanError, error) {
	bin, err := r.resolveCoreBinary()
	if err != nil {
		return nil, nil, err
	}

	ruleFile, err := writeRuleFile(rules)
	if err != nil {
		return nil, nil, fmt.Errorf("staging rules for core: %w", err)
	}
	defer os.Remove(ruleFile)

	args := []string{
		"-rules", ruleFile,
		"-json",
		"-jobs", strconv.Itoa(r.cfg.Jobs),
		"-timeout", strconv.Itoa(int(r.cfg.Timeout.Seconds())),
	}
	if r.cfg.MaxMemory > 0 {
		args = append(args, "-max-memory", strconv.Itoa(r.cfg.MaxMemory))
	}
	if r.cfg.TimeoutThreshold > 0 {
		args = append(args, "-timeout-threshold", strconv.Itoa(r.cfg.TimeoutThreshold))
	}
	args = append(args, targets...)

	r.logger.Debug("Invoking matching core",
		zap.String("binary", bin),
		zap.Int("rules", len(rules)),
		zap.Int("targets", len(targets)),
	)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, fmt.Errorf("core invocation failed: %w (stderr: %s)", err, stderr.String())
	}

	out, errs, err := ParseCoreOutput(stdout.Bytes(), rules)
	if err != nil {
		return nil, nil, err
	}
	return out, errs, nil
}

// writeRuleFile stages the rule set into a temp file the core can read.
func writeRuleFile(rules []schemas.Rule) (string, error) {
	data, err := yaml.Marshal(map[string]any{"rules": rules})
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp("", "sourcegrep-rules-*.yaml")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
