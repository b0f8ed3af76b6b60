package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. CLI flags are bound to
// the same viper keys, so the precedence flags > env > file > defaults falls
// out of the unmarshal in cmd.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// OutputConfig controls how results are rendered and where the rendered
// report goes. There is no ambient verbosity or color state anywhere else;
// everything the reporting layer needs is in here.
type OutputConfig struct {
	// Format is one of text, json, json-debug, sarif, junit-xml, emacs, vim.
	Format string `mapstructure:"format" yaml:"format"`
	// Destination is empty for stdout, a URL for POST delivery, or a file
	// path. Relative paths resolve against BaseDir.
	Destination string `mapstructure:"destination" yaml:"destination"`
	// BaseDir anchors relative destinations. Defaults to the working dir.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`

	ErrorOnFindings bool `mapstructure:"error_on_findings" yaml:"error_on_findings"`
	VerboseErrors   bool `mapstructure:"verbose_errors" yaml:"verbose_errors"`
	Strict          bool `mapstructure:"strict" yaml:"strict"`

	// MaxLinesPerFinding truncates each finding's source snippet in text
	// output. Zero means no limit.
	MaxLinesPerFinding int `mapstructure:"max_lines_per_finding" yaml:"max_lines_per_finding"`

	JSONStats bool `mapstructure:"json_stats" yaml:"json_stats"`
	JSONTime  bool `mapstructure:"json_time" yaml:"json_time"`

	// Color forces colorized text output on or off; "auto" colors only when
	// stdout is a terminal and no destination is set.
	Color string `mapstructure:"color" yaml:"color"`
}

// EngineConfig configures how the external matching core is invoked.
type EngineConfig struct {
	// CoreBinary overrides the resolved path of the core executable.
	CoreBinary string        `mapstructure:"core_binary" yaml:"core_binary"`
	Jobs       int           `mapstructure:"jobs" yaml:"jobs"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxMemory  int           `mapstructure:"max_memory" yaml:"max_memory"`
	// TimeoutThreshold is the number of match timeouts after which the core
	// stops running rules on a file. Zero disables the threshold.
	TimeoutThreshold int `mapstructure:"timeout_threshold" yaml:"timeout_threshold"`
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "sourcegrep")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Output --
	v.SetDefault("output.format", "text")
	v.SetDefault("output.destination", "")
	v.SetDefault("output.base_dir", ".")
	v.SetDefault("output.error_on_findings", false)
	v.SetDefault("output.verbose_errors", false)
	v.SetDefault("output.strict", false)
	v.SetDefault("output.max_lines_per_finding", 10)
	v.SetDefault("output.json_stats", false)
	v.SetDefault("output.json_time", false)
	v.SetDefault("output.color", "auto")

	// -- Engine --
	v.SetDefault("engine.core_binary", "")
	v.SetDefault("engine.jobs", 1)
	v.SetDefault("engine.timeout", 30*time.Second)
	v.SetDefault("engine.max_memory", 0)
	v.SetDefault("engine.timeout_threshold", 0)
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with the defaults above.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color must be auto, always or never, got %q", c.Output.Color)
	}
	if c.Output.MaxLinesPerFinding < 0 {
		return fmt.Errorf("output.max_lines_per_finding must be >= 0, got %d", c.Output.MaxLinesPerFinding)
	}
	if c.Engine.Jobs < 1 {
		return fmt.Errorf("engine.jobs must be >= 1, got %d", c.Engine.Jobs)
	}
	return nil
}
