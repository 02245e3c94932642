package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/thecodereport/tcdr/internal/constants"
)

// Default server and runner settings
const (
	// DefaultReadTimeoutSeconds bounds reading a request on the dashboard server
	DefaultReadTimeoutSeconds = 15

	// DefaultWriteTimeoutSeconds must exceed the runner timeout, since POST /run
	// answers only after the test command exits
	DefaultWriteTimeoutSeconds = constants.DefaultRunnerTimeoutSeconds + 30

	// DefaultHistoryPath is the sqlite file for coverage snapshots, relative to the working directory
	DefaultHistoryPath = ".tcdr/history.db"

	// DefaultPerformanceTimeoutSeconds bounds parsing all reports of one run
	DefaultPerformanceTimeoutSeconds = 300
)

// Config represents the main configuration structure
type Config struct {
	// Server holds dashboard server configuration
	Server ServerConfig `json:"server" mapstructure:"server" yaml:"server"`

	// Runner holds the test command used by run-all
	Runner RunnerConfig `json:"runner" mapstructure:"runner" yaml:"runner"`

	// Report holds coverage report discovery configuration
	Report ReportConfig `json:"report" mapstructure:"report" yaml:"report"`

	// Dashboard holds presentation settings
	Dashboard DashboardConfig `json:"dashboard" mapstructure:"dashboard" yaml:"dashboard"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// History holds snapshot persistence configuration
	History HistoryConfig `json:"history" mapstructure:"history" yaml:"history"`

	// Performance holds parallelism settings
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`
}

// ServerConfig holds configuration for tcdr serve
type ServerConfig struct {
	Host                string `json:"host" mapstructure:"host" yaml:"host"`
	Port                int    `json:"port" mapstructure:"port" yaml:"port"`
	ReadTimeoutSeconds  int    `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds"`
}

// RunnerConfig holds the test command configuration
type RunnerConfig struct {
	// Command is the argv of the test command; the first element is the executable
	Command []string `json:"command" mapstructure:"command" yaml:"command"`

	// WorkDir is where the command runs (empty = current directory)
	WorkDir string `json:"work_dir" mapstructure:"work_dir" yaml:"work_dir"`

	// TimeoutSeconds kills the command after this long (0 = no limit)
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// ReportConfig holds coverage report discovery configuration
type ReportConfig struct {
	// Path is an explicit report file; it disables discovery when set
	Path string `json:"path" mapstructure:"path" yaml:"path"`

	// DiscoveryRoot is the directory searched for reports (empty = current directory)
	DiscoveryRoot string `json:"discovery_root" mapstructure:"discovery_root" yaml:"discovery_root"`

	// Patterns are file name globs matched during discovery
	Patterns []string `json:"patterns" mapstructure:"patterns" yaml:"patterns"`

	// ExcludePatterns are gitignore-style patterns skipped during discovery
	ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`
}

// DashboardConfig holds presentation settings
type DashboardConfig struct {
	PageSize     int `json:"page_size" mapstructure:"page_size" yaml:"page_size"`
	HotspotLimit int `json:"hotspot_limit" mapstructure:"hotspot_limit" yaml:"hotspot_limit"`

	// ThresholdTotal is the line coverage target in percent; nil disables it
	ThresholdTotal *float64 `json:"threshold_total,omitempty" mapstructure:"threshold_total" yaml:"threshold_total,omitempty"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv, html
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// Directory specifies where HTML dashboards are written (empty = current directory)
	Directory string `json:"directory" mapstructure:"directory" yaml:"directory"`
}

// HistoryConfig holds snapshot persistence configuration
type HistoryConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Path    string `json:"path" mapstructure:"path" yaml:"path"`
	Limit   int    `json:"limit" mapstructure:"limit" yaml:"limit"`
}

// PerformanceConfig holds parallelism settings
type PerformanceConfig struct {
	// MaxWorkers bounds concurrent report parsing and assembly folding (0 = auto)
	MaxWorkers int `json:"max_workers" mapstructure:"max_workers" yaml:"max_workers"`

	// TimeoutSeconds bounds one normalization run
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	command := make([]string, len(constants.DefaultRunnerCommand))
	copy(command, constants.DefaultRunnerCommand)

	return &Config{
		Server: ServerConfig{
			Host:                constants.DefaultHost,
			Port:                constants.DefaultPort,
			ReadTimeoutSeconds:  DefaultReadTimeoutSeconds,
			WriteTimeoutSeconds: DefaultWriteTimeoutSeconds,
		},
		Runner: RunnerConfig{
			Command:        command,
			TimeoutSeconds: constants.DefaultRunnerTimeoutSeconds,
		},
		Report: ReportConfig{
			Patterns: []string{constants.DefaultReportPattern},
			ExcludePatterns: []string{
				"bin/",
				"obj/",
				".git/",
				"node_modules/",
			},
		},
		Dashboard: DashboardConfig{
			PageSize:     constants.DefaultPageSize,
			HotspotLimit: constants.DefaultHotspotLimit,
		},
		Output: OutputConfig{
			Format: "text",
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    DefaultHistoryPath,
			Limit:   constants.DefaultHistoryLimit,
		},
		Performance: PerformanceConfig{
			MaxWorkers:     0,
			TimeoutSeconds: DefaultPerformanceTimeoutSeconds,
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration with target path context.
// An empty configPath triggers discovery starting at targetPath.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads configPath (if any) over the defaults and applies
// TCDR_* environment overrides
func loadConfigFromFile(configPath string) (*Config, error) {
	// A new viper instance per load avoids shared global state
	v := viper.New()
	config := DefaultConfig()
	setDefaults(v, config)

	v.SetEnvPrefix(constants.EnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so that AutomaticEnv can override it
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("server.host", c.Server.Host)
	v.SetDefault("server.port", c.Server.Port)
	v.SetDefault("server.read_timeout_seconds", c.Server.ReadTimeoutSeconds)
	v.SetDefault("server.write_timeout_seconds", c.Server.WriteTimeoutSeconds)
	v.SetDefault("runner.command", c.Runner.Command)
	v.SetDefault("runner.work_dir", c.Runner.WorkDir)
	v.SetDefault("runner.timeout_seconds", c.Runner.TimeoutSeconds)
	v.SetDefault("report.path", c.Report.Path)
	v.SetDefault("report.discovery_root", c.Report.DiscoveryRoot)
	v.SetDefault("report.patterns", c.Report.Patterns)
	v.SetDefault("report.exclude_patterns", c.Report.ExcludePatterns)
	v.SetDefault("dashboard.page_size", c.Dashboard.PageSize)
	v.SetDefault("dashboard.hotspot_limit", c.Dashboard.HotspotLimit)
	v.SetDefault("output.format", c.Output.Format)
	v.SetDefault("output.directory", c.Output.Directory)
	v.SetDefault("history.enabled", c.History.Enabled)
	v.SetDefault("history.path", c.History.Path)
	v.SetDefault("history.limit", c.History.Limit)
	v.SetDefault("performance.max_workers", c.Performance.MaxWorkers)
	v.SetDefault("performance.timeout_seconds", c.Performance.TimeoutSeconds)
	// threshold_total has no default; bind it so TCDR_DASHBOARD_THRESHOLD_TOTAL still applies
	_ = v.BindEnv("dashboard.threshold_total")
}

// configCandidates are the file names searched during discovery, in order
var configCandidates = []string{
	"tcdr.yaml",
	"tcdr.yml",
	".tcdr.yaml",
	".tcdr.yml",
	"tcdr.json",
	".tcdr.json",
	".tcdr.toml",
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for a config file from targetPath upward, then in
// the current directory, the XDG config directory and finally TCDR_CONFIG
func findDefaultConfig(targetPath string) string {
	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, configCandidates); config != "" {
					return config
				}

				parent := filepath.Dir(dir)
				if parent == dir ||
					dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	if config := searchConfigInDirectory(".", configCandidates); config != "" {
		return config
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, constants.ToolName), configCandidates); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		configDir := filepath.Join(home, ".config", constants.ToolName)
		if config := searchConfigInDirectory(configDir, configCandidates); config != "" {
			return config
		}
	}

	if envConfig := os.Getenv(constants.EnvVarPrefix + "_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// ValidOutputFormats lists the accepted output.format values
var ValidOutputFormats = []string{"text", "json", "yaml", "csv", "html"}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Server.Port < constants.MinPort || c.Server.Port > constants.MaxPort {
		return fmt.Errorf("server.port must be between %d and %d, got %d",
			constants.MinPort, constants.MaxPort, c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds < 0 {
		return fmt.Errorf("server.read_timeout_seconds must be >= 0, got %d", c.Server.ReadTimeoutSeconds)
	}
	if c.Server.WriteTimeoutSeconds < 0 {
		return fmt.Errorf("server.write_timeout_seconds must be >= 0, got %d", c.Server.WriteTimeoutSeconds)
	}

	if len(c.Runner.Command) == 0 || strings.TrimSpace(c.Runner.Command[0]) == "" {
		return fmt.Errorf("runner.command cannot be empty")
	}
	if c.Runner.TimeoutSeconds < 0 {
		return fmt.Errorf("runner.timeout_seconds must be >= 0, got %d", c.Runner.TimeoutSeconds)
	}

	if c.Report.Path == "" && len(c.Report.Patterns) == 0 {
		return fmt.Errorf("report.patterns cannot be empty when report.path is not set")
	}

	if c.Dashboard.PageSize < 1 {
		return fmt.Errorf("dashboard.page_size must be >= 1, got %d", c.Dashboard.PageSize)
	}
	if c.Dashboard.HotspotLimit < 0 {
		return fmt.Errorf("dashboard.hotspot_limit must be >= 0, got %d", c.Dashboard.HotspotLimit)
	}
	if t := c.Dashboard.ThresholdTotal; t != nil && (*t < 0 || *t > 100) {
		return fmt.Errorf("dashboard.threshold_total must be between 0 and 100, got %g", *t)
	}

	validFormat := false
	for _, f := range ValidOutputFormats {
		if c.Output.Format == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid output.format '%s', must be one of: %s",
			c.Output.Format, strings.Join(ValidOutputFormats, ", "))
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path cannot be empty when history is enabled")
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must be >= 0, got %d", c.History.Limit)
	}

	if c.Performance.MaxWorkers < 0 {
		return fmt.Errorf("performance.max_workers must be >= 0, got %d", c.Performance.MaxWorkers)
	}
	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}

	return nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	// Create a new viper instance to avoid race conditions
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", config.Server)
	v.Set("runner", config.Runner)
	v.Set("report", config.Report)
	v.Set("dashboard", config.Dashboard)
	v.Set("output", config.Output)
	v.Set("history", config.History)
	v.Set("performance", config.Performance)

	return v.WriteConfig()
}
