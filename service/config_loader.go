package service

import (
	"fmt"

	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/internal/config"
)

// ConfigurationLoaderImpl turns configuration files into dashboard requests
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.DashboardRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}

	return RequestFromConfig(cfg), nil
}

// LoadDefaultConfig discovers a configuration file from targetPath and falls
// back to the built-in defaults when none loads
func (c *ConfigurationLoaderImpl) LoadDefaultConfig(targetPath string) *domain.DashboardRequest {
	cfg, err := config.LoadConfigWithTarget("", targetPath)
	if err == nil {
		return RequestFromConfig(cfg)
	}

	return RequestFromConfig(config.DefaultConfig())
}

// MergeConfig merges CLI flags over a configuration-derived request.
// Zero values in override keep the base value.
func (c *ConfigurationLoaderImpl) MergeConfig(base *domain.DashboardRequest, override *domain.DashboardRequest) *domain.DashboardRequest {
	merged := *base

	// Paths from arguments always win
	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}

	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.OutputPath != "" {
		merged.OutputPath = override.OutputPath
	}
	if override.NoOpen {
		merged.NoOpen = true
	}

	if override.Filter != "" {
		merged.Filter = override.Filter
	}
	if override.MaxDepth > 0 {
		merged.MaxDepth = override.MaxDepth
	}

	if override.HotspotLimit > 0 {
		merged.HotspotLimit = override.HotspotLimit
	}
	if override.ThresholdTotal != nil {
		merged.ThresholdTotal = override.ThresholdTotal
	}
	if override.Workers > 0 {
		merged.Workers = override.Workers
	}

	if len(override.IncludePatterns) > 0 {
		merged.IncludePatterns = override.IncludePatterns
	}
	if len(override.ExcludePatterns) > 0 {
		merged.ExcludePatterns = append(append([]string{}, merged.ExcludePatterns...), override.ExcludePatterns...)
	}

	if override.RecordHistory {
		merged.RecordHistory = true
	}
	if override.HistoryLimit > 0 {
		merged.HistoryLimit = override.HistoryLimit
	}

	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	return &merged
}

// RequestFromConfig converts a Config to a DashboardRequest
func RequestFromConfig(cfg *config.Config) *domain.DashboardRequest {
	var paths []string
	switch {
	case cfg.Report.Path != "":
		paths = []string{cfg.Report.Path}
	case cfg.Report.DiscoveryRoot != "":
		paths = []string{cfg.Report.DiscoveryRoot}
	}

	return &domain.DashboardRequest{
		Paths:           paths,
		OutputFormat:    domain.OutputFormat(cfg.Output.Format),
		HotspotLimit:    cfg.Dashboard.HotspotLimit,
		ThresholdTotal:  cfg.Dashboard.ThresholdTotal,
		Workers:         cfg.Performance.MaxWorkers,
		Recursive:       true,
		IncludePatterns: append([]string{}, cfg.Report.Patterns...),
		ExcludePatterns: append([]string{}, cfg.Report.ExcludePatterns...),
		RecordHistory:   cfg.History.Enabled,
		HistoryLimit:    cfg.History.Limit,
	}
}

// ValidateConfig validates the request
func (c *ConfigurationLoaderImpl) ValidateConfig(req *domain.DashboardRequest) error {
	if req.HotspotLimit < 0 {
		return fmt.Errorf("hotspot limit cannot be negative, got %d", req.HotspotLimit)
	}

	if req.MaxDepth < 0 {
		return fmt.Errorf("max depth cannot be negative, got %d", req.MaxDepth)
	}

	if t := req.ThresholdTotal; t != nil && (*t < 0 || *t > 100) {
		return fmt.Errorf("threshold must be between 0 and 100, got %g", *t)
	}

	if req.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", req.Workers)
	}

	if _, err := domain.ParseOutputFormat(string(req.OutputFormat)); err != nil {
		return fmt.Errorf("invalid output format: %s (must be one of: text, json, yaml, csv, html)",
			req.OutputFormat)
	}

	return nil
}
