package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/thecodereport/tcdr/domain"
)

func TestNewConfigurationLoader(t *testing.T) {
	loader := NewConfigurationLoader()

	if loader == nil {
		t.Fatal("NewConfigurationLoader should not return nil")
	}
}

func TestConfigurationLoader_LoadConfig_NonExistent(t *testing.T) {
	loader := NewConfigurationLoader()

	_, err := loader.LoadConfig("/nonexistent/tcdr.yaml")
	if err == nil {
		t.Error("LoadConfig should return error for nonexistent file")
	}
}

func TestConfigurationLoader_LoadConfig_InvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "tcdr.json")
	if err := os.WriteFile(configFile, []byte("invalid json"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	loader := NewConfigurationLoader()

	_, err := loader.LoadConfig(configFile)
	if err == nil {
		t.Error("LoadConfig should return error for invalid JSON")
	}
}

func TestConfigurationLoader_LoadConfig_Valid(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "tcdr.yaml")
	content := `
report:
  path: out/coverage.json
dashboard:
  hotspot_limit: 5
  threshold_total: 75
output:
  format: json
history:
  enabled: true
  limit: 10
performance:
  max_workers: 3
`
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	req, err := NewConfigurationLoader().LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(req.Paths) != 1 || req.Paths[0] != "out/coverage.json" {
		t.Errorf("Paths = %v", req.Paths)
	}
	if req.OutputFormat != domain.OutputFormatJSON {
		t.Errorf("OutputFormat = %s", req.OutputFormat)
	}
	if req.HotspotLimit != 5 {
		t.Errorf("HotspotLimit = %d", req.HotspotLimit)
	}
	if req.ThresholdTotal == nil || *req.ThresholdTotal != 75 {
		t.Errorf("ThresholdTotal = %v", req.ThresholdTotal)
	}
	if !req.RecordHistory || req.HistoryLimit != 10 {
		t.Errorf("history settings not applied: %+v", req)
	}
	if req.Workers != 3 {
		t.Errorf("Workers = %d", req.Workers)
	}
}

func TestConfigurationLoader_LoadDefaultConfig(t *testing.T) {
	req := NewConfigurationLoader().LoadDefaultConfig(t.TempDir())

	if req == nil {
		t.Fatal("LoadDefaultConfig should not return nil")
	}
	if req.OutputFormat == "" {
		t.Error("default output format should be set")
	}
	if len(req.IncludePatterns) == 0 {
		t.Error("default include patterns should be set")
	}
	if !req.Recursive {
		t.Error("discovery should be recursive by default")
	}
}

func TestConfigurationLoader_MergeConfig(t *testing.T) {
	loader := NewConfigurationLoader()
	threshold := 60.0
	base := &domain.DashboardRequest{
		Paths:           []string{"."},
		OutputFormat:    domain.OutputFormatText,
		HotspotLimit:    20,
		ThresholdTotal:  &threshold,
		ExcludePatterns: []string{"bin/"},
	}

	override := &domain.DashboardRequest{
		Paths:           []string{"a.json", "b.json"},
		OutputFormat:    domain.OutputFormatHTML,
		Filter:          "cart",
		ExcludePatterns: []string{"tests/"},
		NoOpen:          true,
	}

	merged := loader.MergeConfig(base, override)

	if len(merged.Paths) != 2 {
		t.Errorf("Paths = %v", merged.Paths)
	}
	if merged.OutputFormat != domain.OutputFormatHTML {
		t.Errorf("OutputFormat = %s", merged.OutputFormat)
	}
	if merged.HotspotLimit != 20 {
		t.Errorf("zero override should keep HotspotLimit, got %d", merged.HotspotLimit)
	}
	if merged.ThresholdTotal == nil || *merged.ThresholdTotal != 60 {
		t.Error("nil override should keep the threshold")
	}
	if merged.Filter != "cart" || !merged.NoOpen {
		t.Errorf("flags not merged: %+v", merged)
	}
	if len(merged.ExcludePatterns) != 2 {
		t.Errorf("exclude patterns should accumulate, got %v", merged.ExcludePatterns)
	}
	if len(base.ExcludePatterns) != 1 {
		t.Error("MergeConfig must not modify base")
	}
}

func TestConfigurationLoader_ValidateConfig(t *testing.T) {
	loader := NewConfigurationLoader()
	bad := 120.0

	tests := []struct {
		name    string
		req     domain.DashboardRequest
		wantErr bool
	}{
		{"valid", domain.DashboardRequest{OutputFormat: domain.OutputFormatJSON}, false},
		{"empty format defaults to text", domain.DashboardRequest{}, false},
		{"negative hotspot limit", domain.DashboardRequest{HotspotLimit: -1}, true},
		{"negative depth", domain.DashboardRequest{MaxDepth: -1}, true},
		{"threshold out of range", domain.DashboardRequest{ThresholdTotal: &bad}, true},
		{"negative workers", domain.DashboardRequest{Workers: -2}, true},
		{"unknown format", domain.DashboardRequest{OutputFormat: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loader.ValidateConfig(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
