package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thecodereport/tcdr/internal/config"
	"github.com/thecodereport/tcdr/internal/constants"
)

func runInitCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := initCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInitCommand_BasicConfigCreation(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "tcdr.yaml")

	out, err := runInitCmd(t, "--config", configPath)
	if err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if !strings.Contains(out, "Created ") {
		t.Errorf("unexpected output: %s", out)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)
	expectedSections := []string{
		"runner:",
		"report:",
		"dashboard:",
		"server:",
		"output:",
		"history:",
		"performance:",
		"threshold_total: 70",
	}
	for _, section := range expectedSections {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing expected section: %s", section)
		}
	}

	// The generated file must load as a valid configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Runner.Command[0] != "dotnet" {
		t.Errorf("unexpected runner command %v", cfg.Runner.Command)
	}
}

func TestInitCommand_ForceOverwrite(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "tcdr.yaml")
	if err := os.WriteFile(configPath, []byte("existing: true\n"), 0644); err != nil {
		t.Fatalf("Failed to create existing file: %v", err)
	}

	_, err := runInitCmd(t, "--config", configPath)
	if err == nil {
		t.Fatal("Expected error when file exists without --force")
	}
	if !strings.Contains(err.Error(), "--force") {
		t.Errorf("error should mention --force, got: %v", err)
	}

	if _, err := runInitCmd(t, "--config", configPath, "--force"); err != nil {
		t.Fatalf("init with --force failed: %v", err)
	}
	content, _ := os.ReadFile(configPath)
	if strings.Contains(string(content), "existing: true") {
		t.Error("File was not overwritten")
	}
}

func TestInitCommand_MinimalConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "tcdr.yaml")

	if _, err := runInitCmd(t, "--config", configPath, "--minimal"); err != nil {
		t.Fatalf("init --minimal failed: %v", err)
	}

	content, _ := os.ReadFile(configPath)
	if !strings.Contains(string(content), "(minimal)") {
		t.Error("minimal template not used")
	}
	if strings.Contains(string(content), "performance:") {
		t.Error("minimal config should not contain the performance section")
	}
	if _, err := config.LoadConfig(configPath); err != nil {
		t.Errorf("minimal config does not load: %v", err)
	}
}

func TestInitCommand_InvalidDirectory(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "missing", "tcdr.yaml")

	_, err := runInitCmd(t, "--config", configPath)
	if err == nil || !strings.Contains(err.Error(), "directory does not exist") {
		t.Errorf("expected missing directory error, got %v", err)
	}
}

func TestInitCommand_Presets(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr string
	}{
		{
			name: "solution strict",
			args: []string{"--project", "solution", "--strictness", "strict"},
			want: []string{"/p:MergeWith=../coverage/coverage.json", "threshold_total: 85", "hotspot_limit: 50"},
		},
		{
			name: "custom relaxed",
			args: []string{"--project", "custom", "--strictness", "relaxed"},
			want: []string{"./scripts/test-coverage.sh", "threshold_total: 50"},
		},
		{
			name:    "unknown project",
			args:    []string{"--project", "maven"},
			wantErr: "unknown project type",
		},
		{
			name:    "unknown strictness",
			args:    []string{"--strictness", "lenient"},
			wantErr: "unknown strictness",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "tcdr.yaml")
			_, err := runInitCmd(t, append([]string{"--config", configPath}, tt.args...)...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("init failed: %v", err)
			}
			content, _ := os.ReadFile(configPath)
			for _, w := range tt.want {
				if !strings.Contains(string(content), w) {
					t.Errorf("config missing %q", w)
				}
			}
		})
	}
}

func TestInitCommand_FlagsExist(t *testing.T) {
	cmd := initCmd()

	expectedFlags := []string{"config", "force", "minimal", "project", "strictness", "interactive"}
	for _, flagName := range expectedFlags {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}

	shortFlags := map[string]string{"c": "config", "f": "force", "i": "interactive"}
	for short, long := range shortFlags {
		if cmd.Flags().ShorthandLookup(short) == nil {
			t.Errorf("Missing short flag -%s for --%s", short, long)
		}
	}
}

func TestInitCommand_DefaultConfigPath(t *testing.T) {
	cmd := initCmd()
	flag := cmd.Flags().Lookup("config")
	if flag.DefValue != constants.ConfigFileName {
		t.Errorf("default config path = %q, want %q", flag.DefValue, constants.ConfigFileName)
	}
}
