package config

import (
	"strconv"
	"strings"
)

// ProjectType selects the test command written by tcdr init
type ProjectType string

const (
	ProjectTypeDotnet   ProjectType = "dotnet"
	ProjectTypeSolution ProjectType = "solution"
	ProjectTypeCustom   ProjectType = "custom"
)

// Strictness selects the line coverage target written by tcdr init
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// ProjectPreset holds the runner and discovery settings for a project type
type ProjectPreset struct {
	Description     string
	Command         []string
	Patterns        []string
	ExcludePatterns []string
}

// StrictnessPreset holds threshold values for a strictness level
type StrictnessPreset struct {
	Description    string
	ThresholdTotal float64
	HotspotLimit   int
}

// GetProjectPresets returns presets for different project types
func GetProjectPresets() map[ProjectType]ProjectPreset {
	exclude := []string{"bin/", "obj/", ".git/", "node_modules/"}
	return map[ProjectType]ProjectPreset{
		ProjectTypeDotnet: {
			Description:     "Single test project collected with coverlet.msbuild",
			Command:         []string{"dotnet", "test", "/p:CollectCoverage=true", "/p:CoverletOutputFormat=json"},
			Patterns:        []string{"coverage.json"},
			ExcludePatterns: exclude,
		},
		ProjectTypeSolution: {
			Description: "Solution with several test projects merged into one report",
			Command: []string{
				"dotnet", "test",
				"/p:CollectCoverage=true",
				"/p:CoverletOutputFormat=json",
				"/p:CoverletOutput=../coverage/",
				"/p:MergeWith=../coverage/coverage.json",
				"-m:1",
			},
			Patterns:        []string{"coverage.json", "coverage.*.json"},
			ExcludePatterns: exclude,
		},
		ProjectTypeCustom: {
			Description:     "Custom command that leaves a coverlet JSON report behind",
			Command:         []string{"./scripts/test-coverage.sh"},
			Patterns:        []string{"coverage.json"},
			ExcludePatterns: exclude,
		},
	}
}

// GetStrictnessPresets returns presets for different strictness levels
func GetStrictnessPresets() map[Strictness]StrictnessPreset {
	return map[Strictness]StrictnessPreset{
		StrictnessRelaxed: {
			Description:    "50% line coverage",
			ThresholdTotal: 50,
			HotspotLimit:   10,
		},
		StrictnessStandard: {
			Description:    "70% line coverage",
			ThresholdTotal: 70,
			HotspotLimit:   20,
		},
		StrictnessStrict: {
			Description:    "85% line coverage",
			ThresholdTotal: 85,
			HotspotLimit:   50,
		},
	}
}

// GetFullConfigTemplate returns the documented config template as YAML
func GetFullConfigTemplate(projectType ProjectType, strictness Strictness) string {
	preset, ok := GetProjectPresets()[projectType]
	if !ok {
		preset = GetProjectPresets()[ProjectTypeDotnet]
	}
	strict, ok := GetStrictnessPresets()[strictness]
	if !ok {
		strict = GetStrictnessPresets()[StrictnessStandard]
	}

	return `# tcdr configuration
# Values here are overridden by TCDR_* environment variables,
# e.g. TCDR_SERVER_PORT=9090 or TCDR_DASHBOARD_THRESHOLD_TOTAL=80.

# ============================================================================
# TEST RUNNER
# ============================================================================
# Command executed by "tcdr run" and the dashboard's Run All button.
# It must leave a coverlet JSON report where report discovery can find it.
runner:
  command: ` + formatYAMLList(preset.Command) + `
  # Working directory for the command (empty = current directory)
  work_dir: ""
  # Kill the command after this many seconds (0 = no limit)
  timeout_seconds: 600

# ============================================================================
# REPORT DISCOVERY
# ============================================================================
report:
  # Explicit report file; disables discovery when set
  path: ""
  # Directory searched for reports (empty = current directory)
  discovery_root: ""
  # File name globs that identify coverage reports
  patterns: ` + formatYAMLList(preset.Patterns) + `
  # gitignore-style patterns skipped while searching
  exclude_patterns: ` + formatYAMLList(preset.ExcludePatterns) + `

# ============================================================================
# DASHBOARD
# ============================================================================
dashboard:
  # Rows per page in the coverage explorer
  page_size: 50
  # Maximum number of hotspots shown
  hotspot_limit: ` + strconv.Itoa(strict.HotspotLimit) + `
  # Line coverage target in percent; "tcdr check" fails below it
  threshold_total: ` + strconv.FormatFloat(strict.ThresholdTotal, 'f', -1, 64) + `

# ============================================================================
# SERVER
# ============================================================================
server:
  host: 127.0.0.1
  port: 8080

# ============================================================================
# OUTPUT
# ============================================================================
output:
  # Output format: "text", "json", "yaml", "csv", "html"
  format: text
  # Directory for generated HTML dashboards (empty = current directory)
  directory: ""

# ============================================================================
# HISTORY
# ============================================================================
# Snapshots of the headline percentages, shown as the overview trend
history:
  enabled: true
  path: .tcdr/history.db
  # Number of snapshots shown on the dashboard
  limit: 30

# ============================================================================
# PERFORMANCE
# ============================================================================
performance:
  # Parallel report parsing and assembly folding (0 = number of CPUs)
  max_workers: 0
  timeout_seconds: 300
`
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate() string {
	return `# tcdr configuration (minimal)
# Run "tcdr init --force" without --minimal for every option.

runner:
  command: ["dotnet", "test", "/p:CollectCoverage=true", "/p:CoverletOutputFormat=json"]

dashboard:
  threshold_total: 70
`
}

// formatYAMLList formats a string slice as a YAML flow sequence
func formatYAMLList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = strconv.Quote(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
