package domain

import (
	"context"
	"io"
	"time"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatCSV  OutputFormat = "csv"
	OutputFormatHTML OutputFormat = "html"
)

// ParseOutputFormat validates a user-supplied format name
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatCSV, OutputFormatHTML:
		return f, nil
	case "":
		return OutputFormatText, nil
	default:
		return "", NewUnsupportedFormatError(s)
	}
}

// DashboardRequest describes one normalize/export invocation
type DashboardRequest struct {
	// Coverage files or directories to search
	Paths []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string // file to write instead of OutputWriter (html defaults to one)
	NoOpen       bool

	// Explorer options
	Filter   string // case-insensitive substring on name or path
	MaxDepth int    // 0 shows every level in text output

	// Normalization options
	HotspotLimit   int
	ThresholdTotal *float64
	Workers        int

	// Discovery
	ConfigPath      string
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// History
	RecordHistory bool
	HistoryLimit  int
}

// DashboardResponse is the result of building a dashboard from files on disk
type DashboardResponse struct {
	Content     *DashboardContent `json:"content" yaml:"content"`
	Sources     []string          `json:"sources" yaml:"sources"`
	Warnings    []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	GeneratedAt string            `json:"generated_at" yaml:"generated_at"`
	Version     string            `json:"version" yaml:"version"`
}

// OutputFormatter renders dashboard content
type OutputFormatter interface {
	// Write writes the content in the given format
	Write(content *DashboardContent, format OutputFormat, writer io.Writer) error
}

// ProgressManager creates progress indicators for long-running work
type ProgressManager interface {
	StartTask(description string, total int) TaskProgress
	IsInteractive() bool
	Close()
}

// TaskProgress tracks one task
type TaskProgress interface {
	Increment(n int)
	Describe(description string)
	Complete()
}

// ExecutableTask is a unit of work run by a ParallelExecutor
type ExecutableTask interface {
	Name() string
	Execute(ctx context.Context) (interface{}, error)
	IsEnabled() bool
}

// ParallelExecutor runs tasks concurrently
type ParallelExecutor interface {
	Execute(ctx context.Context, tasks []ExecutableTask) error
	SetMaxConcurrency(max int)
	SetTimeout(timeout time.Duration)
}

// Snapshot is one recorded coverage measurement
type Snapshot struct {
	ID            int64     `json:"id" yaml:"id"`
	RepoName      string    `json:"repo_name" yaml:"repo_name"`
	Branch        string    `json:"branch,omitempty" yaml:"branch,omitempty"`
	RecordedAt    time.Time `json:"recorded_at" yaml:"recorded_at"`
	LinePct       Percent   `json:"line_pct" yaml:"line_pct"`
	BranchPct     Percent   `json:"branch_pct" yaml:"branch_pct"`
	MethodPct     Percent   `json:"method_pct" yaml:"method_pct"`
	FullMethodPct Percent   `json:"full_method_pct" yaml:"full_method_pct"`
}

// HistoryStore persists coverage snapshots
type HistoryStore interface {
	Record(ctx context.Context, snap Snapshot) (int64, error)
	// Recent returns up to limit snapshots for repo, oldest first
	Recent(ctx context.Context, repo string, limit int) ([]Snapshot, error)
	Close() error
}
