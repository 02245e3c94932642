package domain

// CheckRequest configures the coverage gate
type CheckRequest struct {
	Paths           []string
	ConfigPath      string
	MinLinePct      *float64 // falls back to thresholds.total
	MinBranchPct    *float64
	MinMethodPct    *float64
	MaxHotspots     *int
	HotspotLimit    int
	Recursive       bool
	IncludePatterns []string // report file name globs; empty uses coverage.json
	ExcludePattern  []string
}

// CheckResult represents the result of a coverage check
type CheckResult struct {
	Passed      bool             `json:"passed"`
	ExitCode    int              `json:"exit_code"`
	Violations  []CheckViolation `json:"violations"`
	Summary     CheckSummary     `json:"summary"`
	Duration    int64            `json:"duration_ms"`
	GeneratedAt string           `json:"generated_at"`
	Version     string           `json:"version"`
}

// CheckViolation represents a single threshold violation
type CheckViolation struct {
	Category  string `json:"category"`            // lines, branches, methods, hotspots
	Rule      string `json:"rule"`                // min-line-coverage, max-hotspots, etc.
	Severity  string `json:"severity"`            // error, warning
	Message   string `json:"message"`             // Human-readable description
	Location  string `json:"location,omitempty"`  // Hotspot file if applicable
	Actual    string `json:"actual"`              // Actual value
	Threshold string `json:"threshold,omitempty"` // Configured threshold
}

// CheckSummary provides aggregate statistics
type CheckSummary struct {
	FilesAnalyzed   int     `json:"files_analyzed"`
	TotalViolations int     `json:"total_violations"`
	LinePct         Percent `json:"line_pct"`
	BranchPct       Percent `json:"branch_pct"`
	MethodPct       Percent `json:"method_pct"`
	Hotspots        int     `json:"hotspots"`
}
