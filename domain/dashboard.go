package domain

import "context"

// Status is the lifecycle state shown by the dashboard header
type Status string

const (
	StatusIdle    Status = "Idle"
	StatusRunning Status = "Running"
	StatusParsing Status = "Parsing"
	StatusReady   Status = "Ready"
	StatusError   Status = "Error"
)

// DefaultRepoName is used when a raw report has no assemblies
const DefaultRepoName = "Coverlet report"

// ParserCoverlet names the parser that produced a normalized summary
const ParserCoverlet = "coverlet"

// LineTotals is the line block of the overview totals
type LineTotals struct {
	Covered   *int    `json:"covered,omitempty" yaml:"covered,omitempty"`
	Uncovered *int    `json:"uncovered,omitempty" yaml:"uncovered,omitempty"`
	Coverable *int    `json:"coverable,omitempty" yaml:"coverable,omitempty"`
	Total     *int    `json:"total,omitempty" yaml:"total,omitempty"`
	Pct       Percent `json:"pct" yaml:"pct"`
}

// BranchTotals is the branch block of the overview totals
type BranchTotals struct {
	Covered *int    `json:"covered,omitempty" yaml:"covered,omitempty"`
	Total   *int    `json:"total,omitempty" yaml:"total,omitempty"`
	Pct     Percent `json:"pct" yaml:"pct"`
}

// MethodTotals is the method block of the overview totals
type MethodTotals struct {
	Covered     *int    `json:"covered,omitempty" yaml:"covered,omitempty"`
	FullCovered *int    `json:"fullCovered,omitempty" yaml:"full_covered,omitempty"`
	Total       *int    `json:"total,omitempty" yaml:"total,omitempty"`
	Pct         Percent `json:"pct" yaml:"pct"`
	FullPct     Percent `json:"fullPct" yaml:"full_pct"`
}

// OverviewTotals holds project-wide percentages and, when known, absolute counts.
// Counts are always present for a normalized report and optional on the wire path.
type OverviewTotals struct {
	Lines    LineTotals   `json:"lines" yaml:"lines"`
	Branches BranchTotals `json:"branches" yaml:"branches"`
	Methods  MethodTotals `json:"methods" yaml:"methods"`
}

// OverviewSummary describes where the numbers came from
type OverviewSummary struct {
	Parser      string `json:"parser" yaml:"parser"`
	Assemblies  *int   `json:"assemblies,omitempty" yaml:"assemblies,omitempty"`
	Classes     *int   `json:"classes,omitempty" yaml:"classes,omitempty"`
	Files       *int   `json:"files,omitempty" yaml:"files,omitempty"`
	GeneratedAt string `json:"generatedAt,omitempty" yaml:"generated_at,omitempty"`
	GeneratedBy string `json:"generatedBy,omitempty" yaml:"generated_by,omitempty"`
}

// OverviewHistory is one point of the coverage trend
type OverviewHistory struct {
	At            string  `json:"at" yaml:"at"`
	LinePct       Percent `json:"linePct" yaml:"line_pct"`
	BranchPct     Percent `json:"branchPct" yaml:"branch_pct"`
	MethodPct     Percent `json:"methodPct" yaml:"method_pct"`
	FullMethodPct Percent `json:"fullMethodPct" yaml:"full_method_pct"`
}

// Overview is the top panel of the dashboard
type Overview struct {
	Summary  OverviewSummary   `json:"summary" yaml:"summary"`
	Totals   OverviewTotals    `json:"totals" yaml:"totals"`
	History  []OverviewHistory `json:"history,omitempty" yaml:"history,omitempty"`
	Hotspots []Hotspot         `json:"hotspots,omitempty" yaml:"hotspots,omitempty"`
}

// Thresholds holds the configured coverage gates
type Thresholds struct {
	Total *float64 `json:"total,omitempty" yaml:"total,omitempty"`
}

// DashboardContent is everything the dashboard UI renders
type DashboardContent struct {
	RepoName     string        `json:"repoName,omitempty" yaml:"repo_name,omitempty"`
	Branch       string        `json:"branch,omitempty" yaml:"branch,omitempty"`
	Status       Status        `json:"status,omitempty" yaml:"status,omitempty"`
	Overview     Overview      `json:"overview" yaml:"overview"`
	CoverageRows []CoverageRow `json:"coverageRows" yaml:"coverage_rows"`
	Thresholds   *Thresholds   `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	AllowRunAll  bool          `json:"allowRunAll" yaml:"allow_run_all"`
}

// WireTotals is the pre-aggregated totals block of a wire payload
type WireTotals struct {
	Lines       Percent     `json:"lines"`
	Branches    Percent     `json:"branches"`
	Methods     Percent     `json:"methods"`
	FullMethods Percent     `json:"fullMethods"`
	Counts      *WireCounts `json:"counts,omitempty"`
}

// WireCounts carries optional absolute counts of a wire payload
type WireCounts struct {
	Lines    *WireLineCounts   `json:"lines,omitempty"`
	Branches *WireBranchCounts `json:"branches,omitempty"`
	Methods  *WireMethodCounts `json:"methods,omitempty"`
}

// WireLineCounts are absolute line counts. Each count may be absent.
type WireLineCounts struct {
	Covered   *int `json:"covered,omitempty"`
	Uncovered *int `json:"uncovered,omitempty"`
	Coverable *int `json:"coverable,omitempty"`
	Total     *int `json:"total,omitempty"`
}

// WireBranchCounts are absolute branch counts
type WireBranchCounts struct {
	Covered *int `json:"covered,omitempty"`
	Total   *int `json:"total,omitempty"`
}

// WireMethodCounts are absolute method counts
type WireMethodCounts struct {
	Covered     *int `json:"covered,omitempty"`
	FullCovered *int `json:"fullCovered,omitempty"`
	Total       *int `json:"total,omitempty"`
}

// WireCommit identifies the commit a wire payload was produced for
type WireCommit struct {
	SHA       string `json:"sha"`
	Short     string `json:"short"`
	Message   string `json:"message"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
}

// WireThresholds are the gates declared by a wire payload
type WireThresholds struct {
	Total *float64 `json:"total,omitempty"`
	Diff  *float64 `json:"diff,omitempty"`
}

// DashboardWire is the pre-aggregated payload shape
type DashboardWire struct {
	RepoName   string           `json:"repoName"`
	Branch     string           `json:"branch"`
	Status     Status           `json:"status"`
	Totals     WireTotals       `json:"totals"`
	Commit     *WireCommit      `json:"commit,omitempty"`
	Thresholds WireThresholds   `json:"thresholds"`
	Summary    *OverviewSummary `json:"summary,omitempty"`
	Trend      []float64        `json:"trend,omitempty"`
	Hotspots   []Hotspot        `json:"hotspots,omitempty"`
}

// DashboardService turns a coverage payload into dashboard content
type DashboardService interface {
	// Build detects the payload shape and returns the dashboard content
	Build(ctx context.Context, payload []byte) (*DashboardContent, error)

	// BuildFiles reads and merges report files
	BuildFiles(ctx context.Context, paths []string) (*DashboardContent, error)
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}
