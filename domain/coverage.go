package domain

// RowKind identifies the level of a coverage row
type RowKind string

const (
	RowKindAssembly  RowKind = "assembly"
	RowKindNamespace RowKind = "namespace" // reserved, never produced by the normalizer
	RowKindFile      RowKind = "file"
	RowKindClass     RowKind = "class"
	RowKindMethod    RowKind = "method"
)

// LineMetrics holds line counts of a row
type LineMetrics struct {
	Covered   int     `json:"covered" yaml:"covered"`
	Uncovered int     `json:"uncovered" yaml:"uncovered"`
	Coverable int     `json:"coverable" yaml:"coverable"`
	Total     int     `json:"total" yaml:"total"`
	Pct       Percent `json:"pct" yaml:"pct"`
}

// BranchMetrics holds branch counts of a row
type BranchMetrics struct {
	Covered int     `json:"covered" yaml:"covered"`
	Total   int     `json:"total" yaml:"total"`
	Pct     Percent `json:"pct" yaml:"pct"`
}

// MethodMetrics holds method counts of a row
type MethodMetrics struct {
	Covered     int     `json:"covered" yaml:"covered"`
	FullCovered int     `json:"fullCovered" yaml:"full_covered"`
	Total       int     `json:"total" yaml:"total"`
	Pct         Percent `json:"pct" yaml:"pct"`
	FullPct     Percent `json:"fullPct" yaml:"full_pct"`
}

// CoverageRow is one node of the coverage explorer tree.
// Rows are values: consumers read them and never mutate a tree in place.
type CoverageRow struct {
	Name     string        `json:"name" yaml:"name"`
	Kind     RowKind       `json:"kind" yaml:"kind"`
	Path     string        `json:"path,omitempty" yaml:"path,omitempty"`
	Children []CoverageRow `json:"children,omitempty" yaml:"children,omitempty"`
	Lines    LineMetrics   `json:"lines" yaml:"lines"`
	Branches BranchMetrics `json:"branches" yaml:"branches"`
	Methods  MethodMetrics `json:"methods" yaml:"methods"`
}

// Key returns the lookup key used to layer UI state over a row
func (r CoverageRow) Key() string {
	if r.Path != "" {
		return string(r.Kind) + ":" + r.Path
	}
	return string(r.Kind) + ":" + r.Name
}

// HotspotReasonLowCoverage marks a method with incomplete coverage
const HotspotReasonLowCoverage = "low-cov"

// Hotspot is a method flagged for incomplete coverage, ranked by Score (0..100)
type Hotspot struct {
	File     string  `json:"file" yaml:"file"`
	Function string  `json:"function" yaml:"function"`
	Reason   string  `json:"reason" yaml:"reason"`
	Score    float64 `json:"score" yaml:"score"`
	Lines    string  `json:"lines,omitempty" yaml:"lines,omitempty"`
}
