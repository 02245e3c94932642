package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/internal/version"
)

// Check rule names
const (
	RuleMinLineCoverage   = "min-line-coverage"
	RuleMinBranchCoverage = "min-branch-coverage"
	RuleMinMethodCoverage = "min-method-coverage"
	RuleMaxHotspots       = "max-hotspots"
)

// CheckUseCase gates coverage against thresholds for CI pipelines
type CheckUseCase struct {
	dashboard *DashboardUseCase
	now       func() time.Time
}

// NewCheckUseCase creates a check use case on top of a dashboard use case
func NewCheckUseCase(dashboard *DashboardUseCase) *CheckUseCase {
	return &CheckUseCase{dashboard: dashboard, now: time.Now}
}

// Execute builds the dashboard for req and compares it with the thresholds.
// A returned error means the check could not run; violations are reported in
// the result.
func (uc *CheckUseCase) Execute(ctx context.Context, req domain.CheckRequest) (*domain.CheckResult, error) {
	start := uc.now()

	resp, err := uc.dashboard.Execute(ctx, domain.DashboardRequest{
		Paths:           req.Paths,
		ConfigPath:      req.ConfigPath,
		HotspotLimit:    req.HotspotLimit,
		Recursive:       req.Recursive,
		IncludePatterns: req.IncludePatterns,
		ExcludePatterns: req.ExcludePattern,
	})
	if err != nil {
		return nil, err
	}

	content := resp.Content
	totals := content.Overview.Totals
	result := &domain.CheckResult{
		Passed:     true,
		Violations: []domain.CheckViolation{},
		Summary: domain.CheckSummary{
			FilesAnalyzed: len(resp.Sources),
			LinePct:       totals.Lines.Pct,
			BranchPct:     totals.Branches.Pct,
			MethodPct:     totals.Methods.Pct,
			Hotspots:      len(content.Overview.Hotspots),
		},
	}

	minLine := req.MinLinePct
	if minLine == nil && content.Thresholds != nil {
		minLine = content.Thresholds.Total
	}

	checkMinimum(result, "lines", RuleMinLineCoverage, "Line", totals.Lines.Pct, minLine)
	checkMinimum(result, "branches", RuleMinBranchCoverage, "Branch", totals.Branches.Pct, req.MinBranchPct)
	checkMinimum(result, "methods", RuleMinMethodCoverage, "Method", totals.Methods.Pct, req.MinMethodPct)

	if req.MaxHotspots != nil && len(content.Overview.Hotspots) > *req.MaxHotspots {
		result.Passed = false
		result.Violations = append(result.Violations, domain.CheckViolation{
			Category:  "hotspots",
			Rule:      RuleMaxHotspots,
			Severity:  "error",
			Message:   fmt.Sprintf("Found %d coverage hotspots (max: %d)", len(content.Overview.Hotspots), *req.MaxHotspots),
			Actual:    strconv.Itoa(len(content.Overview.Hotspots)),
			Threshold: strconv.Itoa(*req.MaxHotspots),
		})
		for _, h := range content.Overview.Hotspots {
			result.Violations = append(result.Violations, domain.CheckViolation{
				Category: "hotspots",
				Rule:     RuleMaxHotspots,
				Severity: "warning",
				Message:  fmt.Sprintf("%s is %.1f%% uncovered", h.Function, h.Score),
				Location: h.File,
				Actual:   fmt.Sprintf("%.1f", h.Score),
			})
		}
	}

	result.ExitCode = 0
	if !result.Passed {
		result.ExitCode = 1
	}
	result.Summary.TotalViolations = len(result.Violations)
	result.Duration = uc.now().Sub(start).Milliseconds()
	result.GeneratedAt = uc.now().Format(time.RFC3339)
	result.Version = version.Version
	return result, nil
}

// checkMinimum adds a violation when actual is below min. A metric with
// nothing to measure never fails.
func checkMinimum(result *domain.CheckResult, category, rule, label string, actual domain.Percent, min *float64) {
	if min == nil || !actual.Valid || actual.Value >= *min {
		return
	}
	result.Passed = false
	result.Violations = append(result.Violations, domain.CheckViolation{
		Category:  category,
		Rule:      rule,
		Severity:  "error",
		Message:   fmt.Sprintf("%s coverage %.1f%% is below %.1f%%", label, actual.Value, *min),
		Actual:    fmt.Sprintf("%.1f", actual.Value),
		Threshold: fmt.Sprintf("%.1f", *min),
	})
}
