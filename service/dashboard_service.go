package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/internal/coverage"
)

// isoMillis is the timestamp layout used for derived history points
const isoMillis = "2006-01-02T15:04:05.000Z"

// anchorLayouts are tried in order when reading a wire timestamp
var anchorLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DashboardServiceImpl builds dashboard content from raw or wire payloads
type DashboardServiceImpl struct {
	normalizer *coverage.Normalizer
	loader     *ReportLoader
	workers    int
	now        func() time.Time
}

// DashboardServiceOption configures a DashboardServiceImpl
type DashboardServiceOption func(*DashboardServiceImpl)

// WithWorkers folds assemblies on up to n goroutines; n <= 1 folds sequentially
func WithWorkers(n int) DashboardServiceOption {
	return func(s *DashboardServiceImpl) {
		s.workers = n
	}
}

// WithClock replaces the clock used when a wire payload carries no timestamp
func WithClock(now func() time.Time) DashboardServiceOption {
	return func(s *DashboardServiceImpl) {
		s.now = now
	}
}

// WithReportLoader sets the loader used when several reports are merged
func WithReportLoader(loader *ReportLoader) DashboardServiceOption {
	return func(s *DashboardServiceImpl) {
		s.loader = loader
	}
}

// NewDashboardService creates a dashboard service
func NewDashboardService(opts coverage.Options, options ...DashboardServiceOption) *DashboardServiceImpl {
	s := &DashboardServiceImpl{
		normalizer: coverage.NewNormalizer(opts),
		workers:    1,
		now:        time.Now,
	}
	for _, o := range options {
		o(s)
	}
	if s.loader == nil {
		s.loader = NewReportLoader(NewParallelExecutor())
	}
	return s
}

// Build detects the payload shape and returns the dashboard content
func (s *DashboardServiceImpl) Build(ctx context.Context, payload []byte) (*domain.DashboardContent, error) {
	if IsWirePayload(payload) {
		var wire domain.DashboardWire
		if err := json.Unmarshal(payload, &wire); err != nil {
			return nil, domain.NewParseError("dashboard payload", err)
		}
		content := FromWire(&wire, s.now)
		return &content, nil
	}

	report, err := coverage.ParseReport(payload)
	if err != nil {
		return nil, err
	}
	return s.BuildFromReport(ctx, report)
}

// BuildFiles builds content from report files. A single file may be a raw
// report or a wire payload; several files must all be raw and are merged.
func (s *DashboardServiceImpl) BuildFiles(ctx context.Context, paths []string) (*domain.DashboardContent, error) {
	switch len(paths) {
	case 0:
		return nil, domain.NewInvalidInputError("no coverage reports specified", nil)
	case 1:
		data, err := os.ReadFile(paths[0])
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, domain.NewFileNotFoundError(paths[0], err)
			}
			return nil, domain.NewInvalidInputError("cannot read "+paths[0], err)
		}
		return s.Build(ctx, data)
	}

	report, err := s.loader.LoadAndMerge(ctx, paths)
	if err != nil {
		return nil, err
	}
	return s.BuildFromReport(ctx, report)
}

// BuildFromReport normalizes an already parsed report
func (s *DashboardServiceImpl) BuildFromReport(ctx context.Context, report *coverage.Report) (*domain.DashboardContent, error) {
	var result *coverage.Result
	if s.workers > 1 && len(report.Assemblies) > 1 {
		var err error
		result, err = s.normalizer.NormalizeParallel(ctx, report, s.workers)
		if err != nil {
			return nil, domain.NewAnalysisError("normalization cancelled", err)
		}
	} else {
		result = s.normalizer.Normalize(report)
	}
	content := ContentFromResult(result)
	return &content, nil
}

// IsWirePayload reports whether payload is a pre-aggregated summary:
// a JSON object carrying both "totals" and "thresholds".
func IsWirePayload(payload []byte) bool {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return false
	}
	_, hasTotals := top["totals"]
	_, hasThresholds := top["thresholds"]
	return hasTotals && hasThresholds
}

// ContentFromResult wraps a normalization result for the dashboard
func ContentFromResult(result *coverage.Result) domain.DashboardContent {
	return domain.DashboardContent{
		RepoName: result.RepoName,
		Status:   domain.StatusReady,
		Overview: domain.Overview{
			Summary:  result.Summary(),
			Totals:   result.Totals(),
			Hotspots: result.Hotspots,
		},
		CoverageRows: result.Rows,
		AllowRunAll:  true,
	}
}

// FromWire maps a wire payload to dashboard content. Totals pass through with
// field renaming and the trend becomes one history point per minute, ending at
// the payload's timestamp.
func FromWire(w *domain.DashboardWire, now func() time.Time) domain.DashboardContent {
	if now == nil {
		now = time.Now
	}

	totals := domain.OverviewTotals{
		Lines:    domain.LineTotals{Pct: w.Totals.Lines},
		Branches: domain.BranchTotals{Pct: w.Totals.Branches},
		Methods:  domain.MethodTotals{Pct: w.Totals.Methods, FullPct: w.Totals.FullMethods},
	}
	if c := w.Totals.Counts; c != nil {
		if c.Lines != nil {
			totals.Lines.Covered = c.Lines.Covered
			totals.Lines.Uncovered = c.Lines.Uncovered
			totals.Lines.Coverable = c.Lines.Coverable
			totals.Lines.Total = c.Lines.Total
		}
		if c.Branches != nil {
			totals.Branches.Covered = c.Branches.Covered
			totals.Branches.Total = c.Branches.Total
		}
		if c.Methods != nil {
			totals.Methods.Covered = c.Methods.Covered
			totals.Methods.FullCovered = c.Methods.FullCovered
			totals.Methods.Total = c.Methods.Total
		}
	}

	var summary domain.OverviewSummary
	if w.Summary != nil {
		summary = *w.Summary
	}

	content := domain.DashboardContent{
		RepoName: w.RepoName,
		Branch:   w.Branch,
		Status:   w.Status,
		Overview: domain.Overview{
			Summary:  summary,
			Totals:   totals,
			History:  wireHistory(w, now),
			Hotspots: w.Hotspots,
		},
		CoverageRows: []domain.CoverageRow{},
		Thresholds:   &domain.Thresholds{Total: w.Thresholds.Total},
		AllowRunAll:  true,
	}
	return content
}

func wireHistory(w *domain.DashboardWire, now func() time.Time) []domain.OverviewHistory {
	if len(w.Trend) == 0 {
		return nil
	}

	anchorText := ""
	if w.Summary != nil && w.Summary.GeneratedAt != "" {
		anchorText = w.Summary.GeneratedAt
	} else if w.Commit != nil && w.Commit.Timestamp != "" {
		anchorText = w.Commit.Timestamp
	}

	anchor, ok := parseAnchor(anchorText)
	if !ok {
		anchor = now().UTC()
		if anchorText == "" {
			anchorText = anchor.Format(isoMillis)
		}
	}

	n := len(w.Trend)
	history := make([]domain.OverviewHistory, n)
	for i, linePct := range w.Trend {
		at := anchorText
		if i < n-1 {
			at = anchor.Add(-time.Duration(n-1-i) * time.Minute).UTC().Format(isoMillis)
		}
		history[i] = domain.OverviewHistory{
			At:            at,
			LinePct:       domain.PercentValue(linePct),
			BranchPct:     w.Totals.Branches,
			MethodPct:     w.Totals.Methods,
			FullMethodPct: w.Totals.FullMethods,
		}
	}
	return history
}

func parseAnchor(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range anchorLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// HistoryFromSnapshots turns stored snapshots into overview history points
func HistoryFromSnapshots(snaps []domain.Snapshot) []domain.OverviewHistory {
	if len(snaps) == 0 {
		return nil
	}
	out := make([]domain.OverviewHistory, len(snaps))
	for i, s := range snaps {
		out[i] = domain.OverviewHistory{
			At:            s.RecordedAt.UTC().Format(isoMillis),
			LinePct:       s.LinePct,
			BranchPct:     s.BranchPct,
			MethodPct:     s.MethodPct,
			FullMethodPct: s.FullMethodPct,
		}
	}
	return out
}

// SnapshotFromContent captures the headline percentages of content
func SnapshotFromContent(content *domain.DashboardContent, at time.Time) domain.Snapshot {
	t := content.Overview.Totals
	return domain.Snapshot{
		RepoName:      content.RepoName,
		Branch:        content.Branch,
		RecordedAt:    at,
		LinePct:       t.Lines.Pct,
		BranchPct:     t.Branches.Pct,
		MethodPct:     t.Methods.Pct,
		FullMethodPct: t.Methods.FullPct,
	}
}
