package coverage

import (
	"context"
	"runtime"

	"github.com/thecodereport/tcdr/domain"
	"golang.org/x/sync/errgroup"
)

// Options configures a Normalizer
type Options struct {
	// HotspotLimit caps the hotspot list; <= 0 uses DefaultHotspotLimit
	HotspotLimit int
}

// Counts are the numbers of visited object nodes per level, before dropping empty ones
type Counts struct {
	Assemblies int `json:"assemblies"`
	Files      int `json:"files"`
	Classes    int `json:"classes"`
}

// Result is the output of one normalization
type Result struct {
	RepoName string
	Rows     []domain.CoverageRow
	Counts   Counts
	Metrics  Metrics
	Hotspots []domain.Hotspot
}

// Summary returns the overview summary for the result
func (r *Result) Summary() domain.OverviewSummary {
	return domain.OverviewSummary{
		Parser:     domain.ParserCoverlet,
		Assemblies: domain.IntPtr(r.Counts.Assemblies),
		Classes:    domain.IntPtr(r.Counts.Classes),
		Files:      domain.IntPtr(r.Counts.Files),
	}
}

// Totals returns the overview totals for the result
func (r *Result) Totals() domain.OverviewTotals {
	return Totals(r.Metrics)
}

// Normalizer folds a Report into rows, totals and hotspots
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a normalizer
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// assemblyFold is the outcome of folding one assembly
type assemblyFold struct {
	row        *domain.CoverageRow
	metrics    Metrics
	files      int
	classes    int
	candidates []domain.Hotspot
}

// Normalize folds the report sequentially
func (n *Normalizer) Normalize(report *Report) *Result {
	folds := make([]assemblyFold, 0, len(report.Assemblies))
	for _, asm := range report.Assemblies {
		folds = append(folds, foldAssembly(asm))
	}
	return n.merge(report, folds)
}

// NormalizeParallel folds each assembly concurrently and merges the results in
// document order. The result equals Normalize for the same report.
func (n *Normalizer) NormalizeParallel(ctx context.Context, report *Report, workers int) (*Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	folds := make([]assemblyFold, len(report.Assemblies))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, asm := range report.Assemblies {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			folds[i] = foldAssembly(asm)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return n.merge(report, folds), nil
}

func (n *Normalizer) merge(report *Report, folds []assemblyFold) *Result {
	result := &Result{
		RepoName: domain.DefaultRepoName,
		Rows:     make([]domain.CoverageRow, 0, len(folds)),
	}
	if report.FirstKey != "" {
		result.RepoName = RepoName(report.FirstKey)
	}

	var candidates []domain.Hotspot
	for _, f := range folds {
		result.Counts.Assemblies++
		result.Counts.Files += f.files
		result.Counts.Classes += f.classes
		candidates = append(candidates, f.candidates...)
		if f.row == nil {
			continue
		}
		result.Rows = append(result.Rows, *f.row)
		result.Metrics = Combine(result.Metrics, f.metrics)
	}
	result.Hotspots = SelectHotspots(candidates, n.opts.HotspotLimit)
	return result
}

func foldAssembly(asm Assembly) assemblyFold {
	var fold assemblyFold
	var children []domain.CoverageRow

	for _, file := range asm.Files {
		fold.files++
		var fileMetrics Metrics
		var classRows []domain.CoverageRow

		for _, class := range file.Classes {
			fold.classes++
			var classMetrics Metrics
			var methodRows []domain.CoverageRow

			for _, method := range class.Methods {
				m := SummarizeMethod(method.Data)
				if !HasCoverage(m) {
					continue
				}
				if h, ok := hotspotFor(file.Path, method.Signature, m, method.Data); ok {
					fold.candidates = append(fold.candidates, h)
				}
				methodRows = append(methodRows, NewRow(
					SimplifyMethodName(method.Signature),
					domain.RowKindMethod,
					LineRange(method.Data),
					m, nil,
				))
				classMetrics = Combine(classMetrics, m)
			}

			if !HasCoverage(classMetrics) {
				continue
			}
			classRows = append(classRows, NewRow(
				SimplifyClassName(class.Name),
				domain.RowKindClass,
				ClassPath(class.Name),
				classMetrics, methodRows,
			))
			fileMetrics = Combine(fileMetrics, classMetrics)
		}

		if !HasCoverage(fileMetrics) {
			continue
		}
		children = append(children, NewRow(
			FileName(file.Path),
			domain.RowKindFile,
			file.Path,
			fileMetrics, classRows,
		))
		fold.metrics = Combine(fold.metrics, fileMetrics)
	}

	if HasCoverage(fold.metrics) {
		row := NewRow(asm.Name, domain.RowKindAssembly, "", fold.metrics, children)
		fold.row = &row
	}
	return fold
}
