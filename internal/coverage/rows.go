package coverage

import "github.com/thecodereport/tcdr/domain"

// NewRow builds a row from accumulated metrics, deriving every percentage
func NewRow(name string, kind domain.RowKind, path string, m Metrics, children []domain.CoverageRow) domain.CoverageRow {
	coverable := m.Coverable()
	total := m.LineTotal
	if total == 0 {
		total = coverable
	}
	return domain.CoverageRow{
		Name:     name,
		Kind:     kind,
		Path:     path,
		Children: children,
		Lines: domain.LineMetrics{
			Covered:   m.LineCovered,
			Uncovered: m.LineUncovered,
			Coverable: coverable,
			Total:     total,
			Pct:       domain.PercentOf(m.LineCovered, coverable),
		},
		Branches: domain.BranchMetrics{
			Covered: m.BranchCovered,
			Total:   m.BranchTotal,
			Pct:     domain.PercentOf(m.BranchCovered, m.BranchTotal),
		},
		Methods: domain.MethodMetrics{
			Covered:     m.MethodCovered,
			FullCovered: m.MethodFullCovered,
			Total:       m.MethodTotal,
			Pct:         domain.PercentOf(m.MethodCovered, m.MethodTotal),
			FullPct:     domain.PercentOf(m.MethodFullCovered, m.MethodTotal),
		},
	}
}

// Totals rolls the grand total up with the same formulas as a row
func Totals(m Metrics) domain.OverviewTotals {
	row := NewRow("", "", "", m, nil)
	return domain.OverviewTotals{
		Lines: domain.LineTotals{
			Covered:   domain.IntPtr(row.Lines.Covered),
			Uncovered: domain.IntPtr(row.Lines.Uncovered),
			Coverable: domain.IntPtr(row.Lines.Coverable),
			Total:     domain.IntPtr(row.Lines.Total),
			Pct:       row.Lines.Pct,
		},
		Branches: domain.BranchTotals{
			Covered: domain.IntPtr(row.Branches.Covered),
			Total:   domain.IntPtr(row.Branches.Total),
			Pct:     row.Branches.Pct,
		},
		Methods: domain.MethodTotals{
			Covered:     domain.IntPtr(row.Methods.Covered),
			FullCovered: domain.IntPtr(row.Methods.FullCovered),
			Total:       domain.IntPtr(row.Methods.Total),
			Pct:         row.Methods.Pct,
			FullPct:     row.Methods.FullPct,
		},
	}
}
