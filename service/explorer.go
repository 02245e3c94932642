package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/thecodereport/tcdr/domain"
)

// SortKey names a column of the coverage explorer
type SortKey string

const (
	SortByName               SortKey = "name"
	SortByCoveredLines       SortKey = "coveredLines"
	SortByUncoveredLines     SortKey = "uncoveredLines"
	SortByCoverableLines     SortKey = "coverableLines"
	SortByTotalLines         SortKey = "totalLines"
	SortByLinePct            SortKey = "linePct"
	SortByCoveredBranches    SortKey = "coveredBranches"
	SortByTotalBranches      SortKey = "totalBranches"
	SortByBranchPct          SortKey = "branchPct"
	SortByCoveredMethods     SortKey = "coveredMethods"
	SortByTotalMethods       SortKey = "totalMethods"
	SortByMethodPct          SortKey = "methodPct"
	SortByFullCoveredMethods SortKey = "fullCoveredMethods"
	SortByFullMethodPct      SortKey = "fullMethodPct"
)

// ValidSortKeys lists every accepted sort key
var ValidSortKeys = []SortKey{
	SortByName, SortByCoveredLines, SortByUncoveredLines, SortByCoverableLines, SortByTotalLines,
	SortByLinePct, SortByCoveredBranches, SortByTotalBranches, SortByBranchPct,
	SortByCoveredMethods, SortByTotalMethods, SortByMethodPct,
	SortByFullCoveredMethods, SortByFullMethodPct,
}

// ParseSortKey validates a sort key; empty keeps document order
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return "", nil
	}
	for _, k := range ValidSortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", domain.NewInvalidInputError(fmt.Sprintf("unknown sort key %q", s), nil)
}

// FlatRow is a row with its depth in the tree
type FlatRow struct {
	Row   domain.CoverageRow
	Depth int
}

// FilterRows keeps rows whose name or path contains query, case-insensitively.
// A parent survives when any descendant matches, and only matching descendants
// are kept beneath it. An empty query returns rows unchanged.
func FilterRows(rows []domain.CoverageRow, query string) []domain.CoverageRow {
	if strings.TrimSpace(query) == "" {
		return rows
	}
	q := strings.ToLower(query)
	return filterRows(rows, q)
}

func filterRows(rows []domain.CoverageRow, q string) []domain.CoverageRow {
	out := make([]domain.CoverageRow, 0, len(rows))
	for _, r := range rows {
		var kids []domain.CoverageRow
		if r.Children != nil {
			kids = filterRows(r.Children, q)
		}
		matched := strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.Path), q)
		if !matched && len(kids) == 0 {
			continue
		}
		r.Children = kids
		out = append(out, r)
	}
	return out
}

// Flatten lists rows depth-first, parents before children
func Flatten(rows []domain.CoverageRow) []FlatRow {
	var out []FlatRow
	var walk func(nodes []domain.CoverageRow, depth int)
	walk = func(nodes []domain.CoverageRow, depth int) {
		for _, n := range nodes {
			out = append(out, FlatRow{Row: n, Depth: depth})
			if len(n.Children) > 0 {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(rows, 0)
	return out
}

// SortFlat orders a flattened view by key. Not-applicable percentages sort lowest.
// Unknown keys keep the input order.
func SortFlat(rows []FlatRow, key SortKey, desc bool) []FlatRow {
	out := make([]FlatRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		c := compareRows(out[i].Row, out[j].Row, key)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compareRows(a, b domain.CoverageRow, key SortKey) int {
	switch key {
	case SortByName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case SortByLinePct:
		return a.Lines.Pct.Compare(b.Lines.Pct)
	case SortByBranchPct:
		return a.Branches.Pct.Compare(b.Branches.Pct)
	case SortByMethodPct:
		return a.Methods.Pct.Compare(b.Methods.Pct)
	case SortByFullMethodPct:
		return a.Methods.FullPct.Compare(b.Methods.FullPct)
	}
	av, bv := countFor(a, key), countFor(b, key)
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

func countFor(r domain.CoverageRow, key SortKey) float64 {
	switch key {
	case SortByCoveredLines:
		return float64(r.Lines.Covered)
	case SortByUncoveredLines:
		return float64(r.Lines.Uncovered)
	case SortByCoverableLines:
		return float64(r.Lines.Coverable)
	case SortByTotalLines:
		return float64(r.Lines.Total)
	case SortByCoveredBranches:
		return float64(r.Branches.Covered)
	case SortByTotalBranches:
		return float64(r.Branches.Total)
	case SortByCoveredMethods:
		return float64(r.Methods.Covered)
	case SortByTotalMethods:
		return float64(r.Methods.Total)
	case SortByFullCoveredMethods:
		return float64(r.Methods.FullCovered)
	default:
		return math.Inf(-1)
	}
}

// Page is one page of the flattened explorer
type Page struct {
	Rows       []FlatRow
	Page       int // 1-based, clamped to the available pages
	TotalPages int
	TotalRows  int
}

// Paginate slices rows into pages of pageSize; out-of-range pages are clamped
func Paginate(rows []FlatRow, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = 50
	}
	totalPages := (len(rows) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return Page{
		Rows:       rows[start:end],
		Page:       page,
		TotalPages: totalPages,
		TotalRows:  len(rows),
	}
}
