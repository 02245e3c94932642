package service

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/thecodereport/tcdr/domain"
)

// CSVHeader is the column set of the coverage export
var CSVHeader = []string{
	"depth", "kind", "name", "path",
	"coveredLines", "uncoveredLines", "coverableLines", "totalLines", "linePct",
	"coveredBranches", "totalBranches", "branchPct",
	"coveredMethods", "totalMethods", "methodPct",
	"fullCoveredMethods", "fullMethodPct",
}

// WriteCSV exports rows depth-first, one record per row.
// Not-applicable percentages are written as empty fields.
func WriteCSV(w io.Writer, rows []domain.CoverageRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return domain.NewOutputError("failed to write CSV header", err)
	}
	for _, fr := range Flatten(rows) {
		if err := cw.Write(csvRecord(fr)); err != nil {
			return domain.NewOutputError("failed to write CSV record", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return domain.NewOutputError("failed to flush CSV", err)
	}
	return nil
}

func csvRecord(fr FlatRow) []string {
	r := fr.Row
	return []string{
		strconv.Itoa(fr.Depth),
		string(r.Kind),
		r.Name,
		r.Path,
		strconv.Itoa(r.Lines.Covered),
		strconv.Itoa(r.Lines.Uncovered),
		strconv.Itoa(r.Lines.Coverable),
		strconv.Itoa(r.Lines.Total),
		csvPercent(r.Lines.Pct),
		strconv.Itoa(r.Branches.Covered),
		strconv.Itoa(r.Branches.Total),
		csvPercent(r.Branches.Pct),
		strconv.Itoa(r.Methods.Covered),
		strconv.Itoa(r.Methods.Total),
		csvPercent(r.Methods.Pct),
		strconv.Itoa(r.Methods.FullCovered),
		csvPercent(r.Methods.FullPct),
	}
}

func csvPercent(p domain.Percent) string {
	if !p.Valid {
		return ""
	}
	return strconv.FormatFloat(p.Value, 'f', -1, 64)
}
