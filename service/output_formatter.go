package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/thecodereport/tcdr/domain"
	"gopkg.in/yaml.v3"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct {
	filter   string
	maxDepth int
	html     HTMLOptions
}

// FormatterOption configures an OutputFormatterImpl
type FormatterOption func(*OutputFormatterImpl)

// WithFilter restricts explorer output to rows matching query
func WithFilter(query string) FormatterOption {
	return func(f *OutputFormatterImpl) {
		f.filter = query
	}
}

// WithMaxDepth limits the text explorer to rows at depth < n; 0 shows all
func WithMaxDepth(n int) FormatterOption {
	return func(f *OutputFormatterImpl) {
		f.maxDepth = n
	}
}

// WithHTMLOptions configures the HTML page
func WithHTMLOptions(opts HTMLOptions) FormatterOption {
	return func(f *OutputFormatterImpl) {
		f.html = opts
	}
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter(opts ...FormatterOption) *OutputFormatterImpl {
	f := &OutputFormatterImpl{}
	for _, o := range opts {
		o(f)
	}
	return f
}

// WriteJSON writes data as JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML to the writer
func WriteYAML(writer io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// Write writes the dashboard content in the specified format
func (f *OutputFormatterImpl) Write(content *domain.DashboardContent, format domain.OutputFormat, writer io.Writer) error {
	filtered := *content
	filtered.CoverageRows = FilterRows(content.CoverageRows, f.filter)

	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, filtered)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, filtered)
	case domain.OutputFormatCSV:
		return WriteCSV(writer, filtered.CoverageRows)
	case domain.OutputFormatHTML:
		return f.WriteHTML(&filtered, writer)
	case domain.OutputFormatText:
		return f.writeText(&filtered, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// writeText writes the overview, explorer and hotspots as plain text tables
func (f *OutputFormatterImpl) writeText(content *domain.DashboardContent, writer io.Writer) error {
	title := content.RepoName
	if title == "" {
		title = "Coverage"
	}
	fmt.Fprintf(writer, "\n=== %s ===\n", title)
	if content.Branch != "" {
		fmt.Fprintf(writer, "Branch: %s\n", content.Branch)
	}
	if content.Status != "" {
		fmt.Fprintf(writer, "Status: %s\n", content.Status)
	}
	fmt.Fprintln(writer)

	s := content.Overview.Summary
	if s.Parser != "" {
		fmt.Fprintf(writer, "Summary (%s):\n", s.Parser)
		fmt.Fprintf(writer, "  Assemblies: %s\n", optionalCount(s.Assemblies))
		fmt.Fprintf(writer, "  Files: %s\n", optionalCount(s.Files))
		fmt.Fprintf(writer, "  Classes: %s\n", optionalCount(s.Classes))
		if s.GeneratedAt != "" {
			fmt.Fprintf(writer, "  Generated: %s\n", s.GeneratedAt)
		}
		fmt.Fprintln(writer)
	}

	fmt.Fprintln(writer, totalsTable(content.Overview.Totals, content.Thresholds).Render())
	fmt.Fprintln(writer)

	if len(content.CoverageRows) > 0 {
		fmt.Fprintln(writer, "Coverage:")
		fmt.Fprintln(writer, f.explorerTable(content.CoverageRows).Render())
		fmt.Fprintln(writer)
	}

	if len(content.Overview.Hotspots) > 0 {
		fmt.Fprintln(writer, "Hotspots:")
		fmt.Fprintln(writer, hotspotTable(content.Overview.Hotspots).Render())
		fmt.Fprintln(writer)
	}

	if len(content.Overview.History) > 0 {
		fmt.Fprintln(writer, "History:")
		for _, h := range content.Overview.History {
			fmt.Fprintf(writer, "  %s  lines %s  branches %s\n", h.At, h.LinePct, h.BranchPct)
		}
	}
	return nil
}

func totalsTable(t domain.OverviewTotals, th *domain.Thresholds) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Covered", "Total", "Coverage"})
	tbl.AppendRow(table.Row{"Lines", optionalCount(t.Lines.Covered), optionalCount(t.Lines.Coverable), t.Lines.Pct.String()})
	tbl.AppendRow(table.Row{"Branches", optionalCount(t.Branches.Covered), optionalCount(t.Branches.Total), t.Branches.Pct.String()})
	tbl.AppendRow(table.Row{"Methods", optionalCount(t.Methods.Covered), optionalCount(t.Methods.Total), t.Methods.Pct.String()})
	tbl.AppendRow(table.Row{"Fully covered methods", optionalCount(t.Methods.FullCovered), optionalCount(t.Methods.Total), t.Methods.FullPct.String()})
	if th != nil && th.Total != nil {
		tbl.AppendFooter(table.Row{"Threshold", "", "", fmt.Sprintf("%.1f%%", *th.Total)})
	}
	return tbl
}

func (f *OutputFormatterImpl) explorerTable(rows []domain.CoverageRow) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.AppendHeader(table.Row{"Name", "Kind", "Lines", "Line %", "Branches", "Branch %", "Methods", "Method %"})

	shown := 0
	for _, fr := range Flatten(rows) {
		if f.maxDepth > 0 && fr.Depth >= f.maxDepth {
			continue
		}
		r := fr.Row
		tbl.AppendRow(table.Row{
			strings.Repeat("  ", fr.Depth) + r.Name,
			string(r.Kind),
			fmt.Sprintf("%d/%d", r.Lines.Covered, r.Lines.Coverable),
			r.Lines.Pct.String(),
			fmt.Sprintf("%d/%d", r.Branches.Covered, r.Branches.Total),
			r.Branches.Pct.String(),
			fmt.Sprintf("%d/%d", r.Methods.Covered, r.Methods.Total),
			r.Methods.Pct.String(),
		})
		shown++
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d rows", shown)})
	return tbl
}

func hotspotTable(hotspots []domain.Hotspot) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Score", "Function", "File", "Uncovered lines"})
	for _, h := range hotspots {
		tbl.AppendRow(table.Row{fmt.Sprintf("%.1f", h.Score), h.Function, h.File, h.Lines})
	}
	return tbl
}

func optionalCount(v *int) string {
	if v == nil {
		return domain.NotApplicablePlaceholder
	}
	return fmt.Sprintf("%d", *v)
}
