package coverage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/internal/testutil"
)

func normalizeJSON(t *testing.T, data string) *Result {
	t.Helper()
	report, err := ParseReport([]byte(data))
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	return NewNormalizer(Options{}).Normalize(report)
}

func TestNormalize_SingleMethod(t *testing.T) {
	result := normalizeJSON(t, `{"A.dll": {"f.cs": {"C": {"M()": {"Lines": {"1":1,"2":0}}}}}}`)

	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 assembly row, got %d", len(result.Rows))
	}
	asm := result.Rows[0]
	if asm.Name != "A.dll" || asm.Kind != domain.RowKindAssembly || asm.Path != "" {
		t.Errorf("unexpected assembly row: %+v", asm)
	}
	if result.RepoName != "A" {
		t.Errorf("RepoName = %q, want A", result.RepoName)
	}

	file := asm.Children[0]
	if file.Name != "f.cs" || file.Path != "f.cs" || file.Kind != domain.RowKindFile {
		t.Errorf("unexpected file row: %+v", file)
	}
	class := file.Children[0]
	if class.Name != "C" || class.Path != "" || class.Kind != domain.RowKindClass {
		t.Errorf("unexpected class row: %+v", class)
	}
	method := class.Children[0]
	if method.Name != "M()" || method.Kind != domain.RowKindMethod || method.Path != "Lines 1-2" {
		t.Errorf("unexpected method row: %+v", method)
	}
	if method.Children != nil {
		t.Error("method rows should have no children")
	}

	wantLines := domain.LineMetrics{Covered: 1, Uncovered: 1, Coverable: 2, Total: 2, Pct: domain.PercentValue(50)}
	if method.Lines != wantLines {
		t.Errorf("method lines = %+v, want %+v", method.Lines, wantLines)
	}
	if method.Branches.Pct.Valid {
		t.Error("branch pct should be not applicable")
	}

	counts := Counts{Assemblies: 1, Files: 1, Classes: 1}
	if result.Counts != counts {
		t.Errorf("Counts = %+v, want %+v", result.Counts, counts)
	}

	summary := result.Summary()
	if summary.Parser != "coverlet" || *summary.Assemblies != 1 || *summary.Classes != 1 || *summary.Files != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	if len(result.Hotspots) != 1 {
		t.Fatalf("expected 1 hotspot, got %d", len(result.Hotspots))
	}
	want := domain.Hotspot{File: "f.cs", Function: "M()", Reason: "low-cov", Score: 50, Lines: "2"}
	if result.Hotspots[0] != want {
		t.Errorf("hotspot = %+v, want %+v", result.Hotspots[0], want)
	}
}

func TestNormalize_EmptyMethodDropped(t *testing.T) {
	result := normalizeJSON(t, `{
		"A.dll": {
			"empty.cs": {"E": {"Nothing()": {"Lines": {}, "Branches": []}}},
			"full.cs": {"F": {"Ok()": {"Lines": {"1": 3}}}}
		}
	}`)

	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 assembly row, got %d", len(result.Rows))
	}
	files := result.Rows[0].Children
	if len(files) != 1 || files[0].Name != "full.cs" {
		t.Fatalf("empty file should be dropped, got %+v", files)
	}
	if result.Rows[0].Methods.Total != 1 {
		t.Errorf("assembly method total = %d, want 1", result.Rows[0].Methods.Total)
	}

	// dropped nodes still count as visited
	if result.Counts.Files != 2 || result.Counts.Classes != 2 {
		t.Errorf("Counts = %+v, want 2 files and 2 classes", result.Counts)
	}
}

func TestNormalize_EmptyAssemblyDropped(t *testing.T) {
	result := normalizeJSON(t, `{"Gen.dll": {"g.cs": {"G": {"A()": {}, "B()": {"Lines": {}}}}}}`)

	if len(result.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(result.Rows))
	}
	if result.Rows == nil {
		t.Error("Rows should be an empty slice, not nil")
	}
	if result.Counts != (Counts{Assemblies: 1, Files: 1, Classes: 1}) {
		t.Errorf("Counts = %+v", result.Counts)
	}
	if result.Totals().Lines.Pct.Valid {
		t.Error("totals line pct should be not applicable for an empty report")
	}
}

func TestNormalize_FullyCoveredMethodNotHotspot(t *testing.T) {
	result := normalizeJSON(t, `{"A.dll": {"f.cs": {"C": {"Good()": {"Lines": {"5":2,"6":2}}}}}}`)

	method := result.Rows[0].Children[0].Children[0].Children[0]
	if method.Lines.Pct.Value != 100 || method.Methods.FullCovered != 1 {
		t.Errorf("unexpected method row: %+v", method)
	}
	if len(result.Hotspots) != 0 {
		t.Errorf("fully covered method should not be a hotspot: %+v", result.Hotspots)
	}
}

func TestNormalize_Names(t *testing.T) {
	result := normalizeJSON(t, `{"A.dll": {"src/x.cs": {"System.Collections.List": {"MyNs.Foo::Bar()": {"Lines": {"7": 1}}}}}}`)

	class := result.Rows[0].Children[0].Children[0]
	if class.Name != "List" || class.Path != "System.Collections" {
		t.Errorf("class row = %q / %q", class.Name, class.Path)
	}
	method := class.Children[0]
	if method.Name != "Bar()" || method.Path != "Line 7" {
		t.Errorf("method row = %q / %q", method.Name, method.Path)
	}
}

func TestNormalize_NonObjectNodesSkipped(t *testing.T) {
	result := normalizeJSON(t, `{
		"meta": "ignored",
		"A.dll": {
			"bad.cs": 42,
			"f.cs": {"C": {"M()": {"Lines": {"1": 1}}, "N()": null}, "D": []}
		}
	}`)

	if result.Counts != (Counts{Assemblies: 1, Files: 1, Classes: 1}) {
		t.Errorf("non-object nodes must not be counted, got %+v", result.Counts)
	}
	// the report is named after its first key even when that key is skipped
	if result.RepoName != "meta" {
		t.Errorf("RepoName = %q, want meta", result.RepoName)
	}
	if got := len(result.Rows[0].Children[0].Children[0].Children); got != 1 {
		t.Errorf("expected 1 method row, got %d", got)
	}
}

func TestNormalize_EmptyReport(t *testing.T) {
	result := normalizeJSON(t, `{}`)
	if result.RepoName != domain.DefaultRepoName {
		t.Errorf("RepoName = %q, want %q", result.RepoName, domain.DefaultRepoName)
	}
	if len(result.Rows) != 0 || len(result.Hotspots) != 0 {
		t.Error("empty report should produce no rows or hotspots")
	}
}

func TestNormalize_BranchOnlyMethod(t *testing.T) {
	result := normalizeJSON(t, `{"A.dll": {"f.cs": {"C": {"get_X()": {"Branches": [{"Hits": 1}, {"Hits": 0}, {"Line": 3}]}}}}}`)

	method := result.Rows[0].Children[0].Children[0].Children[0]
	if method.Path != "" {
		t.Errorf("branch-only method should have no line range, got %q", method.Path)
	}
	if method.Lines.Pct.Valid {
		t.Error("line pct should be not applicable")
	}
	if method.Branches.Covered != 1 || method.Branches.Total != 3 {
		t.Errorf("branches = %+v", method.Branches)
	}

	h := result.Hotspots[0]
	if h.Lines != "" {
		t.Errorf("hotspot lines should be absent, got %q", h.Lines)
	}
	if h.Score < 66.6 || h.Score > 66.7 {
		t.Errorf("score = %v, want ~66.67", h.Score)
	}
}

func TestNormalize_TotalsMatchRowSum(t *testing.T) {
	report := testutil.NewReport().
		Method("A.dll", "a.cs", "N.A", "N.A::One()", testutil.MethodSpec{Lines: map[string]int{"1": 1, "2": 0}, Branches: []int{1, 0}}).
		Method("A.dll", "a.cs", "N.A", "N.A::Two()", testutil.MethodSpec{Lines: map[string]int{"4": 0}}).
		Method("B.dll", "b.cs", "N.B", "N.B::Three()", testutil.MethodSpec{Lines: map[string]int{"1": 5}}).
		JSON()

	parsed, err := ParseReport(report)
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	result := NewNormalizer(Options{}).Normalize(parsed)

	var sumCovered, sumUncovered, sumMethods int
	for _, row := range result.Rows {
		sumCovered += row.Lines.Covered
		sumUncovered += row.Lines.Uncovered
		sumMethods += row.Methods.Total
	}
	totals := result.Totals()
	if *totals.Lines.Covered != sumCovered || *totals.Lines.Uncovered != sumUncovered || *totals.Methods.Total != sumMethods {
		t.Errorf("totals %+v do not match row sums", totals)
	}
	if *totals.Branches.Total != 2 || *totals.Branches.Covered != 1 {
		t.Errorf("branch totals = %d/%d", *totals.Branches.Covered, *totals.Branches.Total)
	}
	if math.Abs(totals.Methods.FullPct.Value-100.0/3) > 1e-9 {
		t.Errorf("full method pct = %v", totals.Methods.FullPct.Value)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	data := testutil.NewReport().
		Method("A.dll", "z.cs", "Z", "Z::A()", testutil.MethodSpec{Lines: map[string]int{"1": 0, "2": 1}}).
		Method("A.dll", "a.cs", "A", "A::B()", testutil.MethodSpec{Lines: map[string]int{"3": 0}}).
		Method("B.dll", "m.cs", "M", "M::C()", testutil.MethodSpec{Branches: []int{0, 0, 1}}).
		JSON()

	first := normalizeJSON(t, string(data))
	for i := 0; i < 10; i++ {
		again := normalizeJSON(t, string(data))
		if !reflect.DeepEqual(first, again) {
			t.Fatal("normalizing the same input twice produced different output")
		}
	}

	// document order is kept
	if first.Rows[0].Children[0].Name != "z.cs" || first.Rows[0].Children[1].Name != "a.cs" {
		t.Errorf("file rows out of document order: %s, %s", first.Rows[0].Children[0].Name, first.Rows[0].Children[1].Name)
	}
}

func TestNormalize_OrderDoesNotChangeTotals(t *testing.T) {
	forward := normalizeJSON(t, `{"A.dll": {"a.cs": {"A": {"X()": {"Lines": {"1":1,"2":0}}}}, "b.cs": {"B": {"Y()": {"Branches": [{"Hits":0}]}}}}}`)
	backward := normalizeJSON(t, `{"A.dll": {"b.cs": {"B": {"Y()": {"Branches": [{"Hits":0}]}}}, "a.cs": {"A": {"X()": {"Lines": {"1":1,"2":0}}}}}}`)

	if forward.Metrics != backward.Metrics {
		t.Errorf("totals differ by traversal order: %+v vs %+v", forward.Metrics, backward.Metrics)
	}
}

func TestNormalize_HotspotTiesKeepInsertionOrder(t *testing.T) {
	b := testutil.NewReport()
	for i := 0; i < 25; i++ {
		b.Method("A.dll", "f.cs", "C", fmt.Sprintf("C::M%02d()", i), testutil.MethodSpec{Lines: map[string]int{"1": 1, "2": 0}})
	}
	b.Method("A.dll", "g.cs", "D", "D::Worst()", testutil.MethodSpec{Lines: map[string]int{"9": 0}})

	result := normalizeJSON(t, string(b.JSON()))

	if len(result.Hotspots) != DefaultHotspotLimit {
		t.Fatalf("expected %d hotspots, got %d", DefaultHotspotLimit, len(result.Hotspots))
	}
	if result.Hotspots[0].Function != "Worst()" || result.Hotspots[0].Score != 100 {
		t.Errorf("highest score should come first, got %+v", result.Hotspots[0])
	}
	for i := 1; i < len(result.Hotspots); i++ {
		want := fmt.Sprintf("M%02d()", i-1)
		if result.Hotspots[i].Function != want {
			t.Errorf("hotspot %d = %s, want %s", i, result.Hotspots[i].Function, want)
		}
	}
}

func TestNormalize_HotspotLimitOption(t *testing.T) {
	b := testutil.NewReport()
	for i := 0; i < 5; i++ {
		b.Method("A.dll", "f.cs", "C", fmt.Sprintf("C::M%d()", i), testutil.MethodSpec{Lines: map[string]int{"1": 0}})
	}
	report, err := ParseReport(b.JSON())
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	result := NewNormalizer(Options{HotspotLimit: 3}).Normalize(report)
	if len(result.Hotspots) != 3 {
		t.Errorf("expected 3 hotspots, got %d", len(result.Hotspots))
	}
}

func TestNormalizeParallel_MatchesSequential(t *testing.T) {
	b := testutil.NewReport()
	for a := 0; a < 8; a++ {
		for m := 0; m < 6; m++ {
			b.Method(
				fmt.Sprintf("Asm%d.dll", a),
				fmt.Sprintf("src/f%d.cs", m%3),
				fmt.Sprintf("Ns.C%d", m%2),
				fmt.Sprintf("Ns.C::M%d()", m),
				testutil.MethodSpec{
					Lines:    map[string]int{"1": a % 2, "2": m % 3, "3": 1},
					Branches: []int{m % 2, 1},
				},
			)
		}
	}
	report, err := ParseReport(b.JSON())
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}

	n := NewNormalizer(Options{})
	sequential := n.Normalize(report)
	for _, workers := range []int{0, 1, 3, 16} {
		parallel, err := n.NormalizeParallel(context.Background(), report, workers)
		if err != nil {
			t.Fatalf("NormalizeParallel(%d) failed: %v", workers, err)
		}
		if !reflect.DeepEqual(sequential, parallel) {
			t.Errorf("NormalizeParallel(%d) differs from Normalize", workers)
		}
	}
}

func TestNormalizeParallel_Cancelled(t *testing.T) {
	report, err := ParseReport([]byte(`{"A.dll": {"f.cs": {"C": {"M()": {"Lines": {"1": 1}}}}}}`))
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewNormalizer(Options{}).NormalizeParallel(ctx, report, 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
