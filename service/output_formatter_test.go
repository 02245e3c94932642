package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/internal/coverage"
	"github.com/thecodereport/tcdr/internal/testutil"
	"gopkg.in/yaml.v3"
)

func sampleContent(t *testing.T) *domain.DashboardContent {
	t.Helper()
	payload := testutil.NewReport().
		Method("Shop.dll", "src/Cart.cs", "Shop.Cart", "System.Void Shop.Cart::Add()", testutil.MethodSpec{Lines: map[string]int{"10": 1, "11": 0}, Branches: []int{1, 0}}).
		Method("Shop.dll", "src/Order.cs", "Shop.Order", "System.Void Shop.Order::Submit()", testutil.MethodSpec{Lines: map[string]int{"5": 1}}).
		JSON()
	content, err := NewDashboardService(coverage.Options{}).Build(context.Background(), payload)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	threshold := 80.0
	content.Thresholds = &domain.Thresholds{Total: &threshold}
	return content
}

func TestWriteJSON(t *testing.T) {
	data := map[string]interface{}{
		"name":  "test",
		"value": 42,
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, data); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse output as JSON: %v", err)
	}
	if result["name"] != "test" {
		t.Errorf("Expected name to be 'test', got %v", result["name"])
	}
	if !strings.Contains(buf.String(), "\n  \"") {
		t.Error("Expected two-space indentation")
	}
}

func TestOutputFormatterWriteJSON(t *testing.T) {
	formatter := NewOutputFormatter()

	var buf bytes.Buffer
	if err := formatter.Write(sampleContent(t), domain.OutputFormatJSON, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded domain.DashboardContent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.RepoName != "Shop" || len(decoded.CoverageRows) != 1 {
		t.Errorf("unexpected content %+v", decoded)
	}
	if !decoded.Overview.Totals.Methods.FullPct.Valid {
		t.Error("full method pct should be applicable")
	}
}

func TestOutputFormatterWriteYAML(t *testing.T) {
	formatter := NewOutputFormatter()

	var buf bytes.Buffer
	if err := formatter.Write(sampleContent(t), domain.OutputFormatYAML, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded["repo_name"] != "Shop" {
		t.Errorf("repo_name = %v", decoded["repo_name"])
	}
	if !strings.Contains(buf.String(), "coverage_rows:") {
		t.Error("expected coverage_rows key")
	}
}

func TestOutputFormatterWriteText(t *testing.T) {
	formatter := NewOutputFormatter()

	var buf bytes.Buffer
	if err := formatter.Write(sampleContent(t), domain.OutputFormatText, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"=== Shop ===", "Summary (coverlet)", "Lines", "THRESHOLD", "80.0%", "Cart.cs", "Add()", "Hotspots:", "TOTAL: 7 ROWS"} {
		if !strings.Contains(output, want) {
			t.Errorf("text output missing %q\n%s", want, output)
		}
	}
}

func TestOutputFormatterWriteText_FilterAndDepth(t *testing.T) {
	formatter := NewOutputFormatter(WithFilter("order"), WithMaxDepth(2))

	var buf bytes.Buffer
	if err := formatter.Write(sampleContent(t), domain.OutputFormatText, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "Cart.cs") {
		t.Error("filter should hide Cart.cs")
	}
	if !strings.Contains(output, "Order.cs") {
		t.Error("filter should keep Order.cs")
	}
	// Shop.dll and Order.cs; the Order class sits at depth 2
	if !strings.Contains(output, "TOTAL: 2 ROWS") {
		t.Errorf("max depth 2 should hide class rows\n%s", output)
	}
}

func TestOutputFormatterWriteCSV(t *testing.T) {
	formatter := NewOutputFormatter(WithFilter("cart"))

	var buf bytes.Buffer
	if err := formatter.Write(sampleContent(t), domain.OutputFormatCSV, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// header, assembly, file, class, (method path "Lines 10-11" does not match)
	if len(records) != 4 {
		t.Errorf("expected 4 records, got %d: %v", len(records), records)
	}
}

func TestOutputFormatterWriteHTML(t *testing.T) {
	generated := time.Date(2026, 4, 5, 6, 7, 8, 0, time.UTC)
	formatter := NewOutputFormatter(WithHTMLOptions(HTMLOptions{GeneratedAt: generated}))

	var buf bytes.Buffer
	if err := formatter.Write(sampleContent(t), domain.OutputFormatHTML, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"<!DOCTYPE html>", "<h1>Shop</h1>", "Generated: 2026-04-05 06:07:08", "Hotspots", "Add()", "Line coverage threshold: 80.0%"} {
		if !strings.Contains(output, want) {
			t.Errorf("HTML output missing %q", want)
		}
	}
	if strings.Contains(output, `id="run-all"`) {
		t.Error("static pages should not offer Run All")
	}
}

func TestOutputFormatterWriteHTML_EscapesNames(t *testing.T) {
	content := &domain.DashboardContent{
		RepoName:     "<script>alert(1)</script>",
		CoverageRows: []domain.CoverageRow{},
	}

	var buf bytes.Buffer
	if err := NewOutputFormatter().WriteHTML(content, &buf); err != nil {
		t.Fatalf("WriteHTML failed: %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert(1)</script>") {
		t.Error("repo name must be escaped")
	}
	if !strings.Contains(buf.String(), "No hotspots") {
		t.Error("empty hotspot list should render a placeholder")
	}
}

func TestOutputFormatterUnsupportedFormat(t *testing.T) {
	formatter := NewOutputFormatter()

	var buf bytes.Buffer
	err := formatter.Write(&domain.DashboardContent{}, domain.OutputFormat("xml"), &buf)
	if err == nil {
		t.Error("Expected error for unsupported format")
	}
}
