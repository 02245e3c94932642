package coverage

import (
	"errors"
	"testing"

	"github.com/thecodereport/tcdr/domain"
)

func TestParseReport_KeepsDocumentOrder(t *testing.T) {
	report, err := ParseReport([]byte(`{"Z.dll": {"b.cs": {}, "a.cs": {}}, "A.dll": {}}`))
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	if len(report.Assemblies) != 2 || report.Assemblies[0].Name != "Z.dll" || report.Assemblies[1].Name != "A.dll" {
		t.Fatalf("unexpected assemblies: %+v", report.Assemblies)
	}
	files := report.Assemblies[0].Files
	if files[0].Path != "b.cs" || files[1].Path != "a.cs" {
		t.Errorf("unexpected file order: %s, %s", files[0].Path, files[1].Path)
	}
}

func TestParseReport_DuplicateKeyKeepsLastValue(t *testing.T) {
	report, err := ParseReport([]byte(`{"A.dll": {"x.cs": 1}, "B.dll": {}, "A.dll": {"y.cs": {}}}`))
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	if report.Assemblies[0].Name != "A.dll" || report.Assemblies[0].Files[0].Path != "y.cs" {
		t.Errorf("duplicate key should keep first position and last value: %+v", report.Assemblies)
	}
}

func TestParseReport_MethodData(t *testing.T) {
	report, err := ParseReport([]byte(`{"A.dll": {"f.cs": {"C": {
		"M()": {"Lines": {"3": 0, "4": 2, "5": null}, "Branches": [{"Line": 4, "Ordinal": 0, "Hits": 1}, null]},
		"N()": {},
		"O()": "not an object"
	}}}}`))
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	methods := report.Assemblies[0].Files[0].Classes[0].Methods
	if len(methods) != 3 {
		t.Fatalf("expected 3 methods, got %d", len(methods))
	}

	m := methods[0].Data
	if len(m.Lines) != 2 || m.Lines["4"] != 2 {
		t.Errorf("unexpected lines: %v", m.Lines)
	}
	if len(m.Branches) != 2 || m.Branches[0].HitCount() != 1 || m.Branches[1].HitCount() != 0 {
		t.Errorf("unexpected branches: %+v", m.Branches)
	}
	if *m.Branches[0].Line != 4 {
		t.Errorf("branch line = %d", *m.Branches[0].Line)
	}

	if methods[1].Data == nil || len(methods[1].Data.Lines) != 0 {
		t.Errorf("empty method should have empty data, got %+v", methods[1].Data)
	}
	if methods[2].Data != nil {
		t.Error("non-object method should have nil data")
	}
}

func TestParseReport_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{"A.dll": `},
		{"array at top level", `[1, 2]`},
		{"branches an object", `{"A.dll": {"f.cs": {"C": {"M()": {"Branches": {"Hits": 1}}}}}}`},
		{"branches a number", `{"A.dll": {"f.cs": {"C": {"M()": {"Branches": 3}}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReport([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			var domainErr domain.DomainError
			if !errors.As(err, &domainErr) || domainErr.Code != domain.ErrCodeParseError {
				t.Errorf("expected parse error, got %v", err)
			}
		})
	}
}

func TestParseReport_MalformedMethodDataIsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		lines    int
		branches int
		hits     float64
	}{
		{"lines a string", `{"Lines": "oops"}`, 0, 0, 0},
		{"lines an array", `{"Lines": [1, 2]}`, 0, 0, 0},
		{"hit counts not numbers", `{"Lines": {"1": "x", "2": 3, "3": true}}`, 1, 0, 0},
		{"mistyped branch field", `{"Branches": [{"Offset": 1.5, "Hits": 1}]}`, 0, 1, 1},
		{"branch hits a string", `{"Branches": [{"Hits": "1"}]}`, 0, 1, 0},
		{"branch not an object", `{"Branches": [3, "x"]}`, 0, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `{"A.dll": {"f.cs": {"C": {"Bad()": ` + tt.method + `, "Good()": {"Lines": {"1": 1}}}}}}`
			report, err := ParseReport([]byte(input))
			if err != nil {
				t.Fatalf("ParseReport failed: %v", err)
			}

			bad := report.Assemblies[0].Files[0].Classes[0].Methods[0].Data
			if len(bad.Lines) != tt.lines {
				t.Errorf("lines = %v, want %d entries", bad.Lines, tt.lines)
			}
			if len(bad.Branches) != tt.branches {
				t.Fatalf("branches = %d, want %d", len(bad.Branches), tt.branches)
			}
			var hits float64
			for _, b := range bad.Branches {
				hits += b.HitCount()
				if b.Offset != nil {
					t.Errorf("mistyped Offset should be absent, got %d", *b.Offset)
				}
			}
			if hits != tt.hits {
				t.Errorf("branch hits = %v, want %v", hits, tt.hits)
			}

			result := NewNormalizer(Options{}).Normalize(report)
			if len(result.Rows) != 1 {
				t.Fatalf("the valid method should still render, got %d rows", len(result.Rows))
			}
			if result.Metrics.LineCovered < 1 {
				t.Errorf("valid method lines missing from totals: %+v", result.Metrics)
			}
		})
	}
}
