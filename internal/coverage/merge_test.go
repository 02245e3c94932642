package coverage

import (
	"testing"
)

func mustParse(t *testing.T, data string) *Report {
	t.Helper()
	r, err := ParseReport([]byte(data))
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	return r
}

func TestMergeReports(t *testing.T) {
	a := mustParse(t, `{"App.dll": {"f.cs": {"C": {"M()": {"Lines": {"1": 0, "2": 1}, "Branches": [{"Line": 1, "Ordinal": 0, "Hits": 0}]}}}}}`)
	b := mustParse(t, `{
		"App.dll": {"f.cs": {"C": {"M()": {"Lines": {"1": 2}, "Branches": [{"Line": 1, "Ordinal": 0, "Hits": 3}, {"Line": 1, "Ordinal": 1, "Hits": 0}]}}}},
		"Lib.dll": {"g.cs": {"D": {"N()": {"Lines": {"5": 1}}}}}
	}`)

	merged := MergeReports(a, b)

	if merged.FirstKey != "App.dll" {
		t.Errorf("FirstKey = %q", merged.FirstKey)
	}
	if len(merged.Assemblies) != 2 {
		t.Fatalf("expected 2 assemblies, got %d", len(merged.Assemblies))
	}
	data := merged.Assemblies[0].Files[0].Classes[0].Methods[0].Data
	if data.Lines["1"] != 2 || data.Lines["2"] != 1 {
		t.Errorf("line hits not summed: %v", data.Lines)
	}
	if len(data.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(data.Branches))
	}
	if data.Branches[0].HitCount() != 3 {
		t.Errorf("matching branch hits not summed: %v", data.Branches[0].HitCount())
	}

	m := SummarizeMethod(data)
	if m.LineUncovered != 0 || m.MethodFullCovered != 1 {
		t.Errorf("merged method should be fully line covered: %+v", m)
	}
}

func TestMergeReports_DoesNotMutateInputs(t *testing.T) {
	a := mustParse(t, `{"A.dll": {"f.cs": {"C": {"M()": {"Lines": {"1": 0}}}}}}`)
	b := mustParse(t, `{"A.dll": {"f.cs": {"C": {"M()": {"Lines": {"1": 4}}}}}}`)

	_ = MergeReports(a, b)

	if got := a.Assemblies[0].Files[0].Classes[0].Methods[0].Data.Lines["1"]; got != 0 {
		t.Errorf("input report was modified: hits = %v", got)
	}
}

func TestMergeReports_Single(t *testing.T) {
	a := mustParse(t, `{"A.dll": {"f.cs": {"C": {"M()": {"Lines": {"1": 1}}}}}}`)
	merged := MergeReports(nil, a)

	before := NewNormalizer(Options{}).Normalize(a)
	after := NewNormalizer(Options{}).Normalize(merged)
	if before.Metrics != after.Metrics || before.RepoName != after.RepoName {
		t.Error("merging a single report should not change its normalization")
	}
}
