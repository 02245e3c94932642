package domain

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name      string
		part      int
		whole     int
		wantValid bool
		wantValue float64
	}{
		{"half", 1, 2, true, 50},
		{"full", 3, 3, true, 100},
		{"none covered", 0, 4, true, 0},
		{"no denominator", 0, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PercentOf(tt.part, tt.whole)
			if p.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v", p.Valid, tt.wantValid)
			}
			if p.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", p.Value, tt.wantValue)
			}
		})
	}
}

func TestPercentValue_NaN(t *testing.T) {
	if PercentValue(math.NaN()).Valid {
		t.Error("NaN should be not applicable")
	}
	if PercentValue(math.Inf(1)).Valid {
		t.Error("Inf should be not applicable")
	}
}

func TestPercent_String(t *testing.T) {
	tests := []struct {
		p    Percent
		want string
	}{
		{NotApplicable(), "—"},
		{PercentValue(50), "50.0%"},
		{PercentValue(66.666), "66.7%"},
		{PercentValue(120), "100.0%"},
		{PercentValue(-3), "0.0%"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPercent_Compare(t *testing.T) {
	na := NotApplicable()
	zero := PercentValue(0)
	fifty := PercentValue(50)

	if na.Compare(zero) != -1 {
		t.Error("not applicable should sort below 0")
	}
	if fifty.Compare(zero) != 1 {
		t.Error("50 should sort above 0")
	}
	if na.Compare(na) != 0 {
		t.Error("two not applicable values should be equal")
	}
}

func TestPercent_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Percent `json:"a"`
		B Percent `json:"b"`
	}{A: PercentValue(75), B: NotApplicable()})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"a":75,"b":null}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var out struct {
		A Percent `json:"a"`
		B Percent `json:"b"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !out.A.Valid || out.A.Value != 75 {
		t.Errorf("A = %+v, want 75", out.A)
	}
	if out.B.Valid {
		t.Errorf("B should be not applicable, got %+v", out.B)
	}

	if err := json.Unmarshal([]byte(`{"a":"x"}`), &out); err == nil {
		t.Error("expected error for string percentage")
	}
}

func TestPercent_YAML(t *testing.T) {
	data, err := yaml.Marshal(struct {
		A Percent `yaml:"a"`
		B Percent `yaml:"b"`
	}{A: PercentValue(10), B: NotApplicable()})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), "a: 10") || !strings.Contains(string(data), "b: null") {
		t.Errorf("unexpected YAML:\n%s", data)
	}
}

func TestCoverageRow_Key(t *testing.T) {
	withPath := CoverageRow{Name: "List", Kind: RowKindClass, Path: "System.Collections"}
	if got := withPath.Key(); got != "class:System.Collections" {
		t.Errorf("Key() = %q", got)
	}
	noPath := CoverageRow{Name: "A", Kind: RowKindAssembly}
	if got := noPath.Key(); got != "assembly:A" {
		t.Errorf("Key() = %q", got)
	}
}

func TestCoverageRow_JSONShape(t *testing.T) {
	row := CoverageRow{
		Name:     "M()",
		Kind:     RowKindMethod,
		Lines:    LineMetrics{Covered: 1, Uncovered: 1, Coverable: 2, Total: 2, Pct: PercentOf(1, 2)},
		Branches: BranchMetrics{Pct: NotApplicable()},
		Methods:  MethodMetrics{Covered: 1, Total: 1, Pct: PercentOf(1, 1), FullPct: PercentOf(0, 1)},
	}
	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"kind":"method"`, `"pct":50`, `"branches":{"covered":0,"total":0,"pct":null}`, `"fullPct":0`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON %s missing %s", s, want)
		}
	}
	if strings.Contains(s, `"children"`) || strings.Contains(s, `"path"`) {
		t.Errorf("leaf row without path should omit path and children: %s", s)
	}
}

func TestRunAllResponse_MarshalShapes(t *testing.T) {
	code := 0
	dur := 1.5
	out := "ok"
	success, err := json.Marshal(RunAllResponse{OK: true, ExitCode: &code, DurationSeconds: &dur, Stdout: &out})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(success) != `{"ok":true,"exit_code":0,"duration_seconds":1.5,"stdout":"ok","stderr":""}` {
		t.Errorf("unexpected success JSON: %s", success)
	}

	failure, err := json.Marshal(RunAllResponse{Error: "timed out", Timeout: true})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(failure) != `{"ok":false,"error":"timed out","timeout":true}` {
		t.Errorf("unexpected failure JSON: %s", failure)
	}

	var back RunAllResponse
	if err := json.Unmarshal(failure, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.OK || !back.Timeout || back.Error != "timed out" {
		t.Errorf("round trip lost fields: %+v", back)
	}
}

func TestRunResultFromResponse(t *testing.T) {
	dur := 2.345
	exit := 3
	stdout := "building..."

	tests := []struct {
		name      string
		resp      *RunAllResponse
		callErr   error
		wantState RunState
		wantMsg   string
	}{
		{
			name:      "success with duration",
			resp:      &RunAllResponse{OK: true, DurationSeconds: &dur, Stdout: &stdout},
			wantState: RunStateSuccess,
			wantMsg:   "All tests passed in 2.35s.",
		},
		{
			name:      "success without duration",
			resp:      &RunAllResponse{OK: true},
			wantState: RunStateSuccess,
			wantMsg:   "All tests passed.",
		},
		{
			name:      "failure with error text",
			resp:      &RunAllResponse{Error: "dotnet not found"},
			wantState: RunStateError,
			wantMsg:   "dotnet not found",
		},
		{
			name:      "failure with exit code",
			resp:      &RunAllResponse{ExitCode: &exit},
			wantState: RunStateError,
			wantMsg:   "dotnet test failed (exit code 3).",
		},
		{
			name:      "failure without details",
			resp:      &RunAllResponse{},
			wantState: RunStateError,
			wantMsg:   "dotnet test failed.",
		},
		{
			name:      "transport failure",
			callErr:   errors.New("connection refused"),
			wantState: RunStateError,
			wantMsg:   "connection refused",
		},
		{
			name:      "no response at all",
			wantState: RunStateError,
			wantMsg:   "Failed to run dotnet tests.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RunResultFromResponse(tt.resp, tt.callErr)
			if got.State != tt.wantState {
				t.Errorf("State = %q, want %q", got.State, tt.wantState)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}

	got := RunResultFromResponse(&RunAllResponse{OK: true, DurationSeconds: &dur, Stdout: &stdout}, nil)
	if got.Stdout != stdout || got.DurationSeconds == nil || *got.DurationSeconds != dur {
		t.Errorf("output fields not copied: %+v", got)
	}
}
