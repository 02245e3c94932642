package coverage

import (
	"reflect"
	"testing"
)

func TestSimplifyClassName(t *testing.T) {
	tests := []struct {
		in, wantName, wantPath string
	}{
		{"System.Collections.List", "List", "System.Collections"},
		{"Widget", "Widget", ""},
		{"Ns.Outer/Inner", "Outer/Inner", "Ns"},
		{"Trailing.", "Trailing.", "Trailing"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SimplifyClassName(tt.in); got != tt.wantName {
				t.Errorf("SimplifyClassName(%q) = %q, want %q", tt.in, got, tt.wantName)
			}
			if got := ClassPath(tt.in); got != tt.wantPath {
				t.Errorf("ClassPath(%q) = %q, want %q", tt.in, got, tt.wantPath)
			}
		})
	}
}

func TestSimplifyMethodName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"MyNs.Foo::Bar()", "Bar()"},
		{"System.Void MyNs.Foo::Run(System.String)", "Run(System.String)"},
		{"Ns.C::System.IDisposable.Dispose()", "IDisposable.Dispose()"},
		{"System.Boolean Ns.C::get_IsReady()", "get_IsReady()"},
		{"Plain()", "Plain()"},
		{"Ns.C::", "Ns.C::"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SimplifyMethodName(tt.in); got != tt.want {
				t.Errorf("SimplifyMethodName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"src/app/Program.cs", "Program.cs"},
		{`C:\repo\src\Service.cs`, "Service.cs"},
		{"mixed/dir\\File.cs", "File.cs"},
		{"Solo.cs", "Solo.cs"},
		{"src/dir/", "src/dir/"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FileName(tt.in); got != tt.want {
				t.Errorf("FileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRepoName(t *testing.T) {
	if got := RepoName("MyApp.Core.dll"); got != "MyApp.Core" {
		t.Errorf("RepoName() = %q", got)
	}
	if got := RepoName("NoSuffix"); got != "NoSuffix" {
		t.Errorf("RepoName() = %q", got)
	}
}

func TestLineRange(t *testing.T) {
	tests := []struct {
		name  string
		lines map[string]float64
		want  string
	}{
		{"single", map[string]float64{"12": 1}, "Line 12"},
		{"range", map[string]float64{"30": 0, "4": 1, "17": 2}, "Lines 4-30"},
		{"non-numeric keys ignored", map[string]float64{"x": 1, "9": 0}, "Line 9"},
		{"only non-numeric", map[string]float64{"x": 1}, ""},
		{"empty", map[string]float64{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LineRange(&MethodData{Lines: tt.lines}); got != tt.want {
				t.Errorf("LineRange() = %q, want %q", got, tt.want)
			}
		})
	}
	if got := LineRange(nil); got != "" {
		t.Errorf("LineRange(nil) = %q", got)
	}
}

func TestUncoveredLines(t *testing.T) {
	data := &MethodData{Lines: map[string]float64{"10": 0, "9": 0, "100": 0, "11": 3, "x": 0}}
	got := UncoveredLines(data)
	want := []string{"9", "10", "100", "x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UncoveredLines() = %v, want %v", got, want)
	}
}
