// Package testutil provides helpers for building coverage reports in tests
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// MethodSpec describes one method of a raw coverlet report
type MethodSpec struct {
	Lines    map[string]int
	Branches []int // hit count per branch
}

// ReportBuilder assembles a raw coverlet JSON document with stable key order
type ReportBuilder struct {
	assemblies []assemblyEntry
}

type assemblyEntry struct {
	name  string
	files []fileEntry
}

type fileEntry struct {
	path    string
	classes []classEntry
}

type classEntry struct {
	name    string
	methods []methodEntry
}

type methodEntry struct {
	signature string
	spec      MethodSpec
}

// NewReport starts an empty report
func NewReport() *ReportBuilder {
	return &ReportBuilder{}
}

// Method adds a method, creating its assembly, file and class on first use
func (b *ReportBuilder) Method(assembly, file, class, signature string, spec MethodSpec) *ReportBuilder {
	ai := -1
	for i := range b.assemblies {
		if b.assemblies[i].name == assembly {
			ai = i
		}
	}
	if ai < 0 {
		b.assemblies = append(b.assemblies, assemblyEntry{name: assembly})
		ai = len(b.assemblies) - 1
	}
	a := &b.assemblies[ai]

	fi := -1
	for i := range a.files {
		if a.files[i].path == file {
			fi = i
		}
	}
	if fi < 0 {
		a.files = append(a.files, fileEntry{path: file})
		fi = len(a.files) - 1
	}
	f := &a.files[fi]

	ci := -1
	for i := range f.classes {
		if f.classes[i].name == class {
			ci = i
		}
	}
	if ci < 0 {
		f.classes = append(f.classes, classEntry{name: class})
		ci = len(f.classes) - 1
	}
	c := &f.classes[ci]
	c.methods = append(c.methods, methodEntry{signature: signature, spec: spec})
	return b
}

// JSON renders the report in insertion order
func (b *ReportBuilder) JSON() []byte {
	var buf []byte
	buf = append(buf, '{')
	for i, a := range b.assemblies {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendKey(buf, a.name)
		buf = append(buf, '{')
		for j, f := range a.files {
			if j > 0 {
				buf = append(buf, ',')
			}
			buf = appendKey(buf, f.path)
			buf = append(buf, '{')
			for k, c := range f.classes {
				if k > 0 {
					buf = append(buf, ',')
				}
				buf = appendKey(buf, c.name)
				buf = append(buf, '{')
				for m, me := range c.methods {
					if m > 0 {
						buf = append(buf, ',')
					}
					buf = appendKey(buf, me.signature)
					buf = appendMethod(buf, me.spec)
				}
				buf = append(buf, '}')
			}
			buf = append(buf, '}')
		}
		buf = append(buf, '}')
	}
	buf = append(buf, '}')
	return buf
}

// WriteFile writes the report to dir/name and returns the path
func (b *ReportBuilder) WriteFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, b.JSON(), 0o644); err != nil {
		t.Fatalf("Failed to write report: %v", err)
	}
	return path
}

func appendKey(buf []byte, key string) []byte {
	k, _ := json.Marshal(key)
	buf = append(buf, k...)
	return append(buf, ':')
}

func appendMethod(buf []byte, spec MethodSpec) []byte {
	type branch struct {
		Line    int `json:"Line"`
		Ordinal int `json:"Ordinal"`
		Hits    int `json:"Hits"`
	}
	m := struct {
		Lines    map[string]int `json:"Lines"`
		Branches []branch       `json:"Branches"`
	}{Lines: spec.Lines, Branches: []branch{}}
	if m.Lines == nil {
		m.Lines = map[string]int{}
	}
	for i, hits := range spec.Branches {
		m.Branches = append(m.Branches, branch{Ordinal: i, Hits: hits})
	}
	data, _ := json.Marshal(m)
	return append(buf, data...)
}

// WriteFile writes content to dir/name, creating parent directories
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	return path
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}

// AssertEqual fails the test if expected != actual
func AssertEqual(t *testing.T, expected, actual any) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected %v, got %v", expected, actual)
	}
}
