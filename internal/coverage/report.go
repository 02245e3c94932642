// Package coverage normalizes raw coverlet reports into dashboard rows.
package coverage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/thecodereport/tcdr/domain"
)

// Report is a raw coverlet report with document key order preserved.
// Nodes whose value was not a JSON object are not represented.
type Report struct {
	// FirstKey is the first top-level key, object or not; it names the report
	FirstKey   string
	Assemblies []Assembly
}

// Assembly maps file paths to classes
type Assembly struct {
	Name  string
	Files []File
}

// File maps class names to methods
type File struct {
	Path    string
	Classes []Class
}

// Class maps method signatures to coverage data
type Class struct {
	Name    string
	Methods []Method
}

// Method is one instrumented member. Data is nil when the value was not an object.
type Method struct {
	Signature string
	Data      *MethodData
}

// MethodData holds per-line hits and per-branch hits of a method
type MethodData struct {
	// Lines maps line number text to hit count; null hit counts are dropped
	Lines    map[string]float64
	Branches []Branch
}

// Branch is one branch point. Only Hits feeds the metrics; the position
// fields identify the branch when reports are merged. Fields that were
// absent or not integers are nil.
type Branch struct {
	Line      *int
	Offset    *int
	EndOffset *int
	Path      *int
	Ordinal   *int
	Hits      *float64
}

// HitCount returns Hits, treating an absent value as zero
func (b Branch) HitCount() float64 {
	if b.Hits == nil {
		return 0
	}
	return *b.Hits
}

type entry struct {
	key   string
	value json.RawMessage
}

// ParseReport decodes a raw coverlet JSON document
func ParseReport(data []byte) (*Report, error) {
	if !isObject(data) {
		return nil, domain.NewParseError("coverage report", fmt.Errorf("top-level value is not an object"))
	}

	assemblies, err := objectEntries(data)
	if err != nil {
		return nil, domain.NewParseError("coverage report", err)
	}

	report := &Report{Assemblies: make([]Assembly, 0, len(assemblies))}
	if len(assemblies) > 0 {
		report.FirstKey = assemblies[0].key
	}
	for _, a := range assemblies {
		if !isObject(a.value) {
			continue
		}
		asm, err := parseAssembly(a)
		if err != nil {
			return nil, domain.NewParseError("coverage report", err)
		}
		report.Assemblies = append(report.Assemblies, asm)
	}
	return report, nil
}

func parseAssembly(a entry) (Assembly, error) {
	asm := Assembly{Name: a.key}
	files, err := objectEntries(a.value)
	if err != nil {
		return asm, fmt.Errorf("assembly %q: %w", a.key, err)
	}
	for _, f := range files {
		if !isObject(f.value) {
			continue
		}
		file := File{Path: f.key}
		classes, err := objectEntries(f.value)
		if err != nil {
			return asm, fmt.Errorf("file %q: %w", f.key, err)
		}
		for _, c := range classes {
			if !isObject(c.value) {
				continue
			}
			class, err := parseClass(c)
			if err != nil {
				return asm, fmt.Errorf("file %q: %w", f.key, err)
			}
			file.Classes = append(file.Classes, class)
		}
		asm.Files = append(asm.Files, file)
	}
	return asm, nil
}

func parseClass(c entry) (Class, error) {
	class := Class{Name: c.key}
	methods, err := objectEntries(c.value)
	if err != nil {
		return class, fmt.Errorf("class %q: %w", c.key, err)
	}
	for _, m := range methods {
		method := Method{Signature: m.key}
		if isObject(m.value) {
			data, err := parseMethodData(m.value)
			if err != nil {
				return class, fmt.Errorf("class %q method %q: %w", c.key, m.key, err)
			}
			method.Data = data
		}
		class.Methods = append(class.Methods, method)
	}
	return class, nil
}

// parseMethodData is lenient about everything except a Branches value that
// is not an array. Lines that is not an object contributes no lines, hit
// counts that are not numbers are dropped, and a branch field of the wrong
// type is treated as absent.
func parseMethodData(raw json.RawMessage) (*MethodData, error) {
	var payload struct {
		Lines    json.RawMessage `json:"Lines"`
		Branches json.RawMessage `json:"Branches"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	data := &MethodData{Lines: map[string]float64{}}
	if isObject(payload.Lines) {
		var lines map[string]json.RawMessage
		if err := json.Unmarshal(payload.Lines, &lines); err != nil {
			return nil, fmt.Errorf("Lines: %w", err)
		}
		for k, v := range lines {
			if hits, ok := number(v); ok {
				data.Lines[k] = hits
			}
		}
	}

	if !isNull(payload.Branches) {
		var branches []json.RawMessage
		if err := json.Unmarshal(payload.Branches, &branches); err != nil {
			return nil, fmt.Errorf("Branches must be an array: %w", err)
		}
		for _, b := range branches {
			data.Branches = append(data.Branches, parseBranch(b))
		}
	}
	return data, nil
}

// parseBranch reads the known branch fields; a non-object element is a
// branch with no hits
func parseBranch(raw json.RawMessage) Branch {
	var b Branch
	if !isObject(raw) {
		return b
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return b
	}
	b.Line = integer(fields["Line"])
	b.Offset = integer(fields["Offset"])
	b.EndOffset = integer(fields["EndOffset"])
	b.Path = integer(fields["Path"])
	b.Ordinal = integer(fields["Ordinal"])
	if hits, ok := number(fields["Hits"]); ok {
		b.Hits = &hits
	}
	return b
}

// number decodes a JSON number; any other value reports false
func number(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

func integer(raw json.RawMessage) *int {
	if isNull(raw) {
		return nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// objectEntries reads a JSON object's members in document order.
// A repeated key keeps its first position and its last value.
func objectEntries(data []byte) ([]entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object")
	}

	var entries []entry
	index := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if i, seen := index[key]; seen {
			entries[i].value = value
			continue
		}
		index[key] = len(entries)
		entries = append(entries, entry{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

func isObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
