package coverage

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var fileSeparators = regexp.MustCompile(`[\\/]`)

// SimplifyClassName returns the last dotted segment of a class name
func SimplifyClassName(name string) string {
	parts := strings.Split(name, ".")
	if last := parts[len(parts)-1]; last != "" {
		return last
	}
	return name
}

// ClassPath returns the namespace prefix of a class name, or "" when there is none
func ClassPath(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) <= 1 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], ".")
}

// SimplifyMethodName drops the declaring type and a leading "System." qualifier
func SimplifyMethodName(signature string) string {
	parts := strings.Split(signature, "::")
	name := parts[len(parts)-1]
	if name == "" {
		name = signature
	}
	return strings.TrimPrefix(name, "System.")
}

// FileName returns the last path segment, accepting both separators
func FileName(path string) string {
	parts := fileSeparators.Split(path, -1)
	if last := parts[len(parts)-1]; last != "" {
		return last
	}
	return path
}

// RepoName derives the display name of a report from its first assembly
func RepoName(assembly string) string {
	return strings.TrimSuffix(assembly, ".dll")
}

type lineKey struct {
	text string
	num  float64
}

func parseLineKey(text string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// LineRange formats the span of numbered lines as "Line N" or "Lines A-B".
// It returns "" when no line key is numeric.
func LineRange(data *MethodData) string {
	if data == nil || len(data.Lines) == 0 {
		return ""
	}
	first, last := math.Inf(1), math.Inf(-1)
	for k := range data.Lines {
		n, ok := parseLineKey(k)
		if !ok {
			continue
		}
		first = math.Min(first, n)
		last = math.Max(last, n)
	}
	if math.IsInf(first, 1) {
		return ""
	}
	if first == last {
		return "Line " + formatLineNumber(first)
	}
	return "Lines " + formatLineNumber(first) + "-" + formatLineNumber(last)
}

// UncoveredLines lists line keys with zero hits in ascending numeric order.
// Non-numeric keys sort after numeric ones in text order.
func UncoveredLines(data *MethodData) []string {
	if data == nil {
		return nil
	}
	var keys []lineKey
	for k, hits := range data.Lines {
		if hits != 0 {
			continue
		}
		n, ok := parseLineKey(k)
		if !ok {
			n = math.Inf(1)
		}
		keys = append(keys, lineKey{text: k, num: n})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].num != keys[j].num {
			return keys[i].num < keys[j].num
		}
		return keys[i].text < keys[j].text
	})
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.text
	}
	return out
}

func formatLineNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
