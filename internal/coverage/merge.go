package coverage

import "fmt"

// MergeReports combines reports produced by several test projects into one.
// Nodes with the same key are merged in first-seen order: line hits add up and
// branches with the same location add up, other branches are appended.
func MergeReports(reports ...*Report) *Report {
	merged := &Report{}
	asmIndex := map[string]int{}

	for _, r := range reports {
		if r == nil {
			continue
		}
		if merged.FirstKey == "" {
			merged.FirstKey = r.FirstKey
		}
		for _, asm := range r.Assemblies {
			i, ok := asmIndex[asm.Name]
			if !ok {
				asmIndex[asm.Name] = len(merged.Assemblies)
				merged.Assemblies = append(merged.Assemblies, Assembly{Name: asm.Name})
				i = len(merged.Assemblies) - 1
			}
			mergeFiles(&merged.Assemblies[i], asm.Files)
		}
	}
	return merged
}

func mergeFiles(dst *Assembly, files []File) {
	for _, f := range files {
		i := -1
		for j := range dst.Files {
			if dst.Files[j].Path == f.Path {
				i = j
				break
			}
		}
		if i < 0 {
			dst.Files = append(dst.Files, File{Path: f.Path})
			i = len(dst.Files) - 1
		}
		mergeClasses(&dst.Files[i], f.Classes)
	}
}

func mergeClasses(dst *File, classes []Class) {
	for _, c := range classes {
		i := -1
		for j := range dst.Classes {
			if dst.Classes[j].Name == c.Name {
				i = j
				break
			}
		}
		if i < 0 {
			dst.Classes = append(dst.Classes, Class{Name: c.Name})
			i = len(dst.Classes) - 1
		}
		mergeMethods(&dst.Classes[i], c.Methods)
	}
}

func mergeMethods(dst *Class, methods []Method) {
	for _, m := range methods {
		i := -1
		for j := range dst.Methods {
			if dst.Methods[j].Signature == m.Signature {
				i = j
				break
			}
		}
		if i < 0 {
			dst.Methods = append(dst.Methods, Method{Signature: m.Signature, Data: cloneData(m.Data)})
			continue
		}
		dst.Methods[i].Data = mergeData(dst.Methods[i].Data, m.Data)
	}
}

func cloneData(d *MethodData) *MethodData {
	if d == nil {
		return nil
	}
	out := &MethodData{Lines: make(map[string]float64, len(d.Lines))}
	for k, v := range d.Lines {
		out.Lines[k] = v
	}
	out.Branches = append(out.Branches, d.Branches...)
	return out
}

func mergeData(a, b *MethodData) *MethodData {
	if a == nil {
		return cloneData(b)
	}
	if b == nil {
		return a
	}
	for k, v := range b.Lines {
		a.Lines[k] += v
	}
	index := map[string]int{}
	for i, br := range a.Branches {
		index[branchKey(br)] = i
	}
	for _, br := range b.Branches {
		if i, ok := index[branchKey(br)]; ok {
			hits := a.Branches[i].HitCount() + br.HitCount()
			a.Branches[i].Hits = &hits
			continue
		}
		a.Branches = append(a.Branches, br)
	}
	return a
}

func branchKey(b Branch) string {
	v := func(p *int) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprint(*p)
	}
	return v(b.Line) + "/" + v(b.Offset) + "/" + v(b.EndOffset) + "/" + v(b.Path) + "/" + v(b.Ordinal)
}
