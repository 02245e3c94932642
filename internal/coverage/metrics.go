package coverage

// Metrics accumulates coverage counts for a subtree. The zero value is empty.
type Metrics struct {
	LineCovered       int `json:"line_covered"`
	LineUncovered     int `json:"line_uncovered"`
	LineTotal         int `json:"line_total"`
	BranchCovered     int `json:"branch_covered"`
	BranchTotal       int `json:"branch_total"`
	MethodCovered     int `json:"method_covered"`
	MethodFullCovered int `json:"method_full_covered"`
	MethodTotal       int `json:"method_total"`
}

// Coverable returns the number of lines with hit data
func (m Metrics) Coverable() int {
	return m.LineCovered + m.LineUncovered
}

// SummarizeMethod reduces one method's hits to a Metrics value.
// A method with neither coverable lines nor branches yields the empty value.
func SummarizeMethod(data *MethodData) Metrics {
	if data == nil {
		return Metrics{}
	}

	var covered, uncovered int
	for _, hits := range data.Lines {
		switch {
		case hits > 0:
			covered++
		case hits == 0:
			uncovered++
		}
	}
	coverable := covered + uncovered

	branchTotal := len(data.Branches)
	branchCovered := 0
	for _, b := range data.Branches {
		if b.HitCount() > 0 {
			branchCovered++
		}
	}

	if coverable == 0 && branchTotal == 0 {
		return Metrics{}
	}

	m := Metrics{
		LineCovered:   covered,
		LineUncovered: uncovered,
		LineTotal:     coverable,
		BranchCovered: branchCovered,
		BranchTotal:   branchTotal,
		MethodTotal:   1,
	}

	// line data takes precedence over branch data
	var isCovered, isFull bool
	if coverable > 0 {
		isCovered = covered > 0
		isFull = uncovered == 0
	} else {
		isCovered = branchCovered > 0
		isFull = branchCovered == branchTotal
	}
	if isCovered {
		m.MethodCovered = 1
	}
	if isFull {
		m.MethodFullCovered = 1
	}
	return m
}

// Combine returns the field-wise sum of a and b
func Combine(a, b Metrics) Metrics {
	return Metrics{
		LineCovered:       a.LineCovered + b.LineCovered,
		LineUncovered:     a.LineUncovered + b.LineUncovered,
		LineTotal:         a.LineTotal + b.LineTotal,
		BranchCovered:     a.BranchCovered + b.BranchCovered,
		BranchTotal:       a.BranchTotal + b.BranchTotal,
		MethodCovered:     a.MethodCovered + b.MethodCovered,
		MethodFullCovered: a.MethodFullCovered + b.MethodFullCovered,
		MethodTotal:       a.MethodTotal + b.MethodTotal,
	}
}

// HasCoverage reports whether m carries any coverage signal
func HasCoverage(m Metrics) bool {
	return m.LineCovered > 0 || m.LineUncovered > 0 || m.BranchTotal > 0 || m.MethodTotal > 0
}

// CoveragePercentage ranks a method: lines first, then branches, then pass/fail
func CoveragePercentage(m Metrics) float64 {
	if c := m.Coverable(); c > 0 {
		return float64(m.LineCovered) / float64(c) * 100
	}
	if m.BranchTotal > 0 {
		return float64(m.BranchCovered) / float64(m.BranchTotal) * 100
	}
	if m.MethodTotal > 0 {
		return float64(m.MethodCovered) / float64(m.MethodTotal) * 100
	}
	return 0
}
