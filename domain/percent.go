package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// NotApplicablePlaceholder is rendered in place of a percentage that has no denominator
const NotApplicablePlaceholder = "—"

// Percent is a coverage percentage in the range 0..100 that may be "not applicable".
//
// A node with no branches has no branch percentage at all; reporting it as 0 would
// read as "0% branch coverage". The zero value is not applicable.
type Percent struct {
	Value float64
	Valid bool
}

// NotApplicable returns a percentage without a value
func NotApplicable() Percent {
	return Percent{}
}

// PercentValue wraps a raw percentage. NaN and infinities are not applicable.
func PercentValue(v float64) Percent {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Percent{}
	}
	return Percent{Value: v, Valid: true}
}

// PercentOf returns part/whole*100, or not applicable when whole is zero
func PercentOf(part, whole int) Percent {
	if whole <= 0 {
		return Percent{}
	}
	return Percent{Value: float64(part) / float64(whole) * 100, Valid: true}
}

// Float64 returns the value and whether it is applicable
func (p Percent) Float64() (float64, bool) {
	return p.Value, p.Valid
}

// String formats the percentage for display, clamped to 0..100 with one decimal
func (p Percent) String() string {
	if !p.Valid {
		return NotApplicablePlaceholder
	}
	return fmt.Sprintf("%.1f%%", math.Min(100, math.Max(0, p.Value)))
}

// Compare orders percentages with "not applicable" below every value.
// It returns -1, 0 or 1.
func (p Percent) Compare(other Percent) int {
	switch {
	case !p.Valid && !other.Valid:
		return 0
	case !p.Valid:
		return -1
	case !other.Valid:
		return 1
	case p.Value < other.Value:
		return -1
	case p.Value > other.Value:
		return 1
	default:
		return 0
	}
}

// MarshalJSON encodes not applicable as null
func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON accepts a number or null
func (p *Percent) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = Percent{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("percentage must be a number or null: %w", err)
	}
	*p = PercentValue(v)
	return nil
}

// MarshalYAML encodes not applicable as null
func (p Percent) MarshalYAML() (interface{}, error) {
	if !p.Valid {
		return nil, nil
	}
	return p.Value, nil
}
