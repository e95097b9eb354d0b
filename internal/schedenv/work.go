// Package schedenv holds the canonical, read-mostly scheduling environment:
// work orders, operations, periods, days, resources and technicians.
package schedenv

import (
	"fmt"
	"strconv"
)

// workScale is the fixed-point scale for Work: five decimal places.
const workScale = 100000

// Work is a non-negative duration in hours, fixed-point to five decimal
// places. Subtraction saturates at zero rather than going negative.
type Work struct {
	hundredThousandths int64
}

// WorkFromHours builds a Work value from a float64 number of hours.
func WorkFromHours(hours float64) Work {
	scaled := int64(hours*workScale + sign(hours)*0.5)
	if scaled < 0 {
		scaled = 0
	}
	return Work{hundredThousandths: scaled}
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// ParseWork parses a decimal string (e.g. "12.5") into Work.
func ParseWork(s string) (Work, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Work{}, fmt.Errorf("parse work %q: %w", s, err)
	}
	return WorkFromHours(f), nil
}

// Hours returns the value as a float64 number of hours.
func (w Work) Hours() float64 {
	return float64(w.hundredThousandths) / workScale
}

// Seconds returns the value rounded to the nearest whole second.
func (w Work) Seconds() int64 {
	return (w.hundredThousandths*3600 + workScale/2) / workScale
}

// Add returns w + other.
func (w Work) Add(other Work) Work {
	return Work{hundredThousandths: w.hundredThousandths + other.hundredThousandths}
}

// Sub returns w - other, saturating at zero.
func (w Work) Sub(other Work) Work {
	diff := w.hundredThousandths - other.hundredThousandths
	if diff < 0 {
		diff = 0
	}
	return Work{hundredThousandths: diff}
}

// DivideEvenly splits w evenly across n (positive) parts.
func (w Work) DivideEvenly(n int64) Work {
	if n <= 0 {
		return w
	}
	return Work{hundredThousandths: w.hundredThousandths / n}
}

// IsZero reports whether the work value is exactly zero.
func (w Work) IsZero() bool {
	return w.hundredThousandths == 0
}

// Cmp returns -1, 0 or 1 as w is less than, equal to, or greater than other.
func (w Work) Cmp(other Work) int {
	switch {
	case w.hundredThousandths < other.hundredThousandths:
		return -1
	case w.hundredThousandths > other.hundredThousandths:
		return 1
	default:
		return 0
	}
}

// GreaterThan reports whether w > other.
func (w Work) GreaterThan(other Work) bool { return w.Cmp(other) > 0 }

// LessThanOrEqual reports whether w <= other.
func (w Work) LessThanOrEqual(other Work) bool { return w.Cmp(other) <= 0 }

func (w Work) String() string {
	return strconv.FormatFloat(w.Hours(), 'f', 5, 64)
}
