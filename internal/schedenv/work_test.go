package schedenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkAddSubRoundTrip(t *testing.T) {
	x := WorkFromHours(12.34567)
	y := WorkFromHours(3.5)

	result := x.Add(y).Sub(y)
	assert.InDelta(t, x.Hours(), result.Hours(), 0.00001)
}

func TestWorkSaturatesAtZero(t *testing.T) {
	x := WorkFromHours(2)
	y := WorkFromHours(5)

	assert.True(t, x.Sub(y).IsZero())
}

func TestRemainingWorkInvariant(t *testing.T) {
	op := Operation{PlannedWork: WorkFromHours(10), ActualWork: WorkFromHours(15)}
	assert.True(t, op.RemainingWork().IsZero())

	op2 := Operation{PlannedWork: WorkFromHours(10), ActualWork: WorkFromHours(4)}
	assert.InDelta(t, 6.0, op2.RemainingWork().Hours(), 0.00001)
}
