package strategic

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanridge/ordinator/internal/schedenv"
	"github.com/oceanridge/ordinator/internal/snapshot"
)

func buildPeriods(t *testing.T, strs ...string) []schedenv.Period {
	t.Helper()
	periods := make([]schedenv.Period, len(strs))
	for i, s := range strs {
		p, err := schedenv.ParsePeriod(s)
		require.NoError(t, err)
		periods[i] = schedenv.NewPeriod(i, p.Start(), p.End())
	}
	return periods
}

func latestAllowed(_ *schedenv.WorkOrder, periods []schedenv.Period) int {
	return periods[len(periods)-1].ID()
}

func weightByPriority(wo *schedenv.WorkOrder) float64 {
	if wo.Priority == 0 {
		return 1.0
	}
	return float64(wo.Priority)
}

// TestScheduleAssignsLockedWorkOrderToItsOwnPeriod verifies a work order
// locked to a period stays assigned there through a repair pass.
func TestScheduleAssignsLockedWorkOrderToItsOwnPeriod(t *testing.T) {
	periods := buildPeriods(t, "2023-W47-48", "2023-W49-50")
	env := schedenv.NewEnvironment(periods, nil)

	basicStart := time.Date(2023, 12, 5, 0, 0, 0, 0, time.UTC)
	env.UpsertWorkOrder(&schedenv.WorkOrder{
		Number:       1,
		UserStatus:   schedenv.NewStatusSet("REL", "AWSC"),
		SystemStatus: schedenv.NewStatusSet(),
		BasicStart:   basicStart,
		Operations: map[schedenv.ActivityNumber]*schedenv.Operation{
			10: {Activity: 10, Resource: schedenv.ResourceMtnMech, PlannedWork: schedenv.WorkFromHours(10)},
		},
	})
	env.UpsertTechnician(&schedenv.Technician{
		ID:          "tech-1",
		Skills:      map[schedenv.Resource]struct{}{schedenv.ResourceMtnMech: {}},
		HoursPerDay: schedenv.WorkFromHours(8),
	})

	params, err := NewParameters(env, DefaultOptions(), weightByPriority, latestAllowed)
	require.NoError(t, err)

	alg := NewAlgorithm("asset-1", params, snapshot.NewPublisher())
	require.NoError(t, alg.Schedule(context.Background()))

	assert.Equal(t, 1, alg.Solution.Assignment[1], "locked work order must land in 2023-W49-50")

	obj := alg.ObjectiveValue().(Objective)
	assert.Zero(t, obj.Urgency)
	assert.Zero(t, obj.ResourcePenalty)
	assert.LessOrEqual(t, obj.Weighted, 2000.0)
}

// TestScheduleRecordsCapacityOverflowPenalty verifies that three locked
// work orders sharing one period and one technician's capacity post a
// nonzero resource penalty instead of silently overbooking.
func TestScheduleRecordsCapacityOverflowPenalty(t *testing.T) {
	periods := buildPeriods(t, "2023-W47-48", "2023-W49-50")
	env := schedenv.NewEnvironment(periods, nil)

	basicStart := time.Date(2023, 12, 5, 0, 0, 0, 0, time.UTC)
	for i := schedenv.WorkOrderNumber(1); i <= 3; i++ {
		env.UpsertWorkOrder(&schedenv.WorkOrder{
			Number:       i,
			UserStatus:   schedenv.NewStatusSet("REL", "AWSC"),
			SystemStatus: schedenv.NewStatusSet(),
			BasicStart:   basicStart,
			Operations: map[schedenv.ActivityNumber]*schedenv.Operation{
				10: {Activity: 10, Resource: schedenv.ResourceMtnMech, PlannedWork: schedenv.WorkFromHours(10)},
			},
		})
	}
	env.UpsertTechnician(&schedenv.Technician{
		ID:          "tech-1",
		Skills:      map[schedenv.Resource]struct{}{schedenv.ResourceMtnMech: {}},
		HoursPerDay: schedenv.WorkFromHours(15.0 / 14.0),
	})

	params, err := NewParameters(env, DefaultOptions(), weightByPriority, latestAllowed)
	require.NoError(t, err)

	alg := NewAlgorithm("asset-1", params, snapshot.NewPublisher())
	require.NoError(t, alg.Schedule(context.Background()))

	loadAtTarget := alg.Solution.Loadings[1][schedenv.ResourceMtnMech]
	capacityAtTarget := params.Capacity.AggregatedAt(1, schedenv.ResourceMtnMech)

	assert.InDelta(t, 15.0, capacityAtTarget.Hours(), 0.01)
	assert.Greater(t, loadAtTarget.Hours(), capacityAtTarget.Hours(), "all three locked work orders share the same period, overflowing the single technician")

	obj := alg.ObjectiveValue().(Objective)
	assert.Greater(t, obj.ResourcePenalty, 0.0)
}

func TestUnscheduleLeavesLockedWorkOrdersInPlace(t *testing.T) {
	periods := buildPeriods(t, "2023-W47-48", "2023-W49-50")
	env := schedenv.NewEnvironment(periods, nil)

	env.UpsertWorkOrder(&schedenv.WorkOrder{
		Number:     1,
		UserStatus: schedenv.NewStatusSet("REL", "AWSC"),
		BasicStart: time.Date(2023, 12, 5, 0, 0, 0, 0, time.UTC),
		Operations: map[schedenv.ActivityNumber]*schedenv.Operation{
			10: {Activity: 10, Resource: schedenv.ResourceMtnMech, PlannedWork: schedenv.WorkFromHours(5)},
		},
	})
	env.UpsertTechnician(&schedenv.Technician{
		ID:          "tech-1",
		Skills:      map[schedenv.Resource]struct{}{schedenv.ResourceMtnMech: {}},
		HoursPerDay: schedenv.WorkFromHours(8),
	})

	params, err := NewParameters(env, DefaultOptions(), weightByPriority, latestAllowed)
	require.NoError(t, err)

	alg := NewAlgorithm("asset-1", params, snapshot.NewPublisher())
	require.NoError(t, alg.Schedule(context.Background()))
	require.NoError(t, alg.Unschedule(context.Background(), rand.New(rand.NewSource(1))))

	assert.Equal(t, 1, alg.Solution.Assignment[1], "locked work orders are never destroyed")
}

func TestNewParametersFailsWhenNoCapacityExistsForRequiredResource(t *testing.T) {
	periods := buildPeriods(t, "2023-W47-48")
	env := schedenv.NewEnvironment(periods, nil)
	env.UpsertWorkOrder(&schedenv.WorkOrder{
		Number:     1,
		UserStatus: schedenv.NewStatusSet("REL"),
		Operations: map[schedenv.ActivityNumber]*schedenv.Operation{
			10: {Activity: 10, Resource: schedenv.ResourceMtnElec, PlannedWork: schedenv.WorkFromHours(5)},
		},
	})
	// No technician holds ResourceMtnElec: construction must fail fast.

	_, err := NewParameters(env, DefaultOptions(), weightByPriority, latestAllowed)
	assert.Error(t, err)
}
