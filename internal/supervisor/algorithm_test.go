package supervisor

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanridge/ordinator/internal/schedenv"
	"github.com/oceanridge/ordinator/internal/snapshot"
	"github.com/oceanridge/ordinator/internal/strategic"
	"github.com/oceanridge/ordinator/internal/tierstate"
)

func buildSupervisorEnv(t *testing.T) (*schedenv.Environment, schedenv.ActivityKey) {
	t.Helper()
	env := schedenv.NewEnvironment(nil, nil)
	wo := &schedenv.WorkOrder{
		Number:     1,
		UserStatus: schedenv.NewStatusSet("REL"),
		Operations: map[schedenv.ActivityNumber]*schedenv.Operation{
			10: {Activity: 10, Resource: schedenv.ResourceMtnMech, CrewSize: 1, PlannedWork: schedenv.WorkFromHours(4)},
		},
	}
	env.UpsertWorkOrder(wo)
	env.UpsertTechnician(&schedenv.Technician{ID: "tech-a", Asset: "asset-1", Skills: map[schedenv.Resource]struct{}{schedenv.ResourceMtnMech: {}}})
	env.UpsertTechnician(&schedenv.Technician{ID: "tech-b", Asset: "asset-1", Skills: map[schedenv.Resource]struct{}{schedenv.ResourceMtnMech: {}}})
	return env, schedenv.ActivityKey{WorkOrder: 1, Activity: 10}
}

func publisherWithOperational(t *testing.T, key schedenv.ActivityKey, techCost map[schedenv.TechnicianID]uint64) *snapshot.Publisher {
	t.Helper()
	pub := snapshot.NewPublisher()
	for tech, cost := range techCost {
		pub.SwapOperational(string(tech), tierstate.OperationalSlice{
			TechnicianID: tech,
			Fitness:      map[schedenv.ActivityKey]tierstate.Fitness{key: {Scheduled: true, Cost: cost}},
		})
	}
	return pub
}

func TestScheduleAssignsCheapestCandidateUpToCrewSize(t *testing.T) {
	_, key := buildSupervisorEnv(t)
	params := NewParameters([]int{0}, DefaultOptions())
	params.Activities[key] = ActivityParameter{Resource: schedenv.ResourceMtnMech, CrewSize: 1}

	pub := publisherWithOperational(t, key, map[schedenv.TechnicianID]uint64{"tech-a": 500, "tech-b": 100})

	alg := NewAlgorithm("asset-1", nil, params, pub)
	alg.Solution.State[tierstate.Cell{Technician: "tech-a", Key: key}] = tierstate.Assess
	alg.Solution.State[tierstate.Cell{Technician: "tech-b", Key: key}] = tierstate.Assess

	require.NoError(t, alg.Schedule(context.Background()))

	assert.Equal(t, tierstate.Assign, alg.Solution.State[tierstate.Cell{Technician: "tech-b", Key: key}], "the cheaper candidate should be assigned")
	assert.Equal(t, tierstate.Unassign, alg.Solution.State[tierstate.Cell{Technician: "tech-a", Key: key}])
}

func TestScheduleBreaksTiesByAscendingTechnicianID(t *testing.T) {
	_, key := buildSupervisorEnv(t)
	params := NewParameters([]int{0}, DefaultOptions())
	params.Activities[key] = ActivityParameter{Resource: schedenv.ResourceMtnMech, CrewSize: 1}

	pub := publisherWithOperational(t, key, map[schedenv.TechnicianID]uint64{"tech-b": 200, "tech-a": 200})

	alg := NewAlgorithm("asset-1", nil, params, pub)
	alg.Solution.State[tierstate.Cell{Technician: "tech-a", Key: key}] = tierstate.Assess
	alg.Solution.State[tierstate.Cell{Technician: "tech-b", Key: key}] = tierstate.Assess

	require.NoError(t, alg.Schedule(context.Background()))

	assert.Equal(t, tierstate.Assign, alg.Solution.State[tierstate.Cell{Technician: "tech-a", Key: key}])
	assert.Equal(t, tierstate.Unassign, alg.Solution.State[tierstate.Cell{Technician: "tech-b", Key: key}])
}

func TestScheduleLeavesFixedAndDoneCellsUntouched(t *testing.T) {
	_, key := buildSupervisorEnv(t)
	params := NewParameters([]int{0}, DefaultOptions())
	params.Activities[key] = ActivityParameter{Resource: schedenv.ResourceMtnMech, CrewSize: 2}

	pub := publisherWithOperational(t, key, map[schedenv.TechnicianID]uint64{"tech-a": 10, "tech-b": 10})

	alg := NewAlgorithm("asset-1", nil, params, pub)
	alg.Solution.State[tierstate.Cell{Technician: "tech-a", Key: key}] = tierstate.Fixed
	alg.Solution.State[tierstate.Cell{Technician: "tech-b", Key: key}] = tierstate.Assess

	require.NoError(t, alg.Schedule(context.Background()))

	assert.Equal(t, tierstate.Fixed, alg.Solution.State[tierstate.Cell{Technician: "tech-a", Key: key}], "Fixed is never reconsidered by Schedule")
	assert.Equal(t, tierstate.Assign, alg.Solution.State[tierstate.Cell{Technician: "tech-b", Key: key}])
}

func TestTransitionRejectsSkippingToDone(t *testing.T) {
	s := NewSolution()
	cell := tierstate.Cell{Technician: "tech-a", Key: schedenv.ActivityKey{WorkOrder: 1, Activity: 10}}
	s.State[cell] = tierstate.Assess
	err := s.Transition(cell, tierstate.Done)
	assert.ErrorIs(t, err, tierstate.ErrInvalidTransition)
	assert.Equal(t, tierstate.Assess, s.State[cell], "a rejected transition must not mutate state")
}

func TestResetToAssessRoutesThroughUnassignFromAssign(t *testing.T) {
	_, key := buildSupervisorEnv(t)
	params := NewParameters([]int{0}, DefaultOptions())
	params.Activities[key] = ActivityParameter{Resource: schedenv.ResourceMtnMech, CrewSize: 1}

	alg := NewAlgorithm("asset-1", nil, params, snapshot.NewPublisher())
	cell := tierstate.Cell{Technician: "tech-a", Key: key}
	alg.Solution.State[cell] = tierstate.Assign

	require.NoError(t, alg.resetToAssess(cell))
	assert.Equal(t, tierstate.Assess, alg.Solution.State[cell])
}

func TestUnscheduleResetsOnlyChosenWorkOrders(t *testing.T) {
	_, key := buildSupervisorEnv(t)
	otherKey := schedenv.ActivityKey{WorkOrder: 2, Activity: 10}
	params := NewParameters([]int{0}, DefaultOptions())
	params.Options.NumberOfRemovedWorkOrders = 1
	params.Activities[key] = ActivityParameter{Resource: schedenv.ResourceMtnMech, CrewSize: 1}
	params.Activities[otherKey] = ActivityParameter{Resource: schedenv.ResourceMtnMech, CrewSize: 1}

	alg := NewAlgorithm("asset-1", nil, params, snapshot.NewPublisher())
	cellA := tierstate.Cell{Technician: "tech-a", Key: key}
	cellB := tierstate.Cell{Technician: "tech-a", Key: otherKey}
	alg.Solution.State[cellA] = tierstate.Assign
	alg.Solution.State[cellB] = tierstate.Assign

	require.NoError(t, alg.Unschedule(context.Background(), rand.New(rand.NewSource(1))))

	resetCount := 0
	for _, cell := range []tierstate.Cell{cellA, cellB} {
		if alg.Solution.State[cell] == tierstate.Assess {
			resetCount++
		}
	}
	assert.Equal(t, 1, resetCount, "exactly one work order's cells should be reset")
}

func TestObjectiveValueIsFractionOfActivitiesWithAnAssign(t *testing.T) {
	keyA := schedenv.ActivityKey{WorkOrder: 1, Activity: 10}
	keyB := schedenv.ActivityKey{WorkOrder: 2, Activity: 10}
	params := NewParameters([]int{0}, DefaultOptions())
	params.Activities[keyA] = ActivityParameter{Resource: schedenv.ResourceMtnMech, CrewSize: 1}
	params.Activities[keyB] = ActivityParameter{Resource: schedenv.ResourceMtnMech, CrewSize: 1}

	alg := NewAlgorithm("asset-1", nil, params, snapshot.NewPublisher())
	alg.Solution.State[tierstate.Cell{Technician: "tech-a", Key: keyA}] = tierstate.Assign

	obj := alg.ObjectiveValue().(Objective)
	assert.InDelta(t, 0.5, obj.Fraction, 1e-9)
	assert.Equal(t, 500, obj.Scaled)
}

func TestObjectiveBetterPrefersHigherFraction(t *testing.T) {
	low := Objective{Weighted: 0.2}
	high := Objective{Weighted: 0.8}
	assert.True(t, high.Better(low))
	assert.False(t, low.Better(high))
}

func TestIncorporateSharedStateAddsAssessRowsForNewlyReleasedActivity(t *testing.T) {
	env, key := buildSupervisorEnv(t)
	params := NewParameters([]int{0}, DefaultOptions())

	pub := snapshot.NewPublisher()
	pub.SwapTier(snapshot.TierStrategic, strategic.PublishedSlice{Assignment: map[schedenv.WorkOrderNumber]int{1: 0}})

	alg := NewAlgorithm("asset-1", env, params, pub)
	require.NoError(t, alg.IncorporateSharedState(context.Background()))

	assert.Contains(t, alg.Params.Activities, key)
	assert.Equal(t, tierstate.Assess, alg.Solution.State[tierstate.Cell{Technician: "tech-a", Key: key}])
	assert.Equal(t, tierstate.Assess, alg.Solution.State[tierstate.Cell{Technician: "tech-b", Key: key}])
}

func TestIncorporateSharedStateDropsActivityNoLongerInWindow(t *testing.T) {
	env, key := buildSupervisorEnv(t)
	params := NewParameters([]int{0}, DefaultOptions())
	params.Activities[key] = ActivityParameter{Resource: schedenv.ResourceMtnMech, CrewSize: 1}
	cell := tierstate.Cell{Technician: "tech-a", Key: key}
	// seed the solution as if a prior round had already placed this cell
	alg := NewAlgorithm("asset-1", env, params, snapshot.NewPublisher())
	alg.Solution.State[cell] = tierstate.Assign

	pub := snapshot.NewPublisher()
	pub.SwapTier(snapshot.TierStrategic, strategic.PublishedSlice{Assignment: map[schedenv.WorkOrderNumber]int{1: 7}}) // outside window {0}
	alg.publisher = pub

	require.NoError(t, alg.IncorporateSharedState(context.Background()))
	assert.NotContains(t, alg.Params.Activities, key)
	_, exists := alg.Solution.State[cell]
	assert.False(t, exists)
}
