package strategic

import (
	"container/heap"
	"context"
	"fmt"
	"math/rand"

	"github.com/oceanridge/ordinator/internal/actor"
	"github.com/oceanridge/ordinator/internal/schedenv"
	"github.com/oceanridge/ordinator/internal/snapshot"
)

// PublishedSlice is the immutable value the strategic tier publishes to
// the shared snapshot.
type PublishedSlice struct {
	Assignment map[schedenv.WorkOrderNumber]int
	Periods    []schedenv.Period
}

// Objective is the strategic tier's lexicographic-weighted scalar
// objective: lower is better.
type Objective struct {
	Urgency         float64
	ResourcePenalty float64
	Clustering      float64
	Weighted        float64
}

// Better implements actor.Objective: lower aggregated score wins.
func (o Objective) Better(other actor.Objective) bool {
	return o.Weighted < other.(Objective).Weighted
}

// Algorithm is the strategic tier's actor.Algorithm implementation.
type Algorithm struct {
	Asset     string
	Params    *Parameters
	Solution  *Solution
	publisher *snapshot.Publisher
}

// NewAlgorithm constructs a ready-to-run strategic algorithm.
func NewAlgorithm(asset string, params *Parameters, pub *snapshot.Publisher) *Algorithm {
	return &Algorithm{
		Asset:     asset,
		Params:    params,
		Solution:  NewSolution(params),
		publisher: pub,
	}
}

// NewParameters builds strategic Parameters from the scheduling
// environment. A missing capacity entry for a skill required by some
// work order is fatal at construction (not a per-work-order skip): the
// whole build fails so the problem surfaces immediately rather than
// silently degrading coverage mid-run.
func NewParameters(env *schedenv.Environment, opts Options, weightFn func(*schedenv.WorkOrder) float64, latestAllowedPeriod func(*schedenv.WorkOrder, []schedenv.Period) int) (*Parameters, error) {
	periods := env.Periods()
	capacity := BuildCapacityFromTechnicians(periods, env.Technicians(""))

	params := &Parameters{
		WorkOrders: make(map[schedenv.WorkOrderNumber]WorkOrderParameter),
		Periods:    periods,
		Capacity:   capacity,
		Options:    opts,
	}

	for _, wo := range env.ReleasedWorkOrders() {
		load := wo.TotalWorkLoad()
		for resource := range load {
			hasCapacity := false
			for _, p := range periods {
				if capacity.AggregatedAt(p.ID(), resource).GreaterThan(schedenv.Work{}) {
					hasCapacity = true
					break
				}
			}
			if !hasCapacity {
				return nil, fmt.Errorf("strategic parameter build: work order %d requires resource %s with no capacity entry in any period", wo.Number, resource)
			}
		}

		var locked *int
		if wo.HasAnyStatus("AWSC") {
			idx := env.PeriodContaining(wo.BasicStart)
			if idx >= 0 {
				locked = &idx
			}
		}

		excluded := map[int]struct{}{}
		if wo.HasAnyStatus("SCH") {
			for i := 2; i < len(periods); i++ {
				excluded[periods[i].ID()] = struct{}{}
			}
		}

		earliest := 0
		if idx := env.PeriodContaining(wo.EarliestAllowedStart); idx >= 0 {
			earliest = idx
		}

		params.WorkOrders[wo.Number] = WorkOrderParameter{
			Number:                wo.Number,
			Weight:                weightFn(wo),
			LockedPeriod:          locked,
			ExcludedPeriods:       excluded,
			EarliestAllowedPeriod: earliest,
			LatestAllowedPeriod:   latestAllowedPeriod(wo, periods),
			WorkLoad:              load,
			FunctionalLocation:    wo.FunctionalLocation,
		}
	}

	return params, nil
}

// Schedule repairs the current solution: unassigned work orders are
// inserted in weight-descending priority order.
func (a *Algorithm) Schedule(ctx context.Context) error {
	pq := newWeightQueue()
	for number, period := range a.Solution.Assignment {
		if period < 0 {
			heap.Push(pq, weightItem{number: number, weight: a.Params.WorkOrders[number].Weight})
		}
	}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(weightItem)
		wop := a.Params.WorkOrders[item.number]

		var target int
		if wop.LockedPeriod != nil {
			target = *wop.LockedPeriod
		} else if feasible, ok := a.findFeasiblePeriod(wop); ok {
			target = feasible
		} else {
			target = wop.LatestAllowedPeriod
		}

		if target < wop.EarliestAllowedPeriod {
			panic(fmt.Sprintf("strategic: work order %d placed in period %d before its earliest-allowed period %d", item.number, target, wop.EarliestAllowedPeriod))
		}

		a.Solution.Assignment[item.number] = target
		a.Solution.addLoad(target, wop.WorkLoad)
	}
	return nil
}

func (a *Algorithm) findFeasiblePeriod(wop WorkOrderParameter) (int, bool) {
	for _, p := range a.Params.Periods {
		if p.ID() < wop.EarliestAllowedPeriod {
			continue
		}
		if p.ID() > wop.LatestAllowedPeriod {
			break
		}
		if _, excluded := wop.ExcludedPeriods[p.ID()]; excluded {
			continue
		}
		if a.hasSlack(p.ID(), wop.WorkLoad) {
			return p.ID(), true
		}
	}
	return 0, false
}

func (a *Algorithm) hasSlack(period int, load map[schedenv.Resource]schedenv.Work) bool {
	for resource, amount := range load {
		current := a.Solution.Loadings[period][resource]
		capacity := a.Params.Capacity.AggregatedAt(period, resource)
		if current.Add(amount).GreaterThan(capacity) {
			return false
		}
	}
	return true
}

// Unschedule destroys a random neighborhood of currently assigned,
// non-locked work orders.
func (a *Algorithm) Unschedule(ctx context.Context, rng *rand.Rand) error {
	k := a.Params.Options.NumberOfRemovedWorkOrders

	var candidates []schedenv.WorkOrderNumber
	for number, period := range a.Solution.Assignment {
		if period < 0 {
			continue
		}
		if a.Params.WorkOrders[number].LockedPeriod != nil {
			continue
		}
		candidates = append(candidates, number)
	}
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	if k > len(candidates) {
		k = len(candidates)
	}

	for i := 0; i < k; i++ {
		number := candidates[i]
		period := a.Solution.Assignment[number]
		a.Solution.subtractLoad(period, a.Params.WorkOrders[number].WorkLoad)
		a.Solution.Assignment[number] = -1
	}
	return nil
}

// ObjectiveValue computes the lexicographic-weighted strategic objective.
func (a *Algorithm) ObjectiveValue() actor.Objective {
	var urgency, penalty, clustering float64

	for number, period := range a.Solution.Assignment {
		if period < 0 {
			continue
		}
		wop := a.Params.WorkOrders[number]
		diff := float64(wop.LatestAllowedPeriod - period)
		urgency += wop.Weight * diff * diff
	}

	for period, byResource := range a.Solution.Loadings {
		for resource, load := range byResource {
			capacity := a.Params.Capacity.AggregatedAt(period, resource)
			if load.GreaterThan(capacity) {
				penalty += load.Sub(capacity).Hours()
			}
		}
	}

	assigned := a.Solution.AssignedWorkOrders()
	byPeriod := make(map[int][]schedenv.WorkOrderNumber)
	for _, wo := range assigned {
		p := a.Solution.Assignment[wo]
		byPeriod[p] = append(byPeriod[p], wo)
	}
	for _, group := range byPeriod {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				clustering += float64(a.Params.ClusteringScore(group[i], group[j]))
			}
		}
	}

	opts := a.Params.Options
	weighted := opts.UrgencyWeight*urgency + opts.ResourcePenaltyWeight*penalty - opts.ClusteringWeight*clustering

	return Objective{Urgency: urgency, ResourcePenalty: penalty, Clustering: clustering, Weighted: weighted}
}

// IncorporateSharedState is a no-op for the strategic tier: it is the
// topmost tier and does not depend on any other tier's published state.
func (a *Algorithm) IncorporateSharedState(ctx context.Context) error { return nil }

// Publish atomically publishes the strategic assignment to the shared
// snapshot.
func (a *Algorithm) Publish(ctx context.Context) error {
	assignment := make(map[schedenv.WorkOrderNumber]int, len(a.Solution.Assignment))
	for k, v := range a.Solution.Assignment {
		assignment[k] = v
	}
	a.publisher.SwapTier(snapshot.TierStrategic, PublishedSlice{Assignment: assignment, Periods: a.Params.Periods})
	return nil
}

// Checkpoint returns a clone of the current solution for rollback.
func (a *Algorithm) Checkpoint() any { return a.Solution.Clone() }

// Restore rolls the solution back to a checkpoint produced by Checkpoint.
func (a *Algorithm) Restore(checkpoint any) {
	if s, ok := checkpoint.(*Solution); ok {
		a.Solution = s
	}
}

// Request is a strategic-tier status/query request, routed by the
// orchestrator from apienvelope.StrategicRequest.
type Request struct {
	Kind string // "status" | "scheduling" | "resources" | "periods" | "scheduling_environment"
}

// HandleMessage implements actor.MessageHandler. It runs on the actor's
// own goroutine, so reading a.Solution/a.Params here never races with
// Schedule/Unschedule.
func (a *Algorithm) HandleMessage(ctx context.Context, payload any) (any, error) {
	req, ok := payload.(Request)
	if !ok {
		return nil, fmt.Errorf("strategic: unsupported request payload %T", payload)
	}
	switch req.Kind {
	case "status":
		return map[string]any{
			"asset":               a.Asset,
			"objective":           a.ObjectiveValue(),
			"work_orders_planned": len(a.Solution.Assignment),
		}, nil
	case "scheduling":
		assignment := make(map[schedenv.WorkOrderNumber]int, len(a.Solution.Assignment))
		for k, v := range a.Solution.Assignment {
			assignment[k] = v
		}
		return PublishedSlice{Assignment: assignment, Periods: a.Params.Periods}, nil
	case "resources":
		return a.Params.Capacity, nil
	case "periods":
		return a.Params.Periods, nil
	case "scheduling_environment":
		return a.Params, nil
	default:
		return nil, fmt.Errorf("strategic: unknown request kind %q", req.Kind)
	}
}

// weightItem pairs a work order with its repair-priority weight.
type weightItem struct {
	number schedenv.WorkOrderNumber
	weight float64
}

// weightQueue is a max-heap by weight, highest-weight work order first,
// for the repair operator's iteration order.
type weightQueue []weightItem

func newWeightQueue() *weightQueue {
	q := make(weightQueue, 0)
	heap.Init(&q)
	return &q
}

func (q weightQueue) Len() int { return len(q) }
func (q weightQueue) Less(i, j int) bool {
	if q[i].weight != q[j].weight {
		return q[i].weight > q[j].weight // max-heap: highest weight first
	}
	return q[i].number < q[j].number // deterministic tie-break
}
func (q weightQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *weightQueue) Push(x any)   { *q = append(*q, x.(weightItem)) }
func (q *weightQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
