package tactical

import (
	"container/heap"
	"context"
	"fmt"
	"math/rand"

	"github.com/oceanridge/ordinator/internal/actor"
	"github.com/oceanridge/ordinator/internal/schedenv"
	"github.com/oceanridge/ordinator/internal/snapshot"
	"github.com/oceanridge/ordinator/internal/strategic"
)

// PublishedSlice is the immutable value the tactical tier publishes to
// the shared snapshot.
type PublishedSlice struct {
	Routing map[schedenv.WorkOrderNumber]WorkOrderRouting
}

// Objective is the tactical tier's two-component scalar objective: lower
// is better.
type Objective struct {
	Urgency         float64
	ResourcePenalty float64
	Weighted        float64
}

// Better implements actor.Objective.
func (o Objective) Better(other actor.Objective) bool {
	return o.Weighted < other.(Objective).Weighted
}

// Algorithm is the tactical tier's actor.Algorithm implementation.
type Algorithm struct {
	Asset     string
	Env       *schedenv.Environment
	Params    *Parameters
	Solution  *Solution
	publisher *snapshot.Publisher
	weightFn  func(*schedenv.WorkOrder) float64
}

// NewAlgorithm constructs a ready-to-run tactical algorithm.
func NewAlgorithm(asset string, env *schedenv.Environment, params *Parameters, pub *snapshot.Publisher, weightFn func(*schedenv.WorkOrder) float64) *Algorithm {
	return &Algorithm{
		Asset:     asset,
		Env:       env,
		Params:    params,
		Solution:  NewSolution(params),
		publisher: pub,
		weightFn:  weightFn,
	}
}

// NewParameters builds tactical Parameters from the environment and the
// strategic tier's latest published slice, restricted to work orders
// whose strategic period falls inside the given horizon days/periods.
func NewParameters(env *schedenv.Environment, strategicSlice strategic.PublishedSlice, horizonDays []schedenv.Day, horizonPeriods []schedenv.Period, weightFn func(*schedenv.WorkOrder) float64, opts Options) *Parameters {
	capacity := BuildCapacityFromTechnicians(horizonDays, env.Technicians(""))

	params := &Parameters{
		WorkOrders: make(map[schedenv.WorkOrderNumber]WorkOrderParameter),
		Days:       horizonDays,
		Periods:    horizonPeriods,
		Capacity:   capacity,
		Options:    opts,
	}

	inHorizon := make(map[int]struct{}, len(horizonPeriods))
	for _, p := range horizonPeriods {
		inHorizon[p.ID()] = struct{}{}
	}

	for number, period := range strategicSlice.Assignment {
		if period < 0 {
			continue
		}
		if _, ok := inHorizon[period]; !ok {
			continue
		}
		wo, ok := env.WorkOrder(number)
		if !ok || !wo.IsReleased() {
			continue
		}
		params.WorkOrders[number] = buildWorkOrderParameter(wo, period, weightFn)
	}

	return params
}

func buildWorkOrderParameter(wo *schedenv.WorkOrder, period int, weightFn func(*schedenv.WorkOrder) float64) WorkOrderParameter {
	activities := make(map[schedenv.ActivityNumber]ActivityParameter, len(wo.Operations))
	for num, op := range wo.Operations {
		perDay := op.OperatingPerDay
		if perDay.IsZero() {
			perDay = op.RemainingWork()
		}
		activities[num] = ActivityParameter{
			Resource:        op.Resource,
			CrewSize:        op.CrewSize,
			RemainingWork:   op.RemainingWork(),
			OperatingPerDay: perDay,
		}
	}
	return WorkOrderParameter{
		Number:          wo.Number,
		Weight:          weightFn(wo),
		StrategicPeriod: period,
		Activities:      activities,
	}
}

type pendingLoad struct {
	resource schedenv.Resource
	day      int
	amount   schedenv.Work
}

// Schedule repairs the current solution: NotScheduled work orders are
// placed, weight-descending, into the days of their strategic period.
func (a *Algorithm) Schedule(ctx context.Context) error {
	pq := newWeightQueue()
	for _, number := range a.Solution.NotScheduledWorkOrders() {
		wop, ok := a.Params.WorkOrders[number]
		if !ok {
			continue
		}
		heap.Push(pq, weightItem{number: number, weight: wop.Weight})
	}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(weightItem)
		wop := a.Params.WorkOrders[item.number]

		days := a.Params.DaysInPeriod(wop.StrategicPeriod)
		if len(days) == 0 {
			continue // left NotScheduled; objective counts it as urgency
		}

		activitySolutions := make(map[schedenv.ActivityNumber]OperationSolution, len(wop.Activities))
		var pending []pendingLoad
		complete := true

		for _, actNum := range wop.SortedActivityNumbers() {
			ap := wop.Activities[actNum]
			remaining := ap.RemainingWork
			var placed []DayWork

			for _, day := range days {
				if remaining.IsZero() {
					break
				}
				// current must fold in this work order's own
				// not-yet-committed pending loads too, or a later
				// activity sharing a resource+day with an earlier one
				// sees stale slack and can over-book it.
				current := a.Solution.Loadings.At(ap.Resource, day)
				for _, pl := range pending {
					if pl.resource == ap.Resource && pl.day == day {
						current = current.Add(pl.amount)
					}
				}
				capacity := a.Params.Capacity.At(ap.Resource, day)
				slack := capacity.Sub(current)
				if slack.IsZero() {
					continue
				}
				amount := minWork(slack, ap.OperatingPerDay, remaining)
				if amount.IsZero() {
					continue
				}
				placed = append(placed, DayWork{Day: day, Work: amount})
				pending = append(pending, pendingLoad{resource: ap.Resource, day: day, amount: amount})
				remaining = remaining.Sub(amount)
			}

			if !remaining.IsZero() {
				complete = false
				break
			}
			activitySolutions[actNum] = OperationSolution{Activity: actNum, CrewSize: ap.CrewSize, Remaining: schedenv.Work{}, Days: placed}
		}

		if !complete {
			// The pending loads were never added to Loadings, so dropping
			// them is the whole rollback; the work order stays NotScheduled
			// and contributes an urgency penalty.
			continue
		}

		for _, pl := range pending {
			a.Solution.Loadings.add(pl.resource, pl.day, pl.amount)
		}
		a.Solution.Routing[item.number] = WorkOrderRouting{Kind: Tactical, Activities: activitySolutions}
	}
	return nil
}

func minWork(values ...schedenv.Work) schedenv.Work {
	min := values[0]
	for _, v := range values[1:] {
		if v.Cmp(min) < 0 {
			min = v
		}
	}
	return min
}

// Unschedule destroys a random neighborhood of currently Tactical work
// orders, releasing their loadings.
func (a *Algorithm) Unschedule(ctx context.Context, rng *rand.Rand) error {
	candidates := a.Solution.TacticalWorkOrders()
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	k := a.Params.Options.NumberOfRemovedWorkOrders
	if k > len(candidates) {
		k = len(candidates)
	}

	for i := 0; i < k; i++ {
		number := candidates[i]
		routing := a.Solution.Routing[number]
		wop := a.Params.WorkOrders[number]
		for actNum, sol := range routing.Activities {
			ap := wop.Activities[actNum]
			for _, dw := range sol.Days {
				a.Solution.Loadings.subtract(ap.Resource, dw.Day, dw.Work)
				if a.Solution.Loadings.At(ap.Resource, dw.Day).Cmp(schedenv.Work{}) < 0 {
					panic(fmt.Sprintf("tactical: loadings went negative for resource %s day %d", ap.Resource, dw.Day))
				}
			}
		}
		a.Solution.Routing[number] = WorkOrderRouting{Kind: NotScheduled}
	}
	return nil
}

// ObjectiveValue computes the tactical tier's weighted objective.
func (a *Algorithm) ObjectiveValue() actor.Objective {
	var urgency, penalty float64

	for _, number := range a.Solution.NotScheduledWorkOrders() {
		if wop, ok := a.Params.WorkOrders[number]; ok {
			urgency += wop.Weight
		}
	}

	for resource, byDay := range a.Solution.Loadings {
		for day, load := range byDay {
			capacity := a.Params.Capacity.At(resource, day)
			if load.GreaterThan(capacity) {
				penalty += load.Sub(capacity).Hours()
			}
		}
	}

	opts := a.Params.Options
	weighted := opts.UrgencyWeight*urgency + opts.ResourcePenaltyWeight*penalty
	return Objective{Urgency: urgency, ResourcePenalty: penalty, Weighted: weighted}
}

// IncorporateSharedState folds the strategic tier's latest published
// slice into this tier's parameters: work orders whose strategic period
// moved outside the horizon are released back to Strategic; newly landed
// work orders are added as NotScheduled.
func (a *Algorithm) IncorporateSharedState(ctx context.Context) error {
	composite := a.publisher.Load()
	strategicSlice, ok := composite.Strategic.(strategic.PublishedSlice)
	if !ok {
		return nil
	}

	inHorizon := make(map[int]struct{}, len(a.Params.Periods))
	for _, p := range a.Params.Periods {
		inHorizon[p.ID()] = struct{}{}
	}

	for number, period := range strategicSlice.Assignment {
		_, knownLocally := a.Params.WorkOrders[number]
		_, stillInHorizon := inHorizon[period]

		switch {
		case period < 0:
			continue
		case !stillInHorizon && knownLocally:
			a.releaseToStrategic(number)
		case stillInHorizon && !knownLocally:
			wo, ok := a.Env.WorkOrder(number)
			if !ok || !wo.IsReleased() {
				continue
			}
			a.Params.WorkOrders[number] = buildWorkOrderParameter(wo, period, a.weightFn)
			a.Solution.Routing[number] = WorkOrderRouting{Kind: NotScheduled}
		case stillInHorizon && knownLocally:
			wop := a.Params.WorkOrders[number]
			wop.StrategicPeriod = period
			a.Params.WorkOrders[number] = wop
		}
	}
	return nil
}

func (a *Algorithm) releaseToStrategic(number schedenv.WorkOrderNumber) {
	routing := a.Solution.Routing[number]
	if routing.Kind == Tactical {
		wop := a.Params.WorkOrders[number]
		for actNum, sol := range routing.Activities {
			ap := wop.Activities[actNum]
			for _, dw := range sol.Days {
				a.Solution.Loadings.subtract(ap.Resource, dw.Day, dw.Work)
			}
		}
	}
	a.Solution.Routing[number] = WorkOrderRouting{Kind: Strategic}
	delete(a.Params.WorkOrders, number)
}

// Publish atomically publishes the tactical routing to the shared
// snapshot.
func (a *Algorithm) Publish(ctx context.Context) error {
	routing := make(map[schedenv.WorkOrderNumber]WorkOrderRouting, len(a.Solution.Routing))
	for k, v := range a.Solution.Routing {
		routing[k] = v
	}
	a.publisher.SwapTier(snapshot.TierTactical, PublishedSlice{Routing: routing})
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

// Request is a tactical-tier status/query/update request, routed by the
// orchestrator from apienvelope.TacticalRequest.
type Request struct {
	Kind      string // "status" | "scheduling" | "resource" | "time" | "update"
	WorkOrder schedenv.WorkOrderNumber // only set when Kind == "update"
}

// HandleMessage implements actor.MessageHandler.
func (a *Algorithm) HandleMessage(ctx context.Context, payload any) (any, error) {
	req, ok := payload.(Request)
	if !ok {
		return nil, fmt.Errorf("tactical: unsupported request payload %T", payload)
	}
	switch req.Kind {
	case "status":
		return map[string]any{
			"asset":     a.Asset,
			"objective": a.ObjectiveValue(),
			"routed":    len(a.Solution.TacticalWorkOrders()),
		}, nil
	case "scheduling":
		routing := make(map[schedenv.WorkOrderNumber]WorkOrderRouting, len(a.Solution.Routing))
		for k, v := range a.Solution.Routing {
			routing[k] = v
		}
		return PublishedSlice{Routing: routing}, nil
	case "resource":
		return a.Params.Capacity, nil
	case "time":
		return map[string]any{"days": a.Params.Days, "periods": a.Params.Periods}, nil
	case "update":
		if err := a.Env.SetStatus(req.WorkOrder, "UPD", true); err != nil {
			return nil, fmt.Errorf("tactical: update work order %d: %w", req.WorkOrder, err)
		}
		return a.Solution.Routing[req.WorkOrder], nil
	default:
		return nil, fmt.Errorf("tactical: unknown request kind %q", req.Kind)
	}
}

type weightItem struct {
	number schedenv.WorkOrderNumber
	weight float64
}

type weightQueue []weightItem

func newWeightQueue() *weightQueue {
	q := make(weightQueue, 0)
	heap.Init(&q)
	return &q
}

func (q weightQueue) Len() int { return len(q) }
func (q weightQueue) Less(i, j int) bool {
	if q[i].weight != q[j].weight {
		return q[i].weight > q[j].weight
	}
	return q[i].number < q[j].number
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
