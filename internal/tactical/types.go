// Package tactical implements the day-level tactical tier: placing
// operations on consecutive days inside the period the strategic tier
// has already chosen, subject to per-resource per-day capacity.
package tactical

import (
	"sort"

	"github.com/oceanridge/ordinator/internal/schedenv"
)

// Options configures the tactical tier's neighborhood size and the
// weights of its two objective components, loaded from
// actor_options/tactical_options.toml.
type Options struct {
	NumberOfRemovedWorkOrders int
	UrgencyWeight             float64
	ResourcePenaltyWeight     float64
}

// DefaultOptions mirrors the magnitudes used elsewhere in the corpus for
// a secondary, faster-throttled tier.
func DefaultOptions() Options {
	return Options{
		NumberOfRemovedWorkOrders: 2,
		UrgencyWeight:             1.0,
		ResourcePenaltyWeight:     25.0,
	}
}

// ActivityParameter is one operation's tactical-relevant view.
type ActivityParameter struct {
	Resource        schedenv.Resource
	CrewSize        int
	RemainingWork   schedenv.Work
	OperatingPerDay schedenv.Work
}

// WorkOrderParameter is the tactical-tier's derived view of a work order
// the strategic tier has placed inside this tier's horizon.
type WorkOrderParameter struct {
	Number          schedenv.WorkOrderNumber
	Weight          float64
	StrategicPeriod int
	Activities      map[schedenv.ActivityNumber]ActivityParameter
}

// SortedActivityNumbers returns the work order's activity numbers
// ascending, the iteration order the repair operator requires.
func (w WorkOrderParameter) SortedActivityNumbers() []schedenv.ActivityNumber {
	out := make([]schedenv.ActivityNumber, 0, len(w.Activities))
	for a := range w.Activities {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RoutingKind names where a work order currently sits: a total
// three-state variant rather than nested optionals.
type RoutingKind int

const (
	NotScheduled RoutingKind = iota
	Strategic                // deferred back: strategic moved it outside this horizon
	Tactical
)

// DayWork is one day's contribution toward an operation's remaining work.
type DayWork struct {
	Day  int
	Work schedenv.Work
}

// OperationSolution is one activity's placement across consecutive days.
type OperationSolution struct {
	Activity  schedenv.ActivityNumber
	CrewSize  int
	Remaining schedenv.Work
	Days      []DayWork
}

// WorkOrderRouting is the tactical solution's per-work-order state.
type WorkOrderRouting struct {
	Kind       RoutingKind
	Activities map[schedenv.ActivityNumber]OperationSolution // only set when Kind == Tactical
}

// Capacity is the resource -> day-index -> hours table.
type Capacity map[schedenv.Resource]map[int]schedenv.Work

// At returns the capacity (or loading) for resource on day, or zero.
func (c Capacity) At(resource schedenv.Resource, day int) schedenv.Work {
	return c[resource][day]
}

func (c Capacity) add(resource schedenv.Resource, day int, amount schedenv.Work) {
	byDay, ok := c[resource]
	if !ok {
		byDay = make(map[int]schedenv.Work)
		c[resource] = byDay
	}
	byDay[day] = byDay[day].Add(amount)
}

func (c Capacity) subtract(resource schedenv.Resource, day int, amount schedenv.Work) {
	byDay, ok := c[resource]
	if !ok {
		return
	}
	byDay[day] = byDay[day].Sub(amount)
}

func (c Capacity) clone() Capacity {
	next := make(Capacity, len(c))
	for resource, byDay := range c {
		cp := make(map[int]schedenv.Work, len(byDay))
		for d, w := range byDay {
			cp[d] = w
		}
		next[resource] = cp
	}
	return next
}

// BuildCapacityFromTechnicians derives a tactical capacity table: each
// technician contributes HoursPerDay hours per calendar day, per skill.
func BuildCapacityFromTechnicians(days []schedenv.Day, technicians []*schedenv.Technician) Capacity {
	table := make(Capacity)
	for _, d := range days {
		for _, t := range technicians {
			for r := range t.Skills {
				table.add(r, d.Index, t.HoursPerDay)
			}
		}
	}
	return table
}

// Parameters is the tactical tier's full input for one asset's horizon.
type Parameters struct {
	WorkOrders map[schedenv.WorkOrderNumber]WorkOrderParameter
	Days       []schedenv.Day
	Periods    []schedenv.Period
	Capacity   Capacity
	Options    Options
}

// DaysInPeriod returns the indices of every day whose date falls inside
// the named period.
func (p *Parameters) DaysInPeriod(periodID int) []int {
	var period *schedenv.Period
	for i := range p.Periods {
		if p.Periods[i].ID() == periodID {
			period = &p.Periods[i]
			break
		}
	}
	if period == nil {
		return nil
	}
	var days []int
	for _, d := range p.Days {
		if period.ContainsDate(d.Date) {
			days = append(days, d.Index)
		}
	}
	return days
}

// HorizonContainsPeriod reports whether periodID falls inside this
// tier's configured horizon.
func (p *Parameters) HorizonContainsPeriod(periodID int) bool {
	for _, pd := range p.Periods {
		if pd.ID() == periodID {
			return true
		}
	}
	return false
}

// Solution is the tactical tier's current routing for every work order it
// has ever seen, plus the per-resource per-day loadings it has committed.
type Solution struct {
	Routing  map[schedenv.WorkOrderNumber]WorkOrderRouting
	Loadings Capacity
}

// NewSolution returns an empty solution with every known work order
// NotScheduled.
func NewSolution(params *Parameters) *Solution {
	s := &Solution{
		Routing:  make(map[schedenv.WorkOrderNumber]WorkOrderRouting, len(params.WorkOrders)),
		Loadings: make(Capacity),
	}
	for number := range params.WorkOrders {
		s.Routing[number] = WorkOrderRouting{Kind: NotScheduled}
	}
	return s
}

// Clone returns a deep-enough copy for checkpoint/restore.
func (s *Solution) Clone() *Solution {
	next := &Solution{
		Routing:  make(map[schedenv.WorkOrderNumber]WorkOrderRouting, len(s.Routing)),
		Loadings: s.Loadings.clone(),
	}
	for number, routing := range s.Routing {
		cp := WorkOrderRouting{Kind: routing.Kind}
		if routing.Activities != nil {
			cp.Activities = make(map[schedenv.ActivityNumber]OperationSolution, len(routing.Activities))
			for a, sol := range routing.Activities {
				days := make([]DayWork, len(sol.Days))
				copy(days, sol.Days)
				sol.Days = days
				cp.Activities[a] = sol
			}
		}
		next.Routing[number] = cp
	}
	return next
}

// NotScheduledWorkOrders returns the numbers of every work order this
// tier currently has not placed.
func (s *Solution) NotScheduledWorkOrders() []schedenv.WorkOrderNumber {
	out := make([]schedenv.WorkOrderNumber, 0)
	for number, routing := range s.Routing {
		if routing.Kind == NotScheduled {
			out = append(out, number)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TacticalWorkOrders returns the numbers of every work order currently
// placed by this tier.
func (s *Solution) TacticalWorkOrders() []schedenv.WorkOrderNumber {
	out := make([]schedenv.WorkOrderNumber, 0)
	for number, routing := range s.Routing {
		if routing.Kind == Tactical {
			out = append(out, number)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
