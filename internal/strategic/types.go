// Package strategic implements the period-level strategic tier: assigning
// work orders to two-week buckets subject to resource capacity, with an
// LNS loop whose destroy operator drops a random subset of assignments
// and whose repair operator greedily reinserts by weight into the earliest
// feasible period. Functional-location clustering enters only the
// objective; repair does not use it to choose between periods.
package strategic

import (
	"sort"

	"github.com/oceanridge/ordinator/internal/schedenv"
)

// Options configures the strategic tier's neighborhood size and the
// weights of its three objective components, loaded from
// actor_options/strategic_options.toml.
type Options struct {
	NumberOfRemovedWorkOrders int
	UrgencyWeight             float64
	ResourcePenaltyWeight     float64
	ClusteringWeight          float64
	// ClusterLevelWeights scores how much each functional-location level
	// (asset, sector, system, subsystem) contributes to a shared-pair's
	// clustering score, most-significant first.
	ClusterLevelWeights [4]int
}

// DefaultOptions mirrors the magnitudes used by original_source's
// strategic_resources/strategic_parameters tests.
func DefaultOptions() Options {
	return Options{
		NumberOfRemovedWorkOrders: 3,
		UrgencyWeight:             1.0,
		ResourcePenaltyWeight:     50.0,
		ClusteringWeight:          1.0,
		ClusterLevelWeights:      [4]int{1, 2, 4, 8},
	}
}

// WorkOrderParameter is the strategic-tier's derived, immutable-after-build
// view of one work order.
type WorkOrderParameter struct {
	Number               schedenv.WorkOrderNumber
	Weight               float64
	LockedPeriod         *int // forced period index, from AWSC status
	ExcludedPeriods      map[int]struct{}
	EarliestAllowedPeriod int
	LatestAllowedPeriod  int
	WorkLoad             map[schedenv.Resource]schedenv.Work
	FunctionalLocation   schedenv.FunctionalLocation
}

// Capacity is the period -> technician -> skill -> hours table.
type Capacity map[int]map[schedenv.TechnicianID]map[schedenv.Resource]schedenv.Work

// AggregatedAt sums every technician's capacity for resource in period.
func (c Capacity) AggregatedAt(period int, resource schedenv.Resource) schedenv.Work {
	total := schedenv.Work{}
	for _, byResource := range c[period] {
		total = total.Add(byResource[resource])
	}
	return total
}

// BuildCapacityFromTechnicians derives a strategic capacity table from the
// technician pool: each technician contributes HoursPerDay hours for
// every day of the period, per skill they hold.
func BuildCapacityFromTechnicians(periods []schedenv.Period, technicians []*schedenv.Technician) Capacity {
	table := make(Capacity, len(periods))
	for _, p := range periods {
		days := p.End().Sub(p.Start()).Hours() / 24
		byTech := make(map[schedenv.TechnicianID]map[schedenv.Resource]schedenv.Work, len(technicians))
		for _, t := range technicians {
			perSkill := make(map[schedenv.Resource]schedenv.Work, len(t.Skills))
			hours := t.HoursPerDay.Hours() * days
			for r := range t.Skills {
				perSkill[r] = schedenv.WorkFromHours(hours)
			}
			byTech[t.ID] = perSkill
		}
		table[p.ID()] = byTech
	}
	return table
}

// Parameters is the strategic tier's full input for one asset.
type Parameters struct {
	WorkOrders map[schedenv.WorkOrderNumber]WorkOrderParameter
	Periods    []schedenv.Period
	Capacity   Capacity
	Options    Options
}

// ClusteringScore returns the configured similarity score between two
// work orders' functional locations.
func (p *Parameters) ClusteringScore(a, b schedenv.WorkOrderNumber) int {
	woA, okA := p.WorkOrders[a]
	woB, okB := p.WorkOrders[b]
	if !okA || !okB {
		return 0
	}
	shares := woA.FunctionalLocation.SharesWith(woB.FunctionalLocation)
	score := 0
	for i := 0; i < shares && i < len(p.Options.ClusterLevelWeights); i++ {
		score += p.Options.ClusterLevelWeights[i]
	}
	return score
}

// Solution is the strategic tier's current assignment: work order number
// to assigned period index (position in Parameters.Periods), or -1 if
// unassigned.
type Solution struct {
	Assignment map[schedenv.WorkOrderNumber]int // -1 means unassigned
	Loadings   map[int]map[schedenv.Resource]schedenv.Work
}

// NewSolution returns an empty solution with every work order unassigned.
func NewSolution(params *Parameters) *Solution {
	s := &Solution{
		Assignment: make(map[schedenv.WorkOrderNumber]int, len(params.WorkOrders)),
		Loadings:   make(map[int]map[schedenv.Resource]schedenv.Work),
	}
	for number := range params.WorkOrders {
		s.Assignment[number] = -1
	}
	for _, p := range params.Periods {
		s.Loadings[p.ID()] = make(map[schedenv.Resource]schedenv.Work)
	}
	return s
}

// Clone returns a deep-enough copy for checkpoint/restore.
func (s *Solution) Clone() *Solution {
	next := &Solution{
		Assignment: make(map[schedenv.WorkOrderNumber]int, len(s.Assignment)),
		Loadings:   make(map[int]map[schedenv.Resource]schedenv.Work, len(s.Loadings)),
	}
	for k, v := range s.Assignment {
		next.Assignment[k] = v
	}
	for period, byResource := range s.Loadings {
		cp := make(map[schedenv.Resource]schedenv.Work, len(byResource))
		for r, w := range byResource {
			cp[r] = w
		}
		next.Loadings[period] = cp
	}
	return next
}

// AssignedWorkOrders returns the assigned work order numbers sorted
// ascending, for deterministic clustering computation.
func (s *Solution) AssignedWorkOrders() []schedenv.WorkOrderNumber {
	out := make([]schedenv.WorkOrderNumber, 0, len(s.Assignment))
	for wo, period := range s.Assignment {
		if period >= 0 {
			out = append(out, wo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Solution) addLoad(period int, load map[schedenv.Resource]schedenv.Work) {
	byResource, ok := s.Loadings[period]
	if !ok {
		byResource = make(map[schedenv.Resource]schedenv.Work)
		s.Loadings[period] = byResource
	}
	for r, w := range load {
		byResource[r] = byResource[r].Add(w)
	}
}

func (s *Solution) subtractLoad(period int, load map[schedenv.Resource]schedenv.Work) {
	byResource, ok := s.Loadings[period]
	if !ok {
		return
	}
	for r, w := range load {
		byResource[r] = byResource[r].Sub(w)
	}
}
