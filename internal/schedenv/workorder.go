package schedenv

import "time"

// WorkOrderNumber uniquely identifies a work order.
type WorkOrderNumber uint64

// FunctionalLocation locates a work order within the asset hierarchy.
type FunctionalLocation struct {
	Asset     string
	Sector    string
	System    string
	Subsystem string
	Tag       string
}

// SharesWith returns a clustering-similarity contribution: the count of
// hierarchy levels (asset, sector, system, subsystem) two functional
// locations share, most-significant first, stopping at the first mismatch
// — i.e. two locations in different sectors never share above the asset
// level even if their tag strings happen to collide.
func (f FunctionalLocation) SharesWith(other FunctionalLocation) int {
	levels := [][2]string{
		{f.Asset, other.Asset},
		{f.Sector, other.Sector},
		{f.System, other.System},
		{f.Subsystem, other.Subsystem},
	}
	score := 0
	for _, lvl := range levels {
		if lvl[0] == "" || lvl[0] != lvl[1] {
			break
		}
		score++
	}
	return score
}

// ActivityKey globally identifies one operation across the tiers that
// reason about it independent of which work order owns it (supervisor
// and operational).
type ActivityKey struct {
	WorkOrder WorkOrderNumber
	Activity  ActivityNumber
}

// WorkOrder is the top-level unit of maintenance demand.
type WorkOrder struct {
	Number              WorkOrderNumber
	FunctionalLocation  FunctionalLocation
	Priority            int
	OrderType           string
	Revision            int
	UserStatus          StatusSet
	SystemStatus        StatusSet
	EarliestAllowedStart time.Time
	LatestAllowedFinish  time.Time
	BasicStart           time.Time
	BasicFinish          time.Time
	Operations           map[ActivityNumber]*Operation
}

// IsReleased reports whether the work order carries REL in either status
// set. Spec invariant: a work order with no REL status is ignored by all
// tiers.
func (w *WorkOrder) IsReleased() bool {
	return w.UserStatus.IsReleased() || w.SystemStatus.IsReleased()
}

// HasAnyStatus reports whether code appears in either status set.
func (w *WorkOrder) HasAnyStatus(code string) bool {
	return w.UserStatus.Has(code) || w.SystemStatus.Has(code)
}

// TotalWorkLoad sums remaining work per resource across all operations.
func (w *WorkOrder) TotalWorkLoad() map[Resource]Work {
	totals := make(map[Resource]Work)
	for _, op := range w.Operations {
		totals[op.Resource] = totals[op.Resource].Add(op.RemainingWork())
	}
	return totals
}

// SortedActivities returns the work order's activity numbers in ascending
// order, the iteration order the tactical repair operator requires.
func (w *WorkOrder) SortedActivities() []ActivityNumber {
	out := make([]ActivityNumber, 0, len(w.Operations))
	for a := range w.Operations {
		out = append(out, a)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
