package schedenv

import "time"

// ActivityNumber identifies an operation within a work order.
type ActivityNumber uint64

// Operation is one unit of work within a work order: a required skill,
// crew size, and planned/actual/remaining work.
type Operation struct {
	Activity         ActivityNumber
	Resource         Resource
	CrewSize         int
	PlannedWork      Work
	ActualWork       Work
	UnloadingPoint   *int // optional hint: preferred period id
	EarliestStart    time.Time
	EarliestFinish   time.Time
	OperatingPerDay  Work // soft cap on how much of this op can run in one day
}

// RemainingWork returns max(0, planned - actual), the spec invariant for
// an operation's remaining work.
func (o Operation) RemainingWork() Work {
	return o.PlannedWork.Sub(o.ActualWork)
}
