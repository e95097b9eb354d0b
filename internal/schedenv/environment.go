package schedenv

import (
	"fmt"
	"sync"
	"time"
)

// Environment is the canonical, read-mostly store of work orders,
// technicians, periods and days for one asset family. It is shared by all
// actors behind a RWMutex; callers copy out what they need and release the
// lock before doing any blocking work.
type Environment struct {
	mu          sync.RWMutex
	workOrders  map[WorkOrderNumber]*WorkOrder
	technicians map[TechnicianID]*Technician
	periods     []Period
	days        []Day
}

// NewEnvironment builds an empty environment over the given period/day
// horizon.
func NewEnvironment(periods []Period, days []Day) *Environment {
	return &Environment{
		workOrders:  make(map[WorkOrderNumber]*WorkOrder),
		technicians: make(map[TechnicianID]*Technician),
		periods:     periods,
		days:        days,
	}
}

// UpsertWorkOrder inserts or replaces a work order.
func (e *Environment) UpsertWorkOrder(wo *WorkOrder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workOrders[wo.Number] = wo
}

// UpsertTechnician inserts or replaces a technician.
func (e *Environment) UpsertTechnician(t *Technician) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.technicians[t.ID] = t
}

// WorkOrder returns a copy of the work order pointer (the WorkOrder itself
// is treated as immutable-after-ingestion except for status edits, which
// are serialized through SetStatus).
func (e *Environment) WorkOrder(number WorkOrderNumber) (*WorkOrder, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	wo, ok := e.workOrders[number]
	return wo, ok
}

// AllWorkOrders returns a snapshot slice of every work order.
func (e *Environment) AllWorkOrders() []*WorkOrder {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*WorkOrder, 0, len(e.workOrders))
	for _, wo := range e.workOrders {
		out = append(out, wo)
	}
	return out
}

// ReleasedWorkOrders returns every work order carrying REL status.
// Spec invariant: a work order with no REL status is ignored by all tiers.
func (e *Environment) ReleasedWorkOrders() []*WorkOrder {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*WorkOrder, 0, len(e.workOrders))
	for _, wo := range e.workOrders {
		if wo.IsReleased() {
			out = append(out, wo)
		}
	}
	return out
}

// Technicians returns a snapshot slice of every technician for the given
// asset (or all technicians if asset is empty).
func (e *Environment) Technicians(asset string) []*Technician {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Technician, 0, len(e.technicians))
	for _, t := range e.technicians {
		if asset == "" || t.Asset == asset {
			out = append(out, t)
		}
	}
	return out
}

// Technician looks up a single technician by id.
func (e *Environment) Technician(id TechnicianID) (*Technician, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.technicians[id]
	return t, ok
}

// Periods returns the full configured period sequence.
func (e *Environment) Periods() []Period {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Period, len(e.periods))
	copy(out, e.periods)
	return out
}

// Days returns the full configured day sequence.
func (e *Environment) Days() []Day {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Day, len(e.days))
	copy(out, e.days)
	return out
}

// PeriodContaining returns the index into Periods() of the period that
// contains date, or -1 if none does.
func (e *Environment) PeriodContaining(date time.Time) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for i, p := range e.periods {
		if p.ContainsDate(date) {
			return i
		}
	}
	return -1
}

// SetStatus performs a serialized, write-side status-code edit on a work
// order — the only mutation permitted against an ingested work order.
func (e *Environment) SetStatus(number WorkOrderNumber, code string, user bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	wo, ok := e.workOrders[number]
	if !ok {
		return fmt.Errorf("set status: unknown work order %d", number)
	}
	if user {
		wo.UserStatus.Add(code)
	} else {
		wo.SystemStatus.Add(code)
	}
	return nil
}
