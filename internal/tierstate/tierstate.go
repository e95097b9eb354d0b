// Package tierstate holds the small vocabulary shared between the
// supervisor and operational tiers — the Delegate state machine and the
// MarginalFitness feedback value — so neither tier package has to import
// the other just to speak about the other's published shape.
package tierstate

import (
	"errors"
	"fmt"

	"github.com/oceanridge/ordinator/internal/schedenv"
)

// Delegate is the supervisor-side state of one (technician, activity)
// pair.
type Delegate int

const (
	Assess Delegate = iota
	Assign
	Unassign
	Fixed
	Done
)

func (d Delegate) String() string {
	switch d {
	case Assess:
		return "Assess"
	case Assign:
		return "Assign"
	case Unassign:
		return "Unassign"
	case Fixed:
		return "Fixed"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// ErrInvalidTransition is returned when a Delegate transition is not in
// the allowed table below.
var ErrInvalidTransition = errors.New("tierstate: invalid delegate transition")

var allowedTransitions = map[Delegate]map[Delegate]bool{
	Assess:   {Assign: true, Unassign: true},
	Assign:   {Unassign: true, Fixed: true, Done: true},
	Unassign: {Assess: true, Fixed: true},
	Fixed:    {Done: true},
	Done:     {},
}

// Transition validates that from -> to is an allowed move and returns an
// error wrapping ErrInvalidTransition otherwise. It never mutates state
// itself; callers apply the transition after a nil error.
func Transition(from, to Delegate) error {
	if from == to {
		return nil
	}
	if allowedTransitions[from][to] {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Cell identifies one (technician, activity) pair in the supervisor's
// state machine.
type Cell struct {
	Technician schedenv.TechnicianID
	Key        schedenv.ActivityKey
}

// Fitness is the operational tier's feedback to the supervisor:
// MarginalFitness::None is the zero value (Scheduled == false);
// MarginalFitness::Scheduled(n) is Scheduled == true, Cost == n.
type Fitness struct {
	Scheduled bool
	Cost      uint64
}

// SupervisorSlice and OperationalSlice are the shapes the supervisor and
// operational tiers publish to the shared snapshot. They live here
// (rather than in the supervisor/operational packages themselves)
// because each tier's algorithm needs to read the *other* tier's
// published slice — supervisor reads Fitness to rank candidates,
// operational reads Delegate to know what to attempt — and two packages
// importing each other's concrete types would cycle.
type SupervisorSlice struct {
	State map[Cell]Delegate
}

type OperationalSlice struct {
	TechnicianID schedenv.TechnicianID
	Fitness      map[schedenv.ActivityKey]Fitness
}
