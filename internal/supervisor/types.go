// Package supervisor implements the activity-to-technician delegation
// tier: for each activity in the tactical horizon, it ranks the
// technician candidates the operational tier reports it can schedule and
// assigns the best crew_size of them.
package supervisor

import (
	"sort"

	"github.com/oceanridge/ordinator/internal/schedenv"
	"github.com/oceanridge/ordinator/internal/tierstate"
)

// Options configures the supervisor tier's destroy neighborhood, loaded
// from actor_options/supervisor_options.toml.
type Options struct {
	NumberOfRemovedWorkOrders int
}

// DefaultOptions mirrors the magnitudes used elsewhere in the corpus.
func DefaultOptions() Options {
	return Options{NumberOfRemovedWorkOrders: 2}
}

// ActivityParameter is one activity's supervisor-relevant view.
type ActivityParameter struct {
	Resource schedenv.Resource
	CrewSize int
}

// Parameters is the supervisor tier's full input for one asset's period
// window.
type Parameters struct {
	Activities   map[schedenv.ActivityKey]ActivityParameter
	PeriodWindow map[int]struct{}
	Options      Options
}

// NewParameters builds empty Parameters scoped to the given strategic
// period ids; IncorporateSharedState populates Activities.
func NewParameters(periodWindow []int, opts Options) *Parameters {
	window := make(map[int]struct{}, len(periodWindow))
	for _, p := range periodWindow {
		window[p] = struct{}{}
	}
	return &Parameters{
		Activities:   make(map[schedenv.ActivityKey]ActivityParameter),
		PeriodWindow: window,
		Options:      opts,
	}
}

// Solution is the supervisor's Delegate state machine over every
// (technician, activity) cell it knows about.
type Solution struct {
	State map[tierstate.Cell]tierstate.Delegate
}

// NewSolution returns an empty Delegate state machine.
func NewSolution() *Solution {
	return &Solution{State: make(map[tierstate.Cell]tierstate.Delegate)}
}

// Clone returns a deep-enough copy for checkpoint/restore.
func (s *Solution) Clone() *Solution {
	next := &Solution{State: make(map[tierstate.Cell]tierstate.Delegate, len(s.State))}
	for k, v := range s.State {
		next.State[k] = v
	}
	return next
}

// Transition applies a validated Delegate transition for cell, defaulting
// an unseen cell's current state to Assess.
func (s *Solution) Transition(cell tierstate.Cell, to tierstate.Delegate) error {
	from, ok := s.State[cell]
	if !ok {
		from = tierstate.Assess
	}
	if err := tierstate.Transition(from, to); err != nil {
		return err
	}
	s.State[cell] = to
	return nil
}

// AssignCountFor counts how many technicians are currently Assign for key.
func (s *Solution) AssignCountFor(key schedenv.ActivityKey) int {
	n := 0
	for cell, d := range s.State {
		if cell.Key == key && d == tierstate.Assign {
			n++
		}
	}
	return n
}

// CellsFor returns every cell addressing key, technician-id ascending.
func (s *Solution) CellsFor(key schedenv.ActivityKey) []tierstate.Cell {
	var out []tierstate.Cell
	for cell := range s.State {
		if cell.Key == key {
			out = append(out, cell)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Technician < out[j].Technician })
	return out
}
