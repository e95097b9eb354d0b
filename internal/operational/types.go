// Package operational implements the minute-level per-technician timeline
// tier: inserting candidate activities into the earliest feasible gap in
// a technician's day, bounded by availability and off-shift/break/toolbox
// bands, and reporting back a MarginalFitness cost to the supervisor.
package operational

import (
	"sort"
	"time"

	"github.com/oceanridge/ordinator/internal/schedenv"
	"github.com/oceanridge/ordinator/internal/tierstate"
)

// EventType names one sub-event inside an Assignment.
type EventType int

const (
	EventTravel EventType = iota
	EventPrep
	EventWork
	EventUnwind
	EventUnavailable
)

func (e EventType) String() string {
	switch e {
	case EventTravel:
		return "travel"
	case EventPrep:
		return "prep"
	case EventWork:
		return "work"
	case EventUnwind:
		return "unwind"
	case EventUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Event is one timed sub-interval within an Assignment. Delta must equal
// Finish.Sub(Start).
type Event struct {
	Type   EventType
	Start  time.Time
	Finish time.Time
}

// Delta returns the event's declared duration.
func (e Event) Delta() time.Duration { return e.Finish.Sub(e.Start) }

// Assignment is one candidate activity's placement on the timeline: a
// non-empty, time-ordered list of sub-events.
type Assignment struct {
	Key    schedenv.ActivityKey
	Events []Event
}

// Start returns the assignment's first event's start time.
func (a Assignment) Start() time.Time { return a.Events[0].Start }

// Finish returns the assignment's last event's finish time.
func (a Assignment) Finish() time.Time { return a.Events[len(a.Events)-1].Finish }

// WorkHours sums the duration of this assignment's work events, in hours.
func (a Assignment) WorkHours() float64 {
	var total time.Duration
	for _, e := range a.Events {
		if e.Type == EventWork {
			total += e.Delta()
		}
	}
	return total.Hours()
}

// Options configures the operational tier's destroy neighborhood and
// objective weight, loaded from actor_options/operational_options.toml.
type Options struct {
	NumberOfRemovedAssignments int
	FitnessWeight              float64
	DefaultPreparationTime     time.Duration
}

// DefaultOptions mirrors the magnitudes used elsewhere in the corpus.
func DefaultOptions() Options {
	return Options{
		NumberOfRemovedAssignments: 2,
		FitnessWeight:              1.0,
		DefaultPreparationTime:     15 * time.Minute,
	}
}

// CandidateParameter is one activity's operational-relevant view.
type CandidateParameter struct {
	Resource         schedenv.Resource
	RemainingWork    schedenv.Work
	PreparationTime  time.Duration
}

// Parameters is one technician's full operational input.
type Parameters struct {
	TechnicianID schedenv.TechnicianID
	Availability schedenv.Availability
	OffShift     schedenv.TimeOfDayBand
	Break        schedenv.TimeOfDayBand
	Toolbox      schedenv.TimeOfDayBand
	HoursPerDay  schedenv.Work
	Candidates   map[schedenv.ActivityKey]CandidateParameter
	DayZero      time.Time // midnight of the horizon's first day
	DayEnd       time.Time // 23:59:59 of the horizon's last day
	Options      Options
}

// Solution is one technician's current timeline: two permanent
// unavailability bookends plus zero or more real candidate assignments,
// strictly ordered and pairwise non-overlapping.
type Solution struct {
	StartBookend Event
	EndBookend   Event
	Assignments  []Assignment
	Fitness      map[schedenv.ActivityKey]tierstate.Fitness
}

// NewSolution returns an empty timeline framed by its two bookends, with
// every known candidate starting at MarginalFitness::None.
func NewSolution(params *Parameters) *Solution {
	s := &Solution{
		StartBookend: Event{Type: EventUnavailable, Start: params.DayZero, Finish: params.Availability.Start},
		EndBookend:   Event{Type: EventUnavailable, Start: params.Availability.End, Finish: params.DayEnd},
		Fitness:      make(map[schedenv.ActivityKey]tierstate.Fitness, len(params.Candidates)),
	}
	for key := range params.Candidates {
		s.Fitness[key] = tierstate.Fitness{}
	}
	return s
}

// Clone returns a deep-enough copy for checkpoint/restore.
func (s *Solution) Clone() *Solution {
	next := &Solution{
		StartBookend: s.StartBookend,
		EndBookend:   s.EndBookend,
		Assignments:  make([]Assignment, len(s.Assignments)),
		Fitness:      make(map[schedenv.ActivityKey]tierstate.Fitness, len(s.Fitness)),
	}
	for i, a := range s.Assignments {
		events := make([]Event, len(a.Events))
		copy(events, a.Events)
		next.Assignments[i] = Assignment{Key: a.Key, Events: events}
	}
	for k, v := range s.Fitness {
		next.Fitness[k] = v
	}
	return next
}

// gap is a candidate insertion window between two adjacent timeline
// entries (bookends count as entries).
type gap struct {
	from, to time.Time
}

// gaps returns the timeline's open windows in ascending order, assuming
// Assignments is already sorted by Start.
func (s *Solution) gaps() []gap {
	out := make([]gap, 0, len(s.Assignments)+1)
	prev := s.StartBookend.Finish
	for _, a := range s.Assignments {
		out = append(out, gap{from: prev, to: a.Start()})
		prev = a.Finish()
	}
	out = append(out, gap{from: prev, to: s.EndBookend.Start})
	return out
}

func (s *Solution) insert(a Assignment) {
	s.Assignments = append(s.Assignments, a)
	sort.Slice(s.Assignments, func(i, j int) bool { return s.Assignments[i].Start().Before(s.Assignments[j].Start()) })
}

func (s *Solution) remove(key schedenv.ActivityKey) {
	out := s.Assignments[:0]
	for _, a := range s.Assignments {
		if a.Key != key {
			out = append(out, a)
		}
	}
	s.Assignments = out
}

func (s *Solution) find(key schedenv.ActivityKey) (Assignment, bool) {
	for _, a := range s.Assignments {
		if a.Key == key {
			return a, true
		}
	}
	return Assignment{}, false
}
