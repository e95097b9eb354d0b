package operational

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/oceanridge/ordinator/internal/actor"
	"github.com/oceanridge/ordinator/internal/schedenv"
	"github.com/oceanridge/ordinator/internal/snapshot"
	"github.com/oceanridge/ordinator/internal/tierstate"
)

// PublishedSlice is the immutable value one technician's operational
// actor publishes to the shared snapshot.
type PublishedSlice = tierstate.OperationalSlice

// Objective is the operational tier's convex-penalty scalar objective:
// lower is better.
type Objective struct {
	Weighted float64
}

// Better implements actor.Objective.
func (o Objective) Better(other actor.Objective) bool {
	return o.Weighted < other.(Objective).Weighted
}

// Algorithm is the operational tier's actor.Algorithm implementation —
// one instance per technician.
type Algorithm struct {
	Asset     string
	Env       *schedenv.Environment
	Params    *Parameters
	Solution  *Solution
	publisher *snapshot.Publisher
}

// NewAlgorithm constructs a ready-to-run operational algorithm for one
// technician.
func NewAlgorithm(asset string, env *schedenv.Environment, params *Parameters, pub *snapshot.Publisher) *Algorithm {
	return &Algorithm{
		Asset:     asset,
		Env:       env,
		Params:    params,
		Solution:  NewSolution(params),
		publisher: pub,
	}
}

// NewParameters builds operational Parameters for one technician from
// the environment and horizon bounds.
func NewParameters(tech *schedenv.Technician, dayZero, dayEnd time.Time, opts Options) *Parameters {
	return &Parameters{
		TechnicianID: tech.ID,
		Availability: tech.Availability,
		OffShift:     tech.OffShift,
		Break:        tech.Break,
		Toolbox:      tech.Toolbox,
		HoursPerDay:  tech.HoursPerDay,
		Candidates:   make(map[schedenv.ActivityKey]CandidateParameter),
		DayZero:      dayZero,
		DayEnd:       dayEnd,
		Options:      opts,
	}
}

// Schedule attempts to insert every not-yet-scheduled candidate into the
// earliest feasible gap.
func (a *Algorithm) Schedule(ctx context.Context) error {
	for key, cp := range a.Params.Candidates {
		if existing, ok := a.Solution.Fitness[key]; ok && existing.Scheduled {
			continue
		}
		a.tryInsert(key, cp)
	}
	return nil
}

func (a *Algorithm) tryInsert(key schedenv.ActivityKey, cp CandidateParameter) {
	needed := cp.PreparationTime + workDuration(cp.RemainingWork) + cp.PreparationTime

	for _, g := range a.Solution.gaps() {
		if g.to.Sub(g.from) < needed {
			continue
		}
		workStart := g.from.Add(cp.PreparationTime)
		workFinish := workStart.Add(workDuration(cp.RemainingWork))
		unwindFinish := workFinish.Add(cp.PreparationTime)
		if unwindFinish.After(g.to) {
			continue
		}
		if a.overlapsNonWork(workStart, workFinish) {
			continue
		}

		events := make([]Event, 0, 3)
		if cp.PreparationTime > 0 {
			events = append(events, Event{Type: EventPrep, Start: g.from, Finish: workStart})
		}
		events = append(events, Event{Type: EventWork, Start: workStart, Finish: workFinish})
		if cp.PreparationTime > 0 {
			events = append(events, Event{Type: EventUnwind, Start: workFinish, Finish: unwindFinish})
		}

		a.Solution.insert(Assignment{Key: key, Events: events})
		a.Solution.Fitness[key] = tierstate.Fitness{
			Scheduled: true,
			Cost:      uint64(workFinish.Sub(a.Params.Availability.Start).Seconds()),
		}
		return
	}

	a.Solution.Fitness[key] = tierstate.Fitness{}
}

func workDuration(w schedenv.Work) time.Duration {
	return time.Duration(w.Seconds()) * time.Second
}

// overlapsNonWork reports whether any instant sampled from start in
// one-hour steps, up to and including finish, falls inside an off-shift,
// break or toolbox band. Instants between samples are not checked.
func (a *Algorithm) overlapsNonWork(start, finish time.Time) bool {
	bands := []schedenv.TimeOfDayBand{a.Params.OffShift, a.Params.Break, a.Params.Toolbox}
	for t := start; !t.After(finish); t = t.Add(time.Hour) {
		offset := timeOfDay(t)
		for _, b := range bands {
			if b.Contains(offset) {
				return true
			}
		}
	}
	return false
}

func timeOfDay(t time.Time) (d time.Duration) {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

// Unschedule destroys a random neighborhood of currently scheduled
// assignments.
func (a *Algorithm) Unschedule(ctx context.Context, rng *rand.Rand) error {
	scheduled := make([]schedenv.ActivityKey, 0, len(a.Solution.Assignments))
	for _, asn := range a.Solution.Assignments {
		scheduled = append(scheduled, asn.Key)
	}
	rng.Shuffle(len(scheduled), func(i, j int) { scheduled[i], scheduled[j] = scheduled[j], scheduled[i] })

	k := a.Params.Options.NumberOfRemovedAssignments
	if k > len(scheduled) {
		k = len(scheduled)
	}
	for i := 0; i < k; i++ {
		a.Solution.remove(scheduled[i])
		a.Solution.Fitness[scheduled[i]] = tierstate.Fitness{}
	}
	return nil
}

// ObjectiveValue sums a convex penalty on every scheduled activity's
// fitness cost.
func (a *Algorithm) ObjectiveValue() actor.Objective {
	var total float64
	for _, f := range a.Solution.Fitness {
		if !f.Scheduled {
			continue
		}
		cost := float64(f.Cost)
		total += cost * cost
	}
	return Objective{Weighted: total * a.Params.Options.FitnessWeight}
}

// IncorporateSharedState folds the supervisor's latest published
// Delegate rows into this technician's candidate set: Assess/Assign
// cells addressed to this technician become (or stay) candidates; rows
// the supervisor has dropped are removed and unscheduled.
func (a *Algorithm) IncorporateSharedState(ctx context.Context) error {
	composite := a.publisher.Load()
	supSlice, ok := composite.Supervisor.(tierstate.SupervisorSlice)
	if !ok {
		return nil
	}

	wanted := make(map[schedenv.ActivityKey]struct{})
	for cell, delegate := range supSlice.State {
		if cell.Technician != a.Params.TechnicianID {
			continue
		}
		if delegate != tierstate.Assess && delegate != tierstate.Assign {
			continue
		}
		wanted[cell.Key] = struct{}{}
		if _, known := a.Params.Candidates[cell.Key]; known {
			continue
		}
		wo, ok := a.Env.WorkOrder(cell.Key.WorkOrder)
		if !ok {
			continue
		}
		op, ok := wo.Operations[cell.Key.Activity]
		if !ok {
			continue
		}
		a.Params.Candidates[cell.Key] = CandidateParameter{
			Resource:        op.Resource,
			RemainingWork:   op.RemainingWork(),
			PreparationTime: a.Params.Options.DefaultPreparationTime,
		}
		a.Solution.Fitness[cell.Key] = tierstate.Fitness{}
	}

	for key := range a.Params.Candidates {
		if _, ok := wanted[key]; ok {
			continue
		}
		a.Solution.remove(key)
		delete(a.Params.Candidates, key)
		delete(a.Solution.Fitness, key)
	}
	return nil
}

// Publish atomically publishes this technician's MarginalFitness map to
// the shared snapshot.
func (a *Algorithm) Publish(ctx context.Context) error {
	fitness := make(map[schedenv.ActivityKey]tierstate.Fitness, len(a.Solution.Fitness))
	for k, v := range a.Solution.Fitness {
		fitness[k] = v
	}
	a.publisher.SwapOperational(string(a.Params.TechnicianID), PublishedSlice{TechnicianID: a.Params.TechnicianID, Fitness: fitness})
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

// Request is an operational-tier status request for one technician,
// routed by the orchestrator from apienvelope.OperationalRequest (its
// ForAgent/AllStatus variants resolve to individual technician actors by
// the time they reach here).
type Request struct {
	Kind string // "status"
}

// HandleMessage implements actor.MessageHandler.
func (a *Algorithm) HandleMessage(ctx context.Context, payload any) (any, error) {
	req, ok := payload.(Request)
	if !ok {
		return nil, fmt.Errorf("operational: unsupported request payload %T", payload)
	}
	switch req.Kind {
	case "status":
		scheduled := 0
		for _, f := range a.Solution.Fitness {
			if f.Scheduled {
				scheduled++
			}
		}
		return map[string]any{
			"technician": string(a.Params.TechnicianID),
			"objective":  a.ObjectiveValue(),
			"scheduled":  scheduled,
			"candidates": len(a.Params.Candidates),
		}, nil
	default:
		return nil, fmt.Errorf("operational: unknown request kind %q", req.Kind)
	}
}
