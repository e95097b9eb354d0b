package supervisor

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/oceanridge/ordinator/internal/actor"
	"github.com/oceanridge/ordinator/internal/schedenv"
	"github.com/oceanridge/ordinator/internal/snapshot"
	"github.com/oceanridge/ordinator/internal/strategic"
	"github.com/oceanridge/ordinator/internal/tierstate"
)

// PublishedSlice is the immutable value the supervisor tier publishes to
// the shared snapshot.
type PublishedSlice = tierstate.SupervisorSlice

// Objective is the supervisor tier's fraction-assigned scalar objective:
// higher is better, unlike every other tier.
type Objective struct {
	Fraction float64
	Scaled   int
	Weighted float64
}

// Better implements actor.Objective.
func (o Objective) Better(other actor.Objective) bool {
	return o.Weighted > other.(Objective).Weighted
}

// Algorithm is the supervisor tier's actor.Algorithm implementation.
type Algorithm struct {
	Asset     string
	Env       *schedenv.Environment
	Params    *Parameters
	Solution  *Solution
	publisher *snapshot.Publisher
}

// NewAlgorithm constructs a ready-to-run supervisor algorithm.
func NewAlgorithm(asset string, env *schedenv.Environment, params *Parameters, pub *snapshot.Publisher) *Algorithm {
	return &Algorithm{Asset: asset, Env: env, Params: params, Solution: NewSolution(), publisher: pub}
}

type candidate struct {
	tech schedenv.TechnicianID
	cost uint64
}

// Schedule ranks technician candidates by MarginalFitness and flips
// Assess cells to Assign until each activity's crew_size is filled.
func (a *Algorithm) Schedule(ctx context.Context) error {
	composite := a.publisher.Load()

	for key, ap := range a.Params.Activities {
		var candidates []candidate
		for techID, raw := range composite.Operational {
			opSlice, ok := raw.(tierstate.OperationalSlice)
			if !ok {
				continue
			}
			fitness, ok := opSlice.Fitness[key]
			if !ok || !fitness.Scheduled {
				continue
			}
			candidates = append(candidates, candidate{tech: schedenv.TechnicianID(techID), cost: fitness.Cost})
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].cost != candidates[j].cost {
				return candidates[i].cost < candidates[j].cost
			}
			return candidates[i].tech < candidates[j].tech // tie-break deterministically by technician id
		})

		need := ap.CrewSize - a.Solution.AssignCountFor(key)

		for _, c := range candidates {
			cell := tierstate.Cell{Technician: c.tech, Key: key}
			current, ok := a.Solution.State[cell]
			if !ok || current != tierstate.Assess {
				continue // Fixed/Done/Unassign/already-Assign rows are left untouched
			}
			if need > 0 {
				if err := a.Solution.Transition(cell, tierstate.Assign); err != nil {
					return err
				}
				need--
			} else if err := a.Solution.Transition(cell, tierstate.Unassign); err != nil {
				return err
			}
		}
	}
	return nil
}

// resetToAssess walks a cell back to Assess, routing through Unassign
// when necessary since Assign -> Assess is not a direct transition.
func (a *Algorithm) resetToAssess(cell tierstate.Cell) error {
	current := a.Solution.State[cell]
	switch current {
	case tierstate.Assess:
		return nil
	case tierstate.Assign:
		if err := a.Solution.Transition(cell, tierstate.Unassign); err != nil {
			return err
		}
		fallthrough
	case tierstate.Unassign:
		return a.Solution.Transition(cell, tierstate.Assess)
	default:
		return nil // Fixed/Done are never reset by destroy
	}
}

// Unschedule picks k work orders and resets all their cells to Assess.
func (a *Algorithm) Unschedule(ctx context.Context, rng *rand.Rand) error {
	seen := make(map[schedenv.WorkOrderNumber]struct{})
	for key := range a.Params.Activities {
		seen[key.WorkOrder] = struct{}{}
	}
	list := make([]schedenv.WorkOrderNumber, 0, len(seen))
	for wo := range seen {
		list = append(list, wo)
	}
	rng.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })

	k := a.Params.Options.NumberOfRemovedWorkOrders
	if k > len(list) {
		k = len(list)
	}

	for i := 0; i < k; i++ {
		wo := list[i]
		for cell := range a.Solution.State {
			if cell.Key.WorkOrder != wo {
				continue
			}
			if err := a.resetToAssess(cell); err != nil {
				return err
			}
		}
	}
	return nil
}

// ObjectiveValue is the fraction of known activities with at least one
// Assign, scaled to an integer 0..1000.
func (a *Algorithm) ObjectiveValue() actor.Objective {
	total := len(a.Params.Activities)
	if total == 0 {
		return Objective{}
	}
	assigned := 0
	for key := range a.Params.Activities {
		if a.Solution.AssignCountFor(key) > 0 {
			assigned++
		}
	}
	fraction := float64(assigned) / float64(total)
	return Objective{Fraction: fraction, Scaled: int(fraction * 1000), Weighted: fraction}
}

// IncorporateSharedState folds the strategic tier's latest published
// slice into this supervisor's activity set: newly-landed activities
// within the period window get an Assess row per skilled technician;
// activities no longer strategic-scheduled in this window are dropped.
func (a *Algorithm) IncorporateSharedState(ctx context.Context) error {
	composite := a.publisher.Load()
	stratSlice, ok := composite.Strategic.(strategic.PublishedSlice)
	if !ok {
		return nil
	}

	current := make(map[schedenv.ActivityKey]ActivityParameter)
	for number, period := range stratSlice.Assignment {
		if period < 0 {
			continue
		}
		if _, inWindow := a.Params.PeriodWindow[period]; !inWindow {
			continue
		}
		wo, ok := a.Env.WorkOrder(number)
		if !ok || !wo.IsReleased() {
			continue
		}
		for actNum, op := range wo.Operations {
			key := schedenv.ActivityKey{WorkOrder: number, Activity: actNum}
			current[key] = ActivityParameter{Resource: op.Resource, CrewSize: op.CrewSize}
		}
	}

	for key, ap := range current {
		if _, known := a.Params.Activities[key]; known {
			continue
		}
		a.Params.Activities[key] = ap
		for _, tech := range a.Env.Technicians(a.Asset) {
			if !tech.HasSkill(ap.Resource) {
				continue
			}
			cell := tierstate.Cell{Technician: tech.ID, Key: key}
			if _, exists := a.Solution.State[cell]; !exists {
				a.Solution.State[cell] = tierstate.Assess
			}
		}
	}

	for key := range a.Params.Activities {
		if _, ok := current[key]; ok {
			continue
		}
		delete(a.Params.Activities, key)
		for cell := range a.Solution.State {
			if cell.Key == key {
				delete(a.Solution.State, cell)
			}
		}
	}
	return nil
}

// Publish atomically publishes the Delegate state machine to the shared
// snapshot.
func (a *Algorithm) Publish(ctx context.Context) error {
	state := make(map[tierstate.Cell]tierstate.Delegate, len(a.Solution.State))
	for k, v := range a.Solution.State {
		state[k] = v
	}
	a.publisher.SwapTier(snapshot.TierSupervisor, PublishedSlice{State: state})
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

// Request is a supervisor-tier status/query request, routed by the
// orchestrator from apienvelope.SupervisorRequest.
type Request struct {
	Kind string // "status" | "assignment"
}

// HandleMessage implements actor.MessageHandler.
func (a *Algorithm) HandleMessage(ctx context.Context, payload any) (any, error) {
	req, ok := payload.(Request)
	if !ok {
		return nil, fmt.Errorf("supervisor: unsupported request payload %T", payload)
	}
	switch req.Kind {
	case "status":
		return map[string]any{
			"asset":     a.Asset,
			"objective": a.ObjectiveValue(),
			"cells":     len(a.Solution.State),
		}, nil
	case "assignment":
		state := make(map[tierstate.Cell]tierstate.Delegate, len(a.Solution.State))
		for k, v := range a.Solution.State {
			state[k] = v
		}
		return PublishedSlice{State: state}, nil
	default:
		return nil, fmt.Errorf("supervisor: unknown request kind %q", req.Kind)
	}
}
