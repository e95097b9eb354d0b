// Package snapshot implements the shared-solution snapshot: an atomically
// swappable, immutable composite of the four tiers' solution slices,
// published via read-copy-update (RCU) so readers never block writers and
// writers never block each other beyond a compare-and-swap retry loop.
package snapshot

import (
	"sync/atomic"
)

// Tier names the four cooperating optimization tiers.
type Tier string

const (
	TierStrategic   Tier = "strategic"
	TierTactical    Tier = "tactical"
	TierSupervisor  Tier = "supervisor"
	TierOperational Tier = "operational"
)

// Composite is the immutable, published view of all four tiers' current
// solutions for one asset. Fields hold opaque slice values (interface{})
// so this package stays independent of the tier packages that produce
// them — each tier owns and type-asserts its own slice type.
type Composite struct {
	Version    uint64
	Strategic  interface{}
	Tactical   interface{}
	Supervisor interface{}
	// Operational is keyed by technician id since there is one
	// operational solution per technician, not per tier.
	Operational map[string]interface{}
}

// clone makes a shallow copy of c, sufficient for RCU: tier slice values
// themselves are treated as immutable-once-published, so only the
// composite's own map needs a fresh backing array.
func (c *Composite) clone() *Composite {
	next := &Composite{
		Version:     c.Version + 1,
		Strategic:   c.Strategic,
		Tactical:    c.Tactical,
		Supervisor:  c.Supervisor,
		Operational: make(map[string]interface{}, len(c.Operational)),
	}
	for k, v := range c.Operational {
		next.Operational[k] = v
	}
	return next
}

// Publisher holds the atomic pointer to the current Composite and
// implements RCU publication.
type Publisher struct {
	current atomic.Pointer[Composite]
}

// NewPublisher returns a Publisher seeded with an empty composite.
func NewPublisher() *Publisher {
	p := &Publisher{}
	p.current.Store(&Composite{Operational: make(map[string]interface{})})
	return p
}

// Load returns a handle to the currently published composite. The
// returned pointer is immutable; callers must never mutate it.
func (p *Publisher) Load() *Composite {
	return p.current.Load()
}

// SwapTier performs an RCU update of a single non-operational tier slice:
// load current, clone, overwrite, compare-and-swap, retry on conflict.
func (p *Publisher) SwapTier(tier Tier, newSlice interface{}) *Composite {
	for {
		cur := p.current.Load()
		next := cur.clone()
		switch tier {
		case TierStrategic:
			next.Strategic = newSlice
		case TierTactical:
			next.Tactical = newSlice
		case TierSupervisor:
			next.Supervisor = newSlice
		default:
			panic("snapshot: SwapTier called with operational tier; use SwapOperational")
		}
		if p.current.CompareAndSwap(cur, next) {
			return next
		}
		// Transient RCU CAS conflict: retried silently.
	}
}

// SwapOperational performs an RCU update of one technician's operational
// slice, leaving every other technician's slice untouched.
func (p *Publisher) SwapOperational(technicianID string, newSlice interface{}) *Composite {
	for {
		cur := p.current.Load()
		next := cur.clone()
		next.Operational[technicianID] = newSlice
		if p.current.CompareAndSwap(cur, next) {
			return next
		}
	}
}
