package snapshot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwapTierIsVisibleToNewLoaders(t *testing.T) {
	p := NewPublisher()
	p.SwapTier(TierStrategic, "strategic-v1")

	got := p.Load()
	assert.Equal(t, "strategic-v1", got.Strategic)
	assert.Nil(t, got.Tactical)
}

func TestConcurrentSwapsNeverLoseUpdatesAcrossTiers(t *testing.T) {
	p := NewPublisher()
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			p.SwapTier(TierStrategic, i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			p.SwapTier(TierTactical, i)
		}
	}()
	wg.Wait()

	final := p.Load()
	assert.Equal(t, 49, final.Strategic)
	assert.Equal(t, 49, final.Tactical)
}

func TestOperationalSwapLeavesOtherTechniciansUntouched(t *testing.T) {
	p := NewPublisher()
	p.SwapOperational("tech-a", "solution-a-v1")
	p.SwapOperational("tech-b", "solution-b-v1")

	snap := p.Load()
	assert.Equal(t, "solution-a-v1", snap.Operational["tech-a"])
	assert.Equal(t, "solution-b-v1", snap.Operational["tech-b"])

	p.SwapOperational("tech-a", "solution-a-v2")
	snap2 := p.Load()
	assert.Equal(t, "solution-a-v2", snap2.Operational["tech-a"])
	assert.Equal(t, "solution-b-v1", snap2.Operational["tech-b"])
}

func TestReadersNeverObserveTornComposite(t *testing.T) {
	p := NewPublisher()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			p.SwapTier(TierStrategic, i)
		}
	}()

	for i := 0; i < 200; i++ {
		snap := p.Load()
		_ = snap.Version // any loaded composite must be internally coherent
	}
	<-done
}
