package integrator

import "sync/atomic"

// Counters tracks ray and photon counts across all workers
type Counters struct {
	primary  atomic.Int64
	shadow   atomic.Int64
	indirect atomic.Int64
	photons  atomic.Int64
	splats   atomic.Int64
	maxDepth atomic.Int64
}

// CounterSnapshot is a point-in-time copy of Counters
type CounterSnapshot struct {
	PrimaryRays     int64
	ShadowRays      int64
	IndirectRays    int64
	Photons         int64
	Splats          int64
	MaxDepthReached int // Deepest recursion frame that shaded a hit
}

// Snapshot returns the current counts
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		PrimaryRays:     c.primary.Load(),
		ShadowRays:      c.shadow.Load(),
		IndirectRays:    c.indirect.Load(),
		Photons:         c.photons.Load(),
		Splats:          c.splats.Load(),
		MaxDepthReached: int(c.maxDepth.Load()),
	}
}

// observeDepth records that a frame at depth shaded a hit
func (c *Counters) observeDepth(depth int) {
	d := int64(depth)
	for {
		current := c.maxDepth.Load()
		if d <= current || c.maxDepth.CompareAndSwap(current, d) {
			return
		}
	}
}
