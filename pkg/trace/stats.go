package trace

import "sync/atomic"

// Stats counts the rays cast since the tracer was created or last reset.
type Stats struct {
	PrimaryRays    int64 // one per pixel
	ShadowRays     int64 // one per lit light per hit
	ReflectionRays int64 // one per mirror bounce
	DeepestBounce  int64 // highest recursion depth that hit geometry
}

type counters struct {
	primary    atomic.Int64
	shadow     atomic.Int64
	reflection atomic.Int64
	deepest    atomic.Int64
}

func (c *counters) reached(depth int) {
	d := int64(depth)
	for {
		cur := c.deepest.Load()
		if d <= cur || c.deepest.CompareAndSwap(cur, d) {
			return
		}
	}
}

// Stats returns a snapshot of the ray counters.
func (t *Tracer) Stats() Stats {
	return Stats{
		PrimaryRays:    t.stats.primary.Load(),
		ShadowRays:     t.stats.shadow.Load(),
		ReflectionRays: t.stats.reflection.Load(),
		DeepestBounce:  t.stats.deepest.Load(),
	}
}

// ResetStats zeroes the ray counters.
func (t *Tracer) ResetStats() {
	t.stats.primary.Store(0)
	t.stats.shadow.Store(0)
	t.stats.reflection.Store(0)
	t.stats.deepest.Store(0)
}
