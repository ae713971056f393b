package memory

import (
	"context"
	"math/rand/v2"
	"time"
)

// Latency is the simulated per-call delay of the memory backend, drawn
// uniformly from [Min, Max].
type Latency struct {
	Min time.Duration
	Max time.Duration
}

func (l Latency) next() time.Duration {
	if l.Max <= l.Min {
		return l.Min
	}
	return l.Min + rand.N(l.Max-l.Min+1)
}

func (l Latency) wait(ctx context.Context) error {
	d := l.next()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
