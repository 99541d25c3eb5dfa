package counter

import "sync/atomic"

// Counter is a concurrency-safe counter with explicit decrement, used for
// tracking in-flight work.
type Counter struct {
	value atomic.Uint64
}

func (c *Counter) Store(n uint64) { c.value.Store(n) }

func (c *Counter) Load() uint64 { return c.value.Load() }

func (c *Counter) Dec() { c.value.Add(^uint64(0)) }

func (c *Counter) Inc() uint64 { return c.value.Add(1) }
