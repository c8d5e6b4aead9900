package graph

import "sync/atomic"

// atomicCounter is a tiny wrapper around atomic.Int64 used for Graph.Size,
// which workers read far more often than they mutate and which must stay
// accurate without forcing every InsertVertex through a global lock.
type atomicCounter struct {
	v atomic.Int64
}

func (c *atomicCounter) add(delta int64) { c.v.Add(delta) }
func (c *atomicCounter) load() int       { return int(c.v.Load()) }
func (c *atomicCounter) store(v int64)   { c.v.Store(v) }
