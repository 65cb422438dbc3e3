// Package shardrt is a minimal, in-process reference implementation of the
// partitioned-array runtime that gbdt.BuildTree treats as an external
// collaborator: a fixed set of shards running in lock-step, synchronizing
// only at SumAllReduce calls. It exists so the package's shard-invariance
// property can be exercised by a test without a real distributed runtime.
package shardrt

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// Coordinator is a bulk-synchronous barrier shared by N shards. Each call
// to Handle(i).SumAllReduce blocks until all N shards have submitted a
// buffer of the same length for the current generation; the reduction
// sums buffers in shard-index order — a fixed, deterministic reduction
// tree — and broadcasts the sum back to every caller before releasing the
// barrier.
type Coordinator struct {
	n int

	mu        sync.Mutex
	cond      *sync.Cond
	arrived   int
	buffers   [][]float64
	result    []float64
	err       error
	generation int
}

// NewCoordinator builds a Coordinator for exactly n shards.
func NewCoordinator(n int) *Coordinator {
	c := &Coordinator{n: n, buffers: make([][]float64, n)}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Handle returns the AllReducer a single shard (identified by its index in
// [0, n)) should use for every SumAllReduce call across the build.
func (c *Coordinator) Handle(shard int) *ShardHandle {
	return &ShardHandle{coord: c, shard: shard}
}

// ShardHandle implements gbdt.AllReducer for one shard of a Coordinator.
type ShardHandle struct {
	coord *Coordinator
	shard int
}

// SumAllReduce blocks until every shard registered with the same
// Coordinator has called SumAllReduce for the current generation, then
// replaces data in place with the element-wise sum across all shards.
func (h *ShardHandle) SumAllReduce(ctx context.Context, data []float64) error {
	c := h.coord

	c.mu.Lock()
	myGen := c.generation
	if c.buffers[h.shard] != nil {
		c.mu.Unlock()
		return errors.Newf("shardrt: shard %d called SumAllReduce twice in one generation", h.shard)
	}
	c.buffers[h.shard] = data
	c.arrived++

	if c.arrived == c.n {
		c.reduceLocked()
		c.cond.Broadcast()
	} else {
		for c.generation == myGen && c.arrived != c.n {
			c.cond.Wait()
		}
	}

	err := c.err
	result := c.result
	c.mu.Unlock()

	if err != nil {
		return err
	}
	copy(data, result)
	return nil
}

// reduceLocked sums every shard's submitted buffer in shard-index order
// and advances to the next generation. Callers must hold c.mu.
func (c *Coordinator) reduceLocked() {
	first := c.buffers[0]
	width := len(first)
	for s := 1; s < c.n; s++ {
		if len(c.buffers[s]) != width {
			c.err = errors.Newf("shardrt: shard %d submitted %d elements, shard 0 submitted %d", s, len(c.buffers[s]), width)
			c.finishGenerationLocked()
			return
		}
	}

	sum := make([]float64, width)
	copy(sum, first)
	for s := 1; s < c.n; s++ {
		buf := c.buffers[s]
		for i, v := range buf {
			sum[i] += v
		}
	}
	c.result = sum
	c.err = nil
	c.finishGenerationLocked()
}

func (c *Coordinator) finishGenerationLocked() {
	for s := range c.buffers {
		c.buffers[s] = nil
	}
	c.arrived = 0
	c.generation++
}
