package gbdt

import "context"

// AllReducer sums a contiguous array of float64s across every shard
// participating in a build, in place, and broadcasts the result. It is the
// one external collaborator this package depends on; shardrt.Coordinator
// ships a concrete in-process implementation.
type AllReducer interface {
	SumAllReduce(ctx context.Context, data []float64) error
}
