// Package gbdt builds a single gradient-boosted regression tree from a
// horizontally sharded feature matrix plus per-row gradient/hessian
// statistics. It combines a sparse per-feature bucketization of candidate
// split thresholds, a per-level tree-growth state machine with
// sibling-subtraction histogram construction, and best-split selection
// under L2 regularization.
//
// The package does not itself partition data across shards or implement the
// all-reduce primitive that makes per-shard histograms equivalent to a
// global histogram before any split decision — see package shardrt for a
// runnable in-process reference implementation of that collaborator.
package gbdt
