package gbdt

import (
	"context"
	"math/rand"
	"sort"
)

// SelectSplitSamples draws a reproducible sample of split_samples row
// indices in [0, datasetRows), seeded identically on every shard, gathers
// each sampled row's feature values from whichever shard holds it, and
// all-reduces the result so every shard ends up with the full sample. Each
// feature's sampled values are then sorted and deduplicated into a
// SparseSplitProposals.
func SelectSplitSamples[T Numeric](
	ctx context.Context,
	reducer AllReducer,
	X *Store[T],
	splitSamples int32,
	seed int64,
	datasetRows int64,
) (*SparseSplitProposals[T], error) {
	numFeatures := X.NumFeature
	n := int(splitSamples)

	rows := sampleRowIndices(seed, int64(n), datasetRows)

	// draft is a (numFeatures x n) buffer, feature-major: feature f's
	// sampled values occupy draft[f*n : f*n+n]. A row not owned by this
	// shard contributes zero in every feature's column, so after a sum
	// all-reduce each column holds the value contributed by whichever
	// single shard owned that row.
	draft := make([]T, numFeatures*n)
	for i, r := range rows {
		if !X.ContainsGlobalRow(r) {
			continue
		}
		local := int(r - X.RowOffset)
		for f := 0; f < numFeatures; f++ {
			draft[f*n+i] = X.At(local, f)
		}
	}

	wide := widenToFloat64(draft)
	if err := reducer.SumAllReduce(ctx, wide); err != nil {
		return nil, err
	}
	narrowFromFloat64(wide, draft)

	thresholds := make([]T, 0, numFeatures*n)
	rowPointers := make([]int32, numFeatures+1)
	scratch := make([]T, n)
	for f := 0; f < numFeatures; f++ {
		copy(scratch, draft[f*n:f*n+n])
		sort.Slice(scratch, func(a, b int) bool { return scratch[a] < scratch[b] })
		for i, v := range scratch {
			if i == 0 || v != scratch[i-1] {
				thresholds = append(thresholds, v)
			}
		}
		rowPointers[f+1] = int32(len(thresholds))
	}

	return NewSparseSplitProposals(thresholds, rowPointers), nil
}

// sampleRowIndices deterministically draws n row indices in
// [0, datasetRows) from a generator seeded with seed. Every shard calling
// this with the same (seed, n, datasetRows) produces the identical sequence.
func sampleRowIndices(seed, n, datasetRows int64) []int64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int64, n)
	if datasetRows <= 0 {
		return out
	}
	for i := range out {
		out[i] = rng.Int63n(datasetRows)
	}
	return out
}

func widenToFloat64[T Numeric](src []T) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}

func narrowFromFloat64[T Numeric](src []float64, dst []T) {
	for i, v := range src {
		dst[i] = T(v)
	}
}
