package gbdt

import "sort"

// Numeric is the element type of a feature matrix: the builder is
// monomorphized over exactly these two types.
type Numeric interface {
	float32 | float64
}

// NotFound is the sentinel FindBin returns when a value exceeds every
// threshold proposed for its feature.
const NotFound = -1

// SparseSplitProposals is a sparse compressed-row representation of
// candidate split thresholds, one sorted-unique range per feature.
type SparseSplitProposals[T Numeric] struct {
	// Thresholds holds the concatenated sorted-unique candidate
	// thresholds of every feature, feature-major.
	Thresholds []T
	// RowPointers[f] is the offset of feature f's range in Thresholds;
	// feature f occupies [RowPointers[f], RowPointers[f+1]).
	RowPointers []int32
}

// NewSparseSplitProposals builds a proposals table from already sorted,
// already per-feature-deduplicated threshold ranges and their prefix
// offsets. Callers normally obtain a SparseSplitProposals via
// SelectSplitSamples rather than constructing one directly.
func NewSparseSplitProposals[T Numeric](thresholds []T, rowPointers []int32) *SparseSplitProposals[T] {
	return &SparseSplitProposals[T]{Thresholds: thresholds, RowPointers: rowPointers}
}

// NumFeatures returns the number of features the proposals table covers.
func (s *SparseSplitProposals[T]) NumFeatures() int {
	if len(s.RowPointers) == 0 {
		return 0
	}
	return len(s.RowPointers) - 1
}

// HistogramSize returns the total number of bins across all features.
func (s *SparseSplitProposals[T]) HistogramSize() int {
	if len(s.RowPointers) == 0 {
		return 0
	}
	return int(s.RowPointers[len(s.RowPointers)-1])
}

// FeatureRange returns the half-open bin range [begin, end) owned by
// feature f.
func (s *SparseSplitProposals[T]) FeatureRange(f int) (begin, end int) {
	return int(s.RowPointers[f]), int(s.RowPointers[f+1])
}

// FindBin returns the smallest bin index b in feature f's range such that
// Thresholds[b] >= x, i.e. the bin whose split "x <= threshold" a row with
// value x would take on the left. Returns NotFound if x exceeds every
// threshold of f.
func (s *SparseSplitProposals[T]) FindBin(x T, f int) int {
	begin, end := s.FeatureRange(f)
	width := end - begin
	if width == 0 {
		return NotFound
	}
	offset := sort.Search(width, func(i int) bool {
		return s.Thresholds[begin+i] >= x
	})
	if offset == width {
		return NotFound
	}
	return begin + offset
}
