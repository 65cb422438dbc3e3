package gbdt

import "testing"

func TestSparseSplitProposalsFindBin(t *testing.T) {
	// feature 0: thresholds [1, 3, 5]; feature 1: thresholds [10]
	thresholds := []float64{1, 3, 5, 10}
	rowPointers := []int32{0, 3, 4}
	proposals := NewSparseSplitProposals(thresholds, rowPointers)

	if got := proposals.NumFeatures(); got != 2 {
		t.Fatalf("NumFeatures() = %d, want 2", got)
	}
	if got := proposals.HistogramSize(); got != 4 {
		t.Fatalf("HistogramSize() = %d, want 4", got)
	}

	cases := []struct {
		x float64
		f int
		want int
	}{
		{0, 0, 0},   // <= 1 -> bin 0
		{1, 0, 0},   // == 1 -> bin 0
		{2, 0, 1},   // <= 3 -> bin 1
		{5, 0, 2},   // == 5 -> bin 2
		{6, 0, NotFound},
		{10, 1, 3},
		{11, 1, NotFound},
	}
	for _, c := range cases {
		if got := proposals.FindBin(c.x, c.f); got != c.want {
			t.Errorf("FindBin(%v, %d) = %d, want %d", c.x, c.f, got, c.want)
		}
	}
}

func TestSparseSplitProposalsFeatureRange(t *testing.T) {
	thresholds := []float32{1, 2, 3}
	rowPointers := []int32{0, 2, 3}
	proposals := NewSparseSplitProposals(thresholds, rowPointers)

	begin, end := proposals.FeatureRange(0)
	if begin != 0 || end != 2 {
		t.Errorf("FeatureRange(0) = (%d, %d), want (0, 2)", begin, end)
	}
	begin, end = proposals.FeatureRange(1)
	if begin != 2 || end != 3 {
		t.Errorf("FeatureRange(1) = (%d, %d), want (2, 3)", begin, end)
	}
}
