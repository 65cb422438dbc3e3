package gbdt

import (
	"context"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/shardboost/gbdt/shardrt"
)

func TestBuildTreeConstantTarget(t *testing.T) {
	rows := 8
	xData := make([]float64, rows*2)
	for i := range xData {
		xData[i] = float64(i % 5)
	}
	x, err := NewStore(xData, 0, rows, 2)
	if err != nil {
		t.Fatal(err)
	}
	g := mat.NewDense(rows, 1, nil) // all zero
	h := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		h.Set(i, 0, 1)
	}

	params := Params{
		MaxDepth:     3,
		MaxNodes:     int32(MaxNodesForDepth(3)),
		Alpha:        1.0,
		SplitSamples: 8,
		Seed:         1,
		DatasetRows:  int64(rows),
	}

	tree, err := BuildTree[float64](context.Background(), identityReducer{}, x, g, h, params)
	if err != nil {
		t.Fatal(err)
	}

	if !tree.IsLeaf(0) {
		t.Fatalf("root should remain a leaf, got feature=%d", tree.Feature[0])
	}
	if got := tree.LeafValue.At(0, 0); got != 0 {
		t.Errorf("leaf_value[0,0] = %v, want 0", got)
	}
	if got := tree.Hessian.At(0, 0); got != 8 {
		t.Errorf("hessian[0,0] = %v, want 8", got)
	}
	for n := 0; n < tree.MaxNodes(); n++ {
		if tree.Gain[n] != 0 {
			t.Errorf("gain[%d] = %v, want 0", n, tree.Gain[n])
		}
	}
}

func TestBuildTreeSinglePerfectSplit(t *testing.T) {
	x, err := NewStore([]float64{0, 0, 1, 1}, 0, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	g := mat.NewDense(4, 1, []float64{-1, -1, 1, 1})
	h := mat.NewDense(4, 1, []float64{1, 1, 1, 1})

	params := Params{
		MaxDepth:     1,
		MaxNodes:     int32(MaxNodesForDepth(1)),
		Alpha:        0,
		SplitSamples: 4,
		Seed:         1,
		DatasetRows:  4,
	}

	tree, err := BuildTree[float64](context.Background(), identityReducer{}, x, g, h, params)
	if err != nil {
		t.Fatal(err)
	}

	if tree.IsLeaf(0) {
		t.Fatal("root should have split")
	}
	if tree.Feature[0] != 0 {
		t.Errorf("split feature = %d, want 0", tree.Feature[0])
	}
	if tree.SplitValue[0] != 0 {
		t.Errorf("split threshold = %v, want 0", tree.SplitValue[0])
	}
	if got, want := tree.LeafValue.At(1, 0), 1.0; math.Abs(got-want) > 1e-6 {
		t.Errorf("leaf_value[1,0] = %v, want ~%v", got, want)
	}
	if got, want := tree.LeafValue.At(2, 0), -1.0; math.Abs(got-want) > 1e-6 {
		t.Errorf("leaf_value[2,0] = %v, want ~%v", got, want)
	}
	if got, want := tree.Gain[0], 2.0; math.Abs(got-want) > 1e-6 {
		t.Errorf("gain[0] = %v, want %v", got, want)
	}
}

func TestBuildTreeTwoOutputsPreservesGradientSum(t *testing.T) {
	x, err := NewStore([]float64{0, 0, 1, 1}, 0, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	g := mat.NewDense(4, 2, []float64{-1, 1, -1, 1, 1, -1, 1, -1})
	h := mat.NewDense(4, 2, []float64{1, 1, 1, 1, 1, 1, 1, 1})

	params := Params{
		MaxDepth:     1,
		MaxNodes:     int32(MaxNodesForDepth(1)),
		Alpha:        0,
		SplitSamples: 4,
		Seed:         1,
		DatasetRows:  4,
	}

	tree, err := BuildTree[float64](context.Background(), identityReducer{}, x, g, h, params)
	if err != nil {
		t.Fatal(err)
	}
	if tree.IsLeaf(0) {
		t.Fatal("root should have split")
	}
	for o := 0; o < 2; o++ {
		sum := tree.Gradient.At(1, o) + tree.Gradient.At(2, o)
		if math.Abs(sum-tree.Gradient.At(0, o)) > 1e-9 {
			t.Errorf("output %d: children gradient sum %v != parent %v", o, sum, tree.Gradient.At(0, o))
		}
		sumH := tree.Hessian.At(1, o) + tree.Hessian.At(2, o)
		if math.Abs(sumH-tree.Hessian.At(0, o)) > 1e-9 {
			t.Errorf("output %d: children hessian sum %v != parent %v", o, sumH, tree.Hessian.At(0, o))
		}
	}
}

func TestBuildTreeDegenerateFeatureNeverSelected(t *testing.T) {
	// feature 0 varies and is informative; feature 1 is constant.
	xData := []float64{0, 9, 0, 9, 1, 9, 1, 9}
	x, err := NewStore(xData, 0, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	g := mat.NewDense(4, 1, []float64{-1, -1, 1, 1})
	h := mat.NewDense(4, 1, []float64{1, 1, 1, 1})

	params := Params{
		MaxDepth:     1,
		MaxNodes:     int32(MaxNodesForDepth(1)),
		Alpha:        0,
		SplitSamples: 4,
		Seed:         1,
		DatasetRows:  4,
	}

	tree, err := BuildTree[float64](context.Background(), identityReducer{}, x, g, h, params)
	if err != nil {
		t.Fatal(err)
	}
	if tree.IsLeaf(0) {
		t.Fatal("root should have split on the informative feature")
	}
	if tree.Feature[0] != 0 {
		t.Errorf("split feature = %d, want the informative feature 0", tree.Feature[0])
	}
}

func TestBuildTreeMaxDepthZero(t *testing.T) {
	x, err := NewStore([]float64{0, 1, 2}, 0, 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	g := mat.NewDense(3, 1, []float64{1, 2, 3})
	h := mat.NewDense(3, 1, []float64{1, 1, 1})

	params := Params{
		MaxDepth:     0,
		MaxNodes:     int32(MaxNodesForDepth(0)),
		Alpha:        0.5,
		SplitSamples: 3,
		Seed:         1,
		DatasetRows:  3,
	}

	tree, err := BuildTree[float64](context.Background(), identityReducer{}, x, g, h, params)
	if err != nil {
		t.Fatal(err)
	}
	if !tree.IsLeaf(0) {
		t.Fatal("max_depth=0 must produce a root-only tree")
	}
	want := -6.0 / (3.0 + 0.5)
	if got := tree.LeafValue.At(0, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("leaf_value[0,0] = %v, want %v", got, want)
	}
}

func TestBuildTreeShardedEquivalence(t *testing.T) {
	rows := 16
	xData := make([]float64, rows)
	gData := make([]float64, rows)
	hData := make([]float64, rows)
	for i := 0; i < rows; i++ {
		xData[i] = float64(i % 4)
		gData[i] = float64(i%3) - 1
		hData[i] = 1
	}

	params := Params{
		MaxDepth:     2,
		MaxNodes:     int32(MaxNodesForDepth(2)),
		Alpha:        0.1,
		SplitSamples: 16,
		Seed:         99,
		DatasetRows:  int64(rows),
	}

	buildWithShards := func(numShards int) *Tree {
		coord := shardrt.NewCoordinator(numShards)
		shardRows := rows / numShards

		var result *Tree
		done := make(chan *Tree, numShards)
		errs := make(chan error, numShards)
		for s := 0; s < numShards; s++ {
			go func(shard int) {
				lo := shard * shardRows
				hi := lo + shardRows
				x, err := NewStore(xData[lo:hi], int64(lo), shardRows, 1)
				if err != nil {
					errs <- err
					return
				}
				g := mat.NewDense(shardRows, 1, gData[lo:hi])
				h := mat.NewDense(shardRows, 1, hData[lo:hi])
				tree, err := BuildTree[float64](context.Background(), coord.Handle(shard), x, g, h, params)
				if err != nil {
					errs <- err
					return
				}
				done <- tree
			}(s)
		}
		for s := 0; s < numShards; s++ {
			select {
			case tree := <-done:
				result = tree
			case err := <-errs:
				t.Fatal(err)
			}
		}
		return result
	}

	one := buildWithShards(1)
	four := buildWithShards(4)

	for n := 0; n < one.MaxNodes(); n++ {
		if one.Feature[n] != four.Feature[n] {
			t.Fatalf("node %d: feature %d != %d", n, one.Feature[n], four.Feature[n])
		}
		if one.SplitValue[n] != four.SplitValue[n] {
			t.Fatalf("node %d: split_value %v != %v", n, one.SplitValue[n], four.SplitValue[n])
		}
		if one.LeafValue.At(n, 0) != four.LeafValue.At(n, 0) {
			t.Fatalf("node %d: leaf_value %v != %v", n, one.LeafValue.At(n, 0), four.LeafValue.At(n, 0))
		}
	}
}
