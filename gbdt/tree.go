package gbdt

import "gonum.org/v1/gonum/mat"

// Tree is a mutable, dense node-indexed regression tree. Capacity is fixed
// at construction to 2^(maxDepth+1)-1 nodes addressed by the standard
// implicit-binary-heap scheme: root is node 0, children of n are 2n+1 and
// 2n+2. A node is a leaf iff Feature[n] == -1.
type Tree struct {
	NumOutputs int

	Feature    []int32
	SplitValue []float64
	Gain       []float64

	// LeafValue, Gradient, and Hessian are (MaxNodes, NumOutputs) dense
	// matrices. Gradient is training-only scratch state: it lets
	// PerformBestSplit recover a node's (G, H) without re-deriving it from
	// the histogram. It is not one of the five task outputs (leaf value,
	// feature, split value, gain, hessian), though Tree's JSON form
	// includes it.
	LeafValue *mat.Dense
	Gradient  *mat.Dense
	Hessian   *mat.Dense
}

// NewTree allocates a Tree with every node initialised as a leaf
// (Feature == -1) and every numeric buffer zeroed.
func NewTree(maxNodes, numOutputs int) *Tree {
	feature := make([]int32, maxNodes)
	for i := range feature {
		feature[i] = -1
	}
	return &Tree{
		NumOutputs: numOutputs,
		Feature:    feature,
		SplitValue: make([]float64, maxNodes),
		Gain:       make([]float64, maxNodes),
		LeafValue:  mat.NewDense(maxNodes, numOutputs, nil),
		Gradient:   mat.NewDense(maxNodes, numOutputs, nil),
		Hessian:    mat.NewDense(maxNodes, numOutputs, nil),
	}
}

// MaxNodes returns the tree's node capacity.
func (t *Tree) MaxNodes() int { return len(t.Feature) }

// IsLeaf reports whether node is currently a leaf.
func (t *Tree) IsLeaf(node int) bool { return t.Feature[node] == -1 }

// AddSplit turns node into an internal split on featureID at threshold,
// and writes the two children's leaf value, gradient, and hessian. It does
// not mark the children internal — they remain leaves until themselves
// split at a later depth.
func (t *Tree) AddSplit(
	node int,
	featureID int32,
	threshold float64,
	gain float64,
	leftLeaf, rightLeaf []float64,
	gradLeft, gradRight []float64,
	hessLeft, hessRight []float64,
) {
	t.Feature[node] = featureID
	t.SplitValue[node] = threshold
	t.Gain[node] = gain

	left, right := LeftChild(node), RightChild(node)
	for o := 0; o < t.NumOutputs; o++ {
		t.Gradient.Set(left, o, gradLeft[o])
		t.Gradient.Set(right, o, gradRight[o])
		t.Hessian.Set(left, o, hessLeft[o])
		t.Hessian.Set(right, o, hessRight[o])
		t.LeafValue.Set(left, o, leftLeaf[o])
		t.LeafValue.Set(right, o, rightLeaf[o])
	}
}
