package gbdt

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// TreeBuilder owns the per-level state of a single build_tree invocation:
// the row->node position vector and the per-node histogram buffer, plus
// the sibling-subtraction bookkeeping that halves histogram construction
// work at every depth beyond the root.
type TreeBuilder[T Numeric] struct {
	tree       *Tree
	x          *Store[T]
	g, h       *mat.Dense
	proposals  *SparseSplitProposals[T]
	alpha      float64
	positions  []int32
	histogram  []GPair

	numRows       int
	numFeatures   int
	numOutputs    int
	histogramSize int
}

// NewTreeBuilder allocates a builder over tree's node capacity. histogram
// is sized maxNodes*histogramSize*numOutputs and zero-initialized, reused
// across every depth: only the slab owned by the current level is ever
// written.
func NewTreeBuilder[T Numeric](tree *Tree, x *Store[T], g, h *mat.Dense, proposals *SparseSplitProposals[T], alpha float64) *TreeBuilder[T] {
	numOutputs := tree.NumOutputs
	histSize := proposals.HistogramSize()
	return &TreeBuilder[T]{
		tree:          tree,
		x:             x,
		g:             g,
		h:             h,
		proposals:     proposals,
		alpha:         alpha,
		positions:     make([]int32, x.Rows),
		histogram:     make([]GPair, tree.MaxNodes()*histSize*numOutputs),
		numRows:       x.Rows,
		numFeatures:   x.NumFeature,
		numOutputs:    numOutputs,
		histogramSize: histSize,
	}
}

func (b *TreeBuilder[T]) histIndex(node, bin, output int) int {
	return (node*b.histogramSize+bin)*b.numOutputs + output
}

// InitialiseRoot sums (g, h) over every local row per output, all-reduces
// the sum, and writes the root's leaf_value/gradient/hessian. positions is
// already zero-valued for every row, so depth 0 needs no position update.
func (b *TreeBuilder[T]) InitialiseRoot(ctx context.Context, reducer AllReducer) error {
	sums := make([]GPair, b.numOutputs)
	for i := 0; i < b.numRows; i++ {
		for o := 0; o < b.numOutputs; o++ {
			sums[o] = sums[o].Add(GPair{G: b.g.At(i, o), H: b.h.At(i, o)})
		}
	}
	if err := reducer.SumAllReduce(ctx, gpairsAsFloat64(sums)); err != nil {
		return err
	}
	for o := 0; o < b.numOutputs; o++ {
		b.tree.Gradient.Set(0, o, sums[o].G)
		b.tree.Hessian.Set(0, o, sums[o].H)
		b.tree.LeafValue.Set(0, o, CalculateLeafValue(sums[o].G, sums[o].H, b.alpha))
	}
	return nil
}

// UpdatePositions advances every active row's position from depth-1's
// tree state to depth's. It is a no-op at depth 0.
func (b *TreeBuilder[T]) UpdatePositions(depth int) {
	if depth == 0 {
		return
	}
	for i := 0; i < b.numRows; i++ {
		p := int(b.positions[i])
		if p < 0 || b.tree.IsLeaf(p) {
			b.positions[i] = -1
			continue
		}
		f := int(b.tree.Feature[p])
		x := b.x.At(i, f)
		if float64(x) <= b.tree.SplitValue[p] {
			b.positions[i] = int32(LeftChild(p))
		} else {
			b.positions[i] = int32(RightChild(p))
		}
	}
}

// builtChildren computes, for the level starting at depth, which nodes are
// built directly from row data and which are instead derived as
// parent-minus-sibling. derived maps a derived node to both its parent
// and its built sibling so scan can perform the subtraction.
type siblingDerivation struct {
	parent, built int
}

func (b *TreeBuilder[T]) builtChildren(depth int) (built map[int]bool, derived map[int]siblingDerivation) {
	built = make(map[int]bool)
	derived = make(map[int]siblingDerivation)
	if depth == 0 {
		built[0] = true
		return built, derived
	}
	parentBegin := LevelBegin(depth - 1)
	parentCount := NodesInLevel(depth - 1)
	for parent := parentBegin; parent < parentBegin+parentCount; parent++ {
		if b.tree.IsLeaf(parent) {
			continue
		}
		left, right := LeftChild(parent), RightChild(parent)
		hl := b.tree.Hessian.At(left, 0)
		hr := b.tree.Hessian.At(right, 0)
		var builtChild, siblingChild int
		if hl <= hr {
			builtChild, siblingChild = left, right
		} else {
			builtChild, siblingChild = right, left
		}
		built[builtChild] = true
		derived[siblingChild] = siblingDerivation{parent: parent, built: builtChild}
	}
	return built, derived
}

// ComputeHistogram accumulates (g, h) contributions from every active row
// into its directly-built node's histogram, all-reduces the current
// level's slab, then scans it, deriving sibling nodes by subtraction.
func (b *TreeBuilder[T]) ComputeHistogram(ctx context.Context, depth int, reducer AllReducer) error {
	built, derived := b.builtChildren(depth)

	for i := 0; i < b.numRows; i++ {
		p := int(b.positions[i])
		if p < 0 || !built[p] {
			continue
		}
		for f := 0; f < b.numFeatures; f++ {
			x := b.x.At(i, f)
			bin := b.proposals.FindBin(x, f)
			if bin == NotFound {
				continue
			}
			for o := 0; o < b.numOutputs; o++ {
				idx := b.histIndex(p, bin, o)
				b.histogram[idx] = b.histogram[idx].Add(GPair{G: b.g.At(i, o), H: b.h.At(i, o)})
			}
		}
	}

	levelBegin := LevelBegin(depth)
	nodesInLevel := NodesInLevel(depth)
	slabBegin := levelBegin * b.histogramSize * b.numOutputs
	slabEnd := (levelBegin + nodesInLevel) * b.histogramSize * b.numOutputs
	if err := reducer.SumAllReduce(ctx, gpairsAsFloat64(b.histogram[slabBegin:slabEnd])); err != nil {
		return err
	}

	b.scan(depth, built, derived)
	return nil
}

// scan puts every node of the current level into prefix-sum form: built
// nodes are scanned directly; derived nodes are obtained as
// scanned(parent) - scanned(built sibling), per the design note that both
// operands must already be in scanned form.
func (b *TreeBuilder[T]) scan(depth int, built map[int]bool, derived map[int]siblingDerivation) {
	for node := range built {
		b.scanNode(node)
	}
	for node, d := range derived {
		b.subtractNode(node, d.parent, d.built)
	}
	_ = depth
}

func (b *TreeBuilder[T]) scanNode(node int) {
	for f := 0; f < b.proposals.NumFeatures(); f++ {
		begin, end := b.proposals.FeatureRange(f)
		for o := 0; o < b.numOutputs; o++ {
			for bin := begin + 1; bin < end; bin++ {
				prev := b.histIndex(node, bin-1, o)
				cur := b.histIndex(node, bin, o)
				b.histogram[cur] = b.histogram[cur].Add(b.histogram[prev])
			}
		}
	}
}

func (b *TreeBuilder[T]) subtractNode(node, parent, sibling int) {
	for bin := 0; bin < b.histogramSize; bin++ {
		for o := 0; o < b.numOutputs; o++ {
			p := b.histogram[b.histIndex(parent, bin, o)]
			s := b.histogram[b.histIndex(sibling, bin, o)]
			b.histogram[b.histIndex(node, bin, o)] = p.Sub(s)
		}
	}
}

// PerformBestSplit scans every (feature, bin) candidate at every node of
// the current level and commits the best one that clears the gain and
// child-hessian guards, leaving the node a leaf otherwise.
func (b *TreeBuilder[T]) PerformBestSplit(depth int) {
	levelBegin := LevelBegin(depth)
	nodesInLevel := NodesInLevel(depth)
	r := regTerm(b.alpha)

	g := make([]float64, b.numOutputs)
	h := make([]float64, b.numOutputs)
	gl := make([]float64, b.numOutputs)
	hl := make([]float64, b.numOutputs)
	gr := make([]float64, b.numOutputs)
	hr := make([]float64, b.numOutputs)
	bestGL := make([]float64, b.numOutputs)
	bestHL := make([]float64, b.numOutputs)
	bestGR := make([]float64, b.numOutputs)
	bestHR := make([]float64, b.numOutputs)

	for node := levelBegin; node < levelBegin+nodesInLevel; node++ {
		for o := 0; o < b.numOutputs; o++ {
			g[o] = b.tree.Gradient.At(node, o)
			h[o] = b.tree.Hessian.At(node, o)
		}

		bestGain := 0.0
		bestFeature := -1
		bestBin := -1

		for f := 0; f < b.proposals.NumFeatures(); f++ {
			begin, end := b.proposals.FeatureRange(f)
			for bin := begin; bin < end; bin++ {
				gain := 0.0
				for o := 0; o < b.numOutputs; o++ {
					gp := b.histogram[b.histIndex(node, bin, o)]
					gl[o], hl[o] = gp.G, gp.H
					gr[o], hr[o] = g[o]-gl[o], h[o]-hl[o]
					gain += 0.5 * (gl[o]*gl[o]/(hl[o]+r) + gr[o]*gr[o]/(hr[o]+r) - g[o]*g[o]/(h[o]+r))
				}
				if gain > bestGain {
					bestGain = gain
					bestFeature = f
					bestBin = bin
					copy(bestGL, gl)
					copy(bestHL, hl)
					copy(bestGR, gr)
					copy(bestHR, hr)
				}
			}
		}

		if bestGain <= eps || bestFeature < 0 {
			continue
		}
		if bestHL[0] <= 0 || bestHR[0] <= 0 {
			continue
		}

		leafLeft := make([]float64, b.numOutputs)
		leafRight := make([]float64, b.numOutputs)
		for o := 0; o < b.numOutputs; o++ {
			leafLeft[o] = CalculateLeafValue(bestGL[o], bestHL[o], b.alpha)
			leafRight[o] = CalculateLeafValue(bestGR[o], bestHR[o], b.alpha)
		}

		threshold := float64(b.proposals.Thresholds[bestBin])
		b.tree.AddSplit(node, int32(bestFeature), threshold, bestGain, leafLeft, leafRight, bestGL, bestGR, bestHL, bestHR)
	}
}
