package gbdt

import (
	"context"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Params carries the six scalar task inputs that parameterize a single
// BuildTree invocation.
type Params struct {
	MaxDepth     int32
	MaxNodes     int32
	Alpha        float64
	SplitSamples int32
	Seed         int64
	DatasetRows  int64
}

// Dispatch type-switches on x's element dtype and calls the matching
// monomorphization of BuildTree. The returned Tree is always in double
// precision regardless of x's dtype.
func Dispatch(ctx context.Context, reducer AllReducer, x *tensor.Dense, rowOffset int64, g, h *mat.Dense, params Params) (*Tree, error) {
	switch x.Dtype() {
	case tensor.Float64:
		store, err := FromTensor[float64](x, rowOffset)
		if err != nil {
			return nil, err
		}
		return BuildTree[float64](ctx, reducer, store, g, h, params)
	case tensor.Float32:
		store, err := FromTensor[float32](x, rowOffset)
		if err != nil {
			return nil, err
		}
		return BuildTree[float32](ctx, reducer, store, g, h, params)
	default:
		return nil, newPreconditionError("Dispatch", "unsupported feature dtype "+x.Dtype().String())
	}
}

// BuildTree validates its inputs, draws the split-sample proposals, and
// runs Initialise -> (UpdatePositions, ComputeHistogram, PerformBestSplit)
// for max_depth levels, returning the resulting Tree.
func BuildTree[T Numeric](ctx context.Context, reducer AllReducer, x *Store[T], g, h *mat.Dense, params Params) (tree *Tree, err error) {
	defer recoverPrecondition(&err)

	expect(params.MaxDepth >= 0, "BuildTree", "max_depth must be non-negative, got %d", params.MaxDepth)
	expect(params.MaxNodes == int32(MaxNodesForDepth(int(params.MaxDepth))),
		"BuildTree", "max_nodes %d does not equal 2^(max_depth+1)-1 for max_depth=%d", params.MaxNodes, params.MaxDepth)

	gRows, gOutputs := g.Dims()
	hRows, hOutputs := h.Dims()
	expect(gRows == x.Rows, "BuildTree", "g has %d rows, expected %d to match X", gRows, x.Rows)
	expect(hRows == x.Rows, "BuildTree", "h has %d rows, expected %d to match X", hRows, x.Rows)
	expect(gOutputs == hOutputs, "BuildTree", "g has %d outputs but h has %d", gOutputs, hOutputs)
	expect(params.DatasetRows > 0 || x.Rows == 0, "BuildTree", "dataset_rows must be positive when the shard is non-empty")

	logger.Debug().
		Int32("max_depth", params.MaxDepth).
		Int32("max_nodes", params.MaxNodes).
		Int32("split_samples", params.SplitSamples).
		Int("rows", x.Rows).
		Int("num_features", x.NumFeature).
		Msg("build_tree: starting")

	proposals, serr := SelectSplitSamples(ctx, reducer, x, params.SplitSamples, params.Seed, params.DatasetRows)
	if serr != nil {
		return nil, serr
	}

	tree = NewTree(int(params.MaxNodes), gOutputs)
	builder := NewTreeBuilder(tree, x, g, h, proposals, params.Alpha)

	if err := builder.InitialiseRoot(ctx, reducer); err != nil {
		return nil, err
	}

	for depth := int32(0); depth < params.MaxDepth; depth++ {
		builder.UpdatePositions(int(depth))
		if err := builder.ComputeHistogram(ctx, int(depth), reducer); err != nil {
			return nil, err
		}
		builder.PerformBestSplit(int(depth))
		logger.Debug().Int32("depth", depth).Msg("build_tree: level complete")
	}

	return tree, nil
}
