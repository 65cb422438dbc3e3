package gbdt

import (
	"github.com/cockroachdb/errors"
	"gorgonia.org/tensor"
)

// Store is this shard's dense, row-major slab of the logical
// (rows, features, 1) feature matrix X. RowOffset records the global row
// index of local row 0 — a shard cannot otherwise deduce its position in
// the dataset, and SelectSplitSamples needs it to test whether a
// globally-sampled row index falls within the slab.
type Store[T Numeric] struct {
	data       []T
	RowOffset  int64
	Rows       int
	NumFeature int
}

// NewStore wraps a pre-flattened row-major buffer. len(data) must equal
// rows*numFeature.
func NewStore[T Numeric](data []T, rowOffset int64, rows, numFeature int) (*Store[T], error) {
	if rows < 0 || numFeature < 0 {
		return nil, errors.Newf("gbdt: negative store dimensions rows=%d features=%d", rows, numFeature)
	}
	if len(data) != rows*numFeature {
		return nil, errors.Newf("gbdt: store data length %d does not match rows*features = %d", len(data), rows*numFeature)
	}
	return &Store[T]{data: data, RowOffset: rowOffset, Rows: rows, NumFeature: numFeature}, nil
}

// At returns the value of feature f on local row i.
func (s *Store[T]) At(i, f int) T {
	return s.data[i*s.NumFeature+f]
}

// GlobalRow returns the global row index of local row i.
func (s *Store[T]) GlobalRow(i int) int64 {
	return s.RowOffset + int64(i)
}

// ContainsGlobalRow reports whether global row index r falls inside this
// shard's slab.
func (s *Store[T]) ContainsGlobalRow(r int64) bool {
	return r >= s.RowOffset && r < s.RowOffset+int64(s.Rows)
}

// FromTensor adapts a dense, row-major gorgonia tensor shaped
// (rows, features) or (rows, features, 1) into a Store[T]. The tensor's
// backing slice is reused, not copied: T must match the tensor's Dtype.
func FromTensor[T Numeric](t *tensor.Dense, rowOffset int64) (*Store[T], error) {
	if !t.IsNativelyAccessible() {
		return nil, errors.New("gbdt: tensor must be natively accessible to back a Store")
	}
	shape := t.Shape()
	if len(shape) != 2 && len(shape) != 3 {
		return nil, errors.Newf("gbdt: expected a 2-D or 3-D tensor, got shape %v", shape)
	}
	if len(shape) == 3 && shape[2] != 1 {
		return nil, errors.Newf("gbdt: expected a trailing axis of size 1, got shape %v", shape)
	}
	rows, numFeature := shape[0], shape[1]
	data, ok := t.Data().([]T)
	if !ok {
		return nil, errors.Newf("gbdt: tensor dtype %v does not match requested element type", t.Dtype())
	}
	if len(data) != rows*numFeature {
		return nil, errors.Newf("gbdt: tensor is not densely row-major: data length %d, expected %d", len(data), rows*numFeature)
	}
	return &Store[T]{data: data, RowOffset: rowOffset, Rows: rows, NumFeature: numFeature}, nil
}
