package gbdt

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

// treeJSON is the on-disk representation of a Tree: the leaf/gradient/
// hessian mat.Dense buffers are flattened row-major since mat.Dense does
// not itself implement json.Marshaler.
type treeJSON struct {
	NumOutputs int       `json:"num_outputs"`
	MaxNodes   int       `json:"max_nodes"`
	Feature    []int32   `json:"feature"`
	SplitValue []float64 `json:"split_value"`
	Gain       []float64 `json:"gain"`
	LeafValue  []float64 `json:"leaf_value"`
	Gradient   []float64 `json:"gradient"`
	Hessian    []float64 `json:"hessian"`
}

// MarshalJSON flattens the Tree's dense matrices row-major.
func (t *Tree) MarshalJSON() ([]byte, error) {
	maxNodes := t.MaxNodes()
	flatten := func(m interface{ At(int, int) float64 }) []float64 {
		out := make([]float64, maxNodes*t.NumOutputs)
		for n := 0; n < maxNodes; n++ {
			for o := 0; o < t.NumOutputs; o++ {
				out[n*t.NumOutputs+o] = m.At(n, o)
			}
		}
		return out
	}
	return json.Marshal(treeJSON{
		NumOutputs: t.NumOutputs,
		MaxNodes:   maxNodes,
		Feature:    t.Feature,
		SplitValue: t.SplitValue,
		Gain:       t.Gain,
		LeafValue:  flatten(t.LeafValue),
		Gradient:   flatten(t.Gradient),
		Hessian:    flatten(t.Hessian),
	})
}

// UnmarshalJSON restores a Tree from the representation written by
// MarshalJSON.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw treeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = *NewTree(raw.MaxNodes, raw.NumOutputs)
	copy(t.Feature, raw.Feature)
	copy(t.SplitValue, raw.SplitValue)
	copy(t.Gain, raw.Gain)
	unflatten := func(dst *mat.Dense, flat []float64) {
		for n := 0; n < raw.MaxNodes; n++ {
			for o := 0; o < raw.NumOutputs; o++ {
				dst.Set(n, o, flat[n*raw.NumOutputs+o])
			}
		}
	}
	unflatten(t.LeafValue, raw.LeafValue)
	unflatten(t.Gradient, raw.Gradient)
	unflatten(t.Hessian, raw.Hessian)
	return nil
}

// Save writes a Tree's JSON representation to filename, mirroring the
// EBooster.Save model-persistence idiom.
func Save(tree *Tree, filename string) error {
	dest, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "gbdt: creating %s", filename)
	}
	defer dest.Close()

	encoder := json.NewEncoder(dest)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(tree); err != nil {
		return errors.Wrapf(err, "gbdt: encoding tree to %s", filename)
	}
	return nil
}

// LoadTree reads a Tree previously written by Save.
func LoadTree(filename string) (*Tree, error) {
	source, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "gbdt: opening %s", filename)
	}
	defer source.Close()

	tree := &Tree{}
	decoder := json.NewDecoder(source)
	if err := decoder.Decode(tree); err != nil {
		return nil, errors.Wrapf(err, "gbdt: decoding tree from %s", filename)
	}
	return tree, nil
}
