package gbdt

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	graphviz "github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

// nodeLabel returns a tree node's graph label: its split condition and
// gain for an internal node, or its per-output leaf values for a leaf.
func (t *Tree) nodeLabel(node int) string {
	var sb strings.Builder
	if t.IsLeaf(node) {
		sb.WriteString(fmt.Sprintf("node %d (leaf)\n", node))
		sb.WriteString("[")
		for o := 0; o < t.NumOutputs; o++ {
			sb.WriteString(fmt.Sprintf(" %6.3f,", t.LeafValue.At(node, o)))
		}
		sb.WriteString(" ]")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("node %d\n", node))
	sb.WriteString(fmt.Sprintf("f_%d <= %6.5f\n", t.Feature[node], t.SplitValue[node]))
	sb.WriteString(fmt.Sprintf("gain: %6.4f", t.Gain[node]))
	return sb.String()
}

func (t *Tree) recurrentDraw(g *cgraph.Graph, node int, parent *cgraph.Node) error {
	current, err := g.CreateNode(fmt.Sprint(node))
	if err != nil {
		return err
	}
	current.Set("label", t.nodeLabel(node))
	if t.IsLeaf(node) {
		current.Set("shape", "box")
		if parent != nil {
			if _, err := g.CreateEdge("", parent, current); err != nil {
				return err
			}
		}
		return nil
	}
	if parent != nil {
		if _, err := g.CreateEdge("", parent, current); err != nil {
			return err
		}
	}
	if err := t.recurrentDraw(g, LeftChild(node), current); err != nil {
		return err
	}
	return t.recurrentDraw(g, RightChild(node), current)
}

// DrawGraph renders the Tree into a graphviz graph, walking from the root
// and stopping the recursion at every leaf.
func (t *Tree) DrawGraph() (*graphviz.Graphviz, *cgraph.Graph, error) {
	gv := graphviz.New()
	graph, err := gv.Graph()
	if err != nil {
		return nil, nil, errors.Wrap(err, "gbdt: creating graphviz graph")
	}
	if err := t.recurrentDraw(graph, 0, nil); err != nil {
		return nil, nil, errors.Wrap(err, "gbdt: drawing tree")
	}
	return gv, graph, nil
}

// RenderTree draws the Tree and writes it to filename in the given
// graphviz format ("png", "svg", or "jpg").
func RenderTree(tree *Tree, filename, format string) error {
	formats := map[string]graphviz.Format{
		"png": graphviz.PNG,
		"svg": graphviz.SVG,
		"jpg": graphviz.JPG,
	}
	gvFormat, ok := formats[format]
	if !ok {
		return errors.Newf("gbdt: unsupported render format %q", format)
	}
	gv, graph, err := tree.DrawGraph()
	if err != nil {
		return err
	}
	if err := gv.RenderFilename(graph, gvFormat, filename); err != nil {
		return errors.Wrapf(err, "gbdt: rendering tree to %s", filename)
	}
	return nil
}
