package classifier

import (
	"fmt"

	"github.com/abhisek/atrisk/internal/encoder"
)

// Node is one node of a decision tree stored in flat array form. A node
// with a Value distribution is a leaf; otherwise samples with
// x[Feature] <= Threshold go Left, the rest Right.
type Node struct {
	Feature   int       `mapstructure:"feature"`
	Threshold float64   `mapstructure:"threshold"`
	Left      int       `mapstructure:"left"`
	Right     int       `mapstructure:"right"`
	Value     []float64 `mapstructure:"value"`
}

func (n Node) leaf() bool { return len(n.Value) > 0 }

// Tree is a flat decision tree rooted at node 0.
type Tree struct {
	Nodes []Node `mapstructure:"nodes"`
}

// ForestParams are the fitted trees of a random forest.
type ForestParams struct {
	Trees []Tree `mapstructure:"trees"`
}

// Forest averages the leaf class distributions of its trees.
type Forest struct {
	trees   []Tree
	classes [2]Label
	width   int
}

// NewForest validates every tree: children point strictly forward (so
// traversal terminates), features are in range, and leaves carry a
// two-class distribution with positive mass.
func NewForest(p ForestParams, classes [2]Label, width int) (*Forest, error) {
	if len(p.Trees) == 0 {
		return nil, fmt.Errorf("random forest: no trees")
	}
	if classes[0] == classes[1] {
		return nil, fmt.Errorf("random forest: classes must differ")
	}
	trees := make([]Tree, len(p.Trees))
	for ti, t := range p.Trees {
		if len(t.Nodes) == 0 {
			return nil, fmt.Errorf("random forest: tree %d is empty", ti)
		}
		nodes := make([]Node, len(t.Nodes))
		for ni, n := range t.Nodes {
			if n.leaf() {
				if len(n.Value) != 2 || n.Value[0] < 0 || n.Value[1] < 0 || n.Value[0]+n.Value[1] <= 0 {
					return nil, fmt.Errorf("random forest: tree %d node %d: leaf needs two non-negative class weights", ti, ni)
				}
				sum := n.Value[0] + n.Value[1]
				n.Value = []float64{n.Value[0] / sum, n.Value[1] / sum}
			} else {
				if n.Feature < 0 || n.Feature >= width {
					return nil, fmt.Errorf("random forest: tree %d node %d: feature %d out of range", ti, ni, n.Feature)
				}
				if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
					return nil, fmt.Errorf("random forest: tree %d node %d: invalid children %d/%d", ti, ni, n.Left, n.Right)
				}
			}
			nodes[ni] = n
		}
		trees[ti] = Tree{Nodes: nodes}
	}
	return &Forest{trees: trees, classes: classes, width: width}, nil
}

func (m *Forest) Variant() Variant { return VariantForest }

func (m *Forest) Predict(v encoder.Vector) (Output, error) {
	if v.Len() != m.width {
		return Output{}, fmt.Errorf("vector has %d columns, model expects %d", v.Len(), m.width)
	}
	var p0, p1 float64
	for _, t := range m.trees {
		leaf := t.walk(v)
		p0 += leaf.Value[0]
		p1 += leaf.Value[1]
	}
	n := float64(len(m.trees))
	p0, p1 = p0/n, p1/n

	// argmax with ties to the first class, as numpy does.
	if p1 > p0 {
		return Output{Label: m.classes[1], Probability: Prob(p1)}, nil
	}
	return Output{Label: m.classes[0], Probability: Prob(p0)}, nil
}

func (t Tree) walk(v encoder.Vector) Node {
	n := t.Nodes[0]
	for !n.leaf() {
		if v.At(n.Feature) <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	return n
}
