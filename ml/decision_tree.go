package ml

import (
	"errors"
	"fmt"
)

// TreeNode is one node of an exported CART tree in pre-order layout. Leaves
// have Left == Right == -1 and carry per-class sample weights in Value.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

func (n TreeNode) IsLeaf() bool {
	return n.Left < 0 && n.Right < 0
}

// DecisionTree walks x[feature] <= threshold to a leaf and reports its class
// distribution.
type DecisionTree struct {
	classes   []int
	nFeatures int
	nodes     []TreeNode
}

func NewDecisionTree(classes []int, nFeatures int, nodes []TreeNode) (*DecisionTree, error) {
	if err := validateClasses(classes); err != nil {
		return nil, err
	}
	if nFeatures <= 0 {
		return nil, fmt.Errorf("invalid feature count %d", nFeatures)
	}
	if len(nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	for i, node := range nodes {
		if err := validateNode(i, node, len(nodes), nFeatures, len(classes)); err != nil {
			return nil, err
		}
	}
	return &DecisionTree{
		classes:   append([]int(nil), classes...),
		nFeatures: nFeatures,
		nodes:     append([]TreeNode(nil), nodes...),
	}, nil
}

// Children always point forward, which rules out cycles.
func validateNode(idx int, node TreeNode, nodeCount, nFeatures, nClasses int) error {
	if node.IsLeaf() {
		if len(node.Value) != nClasses {
			return fmt.Errorf("node %d: expected %d class values, got %d", idx, nClasses, len(node.Value))
		}
		total := 0.0
		for _, v := range node.Value {
			if v < 0 {
				return fmt.Errorf("node %d: negative class value", idx)
			}
			total += v
		}
		if total <= 0 {
			return fmt.Errorf("node %d: empty leaf", idx)
		}
		return nil
	}
	if node.Feature < 0 || node.Feature >= nFeatures {
		return fmt.Errorf("node %d: feature index %d out of range", idx, node.Feature)
	}
	if node.Left <= idx || node.Left >= nodeCount || node.Right <= idx || node.Right >= nodeCount {
		return fmt.Errorf("node %d: invalid children %d/%d", idx, node.Left, node.Right)
	}
	return nil
}

func (dt *DecisionTree) Classes() []int {
	return dt.classes
}

func (dt *DecisionTree) NumFeatures() int {
	return dt.nFeatures
}

func (dt *DecisionTree) Predict(x []float64) (int, error) {
	proba, err := dt.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return dt.classes[argmax(proba)], nil
}

func (dt *DecisionTree) PredictProba(x []float64) ([]float64, error) {
	if err := checkShape(x, dt.nFeatures); err != nil {
		return nil, err
	}
	leaf := dt.leaf(x)
	total := 0.0
	for _, v := range leaf.Value {
		total += v
	}
	proba := make([]float64, len(leaf.Value))
	for i, v := range leaf.Value {
		proba[i] = v / total
	}
	return proba, nil
}

func (dt *DecisionTree) leaf(x []float64) TreeNode {
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf() {
			return node
		}
		if x[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}
