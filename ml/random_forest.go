package ml

import (
	"errors"
	"fmt"
)

// RandomForest averages the class probabilities of its trees, the way the
// exported ensemble was fitted.
type RandomForest struct {
	classes []int
	trees   []*DecisionTree
}

func NewRandomForest(classes []int, nFeatures int, estimators [][]TreeNode) (*RandomForest, error) {
	if len(estimators) == 0 {
		return nil, errors.New("forest has no estimators")
	}
	trees := make([]*DecisionTree, 0, len(estimators))
	for i, nodes := range estimators {
		tree, err := NewDecisionTree(classes, nFeatures, nodes)
		if err != nil {
			return nil, fmt.Errorf("estimator %d: %w", i, err)
		}
		trees = append(trees, tree)
	}
	return &RandomForest{
		classes: append([]int(nil), classes...),
		trees:   trees,
	}, nil
}

func (rf *RandomForest) Classes() []int {
	return rf.classes
}

func (rf *RandomForest) NumFeatures() int {
	return rf.trees[0].NumFeatures()
}

func (rf *RandomForest) Predict(x []float64) (int, error) {
	proba, err := rf.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return rf.classes[argmax(proba)], nil
}

func (rf *RandomForest) PredictProba(x []float64) ([]float64, error) {
	avg := make([]float64, len(rf.classes))
	for _, tree := range rf.trees {
		proba, err := tree.PredictProba(x)
		if err != nil {
			return nil, err
		}
		for i, p := range proba {
			avg[i] += p
		}
	}
	n := float64(len(rf.trees))
	for i := range avg {
		avg[i] /= n
	}
	return avg, nil
}
