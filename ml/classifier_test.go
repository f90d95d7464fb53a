package ml

import (
	"errors"
	"math"
	"testing"
)

var fireClasses = []int{0, 2, 3}

func sampleTreeNodes() []TreeNode {
	return []TreeNode{
		{Feature: 0, Threshold: 0.5, Left: 1, Right: 2},
		{Feature: -1, Left: -1, Right: -1, Value: []float64{8, 1, 1}},
		{Feature: 1, Threshold: 0, Left: 3, Right: 4},
		{Feature: -1, Left: -1, Right: -1, Value: []float64{0, 3, 1}},
		{Feature: -1, Left: -1, Right: -1, Value: []float64{0, 0, 4}},
	}
}

func TestDecisionTreePredict(t *testing.T) {
	model, err := NewDecisionTree(fireClasses, 2, sampleTreeNodes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		input      []float64
		label      int
		confidence float64
	}{
		{input: []float64{0.1, 5}, label: 0, confidence: 0.8},
		{input: []float64{0.5, 5}, label: 0, confidence: 0.8},
		{input: []float64{0.9, -1}, label: 2, confidence: 0.75},
		{input: []float64{0.9, 1}, label: 3, confidence: 1},
	}
	for _, tt := range tests {
		label, err := model.Predict(tt.input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if label != tt.label {
			t.Fatalf("input %v: expected label %d, got %d", tt.input, tt.label, label)
		}
		confidence, supported, err := MaxProbability(model, tt.input)
		if err != nil || !supported {
			t.Fatalf("expected probability support, err=%v", err)
		}
		if math.Abs(confidence-tt.confidence) > 1e-9 {
			t.Fatalf("input %v: expected confidence %v, got %v", tt.input, tt.confidence, confidence)
		}
	}
}

func TestDecisionTreeRejectsInvalidNodes(t *testing.T) {
	tests := []struct {
		name  string
		nodes []TreeNode
	}{
		{name: "empty", nodes: nil},
		{name: "backward child", nodes: []TreeNode{
			{Feature: 0, Left: 0, Right: 1},
			{Left: -1, Right: -1, Value: []float64{1, 1, 1}},
		}},
		{name: "feature out of range", nodes: []TreeNode{
			{Feature: 9, Left: 1, Right: 2},
			{Left: -1, Right: -1, Value: []float64{1, 1, 1}},
			{Left: -1, Right: -1, Value: []float64{1, 1, 1}},
		}},
		{name: "leaf class count", nodes: []TreeNode{
			{Left: -1, Right: -1, Value: []float64{1, 1}},
		}},
		{name: "empty leaf", nodes: []TreeNode{
			{Left: -1, Right: -1, Value: []float64{0, 0, 0}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDecisionTree(fireClasses, 2, tt.nodes); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecisionTreeShapeMismatch(t *testing.T) {
	model, err := NewDecisionTree(fireClasses, 2, sampleTreeNodes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = model.Predict([]float64{1, 2, 3})
	var shapeErr *ShapeMismatchError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
}

func TestRandomForestAveragesTrees(t *testing.T) {
	forest, err := NewRandomForest(fireClasses, 2, [][]TreeNode{
		sampleTreeNodes(),
		{{Feature: -1, Left: -1, Right: -1, Value: []float64{0, 2, 2}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proba, err := forest.PredictProba([]float64{0.1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0.4, 0.3, 0.3}
	for i := range want {
		if math.Abs(proba[i]-want[i]) > 1e-9 {
			t.Fatalf("class %d: expected %v, got %v", fireClasses[i], want[i], proba[i])
		}
	}
	label, err := forest.Predict([]float64{0.1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
	if forest.NumFeatures() != 2 {
		t.Fatalf("expected 2 features, got %d", forest.NumFeatures())
	}
}

func TestLogisticRegressionProbabilities(t *testing.T) {
	model, err := NewLogisticRegression(fireClasses, [][]float64{{1, 0}, {0, 1}, {0, 0}}, []float64{0, 0, 0}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proba, err := model.PredictProba([]float64{2, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := 0.0
	for _, p := range proba {
		if p < 0 || p > 1 {
			t.Fatalf("probability out of range: %v", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("expected probabilities to sum to 1, got %v", sum)
	}
	label, err := model.Predict([]float64{2, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}

	ovr, err := NewLogisticRegression(fireClasses, [][]float64{{1, 0}, {0, 1}, {0, 0}}, []float64{0, 0, 0}, OneVsRestLogistic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proba, err = ovr.PredictProba([]float64{0, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if argmax(proba) != 1 {
		t.Fatalf("expected class index 1 to win, got %v", proba)
	}
}

func TestLogisticRegressionBinary(t *testing.T) {
	model, err := NewLogisticRegression([]int{0, 3}, [][]float64{{1, 1}}, []float64{0}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, err := model.Predict([]float64{1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 3 {
		t.Fatalf("expected label 3, got %d", label)
	}
	confidence, _, err := MaxProbability(model, []float64{1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(confidence-1/(1+math.Exp(-2))) > 1e-9 {
		t.Fatalf("unexpected confidence %v", confidence)
	}
	if _, err := NewLogisticRegression([]int{0, 3}, [][]float64{{1, 1}}, []float64{0}, "auto"); err == nil {
		t.Fatal("expected error for unknown multi_class")
	}
}

func TestLinearSVCHasNoProbabilities(t *testing.T) {
	model, err := NewLinearSVC(fireClasses, [][]float64{{1, 0}, {0, 1}, {0, 0}}, []float64{0, 0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, err := model.Predict([]float64{0, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 2 {
		t.Fatalf("expected label 2, got %d", label)
	}
	var classifier Classifier = model
	if _, ok := classifier.(ProbabilityEstimator); ok {
		t.Fatal("LinearSVC must not expose probabilities")
	}
	_, supported, err := MaxProbability(model, []float64{0, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if supported {
		t.Fatal("expected probability estimation to be unsupported")
	}
}

func TestLinearSVCBinarySign(t *testing.T) {
	model, err := NewLinearSVC([]int{0, 2}, [][]float64{{1}}, []float64{-1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for input, want := range map[float64]int{0: 0, 1: 0, 3: 2} {
		label, err := model.Predict([]float64{input})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if label != want {
			t.Fatalf("input %v: expected %d, got %d", input, want, label)
		}
	}
}

func TestLinearModelValidation(t *testing.T) {
	if _, err := NewLinearSVC(fireClasses, [][]float64{{1, 0}}, []float64{0}); err == nil {
		t.Fatal("expected error for missing coefficient rows")
	}
	if _, err := NewLinearSVC(fireClasses, [][]float64{{1, 0}, {1}, {0, 0}}, []float64{0, 0, 0}); err == nil {
		t.Fatal("expected error for ragged coefficients")
	}
	if _, err := NewLinearSVC([]int{1, 1}, [][]float64{{1}}, []float64{0}); err == nil {
		t.Fatal("expected error for duplicate classes")
	}
}
