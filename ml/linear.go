package ml

import (
	"errors"
	"fmt"
	"math"
)

// linearModel holds the decision function shared by the linear classifiers.
// With two classes a single coefficient row scores the second class.
type linearModel struct {
	classes   []int
	coef      [][]float64
	intercept []float64
}

func newLinearModel(classes []int, coef [][]float64, intercept []float64) (linearModel, error) {
	if err := validateClasses(classes); err != nil {
		return linearModel{}, err
	}
	rows := len(classes)
	if rows == 2 {
		rows = 1
	}
	if len(coef) != rows {
		return linearModel{}, fmt.Errorf("expected %d coefficient rows for %d classes, got %d", rows, len(classes), len(coef))
	}
	if len(intercept) != rows {
		return linearModel{}, fmt.Errorf("expected %d intercepts, got %d", rows, len(intercept))
	}
	nFeatures := len(coef[0])
	if nFeatures == 0 {
		return linearModel{}, errors.New("coefficient rows are empty")
	}
	copied := make([][]float64, len(coef))
	for i, row := range coef {
		if len(row) != nFeatures {
			return linearModel{}, fmt.Errorf("coefficient row %d has %d values, expected %d", i, len(row), nFeatures)
		}
		copied[i] = append([]float64(nil), row...)
	}
	return linearModel{
		classes:   append([]int(nil), classes...),
		coef:      copied,
		intercept: append([]float64(nil), intercept...),
	}, nil
}

func (m linearModel) Classes() []int {
	return m.classes
}

func (m linearModel) NumFeatures() int {
	return len(m.coef[0])
}

func (m linearModel) decision(x []float64) ([]float64, error) {
	if err := checkShape(x, m.NumFeatures()); err != nil {
		return nil, err
	}
	scores := make([]float64, len(m.coef))
	for i, row := range m.coef {
		score := m.intercept[i]
		for j, w := range row {
			score += w * x[j]
		}
		scores[i] = score
	}
	return scores, nil
}

func (m linearModel) label(scores []float64) int {
	if len(scores) == 1 {
		if scores[0] > 0 {
			return m.classes[1]
		}
		return m.classes[0]
	}
	return m.classes[argmax(scores)]
}

// LinearSVC exposes only a decision function, so it has no confidence score.
type LinearSVC struct {
	linearModel
}

func NewLinearSVC(classes []int, coef [][]float64, intercept []float64) (*LinearSVC, error) {
	m, err := newLinearModel(classes, coef, intercept)
	if err != nil {
		return nil, err
	}
	return &LinearSVC{linearModel: m}, nil
}

func (s *LinearSVC) Predict(x []float64) (int, error) {
	scores, err := s.decision(x)
	if err != nil {
		return 0, err
	}
	return s.label(scores), nil
}

const (
	MultinomialLogistic = "multinomial"
	OneVsRestLogistic   = "ovr"
)

// LogisticRegression turns decision scores into probabilities with softmax,
// or normalised sigmoids for one-vs-rest fits.
type LogisticRegression struct {
	linearModel
	multiClass string
}

func NewLogisticRegression(classes []int, coef [][]float64, intercept []float64, multiClass string) (*LogisticRegression, error) {
	switch multiClass {
	case "":
		multiClass = MultinomialLogistic
	case MultinomialLogistic, OneVsRestLogistic:
	default:
		return nil, fmt.Errorf("unknown multi_class %q", multiClass)
	}
	m, err := newLinearModel(classes, coef, intercept)
	if err != nil {
		return nil, err
	}
	return &LogisticRegression{linearModel: m, multiClass: multiClass}, nil
}

func (lr *LogisticRegression) Predict(x []float64) (int, error) {
	proba, err := lr.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return lr.classes[argmax(proba)], nil
}

func (lr *LogisticRegression) PredictProba(x []float64) ([]float64, error) {
	scores, err := lr.decision(x)
	if err != nil {
		return nil, err
	}
	if len(scores) == 1 {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}, nil
	}
	if lr.multiClass == OneVsRestLogistic {
		return normalizedSigmoid(scores), nil
	}
	return softmax(scores), nil
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

func softmax(scores []float64) []float64 {
	peak := scores[argmax(scores)]
	out := make([]float64, len(scores))
	total := 0.0
	for i, s := range scores {
		out[i] = math.Exp(s - peak)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func normalizedSigmoid(scores []float64) []float64 {
	out := make([]float64, len(scores))
	total := 0.0
	for i, s := range scores {
		out[i] = sigmoid(s)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}
