package ml

import "fmt"

// Classifier maps one scaled feature vector to a class label.
type Classifier interface {
	Classes() []int
	NumFeatures() int
	Predict(x []float64) (int, error)
}

// ProbabilityEstimator is implemented by classifiers that can report per-class
// posteriors. The returned slice is aligned with Classes().
type ProbabilityEstimator interface {
	Classifier
	PredictProba(x []float64) ([]float64, error)
}

// MaxProbability returns the highest posterior for x and whether the model
// supports probability estimation at all.
func MaxProbability(model Classifier, x []float64) (float64, bool, error) {
	estimator, ok := model.(ProbabilityEstimator)
	if !ok {
		return 0, false, nil
	}
	proba, err := estimator.PredictProba(x)
	if err != nil {
		return 0, true, err
	}
	if len(proba) == 0 {
		return 0, true, fmt.Errorf("empty probability vector")
	}
	return proba[argmax(proba)], true, nil
}

func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

func validateClasses(classes []int) error {
	if len(classes) < 2 {
		return fmt.Errorf("need at least 2 classes, got %d", len(classes))
	}
	seen := make(map[int]bool, len(classes))
	for _, c := range classes {
		if seen[c] {
			return fmt.Errorf("duplicate class %d", c)
		}
		seen[c] = true
	}
	return nil
}
