package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	KindStandardScaler     = "standard"
	KindMinMaxScaler       = "minmax"
	KindDecisionTree       = "decision_tree"
	KindRandomForest       = "random_forest"
	KindLogisticRegression = "logistic_regression"
	KindLinearSVC          = "linear_svc"
)

type scalerArtifact struct {
	Kind         string    `json:"kind"`
	FeatureNames []string  `json:"feature_names,omitempty"`
	Mean         []float64 `json:"mean,omitempty"`
	Scale        []float64 `json:"scale,omitempty"`
	DataMin      []float64 `json:"data_min,omitempty"`
	DataMax      []float64 `json:"data_max,omitempty"`
	FeatureRange []float64 `json:"feature_range,omitempty"`
	Clip         bool      `json:"clip,omitempty"`
}

type modelArtifact struct {
	Kind       string       `json:"kind"`
	Classes    []int        `json:"classes"`
	NFeatures  int          `json:"n_features,omitempty"`
	Nodes      []TreeNode   `json:"nodes,omitempty"`
	Estimators [][]TreeNode `json:"estimators,omitempty"`
	Coef       [][]float64  `json:"coef,omitempty"`
	Intercept  []float64    `json:"intercept,omitempty"`
	MultiClass string       `json:"multi_class,omitempty"`
}

// ScalerInfo describes a loaded scaler artifact for logging and health output.
type ScalerInfo struct {
	Kind         string
	FeatureNames []string
}

// LoadScaler reads a JSON scaler artifact exported by the training pipeline.
func LoadScaler(path string) (Scaler, ScalerInfo, error) {
	var artifact scalerArtifact
	if err := readArtifact(path, &artifact); err != nil {
		return nil, ScalerInfo{}, &ArtifactLoadError{Artifact: "scaler", Path: path, Err: err}
	}
	scaler, err := buildScaler(artifact)
	if err != nil {
		return nil, ScalerInfo{}, &ArtifactLoadError{Artifact: "scaler", Path: path, Err: err}
	}
	if n := len(artifact.FeatureNames); n != 0 && n != scaler.NumFeatures() {
		return nil, ScalerInfo{}, &ArtifactLoadError{
			Artifact: "scaler",
			Path:     path,
			Err:      fmt.Errorf("%d feature names for %d features", n, scaler.NumFeatures()),
		}
	}
	return scaler, ScalerInfo{Kind: artifact.Kind, FeatureNames: artifact.FeatureNames}, nil
}

func buildScaler(artifact scalerArtifact) (Scaler, error) {
	switch artifact.Kind {
	case KindStandardScaler:
		return NewStandardScaler(artifact.Mean, artifact.Scale)
	case KindMinMaxScaler:
		featureRange := [2]float64{0, 1}
		if len(artifact.FeatureRange) != 0 {
			if len(artifact.FeatureRange) != 2 {
				return nil, fmt.Errorf("feature_range needs 2 values, got %d", len(artifact.FeatureRange))
			}
			featureRange = [2]float64{artifact.FeatureRange[0], artifact.FeatureRange[1]}
		}
		return NewMinMaxScaler(artifact.DataMin, artifact.DataMax, featureRange, artifact.Clip)
	default:
		return nil, fmt.Errorf("%w: scaler %q", ErrUnsupportedKind, artifact.Kind)
	}
}

// LoadModel reads a JSON classifier artifact and returns the model with its kind.
func LoadModel(path string) (Classifier, string, error) {
	var artifact modelArtifact
	if err := readArtifact(path, &artifact); err != nil {
		return nil, "", &ArtifactLoadError{Artifact: "model", Path: path, Err: err}
	}
	model, err := buildModel(artifact)
	if err != nil {
		return nil, "", &ArtifactLoadError{Artifact: "model", Path: path, Err: err}
	}
	return model, artifact.Kind, nil
}

func buildModel(artifact modelArtifact) (Classifier, error) {
	switch artifact.Kind {
	case KindDecisionTree:
		return NewDecisionTree(artifact.Classes, artifact.NFeatures, artifact.Nodes)
	case KindRandomForest:
		return NewRandomForest(artifact.Classes, artifact.NFeatures, artifact.Estimators)
	case KindLogisticRegression:
		return NewLogisticRegression(artifact.Classes, artifact.Coef, artifact.Intercept, artifact.MultiClass)
	case KindLinearSVC:
		return NewLinearSVC(artifact.Classes, artifact.Coef, artifact.Intercept)
	default:
		return nil, fmt.Errorf("%w: model %q", ErrUnsupportedKind, artifact.Kind)
	}
}

func readArtifact(path string, v interface{}) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
