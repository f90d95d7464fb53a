package ml

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}
	return path
}

func TestLoadScaler(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		kind    string
		wantErr bool
	}{
		{
			name: "standard",
			body: `{"kind":"standard","mean":[1,2],"scale":[1,1]}`,
			kind: KindStandardScaler,
		},
		{
			name: "minmax",
			body: `{"kind":"minmax","data_min":[0,0],"data_max":[1,1],"feature_range":[0,1]}`,
			kind: KindMinMaxScaler,
		},
		{name: "unknown kind", body: `{"kind":"robust"}`, wantErr: true},
		{name: "malformed", body: `{"kind":`, wantErr: true},
		{name: "names mismatch", body: `{"kind":"standard","feature_names":["a"],"mean":[1,2],"scale":[1,1]}`, wantErr: true},
		{name: "bad range", body: `{"kind":"minmax","data_min":[0],"data_max":[1],"feature_range":[0]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeArtifact(t, "scaler.json", tt.body)
			scaler, info, err := LoadScaler(path)
			if tt.wantErr {
				var loadErr *ArtifactLoadError
				if !errors.As(err, &loadErr) {
					t.Fatalf("expected ArtifactLoadError, got %v", err)
				}
				if loadErr.Artifact != "scaler" || loadErr.Path != path {
					t.Fatalf("unexpected load error: %+v", loadErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.Kind != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, info.Kind)
			}
			if scaler.NumFeatures() != 2 {
				t.Fatalf("expected 2 features, got %d", scaler.NumFeatures())
			}
		})
	}
}

func TestLoadModel(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		kind    string
		proba   bool
		wantErr bool
	}{
		{
			name:  "decision tree",
			body:  `{"kind":"decision_tree","classes":[0,2,3],"n_features":1,"nodes":[{"feature":-1,"left":-1,"right":-1,"value":[1,2,3]}]}`,
			kind:  KindDecisionTree,
			proba: true,
		},
		{
			name:  "random forest",
			body:  `{"kind":"random_forest","classes":[0,2,3],"n_features":1,"estimators":[[{"feature":-1,"left":-1,"right":-1,"value":[1,2,3]}]]}`,
			kind:  KindRandomForest,
			proba: true,
		},
		{
			name:  "logistic regression",
			body:  `{"kind":"logistic_regression","classes":[0,2,3],"coef":[[1],[2],[3]],"intercept":[0,0,0]}`,
			kind:  KindLogisticRegression,
			proba: true,
		},
		{
			name: "linear svc",
			body: `{"kind":"linear_svc","classes":[0,2,3],"coef":[[1],[2],[3]],"intercept":[0,0,0]}`,
			kind: KindLinearSVC,
		},
		{name: "unknown kind", body: `{"kind":"xgboost","classes":[0,1]}`, wantErr: true},
		{name: "empty forest", body: `{"kind":"random_forest","classes":[0,2,3],"n_features":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeArtifact(t, "model.json", tt.body)
			model, kind, err := LoadModel(path)
			if tt.wantErr {
				var loadErr *ArtifactLoadError
				if !errors.As(err, &loadErr) {
					t.Fatalf("expected ArtifactLoadError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if kind != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, kind)
			}
			if _, ok := model.(ProbabilityEstimator); ok != tt.proba {
				t.Fatalf("expected probability support %v, got %v", tt.proba, ok)
			}
			if _, err := model.Predict([]float64{0.5}); err != nil {
				t.Fatalf("unexpected predict error: %v", err)
			}
		})
	}
}

func TestLoadModelUnknownKindIsUnsupported(t *testing.T) {
	path := writeArtifact(t, "model.json", `{"kind":"xgboost","classes":[0,1]}`)
	_, _, err := LoadModel(path)
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	_, _, err := LoadModel(filepath.Join(t.TempDir(), "missing.json"))
	var loadErr *ArtifactLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected ArtifactLoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestBundledArtifacts(t *testing.T) {
	scaler, info, err := LoadScaler(filepath.Join("..", "models", "scaler.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaler.NumFeatures() != FeatureCount {
		t.Fatalf("expected %d scaler features, got %d", FeatureCount, scaler.NumFeatures())
	}
	for i, name := range FeatureNames() {
		if info.FeatureNames[i] != name {
			t.Fatalf("feature %d: expected %s, got %s", i, name, info.FeatureNames[i])
		}
	}
	model, kind, err := LoadModel(filepath.Join("..", "models", "model.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != KindRandomForest || model.NumFeatures() != FeatureCount {
		t.Fatalf("unexpected bundled model: kind=%s features=%d", kind, model.NumFeatures())
	}
}
