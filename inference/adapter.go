// Package inference wires the fitted scaler and classifier into the single
// predict operation served to the UI.
package inference

import (
	"context"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"firetype/ml"
	"firetype/monitoring"
)

// Result is the outcome of one prediction. Confidence is nil when the loaded
// classifier cannot estimate probabilities.
type Result struct {
	Label      int      `json:"label"`
	FireType   string   `json:"fire_type"`
	Confidence *float64 `json:"confidence"`
}

// HasConfidence reports whether the classifier produced a probability.
func (r Result) HasConfidence() bool {
	return r.Confidence != nil
}

func (r Result) clone() Result {
	if r.Confidence != nil {
		c := *r.Confidence
		r.Confidence = &c
	}
	return r
}

// Options configures Load and New. Zero values are usable: no cache, the
// default labels and a no-op logger.
type Options struct {
	ScalerPath string
	ModelPath  string
	// CacheSize bounds the memo of recent predictions; 0 disables it.
	CacheSize int
	Labels    LabelMap
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
}

// Adapter owns the artifacts for the process lifetime. It is safe for
// concurrent use: the artifacts are never mutated after construction.
type Adapter struct {
	scaler    ml.Scaler
	model     ml.Classifier
	modelKind string
	labels    LabelMap
	cache     *lru.Cache[ml.FeatureVector, Result]
	logger    *zap.Logger
	metrics   *monitoring.Metrics
}

// Load reads both artifacts from disk. Any failure is an *ml.ArtifactLoadError.
func Load(opts Options) (*Adapter, error) {
	scaler, info, err := ml.LoadScaler(opts.ScalerPath)
	if err != nil {
		return nil, err
	}
	model, kind, err := ml.LoadModel(opts.ModelPath)
	if err != nil {
		return nil, err
	}

	a, err := New(scaler, model, opts)
	if err != nil {
		return nil, err
	}
	a.modelKind = kind

	if len(info.FeatureNames) != 0 && !sameNames(info.FeatureNames, ml.FeatureNames()) {
		a.logger.Warn("scaler feature names differ from form order",
			zap.Strings("scaler", info.FeatureNames),
			zap.Strings("form", ml.FeatureNames()))
	}
	a.logger.Info("artifacts loaded",
		zap.String("scaler_path", opts.ScalerPath),
		zap.String("scaler_kind", info.Kind),
		zap.String("model_path", opts.ModelPath),
		zap.String("model_kind", kind),
		zap.Ints("classes", model.Classes()),
		zap.Bool("confidence_supported", a.SupportsConfidence()))
	return a, nil
}

// New builds an adapter from artifacts already in memory.
func New(scaler ml.Scaler, model ml.Classifier, opts Options) (*Adapter, error) {
	if scaler == nil {
		return nil, &ml.ArtifactLoadError{Artifact: "scaler", Err: fmt.Errorf("scaler is nil")}
	}
	if model == nil {
		return nil, &ml.ArtifactLoadError{Artifact: "model", Err: fmt.Errorf("model is nil")}
	}
	if model.NumFeatures() != scaler.NumFeatures() {
		return nil, &ml.ArtifactLoadError{
			Artifact: "model",
			Path:     opts.ModelPath,
			Err:      &ml.ShapeMismatchError{Expected: scaler.NumFeatures(), Got: model.NumFeatures()},
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	labels := opts.Labels
	if labels == nil {
		labels = DefaultLabels()
	}

	a := &Adapter{
		scaler:  scaler,
		model:   model,
		labels:  labels,
		logger:  logger.Named("inference"),
		metrics: opts.Metrics,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[ml.FeatureVector, Result](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create prediction cache: %w", err)
		}
		a.cache = cache
	}
	if scaler.NumFeatures() != ml.FeatureCount {
		a.logger.Warn("scaler does not match the form schema; every prediction will fail",
			zap.Int("scaler_features", scaler.NumFeatures()),
			zap.Int("form_features", ml.FeatureCount))
	}
	return a, nil
}

// Predict scales and classifies one detection.
func (a *Adapter) Predict(ctx context.Context, features ml.FeatureVector) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if a.cache != nil {
		start := time.Now()
		if cached, ok := a.cache.Get(features); ok {
			a.metrics.CacheHit()
			a.metrics.ObservePrediction(cached.FireType, cached.HasConfidence(), time.Since(start))
			return cached.clone(), nil
		}
		a.metrics.CacheMiss()
	}

	result, err := a.predict(features.Values())
	if err != nil {
		return Result{}, err
	}
	if a.cache != nil {
		a.cache.Add(features, result.clone())
	}
	return result, nil
}

// PredictVector is Predict for a raw, unnamed vector. The length is checked
// against the scaler.
func (a *Adapter) PredictVector(ctx context.Context, x []float64) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return a.predict(x)
}

func (a *Adapter) predict(x []float64) (Result, error) {
	start := time.Now()
	result, err := a.infer(x)
	if err != nil {
		a.metrics.PredictionError()
		a.logger.Warn("prediction failed", zap.Float64s("features", x), zap.Error(err))
		return Result{}, err
	}
	a.metrics.ObservePrediction(result.FireType, result.HasConfidence(), time.Since(start))
	a.logger.Debug("prediction",
		zap.Float64s("features", x),
		zap.Int("label", result.Label),
		zap.String("fire_type", result.FireType),
		zap.Bool("has_confidence", result.HasConfidence()))
	return result, nil
}

func (a *Adapter) infer(x []float64) (Result, error) {
	scaled, err := a.scaler.Transform(x)
	if err != nil {
		return Result{}, fmt.Errorf("scale features: %w", err)
	}
	label, err := a.model.Predict(scaled)
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}
	result := Result{Label: label, FireType: a.labels.Name(label)}

	confidence, supported, err := ml.MaxProbability(a.model, scaled)
	if !supported {
		return result, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("estimate confidence: %w", err)
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return Result{}, fmt.Errorf("estimate confidence: probability %v outside [0, 1]", confidence)
	}
	result.Confidence = &confidence
	return result, nil
}

// SupportsConfidence reports whether the loaded classifier can estimate
// class probabilities.
func (a *Adapter) SupportsConfidence() bool {
	_, ok := a.model.(ml.ProbabilityEstimator)
	return ok
}

// ModelKind is the artifact kind, empty for adapters built with New.
func (a *Adapter) ModelKind() string {
	return a.modelKind
}

// NumFeatures is the width the scaler was fitted on.
func (a *Adapter) NumFeatures() int {
	return a.scaler.NumFeatures()
}

// Classes returns a copy of the labels the classifier can emit.
func (a *Adapter) Classes() []int {
	return append([]int(nil), a.model.Classes()...)
}

// Labels returns the display names in use.
func (a *Adapter) Labels() LabelMap {
	return a.labels
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
