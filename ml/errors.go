package ml

import (
	"errors"
	"fmt"
)

// ErrUnsupportedKind marks an artifact whose kind has no implementation.
var ErrUnsupportedKind = errors.New("unsupported artifact kind")

// ArtifactLoadError reports a scaler or model artifact that could not be read,
// decoded or validated. It is fatal at startup.
type ArtifactLoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *ArtifactLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("load %s from %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}

// ShapeMismatchError reports an input vector whose length differs from the
// fitted feature count.
type ShapeMismatchError struct {
	Expected int
	Got      int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("feature shape mismatch: expected %d values, got %d", e.Expected, e.Got)
}

func checkShape(x []float64, expected int) error {
	if len(x) != expected {
		return &ShapeMismatchError{Expected: expected, Got: len(x)}
	}
	return nil
}
