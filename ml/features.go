package ml

import (
	"fmt"
	"strings"
)

// ConfidenceLevel is the detection confidence category encoded as the sixth
// feature.
type ConfidenceLevel int

const (
	ConfidenceLow ConfidenceLevel = iota
	ConfidenceNominal
	ConfidenceHigh
)

var confidenceLevels = map[string]ConfidenceLevel{
	"low":     ConfidenceLow,
	"nominal": ConfidenceNominal,
	"high":    ConfidenceHigh,
}

// ConfidenceLevelNames lists the accepted detection confidence strings in
// ascending order.
func ConfidenceLevelNames() []string {
	return []string{"low", "nominal", "high"}
}

// ParseConfidenceLevel accepts low, nominal or high, case-insensitively.
func ParseConfidenceLevel(s string) (ConfidenceLevel, error) {
	level, ok := confidenceLevels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown confidence level %q", s)
	}
	return level, nil
}

// String returns the form value for c.
func (c ConfidenceLevel) String() string {
	names := ConfidenceLevelNames()
	if c < 0 || int(c) >= len(names) {
		return fmt.Sprintf("ConfidenceLevel(%d)", int(c))
	}
	return names[c]
}

// FeatureVector is one MODIS fire detection as seen by the scaler. Field order
// matches FeatureNames.
type FeatureVector struct {
	Brightness float64         `json:"brightness"`
	BrightT31  float64         `json:"bright_t31"`
	FRP        float64         `json:"frp"`
	Scan       float64         `json:"scan"`
	Track      float64         `json:"track"`
	Confidence ConfidenceLevel `json:"confidence"`
}

// Values returns the features in FeatureNames order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.Brightness,
		f.BrightT31,
		f.FRP,
		f.Scan,
		f.Track,
		float64(f.Confidence),
	}
}

// FeatureNames lists the columns the scaler is fitted on, in order.
func FeatureNames() []string {
	return []string{
		"brightness",
		"bright_t31",
		"frp",
		"scan",
		"track",
		"confidence",
	}
}

// FeatureCount is the length of every FeatureVector.
const FeatureCount = 6

// DefaultFeatureVector is the detection the form starts from.
func DefaultFeatureVector() FeatureVector {
	return FeatureVector{
		Brightness: 300.0,
		BrightT31:  290.0,
		FRP:        15.0,
		Scan:       1.0,
		Track:      1.0,
		Confidence: ConfidenceNominal,
	}
}
