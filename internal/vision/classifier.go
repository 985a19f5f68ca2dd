package vision

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Class identifies one of the four hazard classes.
type Class int

const (
	ClassFog Class = iota
	ClassSmoke
	ClassVapor
	ClassSmog
	numClasses
)

// Classes lists every class in scoring order.
var Classes = [numClasses]Class{ClassFog, ClassSmoke, ClassVapor, ClassSmog}

func (c Class) String() string {
	switch c {
	case ClassFog:
		return "fog"
	case ClassSmoke:
		return "smoke"
	case ClassVapor:
		return "vapor"
	case ClassSmog:
		return "smog"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Classifier maps one FeatureSet to a probability in [0,1].
type Classifier interface {
	Class() Class
	Score(fs FeatureSet) float64
}

// Outcome is the per-frame result for one class. Err is set when the frame
// could not be scored, in which case Probability is 0.
type Outcome struct {
	Probability float64
	Err         error
}

// Failed reports whether the frame could not be scored.
func (o Outcome) Failed() bool { return o.Err != nil }

// ClassifierConfig bundles the class-specific tuning. It is read-only once a
// classifier is built from it.
type ClassifierConfig struct {
	Extractor ExtractorConfig `json:"extractor"`
	Fog       FogConfig       `json:"fog"`
	Smoke     SmokeConfig     `json:"smoke"`
	Vapor     VaporConfig     `json:"vapor"`
	Smog      SmogConfig      `json:"smog"`
}

// DefaultClassifierConfig returns the field-calibrated thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Extractor: DefaultExtractorConfig(),
		Fog:       DefaultFogConfig(),
		Smoke:     DefaultSmokeConfig(),
		Vapor:     DefaultVaporConfig(),
		Smog:      DefaultSmogConfig(),
	}
}

// NewClassifiers builds the four classifiers in Classes order.
func NewClassifiers(cfg ClassifierConfig) []Classifier {
	return []Classifier{
		NewFogClassifier(cfg.Fog),
		NewSmokeClassifier(cfg.Smoke),
		NewVaporClassifier(cfg.Vapor),
		NewSmogClassifier(cfg.Smog),
	}
}

// evaluate scores fs and turns a panic or a non-finite value into a failed Outcome.
func evaluate(c Classifier, fs FeatureSet) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: errors.Errorf("%s classifier panicked: %v", c.Class(), r)}
		}
	}()

	p := c.Score(fs)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return Outcome{Err: errors.Errorf("%s classifier produced %v", c.Class(), p)}
	}
	return Outcome{Probability: clip(p)}
}

// normalize ramps value linearly from lo (0) to hi (1), clipped. With inverse
// set, lower raw values give higher sub-scores.
func normalize(value, lo, hi float64, inverse bool) float64 {
	if hi == lo {
		return 0.5
	}
	n := clip((value - lo) / (hi - lo))
	if inverse {
		n = 1 - n
	}
	return n
}

func clip(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
