package vision

import (
	"log"
	"math"
)

// DefaultDetectionThreshold is the mean probability above which fog and smoke are flagged.
const DefaultDetectionThreshold = 0.45

// ClassResult is the batch aggregate for one class.
type ClassResult struct {
	Probability float64 `json:"probability"`
	Detected    bool    `json:"detected"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

// BatchResult is the aggregate over one frame batch. The zero value is the
// empty/default result.
type BatchResult struct {
	Fog            ClassResult `json:"fog"`
	Smoke          ClassResult `json:"smoke"`
	Vapor          ClassResult `json:"vapor"`
	Smog           ClassResult `json:"smog"`
	FramesAnalyzed int         `json:"frames_analyzed"`
	FramesFailed   int         `json:"frames_failed"`
}

// Class returns the aggregate for c.
func (r BatchResult) Class(c Class) ClassResult {
	switch c {
	case ClassFog:
		return r.Fog
	case ClassSmoke:
		return r.Smoke
	case ClassVapor:
		return r.Vapor
	default:
		return r.Smog
	}
}

func (r *BatchResult) set(c Class, cr ClassResult) {
	switch c {
	case ClassFog:
		r.Fog = cr
	case ClassSmoke:
		r.Smoke = cr
	case ClassVapor:
		r.Vapor = cr
	default:
		r.Smog = cr
	}
}

// FrameScores holds the four outcomes for one frame, indexed by Class.
type FrameScores struct {
	Features FeatureSet
	Outcomes [numClasses]Outcome
	Err      error
}

// Aggregator runs every classifier over a batch and reduces the scores.
// It is safe for concurrent use.
type Aggregator struct {
	extractor   *Extractor
	classifiers []Classifier
	threshold   float64
}

// NewAggregator builds the extractor and classifiers from cfg. threshold is the
// detection cut-off for fog and smoke.
func NewAggregator(cfg ClassifierConfig, threshold float64) *Aggregator {
	return &Aggregator{
		extractor:   NewExtractor(cfg.Extractor),
		classifiers: NewClassifiers(cfg),
		threshold:   threshold,
	}
}

// Threshold returns the configured detection threshold.
func (a *Aggregator) Threshold() float64 { return a.threshold }

// Score extracts features from one frame and runs the four classifiers.
// Extraction failure marks every class as failed with a zero probability.
func (a *Aggregator) Score(buf PixelBuffer) FrameScores {
	var fsc FrameScores

	features, err := a.extractor.Extract(buf)
	if err != nil {
		fsc.Err = err
		for _, c := range Classes {
			fsc.Outcomes[c] = Outcome{Err: err}
		}
		return fsc
	}

	fsc.Features = features
	for _, clf := range a.classifiers {
		fsc.Outcomes[clf.Class()] = evaluate(clf, features)
	}
	return fsc
}

// Analyze scores every frame sequentially and returns the per-class mean
// (rounded to 3 decimals) and range. An empty batch returns the zero result.
func (a *Aggregator) Analyze(frames []PixelBuffer) BatchResult {
	if len(frames) == 0 {
		log.Println("Aggregator: No frames to analyze")
		return BatchResult{}
	}

	var (
		sums   [numClasses]float64
		mins   [numClasses]float64
		maxs   [numClasses]float64
		result BatchResult
	)
	for _, c := range Classes {
		mins[c] = math.Inf(1)
		maxs[c] = math.Inf(-1)
	}

	for i, frame := range frames {
		scores := a.Score(frame)
		if scores.Err != nil {
			result.FramesFailed++
			log.Printf("Aggregator: Frame %d could not be scored: %v", i, scores.Err)
		}

		for _, c := range Classes {
			out := scores.Outcomes[c]
			if out.Failed() && scores.Err == nil {
				log.Printf("Aggregator: Frame %d %s score failed: %v", i, c, out.Err)
			}
			p := out.Probability
			sums[c] += p
			mins[c] = math.Min(mins[c], p)
			maxs[c] = math.Max(maxs[c], p)
		}
	}

	n := float64(len(frames))
	for _, c := range Classes {
		mean := round3(sums[c] / n)
		cr := ClassResult{Probability: mean, Min: mins[c], Max: maxs[c]}
		if c == ClassFog || c == ClassSmoke {
			cr.Detected = mean > a.threshold
		}
		result.set(c, cr)
	}
	result.FramesAnalyzed = len(frames)

	log.Printf("Aggregator: Analyzed %d frames - Fog=%t (%.3f), Smoke=%t (%.3f), Vapor=%.3f, Smog=%.3f",
		result.FramesAnalyzed, result.Fog.Detected, result.Fog.Probability,
		result.Smoke.Detected, result.Smoke.Probability, result.Vapor.Probability, result.Smog.Probability)

	return result
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
