package vision

import "math"

const maxIntensity = 255.0

// FogConfig tunes the fog classifier. Thresholds are raw feature bounds,
// triggers are sub-score cut-offs for indicator voting.
type FogConfig struct {
	BrightnessThreshold float64 `json:"brightness_threshold"`
	ContrastThreshold   float64 `json:"contrast_threshold"`
	SaturationThreshold float64 `json:"saturation_threshold"`
	RangeThreshold      float64 `json:"range_threshold"`

	BrightnessTrigger float64 `json:"brightness_trigger"`
	ContrastTrigger   float64 `json:"contrast_trigger"`
	SaturationTrigger float64 `json:"saturation_trigger"`
	RangeTrigger      float64 `json:"range_trigger"`

	BrightnessWeight float64 `json:"brightness_weight"`
	ContrastWeight   float64 `json:"contrast_weight"`
	SaturationWeight float64 `json:"saturation_weight"`
	RangeWeight      float64 `json:"range_weight"`

	MinVotes   int     `json:"min_votes"`
	BoostFloor float64 `json:"boost_floor"`
}

func DefaultFogConfig() FogConfig {
	return FogConfig{
		BrightnessThreshold: 130,
		ContrastThreshold:   60,
		SaturationThreshold: 70,
		RangeThreshold:      100,

		BrightnessTrigger: 0.4,
		ContrastTrigger:   0.4,
		SaturationTrigger: 0.3,
		RangeTrigger:      0.4,

		BrightnessWeight: 0.35,
		ContrastWeight:   0.35,
		SaturationWeight: 0.20,
		RangeWeight:      0.10,

		MinVotes:   2,
		BoostFloor: 0.7,
	}
}

// FogClassifier looks for bright, flat, washed-out frames.
type FogClassifier struct {
	cfg FogConfig
}

func NewFogClassifier(cfg FogConfig) *FogClassifier {
	return &FogClassifier{cfg: cfg}
}

func (c *FogClassifier) Class() Class { return ClassFog }

// Score votes over four indicators. Two or more agreeing indicators give their
// mean scaled by an agreement boost; otherwise a weighted blend is used.
func (c *FogClassifier) Score(fs FeatureSet) float64 {
	cfg := c.cfg
	brightness := normalize(fs.BrightnessMean, cfg.BrightnessThreshold, maxIntensity, false)
	contrast := normalize(fs.Contrast, 0, cfg.ContrastThreshold, true)
	saturation := normalize(fs.SaturationMean, 0, cfg.SaturationThreshold, true)
	dynRange := normalize(fs.DynamicRange(), 0, cfg.RangeThreshold, true)

	indicators := [4]struct{ score, trigger float64 }{
		{brightness, cfg.BrightnessTrigger},
		{contrast, cfg.ContrastTrigger},
		{saturation, cfg.SaturationTrigger},
		{dynRange, cfg.RangeTrigger},
	}

	var sum float64
	votes := 0
	for _, ind := range indicators {
		if ind.score > ind.trigger {
			sum += ind.score
			votes++
		}
	}

	if votes >= cfg.MinVotes && votes > 0 {
		agreement := math.Min(float64(votes)/float64(len(indicators)), 1)
		boost := cfg.BoostFloor + (1-cfg.BoostFloor)*agreement
		return clip(sum / float64(votes) * boost)
	}

	return clip(cfg.BrightnessWeight*brightness +
		cfg.ContrastWeight*contrast +
		cfg.SaturationWeight*saturation +
		cfg.RangeWeight*dynRange)
}
