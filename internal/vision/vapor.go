package vision

import "math"

// VaporConfig tunes the light-mist classifier.
type VaporConfig struct {
	BrightnessOnset   float64 `json:"brightness_onset"`   // below: no vapor
	BrightnessOptimal float64 `json:"brightness_optimal"` // start of the optimal band
	BrightnessCeiling float64 `json:"brightness_ceiling"` // end of the optimal band
	BrightnessRamp    float64 `json:"brightness_ramp"`    // score reached at the optimal band start
	BrightnessGlare   float64 `json:"brightness_glare"`   // score above the ceiling

	SaturationLow  float64 `json:"saturation_low"`
	SaturationMid  float64 `json:"saturation_mid"`
	SaturationHigh float64 `json:"saturation_high"`

	ContrastLow  float64 `json:"contrast_low"`
	ContrastMid  float64 `json:"contrast_mid"`
	ContrastHigh float64 `json:"contrast_high"`

	// The fog penalty applies when all three fall below their bound.
	PenaltyBrightness float64 `json:"penalty_brightness"`
	PenaltySaturation float64 `json:"penalty_saturation"`
	PenaltyContrast   float64 `json:"penalty_contrast"`
	PenaltyFactor     float64 `json:"penalty_factor"`

	BrightnessWeight float64 `json:"brightness_weight"`
	SaturationWeight float64 `json:"saturation_weight"`
	ContrastWeight   float64 `json:"contrast_weight"`
	Baseline         float64 `json:"baseline"`
}

func DefaultVaporConfig() VaporConfig {
	return VaporConfig{
		BrightnessOnset:   140,
		BrightnessOptimal: 160,
		BrightnessCeiling: 200,
		BrightnessRamp:    0.7,
		BrightnessGlare:   0.8,

		SaturationLow:  30,
		SaturationMid:  50,
		SaturationHigh: 70,

		ContrastLow:  20,
		ContrastMid:  40,
		ContrastHigh: 60,

		PenaltyBrightness: 150,
		PenaltySaturation: 40,
		PenaltyContrast:   25,
		PenaltyFactor:     0.6,

		BrightnessWeight: 0.35,
		SaturationWeight: 0.35,
		ContrastWeight:   0.20,
		Baseline:         0.10,
	}
}

// VaporClassifier scores bright, colorless, soft frames.
type VaporClassifier struct {
	cfg VaporConfig
}

func NewVaporClassifier(cfg VaporConfig) *VaporClassifier {
	return &VaporClassifier{cfg: cfg}
}

func (c *VaporClassifier) Class() Class { return ClassVapor }

func (c *VaporClassifier) Score(fs FeatureSet) float64 {
	cfg := c.cfg
	b, s, k := fs.BrightnessMean, fs.SaturationMean, fs.Contrast

	penalty := 1.0
	if b < cfg.PenaltyBrightness && s < cfg.PenaltySaturation && k < cfg.PenaltyContrast {
		penalty = cfg.PenaltyFactor
	}

	score := cfg.BrightnessWeight*c.brightness(b) +
		cfg.SaturationWeight*c.saturation(s) +
		cfg.ContrastWeight*c.contrast(k) +
		cfg.Baseline
	return clip(score * penalty)
}

func (c *VaporClassifier) brightness(b float64) float64 {
	cfg := c.cfg
	switch {
	case b < cfg.BrightnessOnset:
		return 0
	case b < cfg.BrightnessOptimal:
		return (b - cfg.BrightnessOnset) / (cfg.BrightnessOptimal - cfg.BrightnessOnset) * cfg.BrightnessRamp
	case b < cfg.BrightnessCeiling:
		return 1
	default:
		return cfg.BrightnessGlare
	}
}

func (c *VaporClassifier) saturation(s float64) float64 {
	cfg := c.cfg
	span := cfg.SaturationMid - cfg.SaturationLow
	switch {
	case s < cfg.SaturationLow:
		return 1
	case s < cfg.SaturationMid:
		return 1 - (s-cfg.SaturationLow)/span*0.3
	case s < cfg.SaturationHigh:
		return math.Max(0, 0.7-(s-cfg.SaturationMid)/(cfg.SaturationHigh-cfg.SaturationMid)*0.5)
	default:
		return 0
	}
}

func (c *VaporClassifier) contrast(k float64) float64 {
	cfg := c.cfg
	switch {
	case k < cfg.ContrastLow:
		return 1
	case k < cfg.ContrastMid:
		return 1 - (k-cfg.ContrastLow)/(cfg.ContrastMid-cfg.ContrastLow)*0.4
	case k < cfg.ContrastHigh:
		return math.Max(0, 0.6-(k-cfg.ContrastMid)/(cfg.ContrastHigh-cfg.ContrastMid)*0.5)
	default:
		return 0
	}
}
