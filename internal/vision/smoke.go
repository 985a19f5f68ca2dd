package vision

import "math"

// Step maps a raw value to a score: the first band whose Below bound exceeds
// the value wins, and Else applies past the last band.
type Step struct {
	Below float64 `json:"below"`
	Score float64 `json:"score"`
}

// StepScore is an ordered band table.
type StepScore struct {
	Bands []Step  `json:"bands"`
	Else  float64 `json:"else"`
}

func (s StepScore) eval(v float64) float64 {
	for _, b := range s.Bands {
		if v < b.Below {
			return b.Score
		}
	}
	return s.Else
}

// SmokeConfig tunes the smoke classifier.
type SmokeConfig struct {
	// Fog-exclusion gate: all three below their bound forces a zero score.
	GateSaturation float64 `json:"gate_saturation"`
	GateContrast   float64 `json:"gate_contrast"`
	GateBrightness float64 `json:"gate_brightness"`

	Brightness       StepScore `json:"brightness"`
	Edges            StepScore `json:"edges"`
	SaturationFactor StepScore `json:"saturation_factor"`

	// Localization: dispersion/PatchyScale when regions carry texture,
	// dispersion/FlatScale*FlatWeight when they are nearly flat.
	RegionContrastFloor float64 `json:"region_contrast_floor"`
	PatchyScale         float64 `json:"patchy_scale"`
	FlatScale           float64 `json:"flat_scale"`
	FlatWeight          float64 `json:"flat_weight"`

	BrightnessWeight   float64 `json:"brightness_weight"`
	LocalizationWeight float64 `json:"localization_weight"`
	EdgeWeight         float64 `json:"edge_weight"`
	SaturationWeight   float64 `json:"saturation_weight"`
}

func DefaultSmokeConfig() SmokeConfig {
	return SmokeConfig{
		GateSaturation: 35,
		GateContrast:   25,
		GateBrightness: 140,

		Brightness: StepScore{
			Bands: []Step{{60, 0.2}, {100, 0.8}, {150, 1.0}, {200, 0.9}},
			Else:  0.3,
		},
		Edges: StepScore{
			Bands: []Step{{0.005, 0.2}, {0.02, 0.8}},
			Else:  0.3,
		},
		SaturationFactor: StepScore{
			Bands: []Step{{25, 0.9}, {50, 0.85}, {80, 0.7}},
			Else:  0.4,
		},

		RegionContrastFloor: 15,
		PatchyScale:         30,
		FlatScale:           10,
		FlatWeight:          0.5,

		BrightnessWeight:   0.25,
		LocalizationWeight: 0.35,
		EdgeWeight:         0.20,
		SaturationWeight:   0.20,
	}
}

// SmokeClassifier favors patchy, gray, moderately edged frames and yields to
// fog on uniform low-contrast frames.
type SmokeClassifier struct {
	cfg SmokeConfig
}

func NewSmokeClassifier(cfg SmokeConfig) *SmokeClassifier {
	return &SmokeClassifier{cfg: cfg}
}

func (c *SmokeClassifier) Class() Class { return ClassSmoke }

func (c *SmokeClassifier) Score(fs FeatureSet) float64 {
	cfg := c.cfg
	if c.IsFogLike(fs) {
		return 0
	}

	brightness := cfg.Brightness.eval(fs.BrightnessMean)
	edges := cfg.Edges.eval(fs.EdgeDensity)
	saturation := cfg.SaturationFactor.eval(fs.SaturationMean)

	return clip(cfg.BrightnessWeight*brightness +
		cfg.LocalizationWeight*c.localization(fs) +
		cfg.EdgeWeight*edges +
		cfg.SaturationWeight*saturation)
}

// IsFogLike reports whether the fog-exclusion gate fires for fs.
func (c *SmokeClassifier) IsFogLike(fs FeatureSet) bool {
	return fs.SaturationMean < c.cfg.GateSaturation &&
		fs.Contrast < c.cfg.GateContrast &&
		fs.BrightnessMean < c.cfg.GateBrightness
}

func (c *SmokeClassifier) localization(fs FeatureSet) float64 {
	cfg := c.cfg
	if fs.RegionContrastMean > cfg.RegionContrastFloor {
		return math.Min(fs.RegionDispersion/cfg.PatchyScale, 1)
	}
	return math.Min(fs.RegionDispersion/cfg.FlatScale*cfg.FlatWeight, 1)
}
