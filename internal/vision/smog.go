package vision

import "math"

// SmogConfig tunes the urban-haze classifier. The hue band itself lives in
// ExtractorConfig since coverage is computed during extraction.
type SmogConfig struct {
	BrightnessLow  float64 `json:"brightness_low"`
	BrightnessHigh float64 `json:"brightness_high"`
	DarkFloor      float64 `json:"dark_floor"`
	BrightSpan     float64 `json:"bright_span"`
	Turbidity      float64 `json:"turbidity"`
}

func DefaultSmogConfig() SmogConfig {
	return SmogConfig{
		BrightnessLow:  100,
		BrightnessHigh: 180,
		DarkFloor:      80,
		BrightSpan:     75,
		Turbidity:      50,
	}
}

// SmogClassifier requires tinted coverage, medium brightness and low contrast
// at once; the factors multiply.
type SmogClassifier struct {
	cfg SmogConfig
}

func NewSmogClassifier(cfg SmogConfig) *SmogClassifier {
	return &SmogClassifier{cfg: cfg}
}

func (c *SmogClassifier) Class() Class { return ClassSmog }

func (c *SmogClassifier) Score(fs FeatureSet) float64 {
	return clip(fs.HueCoverage * c.brightnessFactor(fs.BrightnessMean) * c.contrastFactor(fs.Contrast))
}

func (c *SmogClassifier) brightnessFactor(b float64) float64 {
	cfg := c.cfg
	switch {
	case b >= cfg.BrightnessLow && b <= cfg.BrightnessHigh:
		return 1
	case b > cfg.BrightnessHigh:
		return math.Max(0, 1-(b-cfg.BrightnessHigh)/cfg.BrightSpan)
	default:
		return clip((b - cfg.DarkFloor) / (cfg.BrightnessLow - cfg.DarkFloor))
	}
}

// contrastFactor is 1 below the turbidity threshold and reaches 0 at twice it.
func (c *SmogClassifier) contrastFactor(k float64) float64 {
	t := c.cfg.Turbidity
	switch {
	case k < t:
		return 1
	case k < 2*t:
		return 1 - (k-t)/t
	default:
		return 0
	}
}
