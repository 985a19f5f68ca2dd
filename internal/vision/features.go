package vision

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// FeatureSet holds the per-frame statistics every classifier reads.
// Brightness and saturation use the 8-bit HSV scale (0-255), hue uses 0-179.
type FeatureSet struct {
	BrightnessMean     float64 `json:"brightness_mean"`
	BrightnessMin      float64 `json:"brightness_min"`
	BrightnessMax      float64 `json:"brightness_max"`
	Contrast           float64 `json:"contrast"`
	SaturationMean     float64 `json:"saturation_mean"`
	HueCoverage        float64 `json:"hue_coverage"`
	EdgeDensity        float64 `json:"edge_density"`
	TextureMean        float64 `json:"texture_mean"`
	RegionDispersion   float64 `json:"region_dispersion"`
	RegionContrastMean float64 `json:"region_contrast_mean"`
}

// DynamicRange is the spread between the darkest and brightest pixel.
func (f FeatureSet) DynamicRange() float64 {
	return f.BrightnessMax - f.BrightnessMin
}

// ExtractorConfig controls the feature extraction parameters.
type ExtractorConfig struct {
	HueLow        float64 `json:"hue_low"`
	HueHigh       float64 `json:"hue_high"`
	HueSatMin     float64 `json:"hue_sat_min"`
	HueSatMax     float64 `json:"hue_sat_max"`
	CannyLow      float64 `json:"canny_low"`
	CannyHigh     float64 `json:"canny_high"`
	TextureKernel int     `json:"texture_kernel"`
	GridSize      int     `json:"grid_size"`
}

// DefaultExtractorConfig returns the yellow-brown smog band, Canny 50/150,
// a 15x15 texture window and a 3x3 region grid.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		HueLow:        15,
		HueHigh:       35,
		HueSatMin:     20,
		HueSatMax:     150,
		CannyLow:      50,
		CannyHigh:     150,
		TextureKernel: 15,
		GridSize:      3,
	}
}

// Extractor derives FeatureSets from frames. It holds no per-call state.
type Extractor struct {
	config ExtractorConfig
}

func NewExtractor(config ExtractorConfig) *Extractor {
	if config.TextureKernel < 1 {
		config.TextureKernel = 1
	}
	if config.GridSize < 1 {
		config.GridSize = 1
	}
	return &Extractor{config: config}
}

// Extract computes the FeatureSet for one frame. Any frame content is valid;
// only malformed buffers produce an error.
func (e *Extractor) Extract(buf PixelBuffer) (FeatureSet, error) {
	if err := buf.validate(); err != nil {
		return FeatureSet{}, errors.Wrap(err, "feature extraction failed")
	}

	w, h := buf.width, buf.height
	n := w * h
	value := make([]float64, n)
	saturation := make([]float64, n)
	gray := make([]float64, n)

	covered := 0
	vMin, vMax := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		r, g, b := buf.pix[i*3], buf.pix[i*3+1], buf.pix[i*3+2]
		hue, sat, val := toHSV(r, g, b)
		value[i] = val
		saturation[i] = sat
		gray[i] = luma(r, g, b)

		if val < vMin {
			vMin = val
		}
		if val > vMax {
			vMax = val
		}
		if hue >= e.config.HueLow && hue <= e.config.HueHigh &&
			sat > e.config.HueSatMin && sat < e.config.HueSatMax {
			covered++
		}
	}

	fs := FeatureSet{
		BrightnessMean: stat.Mean(value, nil),
		BrightnessMin:  vMin,
		BrightnessMax:  vMax,
		Contrast:       stat.PopStdDev(gray, nil),
		SaturationMean: stat.Mean(saturation, nil),
		HueCoverage:    float64(covered) / float64(n),
		EdgeDensity:    edgeDensity(gray, w, h, e.config.CannyLow, e.config.CannyHigh),
		TextureMean:    textureMean(gray, w, h, e.config.TextureKernel),
	}
	fs.RegionContrastMean, fs.RegionDispersion = regionContrast(gray, w, h, e.config.GridSize)

	return fs, nil
}

// toHSV follows the 8-bit OpenCV convention: H in [0,180), S and V in [0,255].
func toHSV(r, g, b uint8) (h, s, v float64) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	diff := maxC - minC

	v = maxC
	if maxC > 0 {
		s = math.Round(255 * diff / maxC)
	}
	if diff == 0 {
		return 0, s, v
	}

	var deg float64
	switch maxC {
	case rf:
		deg = 60 * (gf - bf) / diff
	case gf:
		deg = 120 + 60*(bf-rf)/diff
	default:
		deg = 240 + 60*(rf-gf)/diff
	}
	if deg < 0 {
		deg += 360
	}
	h = math.Round(deg / 2)
	if h >= 180 {
		h -= 180
	}
	return h, s, v
}

// luma is the rounded BT.601 grayscale value.
func luma(r, g, b uint8) float64 {
	return math.Round(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
}

// regionContrast splits the frame into a grid x grid partition covering every
// pixel once and returns the mean and the std-dev of the per-region std-devs.
func regionContrast(gray []float64, w, h, grid int) (mean, dispersion float64) {
	stds := make([]float64, 0, grid*grid)
	region := make([]float64, 0, (w/grid+1)*(h/grid+1))

	for ry := 0; ry < grid; ry++ {
		y0, y1 := ry*h/grid, (ry+1)*h/grid
		for rx := 0; rx < grid; rx++ {
			x0, x1 := rx*w/grid, (rx+1)*w/grid
			region = region[:0]
			for y := y0; y < y1; y++ {
				region = append(region, gray[y*w+x0:y*w+x1]...)
			}
			if len(region) == 0 {
				continue
			}
			stds = append(stds, stat.PopStdDev(region, nil))
		}
	}

	if len(stds) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(stds, nil)
}
