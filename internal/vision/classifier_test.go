package vision

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformGrayFeatures(t *testing.T) FeatureSet {
	t.Helper()
	fs, err := NewExtractor(DefaultExtractorConfig()).Extract(Uniform(30, 30, 128, 128, 128))
	require.NoError(t, err)
	return fs
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.5, normalize(10, 5, 5, false))
	assert.Equal(t, 0.5, normalize(10, 5, 5, true))
	assert.Equal(t, 0.0, normalize(-3, 0, 10, false))
	assert.Equal(t, 1.0, normalize(30, 0, 10, false))
	assert.InDelta(t, 0.25, normalize(2.5, 0, 10, false), 1e-12)
	assert.InDelta(t, 0.75, normalize(2.5, 0, 10, true), 1e-12)
}

func TestUniformGrayFrame(t *testing.T) {
	fs := uniformGrayFeatures(t)
	cfg := DefaultClassifierConfig()

	fog := NewFogClassifier(cfg.Fog).Score(fs)
	smoke := NewSmokeClassifier(cfg.Smoke).Score(fs)
	vapor := NewVaporClassifier(cfg.Vapor).Score(fs)
	smog := NewSmogClassifier(cfg.Smog).Score(fs)

	// Contrast, saturation and range vote: mean 1.0 boosted by 0.7+0.3*3/4.
	assert.InDelta(t, 0.925, fog, 1e-9)
	// Fog-exclusion gate forces smoke to zero.
	assert.Equal(t, 0.0, smoke)
	assert.False(t, fog > 0.5 && smoke > 0.5)
	// (0 + 0.35 + 0.20 + 0.10) * 0.6 fog penalty.
	assert.InDelta(t, 0.39, vapor, 1e-9)
	// No tinted coverage.
	assert.Equal(t, 0.0, smog)
}

func TestFogFallsBackToBlendWithSingleVote(t *testing.T) {
	fog := NewFogClassifier(DefaultFogConfig())

	// Only brightness votes: bright but contrasty, saturated and wide-range.
	fs := FeatureSet{
		BrightnessMean: 255,
		BrightnessMin:  0,
		BrightnessMax:  255,
		Contrast:       80,
		SaturationMean: 90,
	}
	assert.InDelta(t, 0.35, fog.Score(fs), 1e-9)
}

func TestFogAllIndicatorsAgree(t *testing.T) {
	fog := NewFogClassifier(DefaultFogConfig())

	fs := FeatureSet{BrightnessMean: 255, BrightnessMin: 250, BrightnessMax: 250}
	// All four vote with sub-score 1.0 and full agreement.
	assert.InDelta(t, 1.0, fog.Score(fs), 1e-9)
}

func TestSmokePatchyFrame(t *testing.T) {
	smoke := NewSmokeClassifier(DefaultSmokeConfig())

	fs := FeatureSet{
		BrightnessMean:     120,
		Contrast:           40,
		SaturationMean:     60,
		EdgeDensity:        0.01,
		RegionContrastMean: 20,
		RegionDispersion:   15,
	}
	require.False(t, smoke.IsFogLike(fs))

	// 0.25*1.0 + 0.35*0.5 + 0.20*0.8 + 0.20*0.7
	assert.InDelta(t, 0.725, smoke.Score(fs), 1e-9)
}

func TestSmokeFlatRegionsUseReducedLocalization(t *testing.T) {
	smoke := NewSmokeClassifier(DefaultSmokeConfig())

	fs := FeatureSet{
		BrightnessMean:     170,
		Contrast:           30,
		SaturationMean:     20,
		EdgeDensity:        0.001,
		RegionContrastMean: 10,
		RegionDispersion:   4,
	}

	// 0.25*0.9 + 0.35*(4/10*0.5) + 0.20*0.2 + 0.20*0.9
	assert.InDelta(t, 0.225+0.07+0.04+0.18, smoke.Score(fs), 1e-9)
}

func TestVaporBrightMist(t *testing.T) {
	vapor := NewVaporClassifier(DefaultVaporConfig())

	fs := FeatureSet{BrightnessMean: 180, SaturationMean: 10, Contrast: 10}
	// No penalty: brightness is above the fog profile.
	assert.InDelta(t, 1.0, vapor.Score(fs), 1e-9)

	fs = FeatureSet{BrightnessMean: 150, SaturationMean: 40, Contrast: 30}
	// b=(150-140)/20*0.7=0.35, s=1-0.5*0.3=0.85, c=1-0.5*0.4=0.8
	assert.InDelta(t, 0.35*0.35+0.35*0.85+0.20*0.8+0.10, vapor.Score(fs), 1e-9)
}

func TestSmogRequiresAllFactors(t *testing.T) {
	smog := NewSmogClassifier(DefaultSmogConfig())

	tinted := FeatureSet{HueCoverage: 0.8, BrightnessMean: 140, Contrast: 30}
	assert.InDelta(t, 0.8, smog.Score(tinted), 1e-9)

	clear := tinted
	clear.Contrast = 120
	assert.Equal(t, 0.0, smog.Score(clear))

	dark := tinted
	dark.BrightnessMean = 70
	assert.Equal(t, 0.0, smog.Score(dark))

	decaying := tinted
	decaying.Contrast = 75
	decaying.BrightnessMean = 217.5
	// contrast factor 0.5, brightness factor 0.5
	assert.InDelta(t, 0.8*0.5*0.5, smog.Score(decaying), 1e-9)
}

func TestSmogConfigurableTurbidity(t *testing.T) {
	cfg := DefaultSmogConfig()
	cfg.Turbidity = 20
	smog := NewSmogClassifier(cfg)

	fs := FeatureSet{HueCoverage: 1, BrightnessMean: 140, Contrast: 30}
	assert.InDelta(t, 0.5, smog.Score(fs), 1e-9)
}

func TestClassifiersClipToUnitInterval(t *testing.T) {
	classifiers := NewClassifiers(DefaultClassifierConfig())
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		fs := FeatureSet{
			BrightnessMean:     rng.Float64()*400 - 50,
			BrightnessMin:      rng.Float64()*300 - 20,
			BrightnessMax:      rng.Float64()*300 - 20,
			Contrast:           rng.Float64() * 200,
			SaturationMean:     rng.Float64() * 300,
			HueCoverage:        rng.Float64() * 1.5,
			EdgeDensity:        rng.Float64(),
			TextureMean:        rng.Float64() * 100,
			RegionDispersion:   rng.Float64() * 200,
			RegionContrastMean: rng.Float64() * 100,
		}
		for _, c := range classifiers {
			out := evaluate(c, fs)
			require.NoError(t, out.Err)
			assert.GreaterOrEqual(t, out.Probability, 0.0, "%s below 0 for %+v", c.Class(), fs)
			assert.LessOrEqual(t, out.Probability, 1.0, "%s above 1 for %+v", c.Class(), fs)
		}
	}
}

type panickingClassifier struct{}

func (panickingClassifier) Class() Class              { return ClassSmog }
func (panickingClassifier) Score(fs FeatureSet) float64 { panic("boom") }

type nanClassifier struct{}

func (nanClassifier) Class() Class { return ClassVapor }
func (nanClassifier) Score(fs FeatureSet) float64 {
	zero := 0.0
	return zero / zero
}

func TestEvaluateRecoversFailures(t *testing.T) {
	out := evaluate(panickingClassifier{}, FeatureSet{})
	assert.True(t, out.Failed())
	assert.Equal(t, 0.0, out.Probability)

	out = evaluate(nanClassifier{}, FeatureSet{})
	assert.True(t, out.Failed())
	assert.Equal(t, 0.0, out.Probability)
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "fog", ClassFog.String())
	assert.Equal(t, "smog", ClassSmog.String())
	assert.Equal(t, "class(9)", Class(9).String())
}
