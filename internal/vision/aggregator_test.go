package vision

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBatch() []PixelBuffer {
	return []PixelBuffer{
		Uniform(30, 30, 128, 128, 128),
		Uniform(30, 30, 160, 130, 90),
		splitFrame(30, 30),
		Uniform(24, 18, 230, 230, 235),
	}
}

func TestAnalyzeEmptyBatch(t *testing.T) {
	agg := NewAggregator(DefaultClassifierConfig(), DefaultDetectionThreshold)

	result := agg.Analyze(nil)

	if diff := cmp.Diff(BatchResult{}, result); diff != "" {
		t.Fatalf("empty batch mismatch (-want +got):\n%s", diff)
	}
	for _, c := range Classes {
		assert.Equal(t, 0.0, result.Class(c).Probability)
	}
	assert.False(t, result.Fog.Detected)
	assert.False(t, result.Smoke.Detected)
}

func TestAnalyzeMeanAndRange(t *testing.T) {
	agg := NewAggregator(DefaultClassifierConfig(), DefaultDetectionThreshold)
	frames := testBatch()

	perFrame := make([]FrameScores, len(frames))
	for i, f := range frames {
		perFrame[i] = agg.Score(f)
		require.NoError(t, perFrame[i].Err)
	}

	result := agg.Analyze(frames)
	assert.Equal(t, len(frames), result.FramesAnalyzed)
	assert.Equal(t, 0, result.FramesFailed)

	for _, c := range Classes {
		var sum float64
		for _, s := range perFrame {
			sum += s.Outcomes[c].Probability
		}
		want := math.Round(sum/float64(len(frames))*1000) / 1000

		got := result.Class(c)
		assert.Equal(t, want, got.Probability, "mean for %s", c)
		assert.GreaterOrEqual(t, got.Probability, 0.0)
		assert.LessOrEqual(t, got.Probability, 1.0)
		for _, s := range perFrame {
			p := s.Outcomes[c].Probability
			assert.LessOrEqual(t, got.Min, p, "min bound for %s", c)
			assert.GreaterOrEqual(t, got.Max, p, "max bound for %s", c)
		}
	}
}

func TestAnalyzeDetectionFlags(t *testing.T) {
	frames := []PixelBuffer{Uniform(30, 30, 128, 128, 128), Uniform(30, 30, 128, 128, 128)}

	result := NewAggregator(DefaultClassifierConfig(), DefaultDetectionThreshold).Analyze(frames)
	assert.Equal(t, 0.925, result.Fog.Probability)
	assert.True(t, result.Fog.Detected)
	assert.False(t, result.Smoke.Detected)
	// Vapor and smog are advisory and never flagged.
	assert.False(t, result.Vapor.Detected)
	assert.False(t, result.Smog.Detected)

	strict := NewAggregator(DefaultClassifierConfig(), 0.95).Analyze(frames)
	assert.Equal(t, 0.925, strict.Fog.Probability)
	assert.False(t, strict.Fog.Detected)
}

func TestAnalyzeDegenerateFrameScoresZero(t *testing.T) {
	agg := NewAggregator(DefaultClassifierConfig(), DefaultDetectionThreshold)
	frames := []PixelBuffer{Uniform(30, 30, 128, 128, 128), Uniform(2, 2, 128, 128, 128)}

	scores := agg.Score(frames[1])
	require.Error(t, scores.Err)
	for _, c := range Classes {
		assert.True(t, scores.Outcomes[c].Failed())
		assert.Equal(t, 0.0, scores.Outcomes[c].Probability)
	}

	good := agg.Score(frames[0]).Outcomes[ClassFog].Probability

	result := agg.Analyze(frames)
	assert.Equal(t, 2, result.FramesAnalyzed)
	assert.Equal(t, 1, result.FramesFailed)
	assert.Equal(t, round3((good+0)/2), result.Fog.Probability)
	assert.Equal(t, 0.0, result.Fog.Min)
	assert.Equal(t, good, result.Fog.Max)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	agg := NewAggregator(DefaultClassifierConfig(), DefaultDetectionThreshold)
	frames := testBatch()

	first := agg.Analyze(frames)
	second := agg.Analyze(frames)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated analysis differs (-first +second):\n%s", diff)
	}
}

func TestClassifierConfigRoundTripFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, WriteClassifierConfig(path, DefaultClassifierConfig()))

	cfg, err := LoadClassifierConfig(path)
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultClassifierConfig(), cfg); diff != "" {
		t.Fatalf("loaded config differs (-want +got):\n%s", diff)
	}
}

func TestLoadClassifierConfigPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"smog":{"turbidity":40},"fog":{"boost_floor":0.6}}`), 0644))

	cfg, err := LoadClassifierConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 40.0, cfg.Smog.Turbidity)
	assert.Equal(t, 0.6, cfg.Fog.BoostFloor)
	assert.Equal(t, 100.0, cfg.Smog.BrightnessLow)
	assert.Equal(t, DefaultSmokeConfig(), cfg.Smoke)
}

func TestLoadClassifierConfigErrors(t *testing.T) {
	cfg, err := LoadClassifierConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultClassifierConfig(), cfg)

	_, err = LoadClassifierConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = LoadClassifierConfig(bad)
	assert.Error(t, err)
}
