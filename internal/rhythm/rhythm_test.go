package rhythm

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metronome(n int, period float64) []float64 {
	beats := make([]float64, n)
	for i := range beats {
		beats[i] = float64(i) * period
	}
	return beats
}

func TestClassifyTooFewBeats(t *testing.T) {
	cases := [][]float64{
		nil,
		{},
		{0.0},
		{0.0, 0.5, 1.0},
		metronome(7, 0.5),
	}

	for _, beats := range cases {
		result := Classify(beats, DefaultOptions())

		assert.Equal(t, LabelUncertain, result.Label)
		assert.Equal(t, 0.0, result.Confidence)
		assert.Equal(t, ReasonTooFewBeats, result.Reason)
		assert.Nil(t, result.BPM)
		assert.Nil(t, result.BeatCV)
		assert.Nil(t, result.QuantScore)
		assert.Equal(t, len(beats), result.NBeats)
	}
}

func TestClassifyPerfectMetronome(t *testing.T) {
	beats := metronome(16, 0.5)

	result := Classify(beats, DefaultOptions())

	assert.Equal(t, 16, result.NBeats)
	assert.Equal(t, LabelClicktrack, result.Label)
	require.NotNil(t, result.BeatCV)
	assert.Less(t, *result.BeatCV, 0.001)
	require.NotNil(t, result.QuantScore)
	assert.Equal(t, 1.0, *result.QuantScore)
	assert.Greater(t, result.Confidence, 0.9)
	require.NotNil(t, result.BPM)
	assert.InDelta(t, 120.0, *result.BPM, 1e-9)
}

func TestClassifyJitteredBeats(t *testing.T) {
	// 16 beats around a 0.5s grid with ~20ms of timing error, the
	// sort of spread a live drummer produces
	offsets := []float64{
		0.000, 0.021, -0.018, 0.032, -0.025, 0.011, -0.030, 0.024,
		-0.015, 0.028, -0.022, 0.016, -0.027, 0.033, -0.019, 0.026,
	}
	beats := make([]float64, len(offsets))
	for i, off := range offsets {
		beats[i] = float64(i)*0.5 + off
	}

	result := Classify(beats, DefaultOptions())

	require.NotNil(t, result.BeatCV)
	assert.Greater(t, *result.BeatCV, 0.002)
	assert.NotEqual(t, LabelClicktrack, result.Label)
}

func TestClassifyDeterminism(t *testing.T) {
	beats := []float64{0.0, 0.51, 0.99, 1.52, 2.01, 2.48, 3.02, 3.49, 4.01}

	first := Classify(beats, DefaultOptions())
	second := Classify(beats, DefaultOptions())

	assert.Equal(t, first.Label, second.Label)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Reason, second.Reason)
	assert.Equal(t, *first.BPM, *second.BPM)
	assert.Equal(t, *first.BeatCV, *second.BeatCV)
	assert.Equal(t, *first.QuantScore, *second.QuantScore)
	assert.Equal(t, first.NBeats, second.NBeats)
}

func TestClassifyBPMConsistency(t *testing.T) {
	periods := []float64{0.25, 0.4, 0.5, 0.6, 0.75, 1.0}

	for _, period := range periods {
		result := Classify(metronome(12, period), DefaultOptions())

		require.NotNil(t, result.BPM, "period %g", period)
		assert.InDelta(t, 60.0/period, *result.BPM, 1e-9, "period %g", period)
	}
}

func TestClassifyConfidenceBounds(t *testing.T) {
	inputs := [][]float64{
		metronome(16, 0.5),
		{0.0, 0.1, 0.9, 1.0, 3.0, 3.1, 3.9, 4.0, 7.0},
		{0.0, 0.47, 1.03, 1.52, 1.98, 2.55, 3.01, 3.46},
		{5.0, 5.0, 5.0, 5.0, 5.0, 5.0, 5.0, 5.0}, // zero-length intervals
		{3.0, 2.5, 2.0, 1.5, 1.0, 0.5, 0.0, -0.5}, // decreasing
	}

	for i, beats := range inputs {
		result := Classify(beats, DefaultOptions())

		assert.GreaterOrEqual(t, result.Confidence, 0.0, "case %d", i)
		assert.LessOrEqual(t, result.Confidence, 1.0, "case %d", i)
		if result.QuantScore != nil {
			assert.GreaterOrEqual(t, *result.QuantScore, 0.0, "case %d", i)
			assert.LessOrEqual(t, *result.QuantScore, 1.0, "case %d", i)
		}
	}
}

func TestClassifyThresholdExclusivity(t *testing.T) {
	// Sweep a family of inputs from perfectly rigid to heavily
	// jittered and check the label always agrees with the thresholds
	for step := 0; step <= 40; step++ {
		jitter := float64(step) * 0.001
		beats := make([]float64, 16)
		for i := range beats {
			off := jitter
			if i%2 == 1 {
				off = -jitter
			}
			beats[i] = float64(i)*0.5 + off
		}

		result := Classify(beats, DefaultOptions())

		name := fmt.Sprintf("jitter=%.3f", jitter)
		switch result.Label {
		case LabelClicktrack:
			assert.GreaterOrEqual(t, result.Confidence, clicktrackThreshold, name)
		case LabelHuman:
			assert.LessOrEqual(t, result.Confidence, humanThreshold, name)
		case LabelUncertain:
			assert.Greater(t, result.Confidence, humanThreshold, name)
			assert.Less(t, result.Confidence, clicktrackThreshold, name)
		default:
			t.Fatalf("unexpected label %q for %s", result.Label, name)
		}
	}
}

func TestClassifyZeroMeanInterval(t *testing.T) {
	// All beats at the same instant: mean IBI is zero, so CV is
	// undefined and BPM cannot be estimated
	beats := []float64{2.0, 2.0, 2.0, 2.0, 2.0, 2.0, 2.0, 2.0}

	result := Classify(beats, DefaultOptions())

	require.NotNil(t, result.BeatCV)
	assert.True(t, math.IsInf(*result.BeatCV, 1))
	assert.Nil(t, result.BPM)
	assert.Equal(t, LabelHuman, result.Label)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestClassifyReasonFormat(t *testing.T) {
	result := Classify(metronome(16, 0.5), DefaultOptions())

	assert.Equal(t, "cv=0.00000,quant=1.000", result.Reason)
}

func TestClassifyCustomOptions(t *testing.T) {
	opts := Options{Subdivisions: 4, QuantTolerance: 0.005, MinBeats: 4}

	result := Classify(metronome(5, 0.5), opts)

	assert.Equal(t, LabelClicktrack, result.Label)
	assert.Equal(t, 5, result.NBeats)

	guarded := Classify(metronome(3, 0.5), opts)
	assert.Equal(t, ReasonTooFewBeats, guarded.Reason)
}

func TestClassifyInputNotModified(t *testing.T) {
	beats := []float64{4.0, 0.0, 2.0, 1.0, 3.0, 5.0, 7.0, 6.0}
	orig := make([]float64, len(beats))
	copy(orig, beats)

	Classify(beats, DefaultOptions())

	assert.Equal(t, orig, beats)
}
