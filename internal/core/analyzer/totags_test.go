package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songshare-analyzer/internal/rhythm"
)

func TestRhythmTagsClicktrack(t *testing.T) {
	beats := make([]float64, 16)
	for i := range beats {
		beats[i] = float64(i) * 0.5
	}
	result := rhythm.Classify(beats, rhythm.DefaultOptions())
	require.Equal(t, rhythm.LabelClicktrack, result.Label)

	tags := RhythmTags(&result)

	assert.Equal(t, "clicktrack", tags["TXXX:rhythm_timing"])
	assert.Equal(t, "0", tags["TXXX:rhythm_human"])
	assert.NotEqual(t, "0", tags["TXXX:rhythm_machine"])
	assert.Equal(t, tags["TXXX:rhythm_timing_confidence"], tags["TXXX:rhythm_machine"])
	assert.Equal(t, "cv=0.00000,quant=1.000", tags["TXXX:rhythm_timing_reason"])
	assert.Equal(t, "0.000000", tags["TXXX:beat_cv"])
	assert.Equal(t, "1.000000", tags["TXXX:quant_score"])
}

func TestRhythmTagsTooFewBeats(t *testing.T) {
	result := rhythm.Classify([]float64{0, 0.5}, rhythm.DefaultOptions())

	tags := RhythmTags(&result)

	assert.Equal(t, "uncertain", tags["TXXX:rhythm_timing"])
	assert.Equal(t, "0", tags["TXXX:rhythm_human"])
	assert.Equal(t, "0", tags["TXXX:rhythm_machine"])
	assert.Equal(t, "0.000000", tags["TXXX:rhythm_timing_confidence"])
	assert.Equal(t, "too_few_beats", tags["TXXX:rhythm_timing_reason"])
	// No diagnostics on the guard path
	assert.NotContains(t, tags, "TXXX:beat_cv")
	assert.NotContains(t, tags, "TXXX:quant_score")
}

func TestRhythmTagsNil(t *testing.T) {
	assert.Empty(t, RhythmTags(nil))
}

func TestAnalysisToTagsBPMAndKey(t *testing.T) {
	bpm := 117.45
	analysis := &Analysis{
		Version:    AnalysisVersion,
		Provenance: Provenance{Tool: "songshare-analyzer"},
		Analysis: Features{
			Rhythm: Rhythm{BPM: &bpm},
			Tonal:  &Tonal{Key: "A minor", KeyStrength: 0.8},
		},
	}

	tags := AnalysisToTags(analysis, DefaultThresholds())

	assert.Equal(t, "117.45", tags["TBPM"])
	assert.Equal(t, "A minor", tags["TKEY"])
	assert.Contains(t, tags["TXXX:provenance"], "songshare-analyzer")
}

func TestAnalysisToTagsLowConfidenceKeySkipped(t *testing.T) {
	analysis := &Analysis{
		Analysis: Features{
			Tonal: &Tonal{Key: "F# major", KeyStrength: 0.3},
		},
	}

	tags := AnalysisToTags(analysis, DefaultThresholds())

	assert.NotContains(t, tags, "TKEY")
}

func TestAnalysisToTagsGenrePromoted(t *testing.T) {
	analysis := &Analysis{
		Semantic: &Semantic{
			Genre: &Genre{
				Top:           "Jazz",
				TopConfidence: 0.85,
				TopK:          []string{"Jazz", "Blues"},
				Probs:         map[string]float64{"Jazz": 0.85, "Blues": 0.4, "Rock": 0.1},
			},
		},
	}

	tags := AnalysisToTags(analysis, DefaultThresholds())

	assert.Equal(t, "Jazz", tags["TCON"])
	assert.Equal(t, "0.85", tags["TXXX:genre_top_confidence"])
	assert.Equal(t, `["Jazz","Blues"]`, tags["TXXX:genre_top_k"])
	// Per-label decile frames accompany a promoted genre
	assert.Equal(t, "6", tags["TXXX:panns Jazz"])
	assert.Equal(t, "3", tags["TXXX:panns Blues"])
	assert.Equal(t, "0", tags["TXXX:panns Rock"])
}

func TestAnalysisToTagsGenericGenreBlocked(t *testing.T) {
	analysis := &Analysis{
		Semantic: &Semantic{
			Genre: &Genre{Top: "Music", TopConfidence: 0.95},
		},
	}

	tags := AnalysisToTags(analysis, DefaultThresholds())

	assert.NotContains(t, tags, "TCON")
	assert.Equal(t, "Music", tags["TXXX:genre_top"])
	assert.Equal(t, "0.95", tags["TXXX:genre_top_confidence"])
}

func TestAnalysisToTagsLowConfidenceGenreBlocked(t *testing.T) {
	analysis := &Analysis{
		Semantic: &Semantic{
			Genre: &Genre{Top: "Jazz", TopConfidence: 0.2},
		},
	}

	tags := AnalysisToTags(analysis, DefaultThresholds())

	assert.NotContains(t, tags, "TCON")
	assert.Equal(t, "Jazz", tags["TXXX:genre_top"])
}

func TestAnalysisToTagsNil(t *testing.T) {
	assert.Empty(t, AnalysisToTags(nil, DefaultThresholds()))
}

func TestComputeDeciles(t *testing.T) {
	probs := map[string]float64{
		"a": 0.1, "b": 0.2, "c": 0.3, "d": 0.4, "e": 0.5,
		"f": 0.6, "g": 0.7, "h": 0.8, "i": 0.9, "j": 1.0,
	}

	rows := ComputeDeciles(probs)
	require.Len(t, rows, 10)

	// Sorted by probability descending
	assert.Equal(t, "j", rows[0].Label)
	assert.Equal(t, 9, rows[0].Decile)
	assert.Equal(t, "a", rows[9].Label)
	assert.Equal(t, 0, rows[9].Decile)
}

func TestComputeDecilesSingleLabel(t *testing.T) {
	rows := ComputeDeciles(map[string]float64{"only": 0.7})
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].Decile)
}

func TestComputeDecilesEmpty(t *testing.T) {
	assert.Nil(t, ComputeDeciles(nil))
}
