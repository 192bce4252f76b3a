package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songshare-analyzer/internal/rhythm"
)

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, "/music/song.mp3.analysis.json", SidecarPath("/music/song.mp3"))
}

func TestSidecarRoundTrip(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "song.wav")
	bpm := 120.0
	timing := rhythm.Classify([]float64{0, 0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5}, rhythm.DefaultOptions())

	analysis := &Analysis{
		Version:    AnalysisVersion,
		Provenance: Provenance{Tool: "songshare-analyzer"},
		Analysis: Features{
			Rhythm: Rhythm{
				BPM:    &bpm,
				Beats:  []float64{0, 0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5},
				Timing: &timing,
			},
			Spectral: Spectral{Centroid: 1234.5},
		},
	}

	sidecarPath, err := WriteSidecar(audioPath, analysis)
	require.NoError(t, err)
	assert.Equal(t, SidecarPath(audioPath), sidecarPath)

	loaded, err := ReadSidecar(audioPath)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, AnalysisVersion, loaded.Version)
	assert.Equal(t, "songshare-analyzer", loaded.Provenance.Tool)
	require.NotNil(t, loaded.Analysis.Rhythm.BPM)
	assert.Equal(t, 120.0, *loaded.Analysis.Rhythm.BPM)
	assert.Len(t, loaded.Analysis.Rhythm.Beats, 8)
	require.NotNil(t, loaded.Analysis.Rhythm.Timing)
	assert.Equal(t, rhythm.LabelClicktrack, loaded.Analysis.Rhythm.Timing.Label)
	assert.Equal(t, 1234.5, loaded.Analysis.Spectral.Centroid)
}

func TestReadSidecarMissing(t *testing.T) {
	loaded, err := ReadSidecar(filepath.Join(t.TempDir(), "absent.wav"))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestReadSidecarCorrupt(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "song.wav")
	require.NoError(t, os.WriteFile(SidecarPath(audioPath), []byte("{broken"), 0644))

	_, err := ReadSidecar(audioPath)
	assert.Error(t, err)
}

func TestAnalyzeFile(t *testing.T) {
	sampleRate := 8000
	samples := clickSamples(6.0, 0.5, sampleRate)
	path := writeTestWAV(t, samples, sampleRate)

	analysis, err := AnalyzeFile(path, rhythm.DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert.Equal(t, AnalysisVersion, analysis.Version)
	assert.Equal(t, "songshare-analyzer", analysis.Provenance.Tool)
	assert.NotEmpty(t, analysis.Analysis.Rhythm.Beats)
	require.NotNil(t, analysis.Analysis.Rhythm.Timing)
	assert.Equal(t, len(analysis.Analysis.Rhythm.Beats), analysis.Analysis.Rhythm.Timing.NBeats)
	// Synthetic clicks sit on a rigid grid
	assert.Equal(t, rhythm.LabelClicktrack, analysis.Analysis.Rhythm.Timing.Label)
}

func TestAnalyzeFileMissing(t *testing.T) {
	_, err := AnalyzeFile(filepath.Join(t.TempDir(), "missing.wav"), rhythm.DefaultOptions())
	assert.Error(t, err)
}
