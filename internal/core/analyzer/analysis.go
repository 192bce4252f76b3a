package analyzer

import (
	"encoding/json"
	"fmt"
	"os"

	"songshare-analyzer/internal/rhythm"
)

// AnalysisVersion identifies the sidecar schema
const AnalysisVersion = "0.1"

// SidecarSuffix is appended to the audio file path to form the sidecar path
const SidecarSuffix = ".analysis.json"

// Provenance records which tool produced an analysis
type Provenance struct {
	Tool    string `json:"tool"`
	Version string `json:"version,omitempty"`
}

// Rhythm holds the rhythm portion of an analysis
type Rhythm struct {
	BPM    *float64       `json:"bpm"`
	Beats  []float64      `json:"beats"`
	Timing *rhythm.Result `json:"timing,omitempty"`
}

// Spectral holds spectral summary features
type Spectral struct {
	Centroid float64 `json:"centroid"`
}

// Features groups the signal-level analysis blocks
type Features struct {
	Rhythm   Rhythm   `json:"rhythm"`
	Spectral Spectral `json:"spectral"`
	Tonal    *Tonal   `json:"tonal,omitempty"`
}

// Tonal holds key estimation results
type Tonal struct {
	Key         string  `json:"key,omitempty"`
	KeyStrength float64 `json:"key_strength,omitempty"`
}

// Genre holds semantic genre predictions from an external classifier
type Genre struct {
	Top           string             `json:"top,omitempty"`
	TopConfidence float64            `json:"top_confidence,omitempty"`
	TopK          []string           `json:"top_k,omitempty"`
	Probs         map[string]float64 `json:"probs_dict,omitempty"`
}

// Semantic groups high-level semantic predictions
type Semantic struct {
	Genre *Genre `json:"genre,omitempty"`
}

// Analysis is the sidecar document written next to each audio file
type Analysis struct {
	Version    string     `json:"version"`
	Provenance Provenance `json:"provenance"`
	Analysis   Features   `json:"analysis"`
	Semantic   *Semantic  `json:"semantic,omitempty"`
}

// AnalyzeFile runs the full signal analysis on a WAV file: beat
// extraction, rhythm timing classification and spectral summary
func AnalyzeFile(path string, opts rhythm.Options) (*Analysis, error) {
	samples, sampleRate, err := LoadWAV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load audio: %w", err)
	}

	beats := ExtractBeats(samples, sampleRate)
	timing := rhythm.Classify(beats, opts)
	centroid := SpectralCentroid(samples, sampleRate)

	analysis := &Analysis{
		Version:    AnalysisVersion,
		Provenance: Provenance{Tool: "songshare-analyzer"},
		Analysis: Features{
			Rhythm: Rhythm{
				BPM:    timing.BPM,
				Beats:  beats,
				Timing: &timing,
			},
			Spectral: Spectral{Centroid: centroid},
		},
	}
	return analysis, nil
}

// SidecarPath returns the sidecar path for an audio file
func SidecarPath(audioPath string) string {
	return audioPath + SidecarSuffix
}

// WriteSidecar writes the analysis JSON next to the audio file and
// returns the sidecar path
func WriteSidecar(audioPath string, analysis *Analysis) (string, error) {
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis: %w", err)
	}

	sidecarPath := SidecarPath(audioPath)
	if err := os.WriteFile(sidecarPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write sidecar: %w", err)
	}
	return sidecarPath, nil
}

// ReadSidecar loads a previously written analysis sidecar, or returns
// nil when none exists
func ReadSidecar(audioPath string) (*Analysis, error) {
	data, err := os.ReadFile(SidecarPath(audioPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sidecar: %w", err)
	}

	var analysis Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sidecar: %w", err)
	}
	return &analysis, nil
}
