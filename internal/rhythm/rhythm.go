// Package rhythm classifies beat timestamp sequences as human-performed
// or clicktrack-quantized based on inter-beat interval regularity and
// alignment against a subdivided phase grid.
package rhythm

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Label values returned by Classify
const (
	LabelHuman      = "human"
	LabelClicktrack = "clicktrack"
	LabelUncertain  = "uncertain"
)

// ReasonTooFewBeats is the reason set when the input has fewer beats
// than Options.MinBeats
const ReasonTooFewBeats = "too_few_beats"

const (
	// madScale converts the median absolute deviation into a
	// consistent estimate of the standard deviation for normally
	// distributed data
	madScale = 1.4826

	// cvCeiling maps the coefficient of variation into [0,1]: a CV of
	// zero scores 1, anything at or above the ceiling scores 0
	cvCeiling = 0.02

	cvWeight    = 0.6
	quantWeight = 0.4

	clicktrackThreshold = 0.6
	humanThreshold      = 0.4
)

// Options controls the classifier. The zero value is not usable;
// start from DefaultOptions.
type Options struct {
	// Subdivisions is the number of grid points per beat period used
	// for the quantization score
	Subdivisions int

	// QuantTolerance is the maximum distance in seconds from a grid
	// point for a beat to count as quantized
	QuantTolerance float64

	// MinBeats is the minimum number of beat timestamps required to
	// attempt classification
	MinBeats int
}

// DefaultOptions returns the standard classifier configuration
func DefaultOptions() Options {
	return Options{
		Subdivisions:   16,
		QuantTolerance: 0.010,
		MinBeats:       8,
	}
}

// Result holds the classification outcome for one beat sequence.
// BPM, BeatCV and QuantScore are nil when the input had too few beats.
type Result struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason"`
	BPM        *float64 `json:"bpm"`
	BeatCV     *float64 `json:"beat_cv"`
	QuantScore *float64 `json:"quant_score"`
	NBeats     int      `json:"n_beats"`
}

// Classify determines the rhythm timing label and confidence for a
// sequence of beat timestamps in seconds. The input is not modified.
func Classify(beats []float64, opts Options) Result {
	if len(beats) < opts.MinBeats {
		return Result{
			Label:      LabelUncertain,
			Confidence: 0.0,
			Reason:     ReasonTooFewBeats,
			NBeats:     len(beats),
		}
	}

	ibis := make([]float64, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		ibis[i-1] = beats[i] - beats[i-1]
	}

	meanIBI := stat.Mean(ibis, nil)
	robustStd := madScale * mad(ibis)

	cv := math.Inf(1)
	if meanIBI > 0 {
		cv = robustStd / meanIBI
	}

	quantScore := quantizationScore(beats, meanIBI, opts.Subdivisions, opts.QuantTolerance)

	cvScore := math.Max(0.0, (cvCeiling-cv)/cvCeiling)
	confidence := clamp(cvWeight*cvScore+quantWeight*quantScore, 0.0, 1.0)

	var label string
	switch {
	case confidence >= clicktrackThreshold:
		label = LabelClicktrack
	case confidence <= humanThreshold:
		label = LabelHuman
	default:
		label = LabelUncertain
	}

	var bpm *float64
	if meanIBI > 0 {
		bpm = ptr(60.0 / meanIBI)
	}

	return Result{
		Label:      label,
		Confidence: confidence,
		Reason:     fmt.Sprintf("cv=%.5f,quant=%.3f", cv, quantScore),
		BPM:        bpm,
		BeatCV:     ptr(cv),
		QuantScore: ptr(quantScore),
		NBeats:     len(beats),
	}
}

// quantizationScore returns the fraction of beats whose phase within
// the beat period lands within tolerance seconds of the nearest of
// subdivisions evenly spaced grid points. Phase distance is circular,
// so a beat just before the period boundary is close to grid point 0.
func quantizationScore(beats []float64, period float64, subdivisions int, tolerance float64) float64 {
	if period <= 0 {
		return 0.0
	}

	hits := 0
	for _, beat := range beats {
		phase := math.Mod(beat, period) / period
		if phase < 0 {
			phase += 1.0
		}
		// Distance to the nearest multiple of 1/subdivisions,
		// measured around the unit circle
		frac := phase * float64(subdivisions)
		dist := math.Abs(frac-math.Round(frac)) / float64(subdivisions)
		if dist*period <= tolerance {
			hits++
		}
	}
	return float64(hits) / float64(len(beats))
}

// mad returns the median absolute deviation of xs
func mad(xs []float64) float64 {
	m := median(xs)
	devs := make([]float64, len(xs))
	for i, x := range xs {
		devs[i] = math.Abs(x - m)
	}
	return median(devs)
}

// median returns the sample median, averaging the two middle values
// for even-length input
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2.0
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

func ptr(x float64) *float64 {
	return &x
}
