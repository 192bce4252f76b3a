// Package analyzer extracts rhythm and spectral features from audio
// files and persists them as JSON sidecars next to the originals.
package analyzer

import (
	"fmt"
	"math"
	"math/cmplx"
	"os"

	"github.com/go-audio/wav"
	"github.com/mjibson/go-dsp/fft"
)

// Tunables
const (
	WindowSize = 1024
	HopSize    = 512

	// minOnsetSeparation is the minimum gap between detected beats;
	// 180ms corresponds to ~330 BPM, above anything musical
	minOnsetSeparation = 0.180

	// onsetThresholdFactor scales the mean spectral flux into the
	// peak-picking threshold
	onsetThresholdFactor = 1.5
)

// LoadWAV reads a PCM WAV file and returns normalized mono float64
// samples and the sample rate
func LoadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid WAV file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode PCM data: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("empty PCM data in %s", path)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, 0, fmt.Errorf("invalid channel count %d in %s", channels, path)
	}

	// Mix down to mono and normalize to [-1, 1]
	scale := 1.0
	if decoder.BitDepth > 0 {
		scale = 1.0 / float64(int(1)<<(decoder.BitDepth-1))
	}

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		samples[i] = (sum / float64(channels)) * scale
	}

	return samples, int(decoder.SampleRate), nil
}

// Hann returns a Hann window of length n
func Hann(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// magnitudeSpectrum converts a complex spectrum into a magnitude
// spectrum over the positive frequencies only
func magnitudeSpectrum(spectrum []complex128) []float64 {
	half := len(spectrum) / 2
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// OnsetEnvelope computes a spectral-flux onset strength envelope.
// Each value is the sum of positive magnitude increases between
// consecutive windowed FFT frames.
func OnsetEnvelope(samples []float64, windowSize, hopSize int) []float64 {
	if len(samples) < windowSize {
		return nil
	}

	window := Hann(windowSize)
	var envelope []float64
	var prevMag []float64

	frame := make([]float64, windowSize)
	for start := 0; start+windowSize <= len(samples); start += hopSize {
		for i := 0; i < windowSize; i++ {
			frame[i] = samples[start+i] * window[i]
		}

		mag := magnitudeSpectrum(fft.FFTReal(frame))

		flux := 0.0
		if prevMag != nil {
			for i := range mag {
				if diff := mag[i] - prevMag[i]; diff > 0 {
					flux += diff
				}
			}
		}
		envelope = append(envelope, flux)
		prevMag = mag
	}

	return envelope
}

// ExtractBeats detects beat timestamps in seconds from mono samples.
// Onsets are picked as local maxima of the spectral flux envelope that
// exceed an adaptive threshold, separated by at least minOnsetSeparation.
func ExtractBeats(samples []float64, sampleRate int) []float64 {
	if sampleRate <= 0 {
		return nil
	}

	envelope := OnsetEnvelope(samples, WindowSize, HopSize)
	if len(envelope) < 3 {
		return nil
	}

	mean := 0.0
	for _, v := range envelope {
		mean += v
	}
	mean /= float64(len(envelope))
	threshold := mean * onsetThresholdFactor

	hopSeconds := float64(HopSize) / float64(sampleRate)
	minGapFrames := int(minOnsetSeparation / hopSeconds)
	if minGapFrames < 1 {
		minGapFrames = 1
	}

	var beats []float64
	lastPeak := -minGapFrames
	for i := 1; i < len(envelope)-1; i++ {
		if envelope[i] < threshold {
			continue
		}
		if envelope[i] < envelope[i-1] || envelope[i] < envelope[i+1] {
			continue
		}
		if i-lastPeak < minGapFrames {
			continue
		}
		beats = append(beats, float64(i)*hopSeconds)
		lastPeak = i
	}

	return beats
}

// SpectralCentroid computes the average spectral centroid in Hz across
// the whole signal, a rough brightness measure
func SpectralCentroid(samples []float64, sampleRate int) float64 {
	if len(samples) < WindowSize || sampleRate <= 0 {
		return 0
	}

	window := Hann(WindowSize)
	binHz := float64(sampleRate) / float64(WindowSize)

	total := 0.0
	frames := 0
	frame := make([]float64, WindowSize)
	for start := 0; start+WindowSize <= len(samples); start += HopSize {
		for i := 0; i < WindowSize; i++ {
			frame[i] = samples[start+i] * window[i]
		}

		mag := magnitudeSpectrum(fft.FFTReal(frame))

		num := 0.0
		den := 0.0
		for i, m := range mag {
			num += float64(i) * binHz * m
			den += m
		}
		if den > 0 {
			total += num / den
			frames++
		}
	}

	if frames == 0 {
		return 0
	}
	return total / float64(frames)
}
