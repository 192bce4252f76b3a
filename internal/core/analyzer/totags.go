package analyzer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"songshare-analyzer/internal/rhythm"
)

// Thresholds controls how confident an analysis value must be before it
// is written into a standard tag frame
type Thresholds struct {
	Confidence float64
}

// DefaultThresholds returns the conservative write thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{Confidence: 0.6}
}

// genericGenreBlacklist lists classifier outputs too vague to be useful
// as a TCON genre
var genericGenreBlacklist = map[string]bool{
	"music":              true,
	"song":               true,
	"singing":            true,
	"speech":             true,
	"vocal music":        true,
	"background music":   true,
	"music for children": true,
	"soundtrack music":   true,
	"audio":              true,
	"instrumental":       true,
	"music video":        true,
}

// AnalysisToTags converts an analysis sidecar into tag frames following
// the conservative write rules: scalars are only promoted to standard
// frames when confident, everything else lands in TXXX frames for
// downstream inspection.
func AnalysisToTags(analysis *Analysis, th Thresholds) map[string]string {
	out := make(map[string]string)
	if analysis == nil {
		return out
	}

	if prov, err := json.Marshal(analysis.Provenance); err == nil {
		out["TXXX:provenance"] = string(prov)
	}

	if bpm := analysis.Analysis.Rhythm.BPM; bpm != nil {
		out["TBPM"] = strconv.FormatFloat(*bpm, 'f', -1, 64)
	}

	if tonal := analysis.Analysis.Tonal; tonal != nil && tonal.Key != "" {
		if tonal.KeyStrength == 0 || tonal.KeyStrength >= th.Confidence {
			out["TKEY"] = tonal.Key
		}
	}

	if timing := analysis.Analysis.Rhythm.Timing; timing != nil {
		for frame, value := range RhythmTags(timing) {
			out[frame] = value
		}
	}

	if analysis.Semantic != nil && analysis.Semantic.Genre != nil {
		writeGenreTags(out, analysis.Semantic.Genre, th)
	}

	return out
}

// RhythmTags converts a timing classification into its TXXX frames.
// The rhythm_human / rhythm_machine pair carries the confidence on the
// matching side and "0" on the other, so simple players can filter on
// either frame without parsing the label.
func RhythmTags(result *rhythm.Result) map[string]string {
	out := make(map[string]string)
	if result == nil {
		return out
	}

	confidence := fmt.Sprintf("%.6f", result.Confidence)

	humanVal := "0"
	machineVal := "0"
	switch result.Label {
	case rhythm.LabelHuman:
		humanVal = confidence
	case rhythm.LabelClicktrack:
		machineVal = confidence
	}

	out["TXXX:rhythm_human"] = humanVal
	out["TXXX:rhythm_machine"] = machineVal
	out["TXXX:rhythm_timing"] = result.Label
	out["TXXX:rhythm_timing_confidence"] = confidence
	if result.Reason != "" {
		out["TXXX:rhythm_timing_reason"] = result.Reason
	}
	if result.BeatCV != nil {
		out["TXXX:beat_cv"] = fmt.Sprintf("%.6f", *result.BeatCV)
	}
	if result.QuantScore != nil {
		out["TXXX:quant_score"] = fmt.Sprintf("%.6f", *result.QuantScore)
	}

	return out
}

// writeGenreTags applies the genre promotion rules: a confident,
// non-generic top label becomes TCON plus per-label decile frames;
// anything else stays in TXXX frames only.
func writeGenreTags(out map[string]string, genre *Genre, th Thresholds) {
	confident := genre.TopConfidence == 0 || genre.TopConfidence >= th.Confidence
	usable := genre.Top != "" && confident && !genericGenreBlacklist[strings.ToLower(strings.TrimSpace(genre.Top))]

	if usable {
		out["TCON"] = genre.Top
		if genre.TopConfidence > 0 {
			out["TXXX:genre_top_confidence"] = strconv.FormatFloat(genre.TopConfidence, 'f', -1, 64)
		}
		if len(genre.TopK) > 0 {
			if topK, err := json.Marshal(genre.TopK); err == nil {
				out["TXXX:genre_top_k"] = string(topK)
			}
		}
		for _, row := range ComputeDeciles(genre.Probs) {
			out["TXXX:panns "+row.Label] = strconv.Itoa(row.Decile)
		}
		return
	}

	// Conservative rules blocked TCON: keep the raw prediction around
	if genre.Top != "" {
		out["TXXX:genre_top"] = genre.Top
	}
	if genre.TopConfidence > 0 {
		out["TXXX:genre_top_confidence"] = strconv.FormatFloat(genre.TopConfidence, 'f', -1, 64)
	}
	if len(genre.TopK) > 0 {
		if topK, err := json.Marshal(genre.TopK); err == nil {
			out["TXXX:genre_top_k"] = string(topK)
		}
	}
}

// DecileRow is one label's probability rank bucket
type DecileRow struct {
	Label  string  `json:"label"`
	Prob   float64 `json:"prob"`
	Decile int     `json:"decile"`
}

// ComputeDeciles buckets each label's probability into a decile (0-9)
// relative to the other labels, sorted by probability descending
func ComputeDeciles(probs map[string]float64) []DecileRow {
	if len(probs) == 0 {
		return nil
	}

	sorted := make([]float64, 0, len(probs))
	for _, p := range probs {
		sorted = append(sorted, p)
	}
	sort.Float64s(sorted)
	n := len(sorted)

	rows := make([]DecileRow, 0, n)
	for label, p := range probs {
		decile := 0
		if n > 1 {
			// Rank of the last element <= p
			rank := sort.SearchFloat64s(sorted, p)
			for rank < n && sorted[rank] <= p {
				rank++
			}
			rank--
			decile = rank * 10 / n
			if decile < 0 {
				decile = 0
			}
			if decile > 9 {
				decile = 9
			}
		}
		rows = append(rows, DecileRow{Label: label, Prob: p, Decile: decile})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Prob != rows[j].Prob {
			return rows[i].Prob > rows[j].Prob
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}
