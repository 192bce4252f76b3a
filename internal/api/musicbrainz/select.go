package musicbrainz

import "strings"

// SelectCandidate picks the best recording from a search result list
// deterministically.
//
// Preference order:
//  1. Exact title matches (case-insensitive). When an artist was given,
//     prefer those that also match the artist exactly.
//  2. Exact artist matches when no title matched.
//  3. Otherwise the highest relevance score.
//
// Equal scores are broken by the lexicographically smallest recording ID
// so repeated runs select the same candidate.
func SelectCandidate(candidates []Recording, title, artist string) *Recording {
	if len(candidates) == 0 {
		return nil
	}

	titleNorm := normalize(title)
	artistNorm := normalize(artist)

	var exactTitle []Recording
	for _, candidate := range candidates {
		if normalize(candidate.Title) == titleNorm {
			exactTitle = append(exactTitle, candidate)
		}
	}

	if len(exactTitle) > 0 {
		if artist != "" {
			var exactBoth []Recording
			for _, candidate := range exactTitle {
				if normalize(candidateArtistName(&candidate)) == artistNorm {
					exactBoth = append(exactBoth, candidate)
				}
			}
			if len(exactBoth) > 0 {
				return bestByScoreAndID(exactBoth)
			}
		}
		return bestByScoreAndID(exactTitle)
	}

	if artist != "" {
		var exactArtist []Recording
		for _, candidate := range candidates {
			if normalize(candidateArtistName(&candidate)) == artistNorm {
				exactArtist = append(exactArtist, candidate)
			}
		}
		if len(exactArtist) > 0 {
			return bestByScoreAndID(exactArtist)
		}
	}

	return bestByScoreAndID(candidates)
}

// IsPreciseMatch reports whether the selected recording exactly matches
// the queried title and artist. When both were provided, both must match;
// with only one provided, that one must match. Title comparisons use the
// search candidate, since full lookups can carry normalized titles that
// defeat exact matching; artist comparisons fall back to the full record
// when the candidate has no artist credit.
func IsPreciseMatch(title, artist string, candidate, full *Recording) bool {
	titleNorm := normalize(title)
	artistNorm := normalize(artist)

	candTitle := normalize(candidate.Title)
	candArtist := normalize(candidateArtistName(candidate))
	if candArtist == "" && full != nil {
		candArtist = normalize(candidateArtistName(full))
	}

	switch {
	case title != "" && artist != "":
		return candTitle == titleNorm && candArtist == artistNorm
	case title != "":
		return candTitle == titleNorm
	case artist != "":
		return candArtist == artistNorm
	default:
		return false
	}
}

// bestByScoreAndID returns the candidate with the highest score, breaking
// ties by smallest ID
func bestByScoreAndID(candidates []Recording) *Recording {
	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[best].Score {
			best = i
			continue
		}
		if candidates[i].Score == candidates[best].Score && candidates[i].ID < candidates[best].ID {
			best = i
		}
	}
	return &candidates[best]
}

// candidateArtistName returns the first credited artist name, or ""
func candidateArtistName(recording *Recording) string {
	if len(recording.ArtistCredit) == 0 {
		return ""
	}
	credit := recording.ArtistCredit[0]
	if credit.Name != "" {
		return credit.Name
	}
	return credit.Artist.Name
}

// normalize lower-cases and trims a tag value for comparison
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
