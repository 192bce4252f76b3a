package musicbrainz

import "fmt"

const coverArtArchiveBaseURL = "https://coverartarchive.org"

// RecordingInfo is the tagging-relevant subset of a MusicBrainz recording
type RecordingInfo struct {
	RecordingID  string   `json:"recording_id,omitempty"`
	Title        string   `json:"recording_title,omitempty"`
	Artist       string   `json:"artist,omitempty"`
	ArtistID     string   `json:"artist_id,omitempty"`
	ArtistSort   string   `json:"artist_sort_name,omitempty"`
	Score        int      `json:"score,omitempty"`
	LengthMS     int      `json:"length,omitempty"`
	ISRCs        []string `json:"isrcs,omitempty"`
	ReleaseID    string   `json:"release_id,omitempty"`
	ReleaseTitle string   `json:"release_title,omitempty"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	Label        string   `json:"label,omitempty"`
	Country      string   `json:"country,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	CoverArtURL  string   `json:"cover_art,omitempty"`
}

// ExtractInfo flattens a recording into a RecordingInfo. The full record
// is preferred; the search candidate fills gaps (score, length) the full
// fetch does not carry.
func ExtractInfo(full, candidate *Recording) *RecordingInfo {
	info := &RecordingInfo{
		RecordingID: full.ID,
		Title:       full.Title,
		Score:       candidate.Score,
		LengthMS:    full.Length,
		ISRCs:       full.ISRCs,
	}

	if info.LengthMS == 0 {
		info.LengthMS = candidate.Length
	}

	if len(full.ArtistCredit) > 0 {
		credit := full.ArtistCredit[0]
		info.Artist = credit.Name
		if info.Artist == "" {
			info.Artist = credit.Artist.Name
		}
		info.ArtistID = credit.Artist.ID
		info.ArtistSort = credit.Artist.SortName
	}

	// First attached release, matching the search ranking
	if len(full.Releases) > 0 {
		release := full.Releases[0]
		info.ReleaseID = release.ID
		info.ReleaseTitle = release.Title
		info.ReleaseDate = release.Date
		info.Country = release.Country
		if len(release.LabelInfo) > 0 {
			info.Label = release.LabelInfo[0].Label.Name
		}
		info.CoverArtURL = fmt.Sprintf("%s/release/%s/front", coverArtArchiveBaseURL, release.ID)
	}

	for _, genre := range full.Genres {
		info.Genres = append(info.Genres, genre.Name)
	}

	return info
}

// ProposeTags converts a RecordingInfo into the frame map a tag apply
// pass consumes. Standard frames may conflict with existing values and
// are subject to the don't-clobber policy downstream; the TXXX identity
// frames record where the proposal came from.
func (info *RecordingInfo) ProposeTags() map[string]string {
	tags := make(map[string]string)
	if info == nil {
		return tags
	}

	if info.Title != "" {
		tags["TIT2"] = info.Title
	}
	if info.Artist != "" {
		tags["TPE1"] = info.Artist
	}
	if info.ReleaseTitle != "" {
		tags["TALB"] = info.ReleaseTitle
	}
	if info.ReleaseDate != "" {
		tags["TDRC"] = info.ReleaseDate
	}

	if info.RecordingID != "" {
		tags["TXXX:musicbrainz_recording_id"] = info.RecordingID
	}
	if info.ReleaseID != "" {
		tags["TXXX:musicbrainz_release_id"] = info.ReleaseID
	}
	if info.ArtistID != "" {
		tags["TXXX:musicbrainz_artist_id"] = info.ArtistID
	}

	return tags
}

// HasMusicBrainzIDs reports whether a file's tags already carry
// MusicBrainz identity frames, in which case a network lookup is
// redundant
func HasMusicBrainzIDs(tags map[string]string) bool {
	if tags == nil {
		return false
	}
	return tags["TXXX:musicbrainz_recording_id"] != "" || tags["TXXX:musicbrainz_release_id"] != ""
}
