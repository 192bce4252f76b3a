package shared

import (
	"fmt"
	"sort"
	"strings"
)

// Audio file formats understood by the tagger
const (
	FormatMP3  = "mp3"
	FormatFLAC = "flac"
	FormatWAV  = "wav"
	FormatM4A  = "m4a"
	FormatOGG  = "ogg"
)

// FileInfo holds basic stream information read from an audio file
type FileInfo struct {
	Format     string `json:"format"`
	DurationMS int    `json:"durationMs,omitempty"`
	SampleRate int    `json:"sampleRate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	Bitrate    int    `json:"bitrate,omitempty"`
}

// FileTags is a normalized view of the tags on a single audio file.
// Standard frames use their ID3v2.4 IDs (TIT2, TPE1, TALB, TCON, TBPM,
// TKEY, TDRC) regardless of the container format; user-defined frames
// use the "TXXX:<description>" namespace.
type FileTags struct {
	Path string            `json:"path"`
	Info FileInfo          `json:"info"`
	Tags map[string]string `json:"tags"`
}

// Get returns the value for a frame key, or "" if absent
func (ft *FileTags) Get(key string) string {
	if ft.Tags == nil {
		return ""
	}
	return ft.Tags[key]
}

// Has reports whether a frame key is present with a non-empty value
func (ft *FileTags) Has(key string) bool {
	return ft.Get(key) != ""
}

// SortedKeys returns the frame keys in lexical order for stable output
func (ft *FileTags) SortedKeys() []string {
	keys := make([]string, 0, len(ft.Tags))
	for key := range ft.Tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// TagChange records one frame written to a file during an apply pass
type TagChange struct {
	Frame    string `json:"frame"`
	Old      string `json:"old,omitempty"`
	New      string `json:"new"`
	Deferred bool   `json:"deferred,omitempty"` // written as a proposed TXXX frame instead of clobbering
}

// TagDelta is the set of changes an apply pass made to one file
type TagDelta struct {
	Path    string      `json:"path"`
	Changes []TagChange `json:"changes"`
}

// IsEmpty reports whether the apply pass changed nothing
func (td *TagDelta) IsEmpty() bool {
	return len(td.Changes) == 0
}

// String renders the delta for console output
func (td *TagDelta) String() string {
	if td.IsEmpty() {
		return "no changes"
	}
	parts := make([]string, 0, len(td.Changes))
	for _, change := range td.Changes {
		if change.Deferred {
			parts = append(parts, fmt.Sprintf("%s (proposed)", change.Frame))
		} else {
			parts = append(parts, change.Frame)
		}
	}
	return strings.Join(parts, ", ")
}
