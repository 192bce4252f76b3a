package tagger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songshare-analyzer/internal/shared"
)

// newEmptyMP3 creates a tagless .mp3 stub that the tag writer can
// prepend an ID3v2 header to
func newEmptyMP3(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.mp3")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0644))
	return path
}

// newEmptyFLAC writes a minimal FLAC file with only a STREAMINFO block
// (last-block flag set, zeroed fields) and no audio frames
func newEmptyFLAC(t *testing.T) string {
	t.Helper()
	data := append([]byte("fLaC"), 0x80, 0x00, 0x00, 0x22)
	data = append(data, make([]byte, 34)...)
	path := filepath.Join(t.TempDir(), "track.flac")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestComputeDelta(t *testing.T) {
	existing := map[string]string{
		"TIT2": "Neon Nights",
		"TPE1": "  The Wire  ",
	}
	proposed := map[string]string{
		"TIT2":          "Neon Nights",
		"TPE1":          "The Wire",
		"TALB":          "City Lights",
		"TXXX:provider": "musicbrainz",
	}

	delta := ComputeDelta(proposed, existing)
	assert.NotContains(t, delta, "TIT2")
	assert.NotContains(t, delta, "TPE1")
	assert.Equal(t, "City Lights", delta["TALB"])
	assert.Equal(t, "musicbrainz", delta["TXXX:provider"])
}

func TestPlanChangesPolicy(t *testing.T) {
	existing := map[string]string{
		"TIT2":       "Old Title",
		"TPE1":       "The Wire",
		"TXXX:notes": "keep",
	}
	proposed := map[string]string{
		"TIT2":       "New Title",
		"TPE1":       "The Wire",
		"TALB":       "City Lights",
		"TXXX:notes": "updated",
	}

	changes := PlanChanges(proposed, existing)
	byFrame := make(map[string]shared.TagChange)
	for _, c := range changes {
		byFrame[c.Frame] = c
	}

	// Conflicting core frame defers instead of clobbering
	deferred, ok := byFrame["TXXX:musicbrainz_proposed_TIT2"]
	require.True(t, ok)
	assert.True(t, deferred.Deferred)
	assert.Equal(t, "Old Title", deferred.Old)
	assert.Equal(t, "New Title", deferred.New)
	assert.NotContains(t, byFrame, "TIT2")

	// Matching core frame is untouched
	assert.NotContains(t, byFrame, "TPE1")

	// Empty core frame is written directly
	direct, ok := byFrame["TALB"]
	require.True(t, ok)
	assert.False(t, direct.Deferred)
	assert.Equal(t, "City Lights", direct.New)

	// TXXX frames always replace
	assert.Equal(t, "updated", byFrame["TXXX:notes"].New)
}

func TestPlanChangesEmptyProposal(t *testing.T) {
	changes := PlanChanges(nil, map[string]string{"TIT2": "Something"})
	assert.Empty(t, changes)
}

func TestApplyTagsMP3(t *testing.T) {
	path := newEmptyMP3(t)

	proposed := map[string]string{
		"TIT2":          "Neon Nights",
		"TPE1":          "The Wire",
		"TBPM":          "120",
		"TXXX:provider": "musicbrainz",
	}
	delta, err := ApplyTags(path, proposed, true)
	require.NoError(t, err)
	require.False(t, delta.IsEmpty())

	tags, err := ReadTags(path)
	require.NoError(t, err)
	assert.Equal(t, "Neon Nights", tags.Tags["TIT2"])
	assert.Equal(t, "The Wire", tags.Tags["TPE1"])
	assert.Equal(t, "120", tags.Tags["TBPM"])
	assert.Equal(t, "musicbrainz", tags.Tags["TXXX:provider"])

	assert.NoError(t, Verify(path, delta))
	assert.True(t, shared.FileExists(BackupPath(path)))
}

func TestApplyTagsDontClobber(t *testing.T) {
	path := newEmptyMP3(t)

	_, err := ApplyTags(path, map[string]string{"TIT2": "Original"}, false)
	require.NoError(t, err)

	delta, err := ApplyTags(path, map[string]string{"TIT2": "Replacement"}, false)
	require.NoError(t, err)
	require.Len(t, delta.Changes, 1)
	assert.True(t, delta.Changes[0].Deferred)

	tags, err := ReadTags(path)
	require.NoError(t, err)
	assert.Equal(t, "Original", tags.Tags["TIT2"])
	assert.Equal(t, "Replacement", tags.Tags["TXXX:musicbrainz_proposed_TIT2"])

	assert.NoError(t, Verify(path, delta))
}

func TestApplyTagsIdempotent(t *testing.T) {
	path := newEmptyMP3(t)
	proposed := map[string]string{"TIT2": "Neon Nights", "TXXX:provider": "musicbrainz"}

	_, err := ApplyTags(path, proposed, false)
	require.NoError(t, err)

	delta, err := ApplyTags(path, proposed, false)
	require.NoError(t, err)
	assert.True(t, delta.IsEmpty())
}

func TestApplyTagsReplacesUserFrame(t *testing.T) {
	path := newEmptyMP3(t)

	_, err := ApplyTags(path, map[string]string{
		"TXXX:rhythm_timing": "human",
		"TXXX:keep_me":       "1",
	}, false)
	require.NoError(t, err)

	_, err = ApplyTags(path, map[string]string{"TXXX:rhythm_timing": "clicktrack"}, false)
	require.NoError(t, err)

	tags, err := ReadTags(path)
	require.NoError(t, err)
	assert.Equal(t, "clicktrack", tags.Tags["TXXX:rhythm_timing"])
	assert.Equal(t, "1", tags.Tags["TXXX:keep_me"])
}

func TestApplyTagsUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.ogg")
	require.NoError(t, os.WriteFile(path, []byte("not really ogg"), 0644))

	_, err := ApplyTags(path, map[string]string{"TIT2": "Neon Nights"}, false)
	assert.Error(t, err)
}

func TestApplyTagsFLACRoundTrip(t *testing.T) {
	path := newEmptyFLAC(t)

	delta, err := ApplyTags(path, map[string]string{
		"TIT2":               "Neon Nights",
		"TXXX:rhythm_timing": "clicktrack",
		"TXXX:panns Speech":  "0.91",
	}, false)
	require.NoError(t, err)
	require.NoError(t, Verify(path, delta))

	tags, err := ReadTags(path)
	require.NoError(t, err)
	assert.Equal(t, "Neon Nights", tags.Tags["TIT2"])
	assert.Equal(t, "clicktrack", tags.Tags["TXXX:rhythm_timing"])
	assert.Equal(t, "0.91", tags.Tags["TXXX:panns Speech"])

	// a conflicting core frame is deferred and must survive the
	// read-back with its description case intact
	delta, err = ApplyTags(path, map[string]string{"TIT2": "Replacement"}, false)
	require.NoError(t, err)
	require.Len(t, delta.Changes, 1)
	assert.True(t, delta.Changes[0].Deferred)
	require.NoError(t, Verify(path, delta))

	tags, err = ReadTags(path)
	require.NoError(t, err)
	assert.Equal(t, "Neon Nights", tags.Tags["TIT2"])
	assert.Equal(t, "Replacement", tags.Tags["TXXX:musicbrainz_proposed_TIT2"])

	// same proposal again plans nothing
	delta, err = ApplyTags(path, map[string]string{"TIT2": "Replacement"}, false)
	require.NoError(t, err)
	assert.True(t, delta.IsEmpty())
}

func TestVorbisFrameMappingRoundTrip(t *testing.T) {
	cases := map[string]string{
		"TITLE":                       "TIT2",
		"ARTIST":                      "TPE1",
		"ALBUM":                       "TALB",
		"GENRE":                       "TCON",
		"DATE":                        "TDRC",
		"BPM":                         "TBPM",
		"KEY":                         "TKEY",
		"rhythm_timing":               "TXXX:rhythm_timing",
		"panns Speech":                "TXXX:panns Speech",
		"musicbrainz_proposed_TIT2":   "TXXX:musicbrainz_proposed_TIT2",
		"musicbrainz_proposed_custom": "TXXX:musicbrainz_proposed_custom",
	}
	for field, frame := range cases {
		assert.Equal(t, frame, vorbisFieldToFrame(field), field)
		assert.Equal(t, field, frameToVorbisField(frame), frame)
	}
	// standard fields are matched case-insensitively on read
	assert.Equal(t, "TIT2", vorbisFieldToFrame("title"))
}

func TestEmbedCoverMP3(t *testing.T) {
	path := newEmptyMP3(t)

	present, err := HasCover(path)
	require.NoError(t, err)
	assert.False(t, present)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	require.NoError(t, EmbedCover(path, png))

	present, err = HasCover(path)
	require.NoError(t, err)
	assert.True(t, present)

	// A second embed leaves the existing art alone
	assert.NoError(t, EmbedCover(path, png))
}

func TestEmbedCoverRejectsEmptyData(t *testing.T) {
	assert.Error(t, EmbedCover(newEmptyMP3(t), nil))
}

func TestCoverSidecarPath(t *testing.T) {
	assert.Equal(t, "/music/a.cover.jpg", CoverSidecarPath("/music/a.wav", "image/jpeg"))
	assert.Equal(t, "/music/a.cover.png", CoverSidecarPath("/music/a.wav", "image/png"))
}

func TestReadTagsMissingFile(t *testing.T) {
	_, err := ReadTags(filepath.Join(t.TempDir(), "nope.mp3"))
	assert.Error(t, err)
}
