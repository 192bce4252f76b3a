// Package tagger reads and writes audio file tags across formats,
// normalizing everything to ID3v2.4 frame keys. MP3 and FLAC are
// read/write; other formats are read-only through the generic parser.
package tagger

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"
	dhowden "github.com/dhowden/tag"
	flacvorbis "github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"songshare-analyzer/internal/shared"
)

// vorbisToFrame maps standard Vorbis comment fields to ID3 frame keys
var vorbisToFrame = map[string]string{
	"TITLE":  "TIT2",
	"ARTIST": "TPE1",
	"ALBUM":  "TALB",
	"GENRE":  "TCON",
	"DATE":   "TDRC",
	"BPM":    "TBPM",
	"KEY":    "TKEY",
}

// frameToVorbis is the inverse mapping used when writing FLAC files
var frameToVorbis = map[string]string{
	"TIT2": "TITLE",
	"TPE1": "ARTIST",
	"TALB": "ALBUM",
	"TCON": "GENRE",
	"TDRC": "DATE",
	"TBPM": "BPM",
	"TKEY": "KEY",
}

// ReadTags reads the tags of an audio file into the normalized frame map
func ReadTags(path string) (*shared.FileTags, error) {
	switch fileFormat(path) {
	case shared.FormatMP3:
		return readMP3Tags(path)
	case shared.FormatFLAC:
		return readFLACTags(path)
	default:
		return readGenericTags(path)
	}
}

// fileFormat returns the format constant for a path based on extension
func fileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return shared.FormatMP3
	case ".flac":
		return shared.FormatFLAC
	case ".wav":
		return shared.FormatWAV
	case ".m4a":
		return shared.FormatM4A
	case ".ogg":
		return shared.FormatOGG
	default:
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
}

// readMP3Tags reads the full ID3v2 frame set of an MP3 file
func readMP3Tags(path string) (*shared.FileTags, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open id3 tags: %w", err)
	}
	defer tag.Close()

	result := &shared.FileTags{
		Path: path,
		Info: shared.FileInfo{Format: shared.FormatMP3},
		Tags: make(map[string]string),
	}

	for id, frames := range tag.AllFrames() {
		if id == "TXXX" {
			for _, frame := range frames {
				if udtf, ok := frame.(id3v2.UserDefinedTextFrame); ok {
					result.Tags["TXXX:"+udtf.Description] = udtf.Value
				}
			}
			continue
		}
		if len(frames) == 0 || !strings.HasPrefix(id, "T") {
			continue
		}
		if tf, ok := frames[0].(id3v2.TextFrame); ok && tf.Text != "" {
			result.Tags[id] = tf.Text
		}
	}

	return result, nil
}

// readFLACTags reads the Vorbis comment block of a FLAC file
func readFLACTags(path string) (*shared.FileTags, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	result := &shared.FileTags{
		Path: path,
		Info: shared.FileInfo{Format: shared.FormatFLAC},
		Tags: make(map[string]string),
	}

	comment := findVorbisComment(f)
	if comment == nil {
		return result, nil
	}

	for _, entry := range comment.Comments {
		field, value, ok := strings.Cut(entry, "=")
		if !ok || value == "" {
			continue
		}
		result.Tags[vorbisFieldToFrame(field)] = value
	}

	return result, nil
}

// readGenericTags reads any format the generic parser understands,
// normalized to the standard frames only
func readGenericTags(path string) (*shared.FileTags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result := &shared.FileTags{
		Path: path,
		Info: shared.FileInfo{Format: fileFormat(path)},
		Tags: make(map[string]string),
	}

	metadata, err := dhowden.ReadFrom(f)
	if err != nil {
		// A file without tags is not an error for the read path
		return result, nil
	}

	setIfPresent := func(frame, value string) {
		if value != "" {
			result.Tags[frame] = value
		}
	}
	setIfPresent("TIT2", metadata.Title())
	setIfPresent("TPE1", metadata.Artist())
	setIfPresent("TALB", metadata.Album())
	setIfPresent("TCON", metadata.Genre())
	if year := metadata.Year(); year != 0 {
		result.Tags["TDRC"] = strconv.Itoa(year)
	}

	return result, nil
}

// findVorbisComment returns the parsed Vorbis comment block, or nil
func findVorbisComment(f *flac.File) *flacvorbis.MetaDataBlockVorbisComment {
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			continue
		}
		comment, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			continue
		}
		return comment
	}
	return nil
}

// vorbisFieldToFrame maps a Vorbis field name to the normalized frame
// key. Standard fields match case-insensitively; unknown fields become
// TXXX frames with the field name kept verbatim so user frames
// round-trip unchanged.
func vorbisFieldToFrame(field string) string {
	if frame, ok := vorbisToFrame[strings.ToUpper(field)]; ok {
		return frame
	}
	return "TXXX:" + field
}

// frameToVorbisField maps a normalized frame key to the Vorbis field
// name used when writing FLAC files. TXXX descriptions become the field
// name as-is; Vorbis field names are case-insensitive, so readers that
// fold case still find them.
func frameToVorbisField(frame string) string {
	if field, ok := frameToVorbis[frame]; ok {
		return field
	}
	if desc, ok := strings.CutPrefix(frame, "TXXX:"); ok {
		return desc
	}
	return frame
}
