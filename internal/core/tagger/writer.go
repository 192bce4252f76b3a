package tagger

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"
	flacvorbis "github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"songshare-analyzer/internal/shared"
)

// coreFrames are the standard text frames subject to the don't-clobber
// policy; everything else a proposal carries must be a TXXX frame
var coreFrames = []string{"TIT2", "TPE1", "TALB", "TCON", "TBPM", "TKEY", "TDRC"}

// ProposedFramePrefix marks a deferred proposal for a core frame whose
// existing value differed from the proposed one
const ProposedFramePrefix = "TXXX:musicbrainz_proposed_"

// BackupSuffix is appended to the audio path for the pre-apply tag backup
const BackupSuffix = ".tags.bak.json"

// ComputeDelta returns the proposed frames whose values differ from the
// existing tags, comparing trimmed strings
func ComputeDelta(proposed, existing map[string]string) map[string]string {
	delta := make(map[string]string)
	for frame, value := range proposed {
		if strings.TrimSpace(existing[frame]) != strings.TrimSpace(value) {
			delta[frame] = value
		}
	}
	return delta
}

// PlanChanges resolves a proposal against existing tags into the frames
// that will actually be written. Core frames with a conflicting existing
// value are deferred into a proposed TXXX frame instead of clobbering;
// TXXX frames always replace.
func PlanChanges(proposed, existing map[string]string) []shared.TagChange {
	var changes []shared.TagChange

	for _, frame := range coreFrames {
		value := strings.TrimSpace(proposed[frame])
		if value == "" {
			continue
		}
		current := strings.TrimSpace(existing[frame])
		switch {
		case current == "":
			changes = append(changes, shared.TagChange{Frame: frame, New: value})
		case current == value:
			// Nothing to do
		default:
			proposedFrame := ProposedFramePrefix + frame
			if strings.TrimSpace(existing[proposedFrame]) == value {
				continue
			}
			changes = append(changes, shared.TagChange{
				Frame:    proposedFrame,
				Old:      current,
				New:      value,
				Deferred: true,
			})
		}
	}

	for frame, value := range proposed {
		if !strings.HasPrefix(frame, "TXXX:") {
			continue
		}
		if strings.TrimSpace(existing[frame]) == strings.TrimSpace(value) {
			continue
		}
		changes = append(changes, shared.TagChange{Frame: frame, Old: existing[frame], New: value})
	}

	return changes
}

// ApplyTags writes a proposal to an audio file under the don't-clobber
// policy and returns the delta of what was written. A JSON backup of the
// current tags is written next to the file first unless disabled.
func ApplyTags(path string, proposed map[string]string, makeBackup bool) (*shared.TagDelta, error) {
	existing, err := ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read existing tags: %w", err)
	}

	changes := PlanChanges(proposed, existing.Tags)
	delta := &shared.TagDelta{Path: path, Changes: changes}
	if delta.IsEmpty() {
		return delta, nil
	}

	if makeBackup {
		if err := writeBackup(path, existing); err != nil {
			return nil, err
		}
	}

	switch existing.Info.Format {
	case shared.FormatMP3:
		err = writeMP3Changes(path, changes)
	case shared.FormatFLAC:
		err = writeFLACChanges(path, changes)
	default:
		err = fmt.Errorf("writing tags to %s files is not supported", existing.Info.Format)
	}
	if err != nil {
		return nil, err
	}

	return delta, nil
}

// Verify re-reads the file and checks every planned change landed
func Verify(path string, delta *shared.TagDelta) error {
	if delta == nil || delta.IsEmpty() {
		return nil
	}

	current, err := ReadTags(path)
	if err != nil {
		return fmt.Errorf("failed to re-read tags: %w", err)
	}

	for _, change := range delta.Changes {
		got := strings.TrimSpace(current.Tags[change.Frame])
		if got != strings.TrimSpace(change.New) {
			return fmt.Errorf("frame %s: wrote %q but read back %q", change.Frame, change.New, got)
		}
	}
	return nil
}

// BackupPath returns the path of the pre-apply tag backup for a file
func BackupPath(audioPath string) string {
	return audioPath + BackupSuffix
}

// writeBackup snapshots the current tags as JSON next to the file
func writeBackup(path string, tags *shared.FileTags) error {
	data, err := json.MarshalIndent(tags, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tag backup: %w", err)
	}
	if err := os.WriteFile(BackupPath(path), data, 0644); err != nil {
		return fmt.Errorf("failed to write tag backup: %w", err)
	}
	return nil
}

// writeMP3Changes applies planned changes to an MP3 file's ID3v2 tag
func writeMP3Changes(path string, changes []shared.TagChange) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open id3 tags: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetVersion(4)

	// Replace TXXX frames by description: collect survivors, drop the
	// sequence, re-add survivors plus the new values
	replacing := make(map[string]string)
	for _, change := range changes {
		if desc, ok := strings.CutPrefix(change.Frame, "TXXX:"); ok {
			replacing[desc] = change.New
		}
	}

	if len(replacing) > 0 {
		var survivors []id3v2.UserDefinedTextFrame
		for _, frame := range tag.GetFrames("TXXX") {
			udtf, ok := frame.(id3v2.UserDefinedTextFrame)
			if !ok {
				continue
			}
			if _, replaced := replacing[udtf.Description]; !replaced {
				survivors = append(survivors, udtf)
			}
		}
		tag.DeleteFrames("TXXX")
		for _, udtf := range survivors {
			tag.AddFrame(tag.CommonID("UserDefinedText"), udtf)
		}
		for desc, value := range replacing {
			tag.AddFrame(tag.CommonID("UserDefinedText"), id3v2.UserDefinedTextFrame{
				Encoding:    id3v2.EncodingUTF8,
				Description: desc,
				Value:       value,
			})
		}
	}

	for _, change := range changes {
		if strings.HasPrefix(change.Frame, "TXXX:") {
			continue
		}
		tag.AddTextFrame(change.Frame, id3v2.EncodingUTF8, change.New)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save id3 tags: %w", err)
	}
	return nil
}

// writeFLACChanges applies planned changes to a FLAC file's Vorbis
// comment block
func writeFLACChanges(path string, changes []shared.TagChange) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	// Vorbis field names compare case-insensitively, but the written
	// field keeps the description's original case so TXXX frames
	// round-trip exactly.
	replacing := make(map[string]string)
	replacedFold := make(map[string]bool)
	for _, change := range changes {
		field := frameToVorbisField(change.Frame)
		replacing[field] = change.New
		replacedFold[strings.ToUpper(field)] = true
	}

	comment := flacvorbis.New()
	if existing := findVorbisComment(f); existing != nil {
		for _, entry := range existing.Comments {
			field, _, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			if !replacedFold[strings.ToUpper(field)] {
				comment.Comments = append(comment.Comments, entry)
			}
		}
	}
	for field, value := range replacing {
		if err := comment.Add(field, value); err != nil {
			return fmt.Errorf("failed to add vorbis field %s: %w", field, err)
		}
	}

	// Swap out the old comment block
	var newMeta []*flac.MetaDataBlock
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			newMeta = append(newMeta, block)
		}
	}
	commentBlock := comment.Marshal()
	newMeta = append(newMeta, &commentBlock)
	f.Meta = newMeta

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save FLAC file: %w", err)
	}
	return nil
}
