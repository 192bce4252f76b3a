package tagger

import (
	"fmt"
	"path/filepath"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"
	flacpicture "github.com/go-flac/flacpicture"
	flac "github.com/go-flac/go-flac"

	"songshare-analyzer/internal/api/coverart"
	"songshare-analyzer/internal/shared"
)

// HasCover reports whether the file already carries embedded cover art
func HasCover(path string) (bool, error) {
	switch fileFormat(path) {
	case shared.FormatMP3:
		tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
		if err != nil {
			return false, fmt.Errorf("failed to open id3 tags: %w", err)
		}
		defer tag.Close()
		return len(tag.GetFrames(tag.CommonID("Attached picture"))) > 0, nil
	case shared.FormatFLAC:
		f, err := flac.ParseFile(path)
		if err != nil {
			return false, fmt.Errorf("failed to parse FLAC file: %w", err)
		}
		for _, block := range f.Meta {
			if block.Type == flac.Picture {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("cover art is not supported for %s files", fileFormat(path))
	}
}

// EmbedCover embeds image data as the front cover of an MP3 or FLAC
// file. Existing cover art is left untouched.
func EmbedCover(path string, imageData []byte) error {
	if len(imageData) == 0 {
		return fmt.Errorf("no image data to embed")
	}

	present, err := HasCover(path)
	if err != nil {
		return err
	}
	if present {
		return nil
	}

	mime := coverart.DetectImageFormat(imageData)
	switch fileFormat(path) {
	case shared.FormatMP3:
		return embedMP3Cover(path, imageData, mime)
	case shared.FormatFLAC:
		return embedFLACCover(path, imageData, mime)
	default:
		return fmt.Errorf("cover art is not supported for %s files", fileFormat(path))
	}
}

func embedMP3Cover(path string, imageData []byte, mime string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open id3 tags: %w", err)
	}
	defer tag.Close()

	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    mime,
		PictureType: id3v2.PTFrontCover,
		Description: "Front Cover",
		Picture:     imageData,
	})

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save cover art: %w", err)
	}
	return nil
}

func embedFLACCover(path string, imageData []byte, mime string) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front Cover", imageData, mime)
	if err != nil {
		// Some encoders reject the front cover type, retry as generic
		picture, err = flacpicture.NewFromImageData(flacpicture.PictureTypeOther, "Cover", imageData, mime)
		if err != nil {
			return fmt.Errorf("failed to build picture block: %w", err)
		}
	}

	pictureBlock := picture.Marshal()
	f.Meta = append(f.Meta, &pictureBlock)

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save FLAC file: %w", err)
	}
	return nil
}

// CoverSidecarPath returns where a downloaded cover would be written
// when embedding is disabled for the format
func CoverSidecarPath(audioPath, mime string) string {
	ext := ".jpg"
	if strings.Contains(mime, "png") {
		ext = ".png"
	}
	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	return base + ".cover" + ext
}
