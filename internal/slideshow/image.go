package slideshow

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Upload is one image as received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SourceImage is an ingested upload normalised to PNG on disk.
type SourceImage struct {
	Path string
	Size Size
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// checkUpload validates the declared type of upload n (1-based) without
// decoding it.
func checkUpload(n int, u Upload) error {
	if !strings.HasPrefix(u.ContentType, "image/") {
		return invalid("Invalid file type for image %d.", n)
	}

	ext := strings.ToLower(filepath.Ext(u.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	if !allowedExtensions[ext] {
		return invalid("Unsupported image format '%s'. Please upload JPG or PNG.", ext)
	}

	return nil
}

// ingest decodes upload n, applies its EXIF orientation and writes it into dir.
// It gives up before each expensive step once ctx is done.
func ingest(ctx context.Context, dir string, n int, u Upload) (SourceImage, error) {
	if err := ctx.Err(); err != nil {
		return SourceImage{}, err
	}
	img, err := imaging.Decode(bytes.NewReader(u.Data), imaging.AutoOrientation(true))
	if err != nil {
		return SourceImage{}, invalid("Image %d could not be decoded.", n)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return SourceImage{}, invalid("Image %d is empty.", n)
	}

	if err := ctx.Err(); err != nil {
		return SourceImage{}, err
	}

	path := filepath.Join(dir, fmt.Sprintf("%02d_%s.png", n, uuid.NewString()[:8]))
	if err := imaging.Save(img, path); err != nil {
		return SourceImage{}, fmt.Errorf("failed to save image %d: %w", n, err)
	}

	return SourceImage{
		Path: path,
		Size: Size{Width: b.Dx(), Height: b.Dy()},
	}, nil
}
