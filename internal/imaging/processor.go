// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging processes portfolio uploads: it normalizes orientation,
// saves the original plus a gallery thumbnail, and captures shooting
// metadata from EXIF.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"studio-api/internal/model"
)

const (
	thumbWidth   = 600
	thumbHeight  = 600
	thumbQuality = 82
	origQuality  = 95

	// MaxUploadBytes caps a single portfolio upload.
	MaxUploadBytes = 20 << 20
)

// Result describes a processed portfolio upload.
type Result struct {
	ImagePath     string
	ThumbnailPath string
	ImageURL      string
	ThumbnailURL  string
	Width         int
	Height        int
	Size          int64
	Exif          model.Document
}

// Processor saves portfolio images under a base directory and exposes them
// under a URL prefix.
type Processor struct {
	uploadDir string
	urlPrefix string
}

// NewProcessor creates an image processor. urlPrefix is the public path
// uploads are served from, for example "/uploads".
func NewProcessor(uploadDir, urlPrefix string) *Processor {
	return &Processor{
		uploadDir: uploadDir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}
}

// Process reads an uploaded image, applies the EXIF orientation, stores the
// original and a thumbnail, and returns their locations plus shooting
// metadata extracted from EXIF.
func (p *Processor) Process(reader io.Reader, filename string) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(reader, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("image exceeds %d byte limit", MaxUploadBytes)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Orientation is baked into the pixels since pure Go encoders drop EXIF.
	meta, orientation := readExif(bytes.NewReader(data))
	img = applyOrientation(img, orientation)

	bounds := img.Bounds()

	original, err := encodeImage(img, format, origQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	thumb := imaging.Fit(img, thumbWidth, thumbHeight, imaging.Lanczos)
	thumbData, err := encodeImage(thumb, format, thumbQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	id := uuid.New().String()
	name := safeName(filename, format)

	imagePath, err := p.save(filepath.Join("originals", id), name, original)
	if err != nil {
		return nil, fmt.Errorf("failed to save original: %w", err)
	}
	thumbPath, err := p.save(filepath.Join("thumbs", id), name, thumbData)
	if err != nil {
		return nil, fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return &Result{
		ImagePath:     imagePath,
		ThumbnailPath: thumbPath,
		ImageURL:      p.urlPrefix + "/originals/" + id + "/" + name,
		ThumbnailURL:  p.urlPrefix + "/thumbs/" + id + "/" + name,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Size:          int64(len(original)),
		Exif:          meta,
	}, nil
}

// readExif extracts shooting metadata and the orientation tag. A missing or
// unreadable EXIF block yields an empty document and orientation 1.
func readExif(r io.Reader) (model.Document, int) {
	meta := model.Document{}
	x, err := exif.Decode(r)
	if err != nil {
		return meta, 1
	}

	fields := map[string]exif.FieldName{
		"camera_make":   exif.Make,
		"camera_model":  exif.Model,
		"lens_model":    exif.LensModel,
		"iso":           exif.ISOSpeedRatings,
		"exposure_time": exif.ExposureTime,
		"f_number":      exif.FNumber,
		"focal_length":  exif.FocalLength,
		"taken_at":      exif.DateTimeOriginal,
	}
	for key, name := range fields {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		meta[key] = strings.Trim(tag.String(), `"`)
	}

	orientation := 1
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			orientation = v
		}
	}
	return meta, orientation
}

// applyOrientation transforms the image per the EXIF orientation value.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// detectFormat sniffs the image format from raw bytes. TIFF is rejected
// outright (CVE-2023-36308 in disintegration/imaging). WebP decodes but has
// no pure Go encoder, so it is stored re-encoded as JPEG.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// safeName sanitizes the client filename and forces an extension matching
// the encoded format.
func safeName(filename, format string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(base)
	var b strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		name = "image"
	}
	ext := ".jpg"
	if format == "png" {
		ext = ".png"
	}
	return name + ext
}

// save writes image data under uploadDir, refusing any path that escapes it.
func (p *Processor) save(subDir, filename string, data []byte) (string, error) {
	cleanSubDir := filepath.Clean(subDir)
	if strings.Contains(cleanSubDir, "..") || filepath.IsAbs(cleanSubDir) {
		return "", fmt.Errorf("invalid subdirectory path")
	}

	absBase, err := filepath.Abs(p.uploadDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absTarget := filepath.Join(absBase, cleanSubDir)
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path traversal detected")
	}

	if err := os.MkdirAll(absTarget, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	filePath := filepath.Join(absTarget, filename)
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return filePath, nil
}
