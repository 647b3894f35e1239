// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging prepares generated images for upload as WordPress
// featured media.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder
	"image/jpeg"
	_ "image/png" // PNG decoder
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP decoder
)

// MimeTypeJPEG is the type of every prepared image.
const MimeTypeJPEG = "image/jpeg"

// ErrUnsupportedFormat is returned for data that is not a supported image.
var ErrUnsupportedFormat = errors.New("imaging: unsupported image format")

// Options controls PrepareFeatured.
type Options struct {
	// MaxWidth and MaxHeight bound the output. Images are only downscaled.
	MaxWidth  int
	MaxHeight int
	// Quality is the JPEG quality (1-100).
	Quality int
	// Crop fills exactly MaxWidth x MaxHeight, cropping around the center,
	// instead of fitting inside the box.
	Crop bool
}

// DefaultOptions returns the settings used for featured images.
func DefaultOptions() Options {
	return Options{MaxWidth: 1200, MaxHeight: 1200, Quality: 85}
}

// Featured is an image ready for upload.
type Featured struct {
	Data     []byte
	Width    int
	Height   int
	MimeType string
	Ext      string
}

// PrepareFeatured decodes an image, scales it down to the configured box
// and re-encodes it as JPEG.
func PrepareFeatured(data []byte, opts Options) (*Featured, error) {
	if len(data) == 0 {
		return nil, ErrUnsupportedFormat
	}
	if detectFormat(data) == "" {
		return nil, ErrUnsupportedFormat
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultOptions().Quality
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = resize(img, opts)

	out, err := encodeJPEG(img, opts.Quality)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	b := img.Bounds()
	return &Featured{
		Data:     out,
		Width:    b.Dx(),
		Height:   b.Dy(),
		MimeType: MimeTypeJPEG,
		Ext:      ".jpg",
	}, nil
}

func resize(img image.Image, opts Options) image.Image {
	if opts.MaxWidth <= 0 || opts.MaxHeight <= 0 {
		return img
	}
	if opts.Crop {
		return imaging.Fill(img, opts.MaxWidth, opts.MaxHeight, imaging.Center, imaging.Lanczos)
	}
	b := img.Bounds()
	if b.Dx() <= opts.MaxWidth && b.Dy() <= opts.MaxHeight {
		return img
	}
	return imaging.Fit(img, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)
}

// encodeJPEG flattens transparency onto white and encodes as JPEG.
func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), image.White)
	flat := imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}
