// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestPrepareFeatured_Downscales(t *testing.T) {
	data := pngBytes(t, createTestImage(1024, 512))

	got, err := PrepareFeatured(data, Options{MaxWidth: 512, MaxHeight: 512, Quality: 80})
	if err != nil {
		t.Fatalf("PrepareFeatured: %v", err)
	}
	if got.Width != 512 || got.Height != 256 {
		t.Errorf("size = %dx%d, want 512x256", got.Width, got.Height)
	}
	if got.MimeType != MimeTypeJPEG || got.Ext != ".jpg" {
		t.Errorf("type = %q %q", got.MimeType, got.Ext)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(got.Data))
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if format != "jpeg" || cfg.Width != 512 {
		t.Errorf("decoded %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestPrepareFeatured_NoUpscale(t *testing.T) {
	data := pngBytes(t, createTestImage(100, 80))

	got, err := PrepareFeatured(data, DefaultOptions())
	if err != nil {
		t.Fatalf("PrepareFeatured: %v", err)
	}
	if got.Width != 100 || got.Height != 80 {
		t.Errorf("size = %dx%d, want 100x80", got.Width, got.Height)
	}
}

func TestPrepareFeatured_Crop(t *testing.T) {
	data := pngBytes(t, createTestImage(400, 400))

	got, err := PrepareFeatured(data, Options{MaxWidth: 320, MaxHeight: 180, Crop: true})
	if err != nil {
		t.Fatalf("PrepareFeatured: %v", err)
	}
	if got.Width != 320 || got.Height != 180 {
		t.Errorf("size = %dx%d, want 320x180", got.Width, got.Height)
	}
}

func TestPrepareFeatured_JPEGInput(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createTestImage(64, 64), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := PrepareFeatured(buf.Bytes(), DefaultOptions()); err != nil {
		t.Errorf("PrepareFeatured(jpeg): %v", err)
	}
}

func TestPrepareFeatured_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("definitely not an image")},
		{"tiff", []byte("II*\x00\x08\x00\x00\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PrepareFeatured(tt.data, DefaultOptions()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	data := pngBytes(t, createTestImage(2, 2))
	if got := detectFormat(data); got != "png" {
		t.Errorf("detectFormat(png) = %q", got)
	}
	if got := detectFormat([]byte("plain")); got != "" {
		t.Errorf("detectFormat(text) = %q, want empty", got)
	}
}
