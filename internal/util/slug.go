// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose helpers: slugs and media file names,
// SSRF-safe URL validation and HTTP clients, and nullable column helpers.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// slugRegex matches non-alphanumeric characters (except hyphens)
	slugRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// maxSlugLength keeps uploaded media names well under filesystem limits.
const maxSlugLength = 80

// Slugify converts a string to a URL-friendly slug.
// Accents are stripped, non-Latin scripts are transliterated, and anything
// other than lowercase ASCII letters, digits and single hyphens is removed.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = unidecode.Unidecode(result)
	result = strings.ToLower(result)
	result = strings.ReplaceAll(result, " ", "-")
	result = slugRegex.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > maxSlugLength {
		result = strings.TrimRight(result[:maxSlugLength], "-")
	}

	return result
}

// MediaFilename builds a unique upload name such as "my-post-1a2b3c4d.jpg".
func MediaFilename(title, ext string) string {
	base := Slugify(title)
	if base == "" {
		base = "image"
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "jpg"
	}
	return base + "-" + uuid.NewString()[:8] + "." + ext
}
