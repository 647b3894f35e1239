// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"regexp"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple title",
			input:    "Hello World",
			expected: "hello-world",
		},
		{
			name:     "with special characters",
			input:    "Hello, World!",
			expected: "hello-world",
		},
		{
			name:     "with numbers",
			input:    "Page 123",
			expected: "page-123",
		},
		{
			name:     "with accents",
			input:    "Café résumé",
			expected: "cafe-resume",
		},
		{
			name:     "with multiple spaces",
			input:    "Hello   World",
			expected: "hello-world",
		},
		{
			name:     "with hyphens",
			input:    "Hello - World",
			expected: "hello-world",
		},
		{
			name:     "with leading/trailing spaces",
			input:    "  Hello World  ",
			expected: "hello-world",
		},
		{
			name:     "all special characters",
			input:    "!@#$%^&*()",
			expected: "",
		},
		{
			name:     "german umlauts",
			input:    "Über München",
			expected: "uber-munchen",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "single word",
			input:    "Hello",
			expected: "hello",
		},
		{
			name:     "mixed case",
			input:    "HeLLo WoRLd",
			expected: "hello-world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Slugify(tt.input)
			if result != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSlugify_Transliterates(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Привет мир", "privet-mir"},
		{"Ação e Reação", "acao-e-reacao"},
		{"Straße", "strasse"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugify_NonLatinNotEmpty(t *testing.T) {
	if got := Slugify("日本語タイトル"); got == "" || !regexp.MustCompile(`^[a-z0-9-]+$`).MatchString(got) {
		t.Errorf("Slugify(CJK) = %q, want a non-empty ASCII slug", got)
	}
}

func TestSlugify_Truncates(t *testing.T) {
	got := Slugify(strings.Repeat("word ", 40))
	if len(got) > maxSlugLength {
		t.Errorf("len = %d, want <= %d", len(got), maxSlugLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("slug %q ends with a hyphen", got)
	}
}

func TestMediaFilename(t *testing.T) {
	pattern := regexp.MustCompile(`^how-to-blog-[0-9a-f]{8}\.jpg$`)
	got := MediaFilename("How to Blog?", ".jpg")
	if !pattern.MatchString(got) {
		t.Errorf("MediaFilename = %q, does not match %s", got, pattern)
	}

	if got := MediaFilename("!!!", ""); !strings.HasPrefix(got, "image-") || !strings.HasSuffix(got, ".jpg") {
		t.Errorf("MediaFilename fallback = %q", got)
	}

	if MediaFilename("same", "png") == MediaFilename("same", "png") {
		t.Error("MediaFilename should be unique per call")
	}
}
