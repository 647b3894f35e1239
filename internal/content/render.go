// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
	goldmark.WithExtensions(
		extension.Table,
		extension.Strikethrough,
		extension.Linkify,
		extension.Typographer,
	),
)

// articlePolicy allows the tags an article needs; scripts, styles and event
// handlers are stripped.
var articlePolicy = bluemonday.UGCPolicy()

// textPolicy strips every tag.
var textPolicy = bluemonday.StrictPolicy()

// RenderArticle converts an article body to sanitized HTML. Bodies that
// already look like HTML are only sanitized.
func RenderArticle(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", nil
	}
	if LooksLikeHTML(body) {
		return articlePolicy.Sanitize(body), nil
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return string(articlePolicy.SanitizeBytes(buf.Bytes())), nil
}

// LooksLikeHTML reports whether s starts with a block-level HTML tag.
func LooksLikeHTML(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "<") {
		return false
	}
	for _, tag := range []string{"<p", "<h2", "<h3", "<h4", "<div", "<ul", "<ol", "<section", "<article", "<blockquote", "<figure", "<table", "<!--"} {
		if strings.HasPrefix(strings.ToLower(s), tag) {
			return true
		}
	}
	return false
}

// Excerpt returns the plain text of an HTML fragment, cut to at most n runes.
func Excerpt(htmlContent string, n int) string {
	text := strings.Join(strings.Fields(textPolicy.Sanitize(htmlContent)), " ")
	return TruncateRunes(text, n)
}

// TruncateRunes cuts s to at most n runes, adding an ellipsis when cut.
func TruncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}
