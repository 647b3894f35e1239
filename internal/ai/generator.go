// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"context"
	"fmt"
	"strings"
)

// ArticleInput describes the article to write.
type ArticleInput struct {
	Title string
	// Context is optional source material, e.g. a discovered insight.
	Context string
	// SystemPrompt is the blog's configured writing instructions.
	SystemPrompt string
}

const defaultArticleSystemPrompt = `You are an experienced blog writer. You write original, well-structured,
informative articles in Markdown.`

// buildArticleSystemPrompt combines the blog's own prompt with the output rules.
func buildArticleSystemPrompt(blogPrompt string) string {
	var sb strings.Builder
	if p := strings.TrimSpace(blogPrompt); p != "" {
		sb.WriteString(p)
	} else {
		sb.WriteString(defaultArticleSystemPrompt)
	}
	sb.WriteString(`

Output rules:
- Respond with the article body only, in Markdown
- Use ## and ### headings, paragraphs and lists; never use a top-level # heading
- Do not repeat the title at the start
- Do not wrap the answer in code fences`)
	return sb.String()
}

// buildArticlePrompt creates the user prompt for one article.
func buildArticlePrompt(in ArticleInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a detailed article about: %s\n", in.Title)
	if c := strings.TrimSpace(in.Context); c != "" {
		fmt.Fprintf(&sb, "\nUse this context as the starting point:\n%s\n", c)
	}
	return sb.String()
}

// GenerateArticle writes a Markdown article for the given title.
func (c *Client) GenerateArticle(ctx context.Context, in ArticleInput) (string, error) {
	if strings.TrimSpace(in.Title) == "" {
		return "", fmt.Errorf("article title is required")
	}

	resp, err := c.Complete(ctx, ChatRequest{
		System:      buildArticleSystemPrompt(in.SystemPrompt),
		Prompt:      buildArticlePrompt(in),
		MaxTokens:   8192,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	body := stripCodeFences(resp.Content)
	if body == "" {
		return "", ErrEmptyResponse
	}
	return body, nil
}

// GenerateIdeaTitles asks the quick model for n article titles about topic.
func (c *Client) GenerateIdeaTitles(ctx context.Context, topic string, n int) ([]string, error) {
	if n <= 0 {
		n = 10
	}
	resp, err := c.Complete(ctx, ChatRequest{
		System: "You are a helpful editorial assistant.",
		Prompt: fmt.Sprintf("Generate %d article titles for a blog about %s. Return one per line, without markdown.", n, topic),
		Quick:  true,
	})
	if err != nil {
		return nil, err
	}

	titles := ParseTitles(resp.Content)
	if len(titles) == 0 {
		return nil, ErrEmptyResponse
	}
	if len(titles) > n {
		titles = titles[:n]
	}
	return titles, nil
}

// ParseTitles splits a one-per-line answer into titles, dropping blank lines
// and leading list numbering or bullets.
func ParseTitles(text string) []string {
	var titles []string
	for line := range strings.SplitSeq(text, "\n") {
		t := strings.TrimSpace(line)
		t = strings.TrimLeft(t, "0123456789. -*)")
		t = strings.Trim(strings.TrimSpace(t), `"`)
		if t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}

// stripCodeFences removes a surrounding ``` or ```markdown fence.
func stripCodeFences(s string) string {
	cleaned := strings.TrimSpace(s)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```")
	if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 && !strings.Contains(cleaned[:nl], " ") {
		cleaned = cleaned[nl+1:]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
