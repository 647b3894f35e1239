// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/carlmjohnson/requests"
	"github.com/openai/openai-go/v3"
)

// maxImageBytes caps downloaded image size.
const maxImageBytes = 20 << 20

// Image is a generated image.
type Image struct {
	Data    []byte
	Prompt  string
	Model   string
	CostUSD float64
}

func imagePromptRequest(title string) string {
	return fmt.Sprintf("Write a detailed prompt for %s to generate a professional photography style featured image for a blog post titled: %s. Do not include any text in the image. Respond with the prompt only.",
		"DALL-E 3", title)
}

// GenerateFeaturedImage writes an image description for the title with the
// prompt model and renders it with the image model.
func (c *Client) GenerateFeaturedImage(ctx context.Context, title string) (*Image, error) {
	if c.images == nil {
		return nil, ErrImagesDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, 2*c.cfg.Timeout)
	defer cancel()

	promptResp, err := chatOpenAI(ctx, *c.images, c.cfg.ImagePromptModel, ChatRequest{
		Prompt:    imagePromptRequest(title),
		MaxTokens: 400,
	})
	if err != nil {
		return nil, fmt.Errorf("image prompt: %w", err)
	}
	c.recordUsage(ProviderOpenAI, promptResp)

	visualPrompt := strings.TrimSpace(promptResp.Content)
	if visualPrompt == "" {
		return nil, fmt.Errorf("image prompt: %w", ErrEmptyResponse)
	}

	params := openai.ImageGenerateParams{
		Prompt: visualPrompt,
		Model:  openai.ImageModel(c.cfg.ImageModel),
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize1024x1024,
	}
	// gpt-image-1 doesn't support response_format
	if c.cfg.ImageModel == "dall-e-3" {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}

	res, err := c.images.Images.Generate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("image generation: %w", err)
	}
	if len(res.Data) == 0 {
		return nil, errors.New("image generation: no image data returned")
	}

	var data []byte
	switch first := res.Data[0]; {
	case first.B64JSON != "":
		data, err = base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("image base64 decode: %w", err)
		}
	case first.URL != "":
		data, err = c.download(ctx, first.URL)
		if err != nil {
			return nil, fmt.Errorf("image download: %w", err)
		}
	default:
		return nil, errors.New("image generation: no image data in response")
	}

	cost := 0.0
	if info, err := GetImageModelInfo(ProviderOpenAI, c.cfg.ImageModel); err == nil {
		cost = info.ImageCost
	}
	c.logger.Debug("ai image generated", "model", c.cfg.ImageModel, "bytes", len(data), "cost_usd", cost)

	return &Image{Data: data, Prompt: visualPrompt, Model: c.cfg.ImageModel, CostUSD: cost}, nil
}

func (c *Client) download(ctx context.Context, imgURL string) ([]byte, error) {
	var buf bytes.Buffer
	err := requests.URL(imgURL).
		Client(c.http).
		AddValidator(checkStatus).
		ToBytesBuffer(&buf).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if buf.Len() > maxImageBytes {
		return nil, fmt.Errorf("image is larger than %d bytes", maxImageBytes)
	}
	return buf.Bytes(), nil
}
