// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"fmt"
)

// ProviderID constants for supported AI providers.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"
)

// ProviderInfo contains metadata for a provider.
type ProviderInfo struct {
	ID             string
	Name           string
	DefaultBaseURL string
	DefaultModel   string
	QuickModel     string
	Models         []ModelInfo
	ImageModels    []ModelInfo
	NeedsAPIKey    bool
	// OpenAICompatible providers are served by the openai-go client.
	OpenAICompatible bool
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string
	Name        string
	InputCost   float64 // cost per 1M input tokens in USD
	OutputCost  float64 // cost per 1M output tokens in USD
	ImageCost   float64 // cost per image generation in USD
	ContextSize int     // context window in tokens
}

// AllProviders returns metadata for all supported providers.
func AllProviders() []ProviderInfo {
	return []ProviderInfo{
		{
			ID:               ProviderGroq,
			Name:             "Groq",
			DefaultBaseURL:   "https://api.groq.com/openai/v1",
			DefaultModel:     "llama-3.3-70b-versatile",
			QuickModel:       "llama-3.1-8b-instant",
			NeedsAPIKey:      true,
			OpenAICompatible: true,
			Models: []ModelInfo{
				{ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B", InputCost: 0.59, OutputCost: 0.79, ContextSize: 128000},
				{ID: "llama-3.1-8b-instant", Name: "Llama 3.1 8B", InputCost: 0.05, OutputCost: 0.08, ContextSize: 131072},
				{ID: "gemma2-9b-it", Name: "Gemma 2 9B", InputCost: 0.20, OutputCost: 0.20, ContextSize: 8192},
			},
		},
		{
			ID:               ProviderOpenAI,
			Name:             "OpenAI",
			DefaultBaseURL:   "https://api.openai.com/v1",
			DefaultModel:     "gpt-4o",
			QuickModel:       "gpt-4o-mini",
			NeedsAPIKey:      true,
			OpenAICompatible: true,
			Models: []ModelInfo{
				{ID: "gpt-4o", Name: "GPT-4o", InputCost: 2.50, OutputCost: 10.00, ContextSize: 128000},
				{ID: "gpt-4o-mini", Name: "GPT-4o Mini", InputCost: 0.15, OutputCost: 0.60, ContextSize: 128000},
				{ID: "gpt-4.1", Name: "GPT-4.1", InputCost: 2.00, OutputCost: 8.00, ContextSize: 1047576},
				{ID: "gpt-4.1-mini", Name: "GPT-4.1 Mini", InputCost: 0.40, OutputCost: 1.60, ContextSize: 1047576},
			},
			ImageModels: []ModelInfo{
				{ID: "dall-e-3", Name: "DALL-E 3", ImageCost: 0.040},
				{ID: "gpt-image-1", Name: "GPT Image 1", ImageCost: 0.040},
			},
		},
		{
			ID:             ProviderClaude,
			Name:           "Anthropic Claude",
			DefaultBaseURL: "https://api.anthropic.com/v1",
			DefaultModel:   "claude-sonnet-4-5-20250929",
			QuickModel:     "claude-haiku-4-5-20251001",
			NeedsAPIKey:    true,
			Models: []ModelInfo{
				{ID: "claude-sonnet-4-5-20250929", Name: "Claude Sonnet 4.5", InputCost: 3.00, OutputCost: 15.00, ContextSize: 200000},
				{ID: "claude-haiku-4-5-20251001", Name: "Claude Haiku 4.5", InputCost: 0.80, OutputCost: 4.00, ContextSize: 200000},
			},
		},
		{
			ID:               ProviderOllama,
			Name:             "Ollama",
			DefaultBaseURL:   "http://localhost:11434/v1",
			DefaultModel:     "llama3.3",
			QuickModel:       "llama3.2",
			OpenAICompatible: true,
			Models: []ModelInfo{
				{ID: "llama3.3", Name: "Llama 3.3", ContextSize: 128000},
				{ID: "llama3.2", Name: "Llama 3.2", ContextSize: 128000},
				{ID: "mistral", Name: "Mistral", ContextSize: 32768},
				{ID: "qwen2.5", Name: "Qwen 2.5", ContextSize: 128000},
			},
		},
	}
}

// GetProviderInfo returns provider metadata by ID.
func GetProviderInfo(providerID string) (*ProviderInfo, error) {
	for _, p := range AllProviders() {
		if p.ID == providerID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("unknown provider: %s", providerID)
}

// GetModelInfo returns model info for a provider and model ID.
func GetModelInfo(providerID, modelID string) (*ModelInfo, error) {
	pInfo, err := GetProviderInfo(providerID)
	if err != nil {
		return nil, err
	}
	for _, m := range pInfo.Models {
		if m.ID == modelID {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("unknown model %s for provider %s", modelID, providerID)
}

// GetImageModelInfo returns image model info for a provider and model ID.
func GetImageModelInfo(providerID, modelID string) (*ModelInfo, error) {
	pInfo, err := GetProviderInfo(providerID)
	if err != nil {
		return nil, err
	}
	for _, m := range pInfo.ImageModels {
		if m.ID == modelID {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("unknown image model %s for provider %s", modelID, providerID)
}

// CalculateCost calculates the cost based on token usage and model pricing.
// Unknown models cost nothing.
func CalculateCost(providerID, modelID string, promptTokens, completionTokens int64) float64 {
	info, err := GetModelInfo(providerID, modelID)
	if err != nil {
		return 0
	}
	inputCost := float64(promptTokens) / 1_000_000 * info.InputCost
	outputCost := float64(completionTokens) / 1_000_000 * info.OutputCost
	return inputCost + outputCost
}
