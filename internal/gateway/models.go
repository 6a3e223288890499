// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

// =============================================================================
// MODEL CATALOG
// =============================================================================

// Model is one selectable gateway model: a human label plus the
// provider-qualified identifier sent on the wire.
type Model struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DefaultModel is selected automatically after a credential is verified.
func DefaultModel() Model {
	return Model{Label: "GPT-5", Value: "openai/gpt-5"}
}

// VerifyModel is a cheap, ping-capable model used for credential checks.
const VerifyModel = "google/gemini-2.5-flash"

// Models returns the selectable catalog, in display order.
func Models() []Model {
	return []Model{
		{Label: "GPT-5 nano", Value: "openai/gpt-5-nano"},
		{Label: "GPT-5 mini", Value: "openai/gpt-5-mini"},
		{Label: "GPT-5", Value: "openai/gpt-5"},
		{Label: "Claude Sonnet 4", Value: "anthropic/claude-4-sonnet"},
		{Label: "Claude Opus 4.1", Value: "anthropic/claude-4.1-opus"},
		{Label: "Gemini 2.5 Flash", Value: "google/gemini-2.5-flash"},
		{Label: "Gemini 2.5 Pro", Value: "google/gemini-2.5-pro"},
		{Label: "Grok 4", Value: "xai/grok-4"},
		{Label: "Sonar Pro", Value: "perplexity/sonar-pro"},
		{Label: "Sonar Reasoning Pro", Value: "perplexity/sonar-reasoning-pro"},
	}
}

// FindModel looks up a catalog entry by its wire identifier.
func FindModel(value string) (Model, bool) {
	for _, m := range Models() {
		if m.Value == value {
			return m, true
		}
	}
	return Model{}, false
}
