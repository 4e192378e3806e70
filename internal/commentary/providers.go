// Package commentary produces the flavor text attached to each turn by asking
// the player's language model for a remark before the roll, a reaction after
// it and a jab at the opponent. Every failure degrades to a canned line.
package commentary

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownProvider is returned for a provider tag outside the catalog.
var ErrUnknownProvider = errors.New("commentary: unknown provider")

// Provider is the enumerated vendor tag.
type Provider string

const (
	OpenAI     Provider = "openai"
	Anthropic  Provider = "anthropic"
	Gemini     Provider = "gemini"
	OpenRouter Provider = "openrouter"
	Groq       Provider = "groq"
	Grok       Provider = "grok"
)

// Model is one selectable model of a provider.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Info describes a provider.
type Info struct {
	ID           Provider `json:"id"`
	Name         string   `json:"name"`
	Color        string   `json:"color"`
	BaseURL      string   `json:"baseUrl"`
	DefaultModel string   `json:"defaultModel"`
	Models       []Model  `json:"models"`
}

var catalog = map[Provider]Info{
	OpenAI: {
		ID: OpenAI, Name: "OpenAI", Color: "#10a37f",
		BaseURL:      "https://api.openai.com/v1",
		DefaultModel: "gpt-5",
		Models: []Model{
			{"gpt-5.2", "GPT-5.2", "Most advanced frontier model"},
			{"gpt-5", "GPT-5", "Multimodal with PhD-level reasoning"},
			{"o3", "o3", "Advanced reasoning model"},
			{"o3-mini", "o3-mini", "Fast reasoning model"},
			{"gpt-4.5-turbo", "GPT-4.5 Turbo", "3x faster, 256k context"},
			{"gpt-4o", "GPT-4o", "Previous generation multimodal"},
		},
	},
	Anthropic: {
		ID: Anthropic, Name: "Anthropic", Color: "#d97706",
		BaseURL:      "https://api.anthropic.com",
		DefaultModel: "claude-sonnet-4.5",
		Models: []Model{
			{"claude-opus-4.5", "Claude Opus 4.5", "Latest Claude, infinite chats"},
			{"claude-sonnet-4.5", "Claude Sonnet 4.5", "Best for coding & agents"},
			{"claude-opus-4.1", "Claude Opus 4.1", "Agentic tasks & reasoning"},
			{"claude-sonnet-4", "Claude Sonnet 4", "Balanced performance"},
			{"claude-opus-4", "Claude Opus 4", "Complex problem-solving"},
		},
	},
	Gemini: {
		ID: Gemini, Name: "Google Gemini", Color: "#4285f4",
		BaseURL:      "https://generativelanguage.googleapis.com",
		DefaultModel: "gemini-3-flash",
		Models: []Model{
			{"gemini-3.0-pro", "Gemini 3.0 Pro", "Most advanced, multimodal"},
			{"gemini-3-flash", "Gemini 3 Flash", "Real-time performance"},
			{"gemini-2.5-pro", "Gemini 2.5 Pro", "Advanced reasoning"},
			{"gemini-2.5-flash", "Gemini 2.5 Flash", "Fast responses"},
			{"gemini-2.0-flash", "Gemini 2.0 Flash", "Previous generation"},
		},
	},
	OpenRouter: {
		ID: OpenRouter, Name: "OpenRouter", Color: "#6366f1",
		BaseURL:      "https://openrouter.ai/api/v1",
		DefaultModel: "meta-llama/llama-4-maverick",
		Models: []Model{
			{"meta-llama/llama-4-maverick", "Llama 4 Maverick", "400B MoE, multilingual"},
			{"meta-llama/llama-4-scout", "Llama 4 Scout", "109B MoE, general purpose"},
			{"meta-llama/llama-3.3-70b-instruct", "Llama 3.3 70B", "Powerful open model"},
			{"deepseek/deepseek-r1", "DeepSeek R1", "Advanced reasoning"},
			{"mistralai/mixtral-8x22b-instruct", "Mixtral 8x22B", "Fast MoE model"},
		},
	},
	Groq: {
		ID: Groq, Name: "Groq", Color: "#f97316",
		BaseURL:      "https://api.groq.com/openai/v1",
		DefaultModel: "llama-4-scout",
		Models: []Model{
			{"llama-4-maverick", "Llama 4 Maverick", "400B params, ultra-fast"},
			{"llama-4-scout", "Llama 4 Scout", "460+ tokens/sec on Groq"},
			{"deepseek-r1-distill-llama-70b", "DeepSeek R1 70B", "Distilled reasoning"},
			{"llama-3.3-70b-versatile", "Llama 3.3 70B", "Fast inference"},
			{"gemma2-9b-it", "Gemma 2 9B", "Efficient model"},
		},
	},
	Grok: {
		ID: Grok, Name: "xAI Grok", Color: "#1d9bf0",
		BaseURL:      "https://api.x.ai/v1",
		DefaultModel: "grok-4.1",
		Models: []Model{
			{"grok-4.1", "Grok 4.1", "Latest stable release"},
			{"grok-4.1-thinking", "Grok 4.1 Thinking", "Advanced reasoning mode"},
			{"grok-4.1-fast", "Grok 4.1 Fast", "Speed optimized"},
			{"grok-3", "Grok 3", "Enhanced reasoning"},
			{"grok-3-mini", "Grok 3 Mini", "Cost-efficient"},
		},
	},
}

// ParseProvider validates a provider tag. Matching is case-insensitive.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := catalog[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
	return p, nil
}

// Lookup returns the catalog entry for p.
func Lookup(p Provider) (Info, bool) {
	info, ok := catalog[p]
	return info, ok
}

// Catalog returns every provider, sorted by tag.
func Catalog() []Info {
	out := make([]Info, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// KnownModel reports whether model is listed for p. Unlisted models are still
// accepted by the clients; this only drives UI hints.
func KnownModel(p Provider, model string) bool {
	info, ok := catalog[p]
	if !ok {
		return false
	}
	for _, m := range info.Models {
		if m.ID == model {
			return true
		}
	}
	return false
}
