// Package commitmsg turns a diff or free-form text into AI commit message
// candidates: it sends the persona prompt and the text to an llm.Backend,
// then extracts and deduplicates the structured candidates from the reply.
package commitmsg

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"revise/cli/internal/config"
	"revise/cli/internal/erruser"
	"revise/cli/internal/llm"
	"revise/cli/internal/llm/gemini"
	"revise/cli/internal/llm/ollama"
	"revise/cli/internal/llm/openai"
)

const truncatedMarker = "\n\n[truncated for context]"

// Client generates candidate sets. Zero value is not valid; use NewClient.
type Client struct {
	backend       llm.Backend
	system        string
	maxInputBytes int
}

// NewClient returns a client sending system as the persona turn. An empty
// system selects DefaultSystemPrompt. maxInputBytes caps the text sent
// (0 = no cap).
func NewClient(backend llm.Backend, system string, maxInputBytes int) *Client {
	if system == "" {
		system = DefaultSystemPrompt
	}
	return &Client{backend: backend, system: system, maxInputBytes: maxInputBytes}
}

// System returns the persona prompt the client sends.
func (c *Client) System() string { return c.system }

// GenerateCandidates asks the backend for candidates for text. Backend errors
// (*llm.APIError, transport failures) are returned unchanged; extraction
// failures are *llm.ParseError.
func (c *Client) GenerateCandidates(ctx context.Context, text string) (*CandidateSet, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("commitmsg: nil backend")
	}
	if c.maxInputBytes > 0 && len(text) > c.maxInputBytes {
		text = truncateUTF8(text, c.maxInputBytes) + truncatedMarker
	}
	reply, err := c.backend.Complete(ctx, c.system, text)
	if err != nil {
		return nil, err
	}
	return ParseCandidates(reply)
}

// truncateUTF8 returns the longest prefix of s that is at most limit bytes and
// does not split a multi-byte rune.
func truncateUTF8(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// NewBackend builds the backend selected by ai.Provider. A provider that needs
// a key and has none yields an error wrapping config.ErrMissingAPIKey.
func NewBackend(ai config.AI) (llm.Backend, error) {
	if config.NeedsAPIKey(ai.Provider) && ai.APIKey == "" {
		return nil, erruser.WithHint("No API key configured for "+ai.Provider+".",
			"Set REVISE_API_KEY or api_key in the [ai] table of revise.toml.",
			fmt.Errorf("provider %s: %w", ai.Provider, config.ErrMissingAPIKey))
	}
	timeout := ai.Timeout
	if timeout <= 0 {
		timeout = llm.DefaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	model := ai.EffectiveModel()
	switch ai.Provider {
	case config.ProviderGemini:
		return gemini.NewClient(ai.BaseURL, model, ai.APIKey, httpClient), nil
	case config.ProviderOllama:
		return ollama.NewClient(ai.BaseURL, model, httpClient), nil
	case config.ProviderOpenAI:
		return openai.NewClient(ai.BaseURL, model, ai.APIKey, httpClient), nil
	default:
		return nil, erruser.WithHint("Invalid AI provider.", "Use gemini, ollama or openai.", fmt.Errorf("provider %q", ai.Provider))
	}
}
