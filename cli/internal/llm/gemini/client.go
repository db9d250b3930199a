// Package gemini calls the Google Generative Language generateContent endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"revise/cli/internal/llm"
)

// DefaultBaseURL is the v1beta API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-pro-latest"

// Client calls generateContent. Zero value is not valid; use NewClient.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Gemini client. Empty baseURL or model select the defaults.
// If httpClient is nil, a client with llm.DefaultTimeout is used.
func NewClient(baseURL, model, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: llm.DefaultTimeout}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"response_mime_type"`
}

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) endpoint() string {
	return c.baseURL + "/models/" + url.PathEscape(c.model) + ":generateContent?key=" + url.QueryEscape(c.apiKey)
}

// Complete sends two user turns, the persona instruction then text, and
// returns the text of the first part of the first candidate.
func (c *Client) Complete(ctx context.Context, system, text string) (string, error) {
	body, err := json.Marshal(request{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: system}}},
			{Role: "user", Parts: []part{{Text: text}}},
		},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", llm.UserAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the full URL including the key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", fmt.Errorf("gemini generateContent: %w", errors.Join(llm.ErrUnreachable, err))
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini generateContent: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &llm.APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &llm.ParseError{Reason: "decode response", Err: err}
	}
	if len(out.Candidates) == 0 {
		return "", &llm.ParseError{Reason: "no candidates found"}
	}
	parts := out.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", &llm.ParseError{Reason: "no parts found"}
	}
	if parts[0].Text == nil {
		return "", &llm.ParseError{Reason: "no text found"}
	}
	return *parts[0].Text, nil
}
