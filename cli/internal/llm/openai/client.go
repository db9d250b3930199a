// Package openai adapts an OpenAI-compatible chat completions endpoint to llm.Backend.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gopenai "github.com/sashabaranov/go-openai"

	"revise/cli/internal/llm"
)

// Client wraps a go-openai client for one model.
type Client struct {
	client *gopenai.Client
	model  string
}

// NewClient builds a client. Empty baseURL keeps the library's default
// (api.openai.com); any OpenAI-compatible server can be targeted by setting it.
// If httpClient is nil, a client with llm.DefaultTimeout is used.
func NewClient(baseURL, model, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: llm.DefaultTimeout}
	}
	cfg := gopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	hc := *httpClient
	hc.Transport = &captureTransport{base: httpClient.Transport}
	cfg.HTTPClient = &hc
	return &Client{client: gopenai.NewClientWithConfig(cfg), model: model}
}

// maxErrorBody caps how much of a failed response is kept for APIError.Body.
const maxErrorBody = 64 << 10

type errorBodyKey struct{}

// errorBody receives the raw body of a non-2xx response for one request.
type errorBody struct {
	text string
}

// captureTransport copies the raw body of failed responses into the request's
// errorBody so APIError carries the server text instead of the decoded message.
type captureTransport struct {
	base http.RoundTripper
}

func (t *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}
	rec, ok := req.Context().Value(errorBodyKey{}).(*errorBody)
	if !ok {
		return resp, nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	rec.text = string(data)
	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(data), resp.Body), resp.Body}
	return resp, nil
}

// Complete sends the persona as the system message and text as the user message.
func (c *Client) Complete(ctx context.Context, system, text string) (string, error) {
	req := gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: system},
			{Role: gopenai.ChatMessageRoleUser, Content: text},
		},
	}
	rec := &errorBody{}
	resp, err := c.client.CreateChatCompletion(context.WithValue(ctx, errorBodyKey{}, rec), req)
	if err != nil {
		return "", mapError(err, rec.text)
	}
	if len(resp.Choices) == 0 {
		return "", &llm.ParseError{Reason: "no choices found"}
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", &llm.ParseError{Reason: "no text found"}
	}
	return content, nil
}

// mapError turns HTTP failures into *llm.APIError with the raw response body
// when one was captured, else the library's decoded message. Anything else is
// a transport failure joined with llm.ErrUnreachable.
func mapError(err error, rawBody string) error {
	var apiErr *gopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &llm.APIError{StatusCode: apiErr.HTTPStatusCode, Body: orElse(rawBody, apiErr.Message)}
	}
	var reqErr *gopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &llm.APIError{StatusCode: reqErr.HTTPStatusCode, Body: orElse(rawBody, body)}
	}
	return fmt.Errorf("openai chat completion: %w", errors.Join(llm.ErrUnreachable, err))
}

func orElse(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
