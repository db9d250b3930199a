package openai

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	gopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revise/cli/internal/llm"
)

func chatResponse(content string) string {
	resp := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestClient_Complete(t *testing.T) {
	t.Parallel()
	var got gopenai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatResponse(`[{"type":"fix","message":"Fix x","body":"y"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1", "test-model", "sk-test", srv.Client())
	out, err := c.Complete(context.Background(), "persona", "diff text")
	require.NoError(t, err)
	assert.Equal(t, `[{"type":"fix","message":"Fix x","body":"y"}]`, out)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, gopenai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "persona", got.Messages[0].Content)
	assert.Equal(t, gopenai.ChatMessageRoleUser, got.Messages[1].Role)
	assert.Equal(t, "diff text", got.Messages[1].Content)
}

func TestClient_Complete_httpErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"json error body", http.StatusTooManyRequests, `{"error":{"message":"rate limited","type":"requests"}}`},
		{"plain body", http.StatusInternalServerError, "overloaded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()
			c := NewClient(srv.URL+"/v1", "m", "k", srv.Client())
			_, err := c.Complete(context.Background(), "p", "t")
			var apiErr *llm.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.body, apiErr.Body, "body is the raw response text")
		})
	}
}

func TestClient_Complete_noChoices(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()
	c := NewClient(srv.URL+"/v1", "m", "k", srv.Client())
	_, err := c.Complete(context.Background(), "p", "t")
	var pe *llm.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "no choices found", pe.Reason)
}

func TestClient_Complete_unreachable(t *testing.T) {
	t.Parallel()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	c := NewClient("http://"+addr+"/v1", "m", "k", nil)
	_, err = c.Complete(context.Background(), "p", "t")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrUnreachable)
}
