package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site-generator-backend/internal/llm"
)

func userMessages(content string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: "you build websites"},
		{Role: llm.RoleUser, Content: content},
	}
}

func TestAnthropicProvider_Complete(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "<h1>Padaria</h1>"}],
			"model": "claude-test",
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 34}
		}`))
	}))
	defer server.Close()

	p := llm.NewAnthropicProviderWithURL("test-key", "claude-test", server.URL)
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{Messages: userMessages("bakery site")})
	require.NoError(t, err)

	assert.Equal(t, "<h1>Padaria</h1>", resp.Content)
	assert.Equal(t, 12, resp.InputTokens)
	assert.Equal(t, 34, resp.OutputTokens)
	assert.Equal(t, "you build websites", got["system"])
	assert.Equal(t, "claude-test", got["model"])
	assert.Len(t, got["messages"], 1)
}

func TestAnthropicProvider_JSONModePrefill(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "assistant", req.Messages[1].Role)
		assert.Equal(t, "{", req.Messages[1].Content)

		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "\"sector\": \"bakery\"}"}]}`))
	}))
	defer server.Close()

	p := llm.NewAnthropicProviderWithURL("k", "m", server.URL)
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{Messages: userMessages("x"), JSONMode: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sector": "bakery"}`, resp.Content)
}

func TestAnthropicProvider_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`))
	}))
	defer server.Close()

	p := llm.NewAnthropicProviderWithURL("k", "m", server.URL)
	_, err := p.Complete(context.Background(), llm.CompletionRequest{Messages: userMessages("x")})
	require.Error(t, err)
	assert.True(t, llm.IsRateLimited(err))

	var pe *llm.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "anthropic", pe.Provider)
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
}

func TestAnthropicProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "api_error", "message": "boom"}}`))
	}))
	defer server.Close()

	p := llm.NewAnthropicProviderWithURL("k", "m", server.URL)
	_, err := p.Complete(context.Background(), llm.CompletionRequest{Messages: userMessages("x")})
	require.Error(t, err)
	assert.False(t, llm.IsRateLimited(err))
	assert.Contains(t, err.Error(), "api_error")
}

func TestAnthropicProvider_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := llm.NewAnthropicProviderWithURL("k", "m", server.URL)
	_, err := p.Complete(ctx, llm.CompletionRequest{Messages: userMessages("x")})
	require.Error(t, err)

	var pe *llm.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.True(t, pe.Timeout)
	assert.False(t, pe.RateLimited)
}

func TestOpenAIProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req["model"])
		assert.NotNil(t, req["response_format"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-test",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"sector\":\"bakery\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 7, "total_tokens": 12}
		}`))
	}))
	defer server.Close()

	p := llm.NewOpenAIProviderWithBaseURL("test-key", "gpt-test", server.URL+"/v1")
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{Messages: userMessages("x"), JSONMode: true})
	require.NoError(t, err)

	assert.Equal(t, `{"sector":"bakery"}`, resp.Content)
	assert.Equal(t, 5, resp.InputTokens)
	assert.Equal(t, 7, resp.OutputTokens)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestOpenAIProvider_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"}}`))
	}))
	defer server.Close()

	p := llm.NewOpenAIProviderWithBaseURL("k", "m", server.URL+"/v1")
	_, err := p.Complete(context.Background(), llm.CompletionRequest{Messages: userMessages("x")})
	require.Error(t, err)
	assert.True(t, llm.IsRateLimited(err))
}

func TestNewProvider(t *testing.T) {
	p, err := llm.NewProvider("openai", "k", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = llm.NewProvider("anthropic", "k", "claude")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	_, err = llm.NewProvider("ollama", "k", "m")
	assert.Error(t, err)

	_, err = llm.NewProvider("openai", "", "m")
	assert.Error(t, err)
}

func TestIsRateLimited_PlainError(t *testing.T) {
	assert.False(t, llm.IsRateLimited(errors.New("boom")))
	assert.False(t, llm.IsRateLimited(nil))
}
