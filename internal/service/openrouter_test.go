package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/screenwatch/internal/config"
)

const testDataURL = "data:image/jpeg;base64,aGVsbG8="

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenRouterClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewOpenRouterClient("configured-key")
	client.baseURL = srv.URL
	return client
}

func capturePayload(t *testing.T, dst *map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, dst))
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}],"usage":{"total_cost":0.0015}}`))
	}
}

func TestAnalyzeImageURLFamily(t *testing.T) {
	var payload map[string]any
	client := newTestClient(t, capturePayload(t, &payload))

	analysis, err := client.Analyze(context.Background(), "openai/gpt-4o", "what is this", testDataURL, "")
	require.NoError(t, err)

	assert.Equal(t, "ok", analysis.Text)
	assert.Equal(t, "0.0015", analysis.Cost.String())
	assert.Equal(t, float64(config.MaxTokens), payload["max_tokens"])

	messages := payload["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	imageBlock := content[1].(map[string]any)
	assert.Equal(t, "image_url", imageBlock["type"])
	assert.Equal(t, testDataURL, imageBlock["image_url"].(map[string]any)["url"])
}

func TestAnalyzeAnthropicFamilyStripsDataURL(t *testing.T) {
	var payload map[string]any
	client := newTestClient(t, capturePayload(t, &payload))

	_, err := client.Analyze(context.Background(), "anthropic/claude-sonnet-4", "p", testDataURL, "")
	require.NoError(t, err)

	messages := payload["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	imageBlock := content[1].(map[string]any)
	assert.Equal(t, "image", imageBlock["type"])

	source := imageBlock["source"].(map[string]any)
	assert.Equal(t, "base64", source["type"])
	assert.Equal(t, "image/jpeg", source["media_type"])
	assert.Equal(t, "aGVsbG8=", source["data"])
}

func TestAnalyzeGeminiFamilyUsesInlineData(t *testing.T) {
	var payload map[string]any
	client := newTestClient(t, capturePayload(t, &payload))

	_, err := client.Analyze(context.Background(), "google/gemini-2.5-flash", "p", testDataURL, "")
	require.NoError(t, err)

	messages := payload["messages"].([]any)
	parts := messages[0].(map[string]any)["parts"].([]any)
	inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
	assert.Equal(t, "image/jpeg", inline["mime_type"])
	assert.Equal(t, "aGVsbG8=", inline["data"])
}

func TestAnalyzeUnknownModelFallsBackToImageURL(t *testing.T) {
	var payload map[string]any
	client := newTestClient(t, capturePayload(t, &payload))

	_, err := client.Analyze(context.Background(), "somevendor/mystery-model", "p", testDataURL, "")
	require.NoError(t, err)

	messages := payload["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	assert.Equal(t, "image_url", content[1].(map[string]any)["type"])
}

func TestAnalyzePerCallKeyOverridesConfigured(t *testing.T) {
	var auth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := client.Analyze(context.Background(), "openai/gpt-4o", "p", testDataURL, "session-key")
	require.NoError(t, err)
	assert.Equal(t, "Bearer session-key", auth)

	_, err = client.Analyze(context.Background(), "openai/gpt-4o", "p", testDataURL, "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer configured-key", auth)
}

func TestAnalyzeLegacyTextField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"text":"legacy answer"}]}`))
	})

	analysis, err := client.Analyze(context.Background(), "openai/gpt-4o", "p", testDataURL, "")
	require.NoError(t, err)
	assert.Equal(t, "legacy answer", analysis.Text)
}

func TestAnalyzeClassifies429AsRateLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"too many requests"}}`))
	})

	_, err := client.Analyze(context.Background(), "openai/gpt-4o", "p", testDataURL, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrKindRateLimit, apiErr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}

func TestAnalyzeClassifiesRateLimitByMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Rate limit exceeded for free tier"}}`))
	})

	_, err := client.Analyze(context.Background(), "openai/gpt-4o", "p", testDataURL, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrKindRateLimit, apiErr.Kind)
}

func TestAnalyzeDefaultErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`not json`))
	})

	_, err := client.Analyze(context.Background(), "openai/gpt-4o", "p", testDataURL, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrKindAPI, apiErr.Kind)
	assert.Equal(t, "API request failed", apiErr.Message)
}

func TestAnalyzeConnectionFailureIsNetworkError(t *testing.T) {
	client := NewOpenRouterClient("key")
	client.baseURL = "http://127.0.0.1:1"

	_, err := client.Analyze(context.Background(), "openai/gpt-4o", "p", testDataURL, "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ErrKindNetwork, apiErr.Kind)
	assert.Zero(t, apiErr.Status)
}

func TestTestSendsMinimalRequest(t *testing.T) {
	var payload map[string]any
	client := newTestClient(t, capturePayload(t, &payload))

	require.NoError(t, client.Test(context.Background(), "openai/gpt-4o", ""))
	assert.Equal(t, "openai/gpt-4o", payload["model"])
	assert.Equal(t, float64(16), payload["max_tokens"])
}

func TestFamilyForModel(t *testing.T) {
	cases := map[string]providerFamily{
		"anthropic/claude-sonnet-4":       familyBase64Block,
		"google/gemini-2.5-pro":           familyInlineData,
		"openai/gpt-4o":                   familyImageURL,
		"meta-llama/llama-4-scout":        familyImageURL,
		"moonshotai/kimi-vl-a3b-thinking": familyImageURL,
		"somevendor/unknown":              familyImageURL,
	}
	for model, want := range cases {
		assert.Equal(t, want, familyForModel(model), model)
	}
}

func TestStripDataURL(t *testing.T) {
	assert.Equal(t, "aGVsbG8=", stripDataURL(testDataURL))
	assert.Equal(t, "rawbase64", stripDataURL("rawbase64"))
}
