package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/set-night/screenwatch/internal/config"
	"github.com/shopspring/decimal"
)

// ErrorKind classifies an inference failure for the monitor's retry policy.
type ErrorKind string

const (
	ErrKindRateLimit ErrorKind = "rateLimit"
	ErrKindNetwork   ErrorKind = "network"
	ErrKindAPI       ErrorKind = "apiError"
)

// APIError is a normalized inference failure. Status is zero for
// connection-level failures.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("openrouter: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("openrouter: %s: %s", e.Kind, e.Message)
}

// providerFamily selects the request shape a model expects for image input.
type providerFamily int

const (
	// familyImageURL attaches the image as an image_url content block.
	// This is the OpenRouter default and the explicit fallback for
	// unrecognized models.
	familyImageURL providerFamily = iota
	// familyBase64Block attaches the image as a base64 source block
	// (anthropic models).
	familyBase64Block
	// familyInlineData attaches the image as an inline_data part
	// (gemini models).
	familyInlineData
)

func familyForModel(modelID string) providerFamily {
	id := strings.ToLower(modelID)
	switch {
	case strings.Contains(id, "anthropic"):
		return familyBase64Block
	case strings.Contains(id, "gemini"):
		return familyInlineData
	case strings.Contains(id, "openai"),
		strings.Contains(id, "meta-llama"),
		strings.Contains(id, "llama-4"),
		strings.Contains(id, "moonshotai"),
		strings.Contains(id, "kimi"):
		return familyImageURL
	default:
		return familyImageURL
	}
}

type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOpenRouterClient(apiKey string) *OpenRouterClient {
	return &OpenRouterClient{
		apiKey:     apiKey,
		baseURL:    "https://openrouter.ai/api/v1",
		httpClient: &http.Client{Timeout: config.RequestTimeout},
	}
}

// Analysis is a parsed inference result.
type Analysis struct {
	Text string
	Raw  json.RawMessage
	Cost decimal.Decimal
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		// Legacy completion shape some providers still return.
		Text string `json:"text"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int     `json:"prompt_tokens"`
		CompletionTokens int     `json:"completion_tokens"`
		TotalCost        float64 `json:"total_cost"`
	} `json:"usage"`
}

// Analyze sends one vision request: the prompt plus a JPEG frame as a base64
// data URL, shaped for the model's provider family. An empty apiKey falls
// back to the client's configured key. The returned error, if any, is always
// an *APIError.
func (c *OpenRouterClient) Analyze(ctx context.Context, modelID, prompt, imageDataURL, apiKey string) (*Analysis, error) {
	payload := buildPayload(modelID, prompt, imageDataURL)
	body, err := c.post(ctx, payload, apiKey)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &APIError{Kind: ErrKindAPI, Message: fmt.Sprintf("parse response: %v", err)}
	}

	var text string
	if len(parsed.Choices) > 0 {
		if parsed.Choices[0].Message.Content != "" {
			text = parsed.Choices[0].Message.Content
		} else {
			text = parsed.Choices[0].Text
		}
	}

	return &Analysis{
		Text: text,
		Raw:  json.RawMessage(body),
		Cost: decimal.NewFromFloat(parsed.Usage.TotalCost),
	}, nil
}

// Test issues a minimal text-only request to verify the credential and model.
func (c *OpenRouterClient) Test(ctx context.Context, modelID, apiKey string) error {
	payload := map[string]any{
		"model":      modelID,
		"messages":   []map[string]any{{"role": "user", "content": "ping"}},
		"max_tokens": 16,
	}
	_, err := c.post(ctx, payload, apiKey)
	return err
}

func (c *OpenRouterClient) post(ctx context.Context, payload any, apiKey string) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, &APIError{Kind: ErrKindAPI, Message: fmt.Sprintf("marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, &APIError{Kind: ErrKindAPI, Message: fmt.Sprintf("create request: %v", err)}
	}
	if apiKey == "" {
		apiKey = c.apiKey
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No HTTP status at all: connection-level failure.
		return nil, &APIError{Kind: ErrKindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: ErrKindNetwork, Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyHTTPError(resp.StatusCode, body)
	}
	return body, nil
}

func classifyHTTPError(status int, body []byte) *APIError {
	message := "API request failed"
	var errBody struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errBody); err == nil && errBody.Error.Message != "" {
		message = errBody.Error.Message
	}

	kind := ErrKindAPI
	if status == http.StatusTooManyRequests || strings.Contains(strings.ToLower(message), "rate limit") {
		kind = ErrKindRateLimit
	}
	return &APIError{Kind: kind, Status: status, Message: message}
}

// buildPayload constructs the provider-specific chat request. Every shape
// carries the same max_tokens ceiling.
func buildPayload(modelID, prompt, imageDataURL string) map[string]any {
	var content any
	switch familyForModel(modelID) {
	case familyBase64Block:
		content = []map[string]any{
			{"type": "text", "text": prompt},
			{"type": "image", "source": map[string]any{
				"type":       "base64",
				"media_type": "image/jpeg",
				"data":       stripDataURL(imageDataURL),
			}},
		}
	case familyInlineData:
		return map[string]any{
			"model": modelID,
			"messages": []map[string]any{{
				"role": "user",
				"parts": []map[string]any{
					{"text": prompt},
					{"inline_data": map[string]any{
						"mime_type": "image/jpeg",
						"data":      stripDataURL(imageDataURL),
					}},
				},
			}},
			"max_tokens": config.MaxTokens,
		}
	default:
		content = []map[string]any{
			{"type": "text", "text": prompt},
			{"type": "image_url", "image_url": map[string]any{"url": imageDataURL}},
		}
	}

	return map[string]any{
		"model":      modelID,
		"messages":   []map[string]any{{"role": "user", "content": content}},
		"max_tokens": config.MaxTokens,
	}
}

func stripDataURL(dataURL string) string {
	if i := strings.IndexByte(dataURL, ','); i >= 0 {
		return dataURL[i+1:]
	}
	return dataURL
}
