// Package provider – compatible.go implements the OpenAI-compatible wire
// provider. It speaks the chat-completions JSON format, which works with
// OpenAI, OpenRouter, DeepSeek, Groq, GLM (api.z.ai), and any compatible
// endpoint, and falls back to the Responses API for plain completions when
// the endpoint only serves that surface.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// Auth header styles supported by OpenAI-compatible endpoints.
const (
	AuthBearer  = "bearer"
	AuthXAPIKey = "x-api-key"
	AuthCustom  = "custom"
)

const (
	requestTimeout = 120 * time.Second
	connectTimeout = 10 * time.Second
)

// APIError is a non-2xx response from the provider endpoint. Status drives
// the retry classification in the resilience wrapper.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned %d: %s", e.Status, truncate(e.Body, 500))
}

// OpenAICompatible talks to any endpoint that implements the OpenAI
// chat-completions wire format.
type OpenAICompatible struct {
	name       string
	baseURL    string
	apiKey     string
	authStyle  string
	authHeader string
	httpClient *http.Client
	logger     *slog.Logger
}

// CompatibleOptions configures an OpenAI-compatible provider.
type CompatibleOptions struct {
	// Name identifies the provider in logs ("openrouter", "deepseek", ...).
	Name string
	// BaseURL is the API root, or a full chat-completions URL for providers
	// with non-standard paths.
	BaseURL string
	APIKey  string
	// AuthStyle is one of AuthBearer (default), AuthXAPIKey, AuthCustom.
	AuthStyle string
	// AuthHeader is the header name when AuthStyle is AuthCustom.
	AuthHeader string
}

// NewOpenAICompatible creates a provider for the given endpoint.
func NewOpenAICompatible(opts CompatibleOptions, logger *slog.Logger) *OpenAICompatible {
	name := opts.Name
	if name == "" {
		name = "custom"
	}
	style := opts.AuthStyle
	if style == "" {
		style = AuthBearer
	}

	return &OpenAICompatible{
		name:       name,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		authStyle:  style,
		authHeader: opts.AuthHeader,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
			},
		},
		logger: logger.With("component", "provider", "provider", name),
	}
}

// Name identifies the provider in logs and error messages.
func (p *OpenAICompatible) Name() string { return p.name }

// chatCompletionsURL resolves the chat-completions endpoint. A base URL that
// already contains the chat/completions path is used verbatim, for providers
// with custom routes.
func (p *OpenAICompatible) chatCompletionsURL() string {
	if strings.Contains(p.baseURL, "chat/completions") {
		return p.baseURL
	}
	return p.baseURL + "/chat/completions"
}

// responsesURL resolves the Responses-API endpoint used by the 404 fallback.
func (p *OpenAICompatible) responsesURL() string {
	if strings.Contains(p.baseURL, "responses") {
		return p.baseURL
	}
	return p.baseURL + "/v1/responses"
}

func (p *OpenAICompatible) setAuth(req *http.Request) {
	switch p.authStyle {
	case AuthXAPIKey:
		req.Header.Set("x-api-key", p.apiKey)
	case AuthCustom:
		req.Header.Set(p.authHeader, p.apiKey)
	default:
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}

// ---------- Wire types ----------

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []ChatMessage    `json:"messages"`
	Temperature float64          `json:"temperature"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string     `json:"content"`
			ToolCalls []ToolCall `json:"tool_calls,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type responsesRequest struct {
	Model        string `json:"model"`
	Input        string `json:"input"`
	Instructions string `json:"instructions,omitempty"`
}

// ---------- Operations ----------

// ChatWithSystem sends a single user message with an optional system prompt
// and returns the text. If the chat-completions endpoint answers 404, the
// request is retried once against the Responses API.
func (p *OpenAICompatible) ChatWithSystem(ctx context.Context, systemPrompt, message, model string, temperature float64) (string, error) {
	messages := make([]ChatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, SystemMessage(systemPrompt))
	}
	messages = append(messages, UserMessage(message))

	resp, err := p.ChatWithTools(ctx, messages, nil, model, temperature)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			p.logger.Debug("chat/completions not found, trying responses API")
			return p.chatViaResponses(ctx, systemPrompt, message, model)
		}
		return "", err
	}
	return resp.Text, nil
}

// ChatWithTools sends the full message history with optional tool definitions
// and returns either final text or a tool-use request.
func (p *OpenAICompatible) ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition, model string, temperature float64) (*ChatResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("API key not configured for provider %q", p.name)
	}

	reqBody := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	}
	if len(tools) > 0 {
		reqBody.Tools = tools
	}

	endpoint := p.chatCompletionsURL()
	p.logger.Debug("sending chat completion",
		"model", model,
		"messages", len(messages),
		"tools", len(tools),
		"endpoint", endpoint,
	)

	start := time.Now()
	respBody, err := p.post(ctx, endpoint, reqBody)
	if err != nil {
		return nil, err
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}

	choice := chatResp.Choices[0]
	p.logger.Debug("chat completion done",
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"finish_reason", choice.FinishReason,
		"tool_calls", len(choice.Message.ToolCalls),
	)

	return &ChatResponse{
		Text:      strings.TrimSpace(choice.Message.Content),
		ToolCalls: choice.Message.ToolCalls,
	}, nil
}

// Warmup pre-establishes the HTTP connection pool with a throwaway request.
// Errors are ignored; this only exists to take the TLS handshake off the
// first real turn.
func (p *OpenAICompatible) Warmup(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// chatViaResponses is the Responses-API fallback for plain completions.
func (p *OpenAICompatible) chatViaResponses(ctx context.Context, systemPrompt, message, model string) (string, error) {
	respBody, err := p.post(ctx, p.responsesURL(), responsesRequest{
		Model:        model,
		Input:        message,
		Instructions: systemPrompt,
	})
	if err != nil {
		return "", err
	}

	text, err := extractResponsesText(respBody)
	if err != nil {
		return "", fmt.Errorf("parsing responses API output: %w", err)
	}
	return text, nil
}

func (p *OpenAICompatible) post(ctx context.Context, endpoint string, body any) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.setAuth(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		p.logger.Error("API error",
			"status", resp.StatusCode,
			"endpoint", endpoint,
			"body", truncate(string(respBody), 500),
		)
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// extractResponsesText pulls the assistant text out of a Responses-API reply.
// It checks the convenience output_text field first, then walks the output
// array for message items with output_text content parts.
func extractResponsesText(body []byte) (string, error) {
	var resp struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Type    string `json:"type"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if resp.OutputText != "" {
		return strings.TrimSpace(resp.OutputText), nil
	}

	var parts []string
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" && c.Text != "" {
				parts = append(parts, c.Text)
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no output text in response")
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
