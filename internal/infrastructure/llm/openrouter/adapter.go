// Package openrouter adapts OpenAI-compatible chat endpoints (OpenRouter and
// Ollama's /v1 API) to the LLM port.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultOllamaModel = "llama3.1:8b"
	DefaultOllamaHost  = "http://localhost:11434"
)

var _ output.LLMPort = (*OpenRouterAdapter)(nil)

type OpenRouterAdapter struct {
	client       *openai.Client
	model        string
	disableTools bool
	logger       output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// AppTitle is sent as X-Title so runs are attributed on the OpenRouter dashboard.
	AppTitle string
	// DisableTools keeps tool definitions out of requests, for models without tool support.
	DisableTools bool
	Logger       output.LoggerPort
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:   apiKey,
		Model:    model,
		BaseURL:  "https://openrouter.ai/api/v1",
		AppTitle: "sow-reviewer",
	}
}

// OllamaConfig targets the OpenAI-compatible endpoint of an Ollama server.
// Ollama ignores the API key but the client requires one.
func OllamaConfig(host, model string) Config {
	if host == "" {
		host = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	baseURL := strings.TrimRight(host, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}

	return Config{
		APIKey:  "ollama",
		Model:   model,
		BaseURL: baseURL,
	}
}

type loggingTransport struct {
	base     http.RoundTripper
	logger   output.LoggerPort
	appTitle string
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.appTitle != "" {
		req = req.Clone(req.Context())
		req.Header.Set("X-Title", t.appTitle)
	}

	if t.logger != nil {
		var bodyBytes []byte
		if req.Body != nil {
			bodyBytes, _ = io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		var requestData map[string]interface{}
		if len(bodyBytes) > 0 {
			_ = json.Unmarshal(bodyBytes, &requestData)
		}

		t.logger.Debug("HTTP Request",
			"method", req.Method,
			"url", req.URL.String(),
			"body", requestData,
		)
	}

	resp, err := t.base.RoundTrip(req)

	if t.logger != nil && resp != nil {
		t.logger.Debug("HTTP Response",
			"status", resp.Status,
			"statusCode", resp.StatusCode,
		)
	}

	return resp, err
}

func NewOpenRouterAdapter(cfg Config) *OpenRouterAdapter {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	config.HTTPClient = &http.Client{
		Transport: &loggingTransport{
			base:     http.DefaultTransport,
			logger:   cfg.Logger,
			appTitle: cfg.AppTitle,
		},
	}

	return &OpenRouterAdapter{
		client:       openai.NewClientWithConfig(config),
		model:        cfg.Model,
		disableTools: cfg.DisableTools,
		logger:       cfg.Logger,
	}
}

func (a *OpenRouterAdapter) Model() string {
	return a.model
}

func (a *OpenRouterAdapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	messages := convertMessages(req.Messages)
	tools := convertTools(req.Tools)

	chatReq := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if len(tools) > 0 && !a.disableTools {
		chatReq.Tools = tools
		chatReq.ToolChoice = "auto"
	}

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	if a.logger != nil {
		a.logger.Debug("Chat completion",
			"model", a.model,
			"promptTokens", resp.Usage.PromptTokens,
			"completionTokens", resp.Usage.CompletionTokens,
			"finishReason", resp.Choices[0].FinishReason,
		)
	}

	return &output.ChatResponse{
		Message: convertResponseMessage(resp.Choices[0].Message),
	}, nil
}

func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}

		if msg.ToolCallID != "" {
			oaiMsg.ToolCallID = msg.ToolCallID
		}
		if msg.Name != "" {
			oaiMsg.Name = msg.Name
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}

		result = append(result, oaiMsg)
	}
	return result
}

func convertTools(tools []entity.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}

func convertResponseMessage(msg openai.ChatCompletionMessage) entity.Message {
	result := entity.Message{
		Role:    entity.RoleAssistant,
		Content: msg.Content,
	}

	for _, tc := range msg.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, entity.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return result
}
