// Package langchain adapts langchaingo models (Amazon Bedrock) to the LLM port.
package langchain

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/bedrock"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

const DefaultBedrockModel = "anthropic.claude-3-haiku-20240307-v1:0"

var _ output.LLMPort = (*Adapter)(nil)

type Adapter struct {
	model        llms.Model
	name         string
	disableTools bool
	logger       output.LoggerPort
}

type Config struct {
	Model string
	// DisableTools keeps tool definitions out of requests, for models without tool support.
	DisableTools bool
	Logger       output.LoggerPort
}

func New(model llms.Model, cfg Config) *Adapter {
	return &Adapter{
		model:        model,
		name:         cfg.Model,
		disableTools: cfg.DisableTools,
		logger:       cfg.Logger,
	}
}

// NewBedrock uses the default AWS credential chain, so AWS_PROFILE and
// AWS_REGION select the account and region.
func NewBedrock(cfg Config) (*Adapter, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultBedrockModel
	}

	model, err := bedrock.New(bedrock.WithModel(cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("create bedrock client: %w", err)
	}

	return New(model, cfg), nil
}

func (a *Adapter) Model() string {
	return a.name
}

func (a *Adapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	messages := convertMessages(req.Messages)

	opts := []llms.CallOption{llms.WithTemperature(float64(req.Temperature))}
	if !a.disableTools && len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(convertTools(req.Tools)))
	}

	resp, err := a.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate content failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	if a.logger != nil {
		a.logger.Debug("Generate content",
			"model", a.name,
			"stopReason", choice.StopReason,
			"toolCalls", len(choice.ToolCalls),
			"contentLength", len(choice.Content),
		)
	}

	return &output.ChatResponse{Message: convertChoice(choice)}, nil
}

func convertMessages(messages []entity.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case entity.RoleSystem:
			result = append(result, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))
		case entity.RoleUser:
			result = append(result, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))
		case entity.RoleAssistant:
			result = append(result, convertAssistant(msg))
		case entity.RoleTool:
			result = append(result, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: msg.ToolCallID,
					Name:       msg.Name,
					Content:    msg.Content,
				}},
			})
		}
	}
	return result
}

func convertAssistant(msg entity.Message) llms.MessageContent {
	content := llms.MessageContent{Role: llms.ChatMessageTypeAI}

	if msg.Content != "" {
		content.Parts = append(content.Parts, llms.TextContent{Text: msg.Content})
	}
	for _, tc := range msg.ToolCalls {
		content.Parts = append(content.Parts, llms.ToolCall{
			ID:   tc.ID,
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return content
}

func convertTools(tools []entity.ToolDefinition) []llms.Tool {
	result := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}

func convertChoice(choice *llms.ContentChoice) entity.Message {
	result := entity.Message{
		Role:    entity.RoleAssistant,
		Content: choice.Content,
	}

	for i, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i+1)
		}
		result.ToolCalls = append(result.ToolCalls, entity.ToolCall{
			ID:        id,
			Name:      tc.FunctionCall.Name,
			Arguments: tc.FunctionCall.Arguments,
		})
	}

	if len(result.ToolCalls) == 0 && choice.FuncCall != nil {
		result.ToolCalls = append(result.ToolCalls, entity.ToolCall{
			ID:        "call_1",
			Name:      choice.FuncCall.Name,
			Arguments: choice.FuncCall.Arguments,
		})
	}

	return result
}
