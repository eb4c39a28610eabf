package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

type fakeModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, opt := range options {
		opt(&m.opts)
	}
	return m.resp, m.err
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func conversation() []entity.Message {
	return []entity.Message{
		{Role: entity.RoleSystem, Content: "You review SOWs"},
		{Role: entity.RoleUser, Content: "Review this"},
		{
			Role:      entity.RoleAssistant,
			ToolCalls: []entity.ToolCall{{ID: "c1", Name: "list_sections", Arguments: "{}"}},
		},
		{Role: entity.RoleTool, Content: "- Scope", ToolCallID: "c1", Name: "list_sections"},
	}
}

func TestConvertMessages_ToolRoundTrip(t *testing.T) {
	result := convertMessages(conversation())

	require.Len(t, result, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, result[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, result[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, result[2].Role)

	call, ok := result[2].Parts[0].(llms.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "c1", call.ID)
	assert.Equal(t, "list_sections", call.FunctionCall.Name)

	resp, ok := result[3].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, llms.ChatMessageTypeTool, result[3].Role)
	assert.Equal(t, "- Scope", resp.Content)
}

func TestChat_PassesToolsAndConvertsChoice(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			FunctionCall: &llms.FunctionCall{Name: "extract_section", Arguments: `{"section_name":"Cost"}`},
		}},
	}}}}

	adapter := New(model, Config{Model: "fake"})
	resp, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages:    conversation()[:2],
		Tools:       []entity.ToolDefinition{{Name: "extract_section", Parameters: map[string]interface{}{"type": "object"}}},
		Temperature: 0.2,
	})
	require.NoError(t, err)

	require.Len(t, model.opts.Tools, 1)
	assert.Equal(t, "extract_section", model.opts.Tools[0].Function.Name)
	assert.InDelta(t, 0.2, model.opts.Temperature, 0.0001)

	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.Message.ToolCalls[0].ID)
	assert.Equal(t, "extract_section", resp.Message.ToolCalls[0].Name)
}

func TestChat_DisableToolsOmitsDefinitions(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "done"}}}}

	adapter := New(model, Config{Model: "fake", DisableTools: true})
	resp, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages: conversation()[:2],
		Tools:    []entity.ToolDefinition{{Name: "extract_section"}},
	})
	require.NoError(t, err)

	assert.Empty(t, model.opts.Tools)
	assert.Equal(t, "done", resp.Message.Content)
	assert.Equal(t, "fake", adapter.Model())
}

func TestChat_Errors(t *testing.T) {
	adapter := New(&fakeModel{err: errors.New("connection refused")}, Config{})
	_, err := adapter.Chat(context.Background(), output.ChatRequest{})
	assert.ErrorContains(t, err, "connection refused")

	adapter = New(&fakeModel{resp: &llms.ContentResponse{}}, Config{})
	_, err = adapter.Chat(context.Background(), output.ChatRequest{})
	assert.ErrorContains(t, err, "no choices")
}
