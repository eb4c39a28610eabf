// Package testutil provides fakes of the output ports for package tests.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

var ErrNoScriptedResponse = errors.New("no scripted response left")

var _ output.LLMPort = (*FakeLLM)(nil)

// FakeLLM answers chat requests from a script or a handler and records every request.
type FakeLLM struct {
	mu        sync.Mutex
	responses []entity.Message
	handler   func(req output.ChatRequest) (entity.Message, error)
	requests  []output.ChatRequest
}

func NewScriptedLLM(responses ...entity.Message) *FakeLLM {
	return &FakeLLM{responses: responses}
}

func NewHandlerLLM(handler func(req output.ChatRequest) (entity.Message, error)) *FakeLLM {
	return &FakeLLM{handler: handler}
}

func (f *FakeLLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)

	if f.handler != nil {
		handler := f.handler
		f.mu.Unlock()
		msg, err := handler(req)
		if err != nil {
			return nil, err
		}
		return &output.ChatResponse{Message: msg}, nil
	}
	defer f.mu.Unlock()

	if len(f.responses) == 0 {
		return nil, ErrNoScriptedResponse
	}
	msg := f.responses[0]
	f.responses = f.responses[1:]
	return &output.ChatResponse{Message: msg}, nil
}

func (f *FakeLLM) Requests() []output.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]output.ChatRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// Answer is an assistant message without tool calls.
func Answer(content string) entity.Message {
	return entity.Message{Role: entity.RoleAssistant, Content: content}
}

// CallTool is an assistant message requesting one tool call.
func CallTool(id, name, arguments string) entity.Message {
	return entity.Message{
		Role:      entity.RoleAssistant,
		ToolCalls: []entity.ToolCall{{ID: id, Name: name, Arguments: arguments}},
	}
}

// SystemPrompt returns the system message content of a request.
func SystemPrompt(req output.ChatRequest) string {
	for _, m := range req.Messages {
		if m.Role == entity.RoleSystem {
			return m.Content
		}
	}
	return ""
}

// UserPrompt returns the first user message content of a request.
func UserPrompt(req output.ChatRequest) string {
	for _, m := range req.Messages {
		if m.Role == entity.RoleUser {
			return m.Content
		}
	}
	return ""
}

// LastToolResult returns the content of the last tool message, if any.
func LastToolResult(req output.ChatRequest) (string, bool) {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == entity.RoleTool {
			return req.Messages[i].Content, true
		}
	}
	return "", false
}

// HasTool reports whether the request offered a tool with the given name.
func HasTool(req output.ChatRequest, name string) bool {
	for _, def := range req.Tools {
		if def.Name == name {
			return true
		}
	}
	return false
}

var _ output.LoggerPort = (*RecordingLogger)(nil)

// RecordingLogger keeps log messages in memory.
type RecordingLogger struct {
	mu      *sync.Mutex
	entries *[]string
}

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{mu: &sync.Mutex{}, entries: &[]string{}}
}

func (l *RecordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, level+" "+msg)
}

func (l *RecordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg) }
func (l *RecordingLogger) Info(msg string, args ...any)  { l.record("INFO", msg) }
func (l *RecordingLogger) Warn(msg string, args ...any)  { l.record("WARN", msg) }
func (l *RecordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg) }

func (l *RecordingLogger) WithField(key string, value any) output.LoggerPort { return l }
func (l *RecordingLogger) WithFields(fields map[string]any) output.LoggerPort {
	return l
}

func (l *RecordingLogger) Close() error { return nil }

// Contains reports whether any recorded entry contains substr.
func (l *RecordingLogger) Contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range *l.entries {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

var _ output.ToolPort = (*FuncTool)(nil)

// FuncTool is a ToolPort backed by a function.
type FuncTool struct {
	ToolName entity.ToolName
	Fn       func(ctx context.Context, arguments string) (string, error)
}

func (t *FuncTool) Name() entity.ToolName { return t.ToolName }
func (t *FuncTool) Description() string   { return "test tool " + string(t.ToolName) }
func (t *FuncTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}
func (t *FuncTool) Execute(ctx context.Context, arguments string) (string, error) {
	return t.Fn(ctx, arguments)
}

var _ output.ReviewAgent = (*FakeAgent)(nil)

// FakeAgent is a ReviewAgent backed by a function; it records every task.
type FakeAgent struct {
	Type        entity.AgentType
	Description string
	Fn          func(ctx context.Context, task string) (string, error)

	mu    sync.Mutex
	tasks []string
}

func (a *FakeAgent) GetType() entity.AgentType { return a.Type }
func (a *FakeAgent) GetDescription() string    { return a.Description }

func (a *FakeAgent) Execute(ctx context.Context, task string) (string, error) {
	a.mu.Lock()
	a.tasks = append(a.tasks, task)
	a.mu.Unlock()
	return a.Fn(ctx, task)
}

func (a *FakeAgent) Run(ctx context.Context, req entity.AgentRequest) (*entity.AgentResponse, error) {
	result, err := a.Execute(ctx, req.Task)
	if err != nil {
		return nil, err
	}
	return &entity.AgentResponse{Type: a.Type, Result: result, Iterations: 1}, nil
}

func (a *FakeAgent) Tasks() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.tasks...)
}

// RecordingProgress is a ProgressPort that keeps one line per event.
type RecordingProgress struct {
	mu     sync.Mutex
	events []string
}

var _ output.ProgressPort = (*RecordingProgress)(nil)

func (p *RecordingProgress) add(event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *RecordingProgress) ShowStage(ctx context.Context, stage string) { p.add("stage:" + stage) }
func (p *RecordingProgress) ShowAgentStart(ctx context.Context, agent entity.AgentType, task string) {
	p.add("start:" + string(agent))
}
func (p *RecordingProgress) ShowAgentDone(ctx context.Context, agent entity.AgentType, elapsed time.Duration, err error) {
	if err != nil {
		p.add("failed:" + string(agent))
		return
	}
	p.add("done:" + string(agent))
}
func (p *RecordingProgress) ShowToolStart(ctx context.Context, agent entity.AgentType, toolName, arguments string) {
	p.add("tool:" + toolName)
}
func (p *RecordingProgress) ShowToolResult(ctx context.Context, agent entity.AgentType, toolName, result string, isError bool) {
	if isError {
		p.add("tool_error:" + toolName)
		return
	}
	p.add("tool_result:" + toolName)
}

func (p *RecordingProgress) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}
