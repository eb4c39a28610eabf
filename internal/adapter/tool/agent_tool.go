package tool

import (
	"context"
	"errors"
	"strings"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

var _ output.ToolPort = (*AgentTool)(nil)

// AgentTool exposes an agent as a tool, e.g. the solution architect skill
// consulted by the architecture reviewer.
type AgentTool struct {
	agent  output.SimpleAgent
	logger output.LoggerPort
}

func NewAgentTool(agent output.SimpleAgent, logger output.LoggerPort) *AgentTool {
	return &AgentTool{
		agent:  agent,
		logger: logger,
	}
}

func (t *AgentTool) Name() entity.ToolName {
	return entity.ToolName(t.agent.GetType())
}

func (t *AgentTool) Description() string {
	return t.agent.GetDescription()
}

func (t *AgentTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task": map[string]interface{}{
				"type":        "string",
				"description": "What to validate, including the relevant SOW text",
			},
		},
		"required": []string{"task"},
	}
}

func (t *AgentTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args struct {
		Task string `json:"task"`
	}

	if err := parseArgs(arguments, &args); err != nil {
		t.logger.Error("Failed to parse arguments", "tool", t.Name(), "error", err)
		return "", err
	}
	if strings.TrimSpace(args.Task) == "" {
		return "", errors.New("task is required")
	}

	t.logger.Info("Agent tool delegating", "agent", t.Name(), "taskLength", len(args.Task))

	result, err := t.agent.Execute(ctx, args.Task)
	if err != nil {
		t.logger.Error("Agent execution failed", "agent", t.Name(), "error", err)
		return "", err
	}

	return result, nil
}
