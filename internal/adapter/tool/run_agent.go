package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/usecase/agents/reviewer"
)

var _ output.ToolPort = (*RunAgentTool)(nil)

// RunAgentTool lets the coordinator hand a task to a specialist. Handoffs are
// capped and every specialist result is kept for the report.
type RunAgentTool struct {
	agentRegistry output.SimpleAgentRegistry
	progress      output.ProgressPort
	logger        output.LoggerPort
	maxHandoffs   int

	mu       sync.Mutex
	handoffs int
	reviews  map[entity.AgentType]entity.Review
}

func NewRunAgentTool(
	agentRegistry output.SimpleAgentRegistry,
	progress output.ProgressPort,
	logger output.LoggerPort,
	maxHandoffs int,
) *RunAgentTool {
	return &RunAgentTool{
		agentRegistry: agentRegistry,
		progress:      progress,
		logger:        logger,
		maxHandoffs:   maxHandoffs,
		reviews:       make(map[entity.AgentType]entity.Review),
	}
}

func (t *RunAgentTool) Name() entity.ToolName {
	return entity.ToolRunAgent
}

func (t *RunAgentTool) specialists() []output.SimpleAgent {
	var agents []output.SimpleAgent
	for _, agent := range t.agentRegistry.List() {
		if entity.IsSpecialist(agent.GetType()) {
			agents = append(agents, agent)
		}
	}
	return agents
}

func (t *RunAgentTool) Description() string {
	var agentList strings.Builder
	for _, agent := range t.specialists() {
		fmt.Fprintf(&agentList, "- %s: %s\n", agent.GetType(), agent.GetDescription())
	}

	return fmt.Sprintf(
		`Run a specialist reviewer on a task. The specialist has the SOW and its own tools and returns its review.

Available agents:
%s
Running the same agent again replaces its earlier review.`, agentList.String())
}

func (t *RunAgentTool) Parameters() map[string]interface{} {
	agents := t.specialists()
	agentTypes := make([]string, 0, len(agents))
	for _, agent := range agents {
		agentTypes = append(agentTypes, string(agent.GetType()))
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"agent_type": map[string]interface{}{
				"type":        "string",
				"enum":        agentTypes,
				"description": "Type of agent to run",
			},
			"task": map[string]interface{}{
				"type":        "string",
				"description": "Task for the agent to execute",
			},
		},
		"required": []string{"agent_type", "task"},
	}
}

func (t *RunAgentTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args struct {
		AgentType string `json:"agent_type"`
		Task      string `json:"task"`
	}

	if err := parseArgs(arguments, &args); err != nil {
		return "", err
	}

	agentType := entity.AgentType(args.AgentType)
	if !entity.IsSpecialist(agentType) {
		return "", fmt.Errorf("%w: %s", entity.ErrAgentNotFound, agentType)
	}

	agent, ok := t.agentRegistry.Get(agentType)
	if !ok {
		return "", fmt.Errorf("%w: %s", entity.ErrAgentNotFound, agentType)
	}

	t.mu.Lock()
	if t.handoffs >= t.maxHandoffs {
		t.mu.Unlock()
		return "", fmt.Errorf("%w (%d)", entity.ErrHandoffLimit, t.maxHandoffs)
	}
	t.handoffs++
	t.mu.Unlock()

	t.logger.Info("Running agent", "agentType", agentType, "task", args.Task)

	review := reviewer.RunReview(ctx, agent, args.Task, t.progress)

	t.mu.Lock()
	t.reviews[agentType] = review
	t.mu.Unlock()

	if review.Failed() {
		t.logger.Error("Agent execution failed", "agentType", agentType, "error", review.Err)
		return "", fmt.Errorf("agent execution failed: %w", review.Err)
	}

	t.logger.Info("Agent completed", "agentType", agentType, "iterations", review.Iterations)
	return review.Content, nil
}

func (t *RunAgentTool) Handoffs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handoffs
}

// Reviews returns the latest review per specialist.
func (t *RunAgentTool) Reviews() map[entity.AgentType]entity.Review {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[entity.AgentType]entity.Review, len(t.reviews))
	for k, v := range t.reviews {
		out[k] = v
	}
	return out
}
