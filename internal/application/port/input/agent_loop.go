package input

import (
	"context"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

type RunRequest struct {
	Agent         entity.AgentType
	SystemPrompt  string
	Task          string
	Tools         output.ToolRegistry
	MaxIterations int
	Temperature   float32
}

type RunResult struct {
	FinalAnswer string
	Iterations  int
}

// AgentLoop drives one agent conversation until the model stops calling tools.
type AgentLoop interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}
