package output

import (
	"context"
	"time"

	"sow-reviewer/internal/domain/entity"
)

// ProgressPort reports review progress to the operator.
type ProgressPort interface {
	ShowStage(ctx context.Context, stage string)
	ShowAgentStart(ctx context.Context, agent entity.AgentType, task string)
	ShowAgentDone(ctx context.Context, agent entity.AgentType, elapsed time.Duration, err error)
	ShowToolStart(ctx context.Context, agent entity.AgentType, toolName, arguments string)
	ShowToolResult(ctx context.Context, agent entity.AgentType, toolName, result string, isError bool)
}
