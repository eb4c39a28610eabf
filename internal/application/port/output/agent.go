package output

import (
	"context"

	"sow-reviewer/internal/domain/entity"
)

type SimpleAgent interface {
	GetType() entity.AgentType
	GetDescription() string
	Execute(ctx context.Context, task string) (string, error)
}

type SimpleAgentRegistry interface {
	Register(agent SimpleAgent)
	Get(agentType entity.AgentType) (SimpleAgent, bool)
	List() []SimpleAgent
}

// ReviewAgent is a SimpleAgent that also reports how many loop iterations it used.
type ReviewAgent interface {
	SimpleAgent
	Run(ctx context.Context, req entity.AgentRequest) (*entity.AgentResponse, error)
}
