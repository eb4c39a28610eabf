package service

import (
	"sort"
	"sync"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

var _ output.ToolRegistry = (*ToolRegistryImpl)(nil)

type ToolRegistryImpl struct {
	mu    sync.RWMutex
	tools map[entity.ToolName]output.ToolPort
}

func NewToolRegistry() *ToolRegistryImpl {
	return &ToolRegistryImpl{
		tools: make(map[entity.ToolName]output.ToolPort),
	}
}

func (r *ToolRegistryImpl) Register(tool output.ToolPort) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

func (r *ToolRegistryImpl) Get(name entity.ToolName) (output.ToolPort, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// All returns the tools sorted by name so prompts and tool lists are stable.
func (r *ToolRegistryImpl) All() []output.ToolPort {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]output.ToolPort, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

func (r *ToolRegistryImpl) Definitions() []entity.ToolDefinition {
	tools := r.All()
	result := make([]entity.ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		result = append(result, entity.ToolDefinition{
			Name:        tool.Name().String(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return result
}

func (r *ToolRegistryImpl) Subset(names ...entity.ToolName) output.ToolRegistry {
	sub := NewToolRegistry()
	for _, name := range names {
		if tool, ok := r.Get(name); ok {
			sub.Register(tool)
		}
	}
	return sub
}

var _ output.SimpleAgentRegistry = (*SimpleAgentRegistryImpl)(nil)

type SimpleAgentRegistryImpl struct {
	mu     sync.RWMutex
	agents map[entity.AgentType]output.SimpleAgent
}

func NewSimpleAgentRegistry() *SimpleAgentRegistryImpl {
	return &SimpleAgentRegistryImpl{
		agents: make(map[entity.AgentType]output.SimpleAgent),
	}
}

func (r *SimpleAgentRegistryImpl) Register(agent output.SimpleAgent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.GetType()] = agent
}

func (r *SimpleAgentRegistryImpl) Get(agentType entity.AgentType) (output.SimpleAgent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[agentType]
	return agent, ok
}

func (r *SimpleAgentRegistryImpl) List() []output.SimpleAgent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]output.SimpleAgent, 0, len(r.agents))
	for _, agent := range r.agents {
		result = append(result, agent)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].GetType() < result[j].GetType()
	})
	return result
}
