package prompts

import (
	"context"
	"strings"
	"testing"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

type mockAgent struct {
	agentType   entity.AgentType
	description string
}

func (m *mockAgent) GetType() entity.AgentType {
	return m.agentType
}

func (m *mockAgent) GetDescription() string {
	return m.description
}

func (m *mockAgent) Execute(ctx context.Context, task string) (string, error) {
	return "", nil
}

type mockAgentRegistry struct {
	agents []output.SimpleAgent
}

func (r *mockAgentRegistry) Register(agent output.SimpleAgent) {
	r.agents = append(r.agents, agent)
}

func (r *mockAgentRegistry) Get(agentType entity.AgentType) (output.SimpleAgent, bool) {
	for _, agent := range r.agents {
		if agent.GetType() == agentType {
			return agent, true
		}
	}
	return nil, false
}

func (r *mockAgentRegistry) List() []output.SimpleAgent {
	return r.agents
}

func newRegistry() *mockAgentRegistry {
	registry := &mockAgentRegistry{}
	registry.Register(&mockAgent{
		agentType:   entity.AgentTypeCostReviewer,
		description: "Reviews pricing and calculator estimates",
	})
	registry.Register(&mockAgent{
		agentType:   entity.AgentTypeArchitectureReviewer,
		description: "Reviews the proposed AWS architecture",
	})
	registry.Register(&mockAgent{
		agentType:   entity.AgentTypeSolutionArchitect,
		description: "Final validation",
	})
	return registry
}

func TestGenerateCoordinatorPrompt(t *testing.T) {
	template := `Test template

{{range .Agents -}}
- {{.Name}}: {{.Description}}
{{end}}`

	result, err := GenerateCoordinatorPrompt(template, newRegistry(), false, 0)
	if err != nil {
		t.Fatalf("GenerateCoordinatorPrompt failed: %v", err)
	}

	if !strings.Contains(result, "Test template") {
		t.Error("Result should contain base template text")
	}

	if !strings.Contains(result, "architecture_reviewer: Reviews the proposed AWS architecture") {
		t.Error("Result should contain architecture reviewer description")
	}

	if strings.Contains(result, "solution_architect") {
		t.Error("Only specialists belong in the coordinator prompt")
	}

	if strings.Index(result, "architecture_reviewer") > strings.Index(result, "cost_reviewer") {
		t.Error("Agents should be sorted by name")
	}
}

func TestGenerateCoordinatorPromptModes(t *testing.T) {
	brief, err := GenerateCoordinatorPrompt(CoordinatorPrompt, newRegistry(), false, 0)
	if err != nil {
		t.Fatalf("GenerateCoordinatorPrompt failed: %v", err)
	}
	if !strings.Contains(brief, "review brief") {
		t.Error("Parallel prompt should ask for a brief")
	}
	if strings.Contains(brief, "run_agent") {
		t.Error("Parallel prompt should not mention run_agent")
	}

	swarm, err := GenerateCoordinatorPrompt(CoordinatorPrompt, newRegistry(), true, 12)
	if err != nil {
		t.Fatalf("GenerateCoordinatorPrompt failed: %v", err)
	}
	if !strings.Contains(swarm, "run_agent") || !strings.Contains(swarm, "at most 12 times") {
		t.Errorf("Swarm prompt should describe delegation, got:\n%s", swarm)
	}
}

func TestGenerateCoordinatorPromptEmptyRegistry(t *testing.T) {
	result, err := GenerateCoordinatorPrompt("Test template {{len .Agents}}", &mockAgentRegistry{}, false, 0)
	if err != nil {
		t.Fatalf("GenerateCoordinatorPrompt failed: %v", err)
	}

	if result != "Test template 0" {
		t.Errorf("unexpected result %q", result)
	}
}

func TestGenerateCoordinatorPromptInvalidTemplate(t *testing.T) {
	_, err := GenerateCoordinatorPrompt(`Test {{.InvalidField}}`, newRegistry(), false, 0)
	if err == nil {
		t.Error("Expected error for invalid template, got nil")
	}
}

func TestGenerateSkillPrompt(t *testing.T) {
	result, err := GenerateSkillPrompt(SkillPrompt, "Prefer managed services.")
	if err != nil {
		t.Fatalf("GenerateSkillPrompt failed: %v", err)
	}
	if !strings.Contains(result, "Prefer managed services.") {
		t.Error("Skill body missing from prompt")
	}
}

func TestForAgent(t *testing.T) {
	for _, agentType := range append(entity.SpecialistTypes, entity.AgentTypeSolutionArchitect) {
		prompt, ok := ForAgent(agentType)
		if !ok || prompt == "" {
			t.Errorf("missing prompt for %s", agentType)
		}
	}

	if _, ok := ForAgent(entity.AgentTypeCoordinator); ok {
		t.Error("coordinator prompt is a template and should not be returned")
	}

	if !strings.Contains(SolutionArchitectPrompt, "SOW Review - Final Validation Report") {
		t.Error("final report heading missing")
	}
}
