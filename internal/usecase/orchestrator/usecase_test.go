package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sow-reviewer/internal/adapter/tool"
	"sow-reviewer/internal/application/service"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/infrastructure/prompts"
	"sow-reviewer/internal/testutil"
	"sow-reviewer/internal/usecase/executor"
)

func newCoordinator(t *testing.T, llm *testutil.FakeLLM, opts Options, agents ...*testutil.FakeAgent) *UseCase {
	t.Helper()

	logger := testutil.NewRecordingLogger()
	registry := service.NewSimpleAgentRegistry()
	for _, a := range agents {
		registry.Register(a)
	}

	newDelegator := func(maxHandoffs int) Delegator {
		return tool.NewRunAgentTool(registry, nil, logger, maxHandoffs)
	}

	return New(executor.New(llm, logger, nil), registry, newDelegator, logger, prompts.CoordinatorPrompt, opts)
}

func specialist(agentType entity.AgentType, answer string) *testutil.FakeAgent {
	return &testutil.FakeAgent{
		Type:        agentType,
		Description: "Reviews " + string(agentType),
		Fn: func(ctx context.Context, task string) (string, error) {
			return answer, nil
		},
	}
}

func runAgentCall(id string, agentType entity.AgentType) entity.Message {
	return testutil.CallTool(id, "run_agent", fmt.Sprintf(`{"agent_type":%q,"task":"review"}`, agentType))
}

func TestCoordinate_DelegatesToSpecialists(t *testing.T) {
	arch := specialist(entity.AgentTypeArchitectureReviewer, "Architecture Score: 4/5")
	cost := specialist(entity.AgentTypeCostReviewer, "Cost Score: 2/5")

	llm := testutil.NewScriptedLLM(
		runAgentCall("1", entity.AgentTypeArchitectureReviewer),
		runAgentCall("2", entity.AgentTypeCostReviewer),
		testutil.Answer("Architecture is fine, costs need work."),
	)

	uc := newCoordinator(t, llm, Options{}, arch, cost)
	result, err := uc.Coordinate(context.Background(), "Review this SOW")
	require.NoError(t, err)

	assert.Equal(t, "Architecture is fine, costs need work.", result.Summary)
	assert.Equal(t, 2, result.Handoffs)
	assert.Equal(t, 3, result.Iterations)
	require.Len(t, result.Reviews, 2)
	assert.Equal(t, "Cost Score: 2/5", result.Reviews[entity.AgentTypeCostReviewer].Content)

	requests := llm.Requests()
	system := testutil.SystemPrompt(requests[0])
	assert.Contains(t, system, "run_agent")
	assert.Contains(t, system, "at most 12 times")
	assert.Contains(t, system, "- architecture_reviewer: Reviews architecture_reviewer")
	assert.True(t, testutil.HasTool(requests[0], "run_agent"))

	last, ok := testutil.LastToolResult(requests[2])
	require.True(t, ok)
	assert.Equal(t, "Cost Score: 2/5", last)
}

func TestCoordinate_HandoffLimitBecomesObservation(t *testing.T) {
	arch := specialist(entity.AgentTypeArchitectureReviewer, "ok")

	llm := testutil.NewScriptedLLM(
		runAgentCall("1", entity.AgentTypeArchitectureReviewer),
		runAgentCall("2", entity.AgentTypeArchitectureReviewer),
		testutil.Answer("done"),
	)

	uc := newCoordinator(t, llm, Options{MaxHandoffs: 1}, arch)
	result, err := uc.Coordinate(context.Background(), "Review this SOW")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Handoffs)
	assert.Len(t, arch.Tasks(), 1)

	last, ok := testutil.LastToolResult(llm.Requests()[2])
	require.True(t, ok)
	assert.Contains(t, last, entity.ErrHandoffLimit.Error())
}

func TestCoordinate_KeepsReviewsOnFailure(t *testing.T) {
	arch := specialist(entity.AgentTypeArchitectureReviewer, "ok")

	llm := testutil.NewScriptedLLM(
		runAgentCall("1", entity.AgentTypeArchitectureReviewer),
		runAgentCall("2", entity.AgentTypeArchitectureReviewer),
	)

	uc := newCoordinator(t, llm, Options{MaxIterations: 2}, arch)
	result, err := uc.Coordinate(context.Background(), "Review this SOW")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrMaxIterations))
	require.NotNil(t, result)
	assert.Len(t, result.Reviews, 1)
	assert.Empty(t, result.Summary)
}
