package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"sow-reviewer/internal/application/port/input"
	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/application/service"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTools(tools ...*testutil.FuncTool) *service.ToolRegistryImpl {
	r := service.NewToolRegistry()
	for _, tool := range tools {
		r.Register(tool)
	}
	return r
}

func TestRun_ReturnsAnswerWithoutTools(t *testing.T) {
	llm := testutil.NewScriptedLLM(testutil.Answer("  # Review\nAll good  "))
	uc := New(llm, testutil.NewRecordingLogger(), nil)

	res, err := uc.Run(context.Background(), input.RunRequest{
		Agent:        entity.AgentTypeScopeReviewer,
		SystemPrompt: "system",
		Task:         "review this",
	})

	require.NoError(t, err)
	assert.Equal(t, "# Review\nAll good", res.FinalAnswer)
	assert.Equal(t, 1, res.Iterations)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "system", testutil.SystemPrompt(reqs[0]))
	assert.Equal(t, "review this", testutil.UserPrompt(reqs[0]))
	assert.Empty(t, reqs[0].Tools)
}

func TestRun_ExecutesToolCallsAndFeedsObservation(t *testing.T) {
	var gotArgs string
	tool := &testutil.FuncTool{
		ToolName: entity.ToolExtractSection,
		Fn: func(ctx context.Context, arguments string) (string, error) {
			gotArgs = arguments
			return "section body", nil
		},
	}
	llm := testutil.NewScriptedLLM(
		testutil.CallTool("call_1", "extract_section", `{"section_name":"Cost"}`),
		testutil.Answer("done"),
	)
	uc := New(llm, testutil.NewRecordingLogger(), nil)

	res, err := uc.Run(context.Background(), input.RunRequest{
		Agent: entity.AgentTypeCostReviewer,
		Task:  "t",
		Tools: newTools(tool),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, `{"section_name":"Cost"}`, gotArgs)

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	assert.True(t, testutil.HasTool(reqs[0], "extract_section"))

	obs, ok := testutil.LastToolResult(reqs[1])
	require.True(t, ok)
	assert.Equal(t, "section body", obs)

	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Equal(t, "extract_section", last.Name)
}

func TestRun_ToolErrorBecomesObservation(t *testing.T) {
	tool := &testutil.FuncTool{
		ToolName: entity.ToolFetchCalculator,
		Fn: func(ctx context.Context, arguments string) (string, error) {
			return "", errors.New("boom")
		},
	}
	llm := testutil.NewScriptedLLM(
		testutil.CallTool("c1", "fetch_calculator_data", `{}`),
		testutil.CallTool("c2", "no_such_tool", `{}`),
		testutil.Answer("finished anyway"),
	)
	uc := New(llm, testutil.NewRecordingLogger(), nil)

	res, err := uc.Run(context.Background(), input.RunRequest{
		Agent: entity.AgentTypeCostReviewer,
		Tools: newTools(tool),
	})

	require.NoError(t, err)
	assert.Equal(t, "finished anyway", res.FinalAnswer)

	reqs := llm.Requests()
	obs, _ := testutil.LastToolResult(reqs[1])
	assert.Equal(t, "Error: boom", obs)
	obs, _ = testutil.LastToolResult(reqs[2])
	assert.Equal(t, "Error: unknown tool 'no_such_tool'", obs)
}

func TestRun_TruncatesLongObservations(t *testing.T) {
	tool := &testutil.FuncTool{
		ToolName: entity.ToolListSections,
		Fn: func(ctx context.Context, arguments string) (string, error) {
			return strings.Repeat("x", maxObservationLen+500), nil
		},
	}
	llm := testutil.NewScriptedLLM(
		testutil.CallTool("c1", "list_sections", `{}`),
		testutil.Answer("ok"),
	)
	uc := New(llm, testutil.NewRecordingLogger(), nil)

	_, err := uc.Run(context.Background(), input.RunRequest{Tools: newTools(tool)})
	require.NoError(t, err)

	obs, _ := testutil.LastToolResult(llm.Requests()[1])
	assert.True(t, strings.HasSuffix(obs, "\n... (truncated)"))
	assert.Len(t, obs, maxObservationLen+len("\n... (truncated)"))
}

func TestRun_TruncationKeepsRunesWhole(t *testing.T) {
	tool := &testutil.FuncTool{
		ToolName: entity.ToolListSections,
		Fn: func(ctx context.Context, arguments string) (string, error) {
			return "x" + strings.Repeat("€", maxObservationLen), nil
		},
	}
	llm := testutil.NewScriptedLLM(
		testutil.CallTool("c1", "list_sections", `{}`),
		testutil.Answer("ok"),
	)
	uc := New(llm, testutil.NewRecordingLogger(), nil)

	_, err := uc.Run(context.Background(), input.RunRequest{Tools: newTools(tool)})
	require.NoError(t, err)

	obs, _ := testutil.LastToolResult(llm.Requests()[1])
	assert.True(t, utf8.ValidString(obs))
	assert.LessOrEqual(t, len(obs), maxObservationLen+len("\n... (truncated)"))
}

func TestRun_MaxIterationsExceeded(t *testing.T) {
	llm := testutil.NewHandlerLLM(func(req output.ChatRequest) (entity.Message, error) {
		return testutil.CallTool("c", "list_sections", `{}`), nil
	})
	uc := New(llm, testutil.NewRecordingLogger(), nil)

	_, err := uc.Run(context.Background(), input.RunRequest{MaxIterations: 3})

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrMaxIterations)
	assert.Len(t, llm.Requests(), 3)
}

func TestRun_EmptyAnswer(t *testing.T) {
	llm := testutil.NewScriptedLLM(testutil.Answer("   "))
	uc := New(llm, testutil.NewRecordingLogger(), nil)

	_, err := uc.Run(context.Background(), input.RunRequest{Agent: entity.AgentTypeCoordinator})

	assert.ErrorIs(t, err, entity.ErrEmptyAnswer)
}

func TestRun_LLMErrorWrapped(t *testing.T) {
	llm := testutil.NewScriptedLLM()
	uc := New(llm, testutil.NewRecordingLogger(), nil)

	_, err := uc.Run(context.Background(), input.RunRequest{})

	assert.ErrorIs(t, err, testutil.ErrNoScriptedResponse)
	assert.Contains(t, err.Error(), "llm request failed")
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	llm := testutil.NewScriptedLLM(testutil.Answer("never"))
	uc := New(llm, testutil.NewRecordingLogger(), nil)

	_, err := uc.Run(ctx, input.RunRequest{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, llm.Requests())
}
