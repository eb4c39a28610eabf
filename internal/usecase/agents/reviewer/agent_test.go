package reviewer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sow-reviewer/internal/application/port/input"
	"sow-reviewer/internal/application/service"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/testutil"
)

type recordingLoop struct {
	requests []input.RunRequest
	result   *input.RunResult
	err      error
}

func (l *recordingLoop) Run(ctx context.Context, req input.RunRequest) (*input.RunResult, error) {
	l.requests = append(l.requests, req)
	return l.result, l.err
}

type staticDocument struct {
	doc *entity.Document
}

func (s *staticDocument) Set(doc *entity.Document) { s.doc = doc }
func (s *staticDocument) Get() (*entity.Document, bool) {
	return s.doc, s.doc != nil
}

func noopTool(name entity.ToolName) *testutil.FuncTool {
	return &testutil.FuncTool{ToolName: name, Fn: func(ctx context.Context, arguments string) (string, error) {
		return "", nil
	}}
}

func TestAgent_Run(t *testing.T) {
	tools := service.NewToolRegistry()
	tools.Register(noopTool(entity.ToolExtractSection))
	tools.Register(noopTool(entity.ToolValidateCost))
	tools.Register(noopTool(entity.ToolRunAgent))

	loop := &recordingLoop{result: &input.RunResult{FinalAnswer: "## Cost Review\nScore: 3/5", Iterations: 4}}
	agent := New(Config{
		Type:          entity.AgentTypeCostReviewer,
		Description:   "Reviews cost",
		SystemPrompt:  "You review costs.",
		Tools:         []entity.ToolName{entity.ToolExtractSection, entity.ToolValidateCost, entity.ToolFetchCalculator},
		MaxIterations: 15,
		Temperature:   0.2,
		Document:      &staticDocument{doc: &entity.Document{Path: "sow.md", Content: "# SOW\nbody"}},
	}, loop, tools, testutil.NewRecordingLogger())

	assert.Equal(t, entity.AgentTypeCostReviewer, agent.GetType())
	assert.Equal(t, "Reviews cost", agent.GetDescription())
	assert.Equal(t, []entity.ToolName{entity.ToolExtractSection, entity.ToolValidateCost}, agent.ToolNames())

	resp, err := agent.Run(context.Background(), entity.AgentRequest{Task: "Review the cost section."})
	require.NoError(t, err)
	assert.Equal(t, "## Cost Review\nScore: 3/5", resp.Result)
	assert.Equal(t, 4, resp.Iterations)

	require.Len(t, loop.requests, 1)
	req := loop.requests[0]
	assert.Equal(t, entity.AgentTypeCostReviewer, req.Agent)
	assert.Equal(t, "You review costs.", req.SystemPrompt)
	assert.Equal(t, 15, req.MaxIterations)
	assert.Equal(t, float32(0.2), req.Temperature)
	assert.Contains(t, req.Task, "Review the cost section.")
	assert.Contains(t, req.Task, documentHeader)
	assert.Contains(t, req.Task, "File: sow.md")
	assert.Contains(t, req.Task, "# SOW\nbody")

	_, ok := req.Tools.Get(entity.ToolRunAgent)
	assert.False(t, ok)
}

func TestAgent_NoToolsNoDocument(t *testing.T) {
	loop := &recordingLoop{result: &input.RunResult{FinalAnswer: "ok", Iterations: 1}}
	agent := New(Config{Type: entity.AgentTypeArchitectSkill}, loop, service.NewToolRegistry(), testutil.NewRecordingLogger())

	out, err := agent.Execute(context.Background(), "validate the VPC")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Nil(t, loop.requests[0].Tools)
	assert.Equal(t, "validate the VPC", loop.requests[0].Task)
	assert.Nil(t, agent.ToolNames())
}

func TestAgent_RequestOverridesIterations(t *testing.T) {
	loop := &recordingLoop{result: &input.RunResult{FinalAnswer: "ok", Iterations: 1}}
	agent := New(Config{Type: entity.AgentTypeCoordinator, MaxIterations: 5}, loop, nil, testutil.NewRecordingLogger())

	_, err := agent.Run(context.Background(), entity.AgentRequest{Task: "x", MaxIterations: 20})
	require.NoError(t, err)
	assert.Equal(t, 20, loop.requests[0].MaxIterations)
}

func TestRunReview(t *testing.T) {
	progress := &testutil.RecordingProgress{}

	loop := &recordingLoop{err: entity.ErrMaxIterations}
	agent := New(Config{Type: entity.AgentTypeScopeReviewer}, loop, nil, testutil.NewRecordingLogger())

	review := RunReview(context.Background(), agent, "scope", progress)
	assert.True(t, review.Failed())
	assert.True(t, errors.Is(review.Err, entity.ErrMaxIterations))
	assert.Equal(t, entity.AgentTypeScopeReviewer, review.Type)

	plain := &testutil.FakeAgent{Type: entity.AgentTypeComplianceReviewer, Fn: func(ctx context.Context, task string) (string, error) {
		return "compliant", nil
	}}
	review = RunReview(context.Background(), plain, "legal", nil)
	require.False(t, review.Failed())
	assert.Equal(t, "compliant", review.Content)
	assert.Equal(t, 1, review.Iterations)

	assert.Equal(t, []string{"start:scope_reviewer", "failed:scope_reviewer"}, progress.Events())
}
