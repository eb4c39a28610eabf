package di

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/infrastructure/llm/openrouter"
	"sow-reviewer/internal/infrastructure/logger"
)

func TestNewLLM(t *testing.T) {
	log := logger.NewNop()

	_, _, err := newLLM(Config{Backend: "llamafile"}, log)
	assert.ErrorIs(t, err, entity.ErrUnsupportedBackend)

	_, _, err = newLLM(Config{Backend: BackendOpenRouter, Model: "x"}, log)
	assert.Error(t, err)

	_, _, err = newLLM(Config{Backend: BackendOpenRouter, OpenRouterAPIKey: "key"}, log)
	assert.Error(t, err)

	_, model, err := newLLM(Config{Backend: BackendOpenRouter, OpenRouterAPIKey: "key", Model: "openai/gpt-4o-mini"}, log)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", model)

	llm, model, err := newLLM(Config{Backend: BackendOllama, NativeTools: true}, log)
	require.NoError(t, err)
	assert.Equal(t, "llama3.1:8b", model)
	assert.IsType(t, &openrouter.OpenRouterAdapter{}, llm, "ollama goes through its OpenAI-compatible endpoint")
}

func TestNewContainer(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := NewContainer(context.Background(), Config{
		Backend:          BackendOpenRouter,
		Model:            "openai/gpt-4o-mini",
		OpenRouterAPIKey: "key",
		Mode:             entity.ModeParallel,
		RunName:          "phoenix",
		Out:              io.Discard,
	})
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Reviewer)
	assert.NotNil(t, c.Reader)
	assert.Equal(t, "openai/gpt-4o-mini", c.Model)
	assert.Equal(t, "aws-solution-architect", c.Skill.Name)
	assert.NotEqual(t, "", c.Skill.Source)
	assert.Nil(t, c.mcp)
}

func TestNewContainer_MissingSkill(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := NewContainer(context.Background(), Config{
		Backend:   BackendOllama,
		SkillPath: "missing/SKILL.md",
		Out:       io.Discard,
	})
	assert.Error(t, err)
}

func TestReviewRoles(t *testing.T) {
	roles := reviewRoles()
	require.Len(t, roles, 5)

	for _, r := range roles[:4] {
		assert.True(t, entity.IsSpecialist(r.agent), r.agent)
		assert.Contains(t, r.tools, entity.ToolExtractSection)
		assert.NotEmpty(t, r.prompt())
	}
	assert.Contains(t, roles[0].tools, entity.ToolArchitectSkill)
	assert.True(t, roles[1].useMCP)
	assert.Equal(t, entity.AgentTypeSolutionArchitect, roles[4].agent)

	// documentTools must not be aliased by roles that extend it.
	assert.Len(t, documentTools, 2)
}

