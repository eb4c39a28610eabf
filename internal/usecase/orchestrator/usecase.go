package orchestrator

import (
	"context"
	"fmt"

	"sow-reviewer/internal/application/port/input"
	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/application/service"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/infrastructure/prompts"
)

const (
	DefaultMaxHandoffs   = 12
	DefaultMaxIterations = 20
)

// Delegator is the run_agent tool for one coordination run. It counts
// handoffs and keeps the latest review of every specialist it ran.
type Delegator interface {
	output.ToolPort
	Handoffs() int
	Reviews() map[entity.AgentType]entity.Review
}

type Options struct {
	MaxHandoffs   int
	MaxIterations int
	Temperature   float32
}

type Result struct {
	Summary    string
	Reviews    map[entity.AgentType]entity.Review
	Handoffs   int
	Iterations int
}

// UseCase drives the coordinator in swarm mode: the coordinator delegates
// review work to the specialists through the run_agent tool.
type UseCase struct {
	loop                 input.AgentLoop
	agentRegistry        output.SimpleAgentRegistry
	newDelegator         func(maxHandoffs int) Delegator
	logger               output.LoggerPort
	systemPromptTemplate string
	opts                 Options
}

func New(
	loop input.AgentLoop,
	agentRegistry output.SimpleAgentRegistry,
	newDelegator func(maxHandoffs int) Delegator,
	logger output.LoggerPort,
	systemPromptTemplate string,
	opts Options,
) *UseCase {
	if opts.MaxHandoffs <= 0 {
		opts.MaxHandoffs = DefaultMaxHandoffs
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &UseCase{
		loop:                 loop,
		agentRegistry:        agentRegistry,
		newDelegator:         newDelegator,
		logger:               logger,
		systemPromptTemplate: systemPromptTemplate,
		opts:                 opts,
	}
}

// Coordinate runs the coordinator on task. Reviews collected before a
// coordinator failure are returned together with the error.
func (uc *UseCase) Coordinate(ctx context.Context, task string) (*Result, error) {
	uc.logger.Info("Coordinator started", "maxHandoffs", uc.opts.MaxHandoffs, "maxIterations", uc.opts.MaxIterations)

	systemPrompt, err := prompts.GenerateCoordinatorPrompt(uc.systemPromptTemplate, uc.agentRegistry, true, uc.opts.MaxHandoffs)
	if err != nil {
		return nil, fmt.Errorf("failed to generate system prompt: %w", err)
	}

	delegator := uc.newDelegator(uc.opts.MaxHandoffs)
	tools := service.NewToolRegistry()
	tools.Register(delegator)

	runResult, runErr := uc.loop.Run(ctx, input.RunRequest{
		Agent:         entity.AgentTypeCoordinator,
		SystemPrompt:  systemPrompt,
		Task:          task,
		Tools:         tools,
		MaxIterations: uc.opts.MaxIterations,
		Temperature:   uc.opts.Temperature,
	})

	result := &Result{
		Reviews:  delegator.Reviews(),
		Handoffs: delegator.Handoffs(),
	}

	if runErr != nil {
		uc.logger.Warn("Coordinator stopped early", "handoffs", result.Handoffs, "reviews", len(result.Reviews), "error", runErr)
		return result, fmt.Errorf("coordinator: %w", runErr)
	}

	result.Summary = runResult.FinalAnswer
	result.Iterations = runResult.Iterations

	uc.logger.Info("Coordinator completed", "iterations", result.Iterations, "handoffs", result.Handoffs, "reviews", len(result.Reviews))
	return result, nil
}
