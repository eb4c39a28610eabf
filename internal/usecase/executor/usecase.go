package executor

import (
	"context"
	"fmt"
	"strings"

	"sow-reviewer/internal/application/port/input"
	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

var _ input.AgentLoop = (*UseCase)(nil)

const (
	defaultMaxIterations = 20
	maxObservationLen    = 20000
	errorPrefix          = "Error: "
)

type UseCase struct {
	llm      output.LLMPort
	logger   output.LoggerPort
	progress output.ProgressPort
}

func New(
	llm output.LLMPort,
	logger output.LoggerPort,
	progress output.ProgressPort,
) *UseCase {
	return &UseCase{
		llm:      llm,
		logger:   logger,
		progress: progress,
	}
}

func (uc *UseCase) Run(ctx context.Context, req input.RunRequest) (*input.RunResult, error) {
	log := uc.logger.WithField("agent", req.Agent.String())

	maxIterations := req.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: req.SystemPrompt},
		{Role: entity.RoleUser, Content: req.Task},
	}

	var toolDefs []entity.ToolDefinition
	if req.Tools != nil {
		toolDefs = req.Tools.Definitions()
	}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("agent %s: %w", req.Agent, err)
		}

		log.Debug("Starting iteration", "iteration", iteration, "messages", len(messages))

		resp, err := uc.llm.Chat(ctx, output.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: req.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("llm request failed: %w", err)
		}

		messages = append(messages, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			answer := strings.TrimSpace(resp.Message.Content)
			if answer == "" {
				return nil, fmt.Errorf("agent %s: %w", req.Agent, entity.ErrEmptyAnswer)
			}
			log.Info("Agent completed", "iterations", iteration, "answerLen", len(answer))
			return &input.RunResult{
				FinalAnswer: answer,
				Iterations:  iteration,
			}, nil
		}

		for _, tc := range resp.Message.ToolCalls {
			if uc.progress != nil {
				uc.progress.ShowToolStart(ctx, req.Agent, tc.Name, tc.Arguments)
			}

			observation := uc.executeTool(ctx, log, req.Tools, tc)

			if uc.progress != nil {
				uc.progress.ShowToolResult(ctx, req.Agent, tc.Name, observation, strings.HasPrefix(observation, errorPrefix))
			}

			messages = append(messages, entity.Message{
				Role:       entity.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Name,
				Content:    observation,
			})
		}
	}

	return nil, fmt.Errorf("agent %s: %w (%d)", req.Agent, entity.ErrMaxIterations, maxIterations)
}

func (uc *UseCase) executeTool(ctx context.Context, log output.LoggerPort, tools output.ToolRegistry, tc entity.ToolCall) string {
	if tools == nil {
		log.Warn("Tool called but agent has no tools", "name", tc.Name)
		return fmt.Sprintf("%sunknown tool '%s'", errorPrefix, tc.Name)
	}

	tool, ok := tools.Get(entity.ToolName(tc.Name))
	if !ok {
		log.Warn("Unknown tool called", "name", tc.Name)
		return fmt.Sprintf("%sunknown tool '%s'", errorPrefix, tc.Name)
	}

	log.Info("Executing tool", "name", tc.Name, "args", tc.Arguments)

	result, err := tool.Execute(ctx, tc.Arguments)
	if err != nil {
		log.Error("Tool execution failed", "name", tc.Name, "error", err)
		return errorPrefix + err.Error()
	}

	if len(result) > maxObservationLen {
		result = entity.CutUTF8(result, maxObservationLen) + "\n... (truncated)"
	}

	log.Debug("Tool completed", "name", tc.Name, "resultLen", len(result))
	return result
}
