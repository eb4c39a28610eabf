package reviewer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sow-reviewer/internal/application/port/input"
	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

const documentHeader = "--- SOW DOCUMENT ---"

var _ output.ReviewAgent = (*Agent)(nil)

// Config describes one agent role.
type Config struct {
	Type          entity.AgentType
	Description   string
	SystemPrompt  string
	Tools         []entity.ToolName
	MaxIterations int
	Temperature   float32

	// Document, when set, is appended to every task.
	Document output.ActiveDocument
}

type Agent struct {
	cfg    Config
	loop   input.AgentLoop
	tools  output.ToolRegistry
	logger output.LoggerPort
}

// New builds an agent whose tool set is cfg.Tools picked from tools.
// Names missing from tools are skipped.
func New(cfg Config, loop input.AgentLoop, tools output.ToolRegistry, logger output.LoggerPort) *Agent {
	var allowed output.ToolRegistry
	if tools != nil && len(cfg.Tools) > 0 {
		allowed = tools.Subset(cfg.Tools...)
	}

	return &Agent{
		cfg:    cfg,
		loop:   loop,
		tools:  allowed,
		logger: logger.WithField("agent", cfg.Type.String()),
	}
}

func (a *Agent) GetType() entity.AgentType {
	return a.cfg.Type
}

func (a *Agent) GetDescription() string {
	return a.cfg.Description
}

// ToolNames lists the tools the agent can call.
func (a *Agent) ToolNames() []entity.ToolName {
	if a.tools == nil {
		return nil
	}
	tools := a.tools.All()
	names := make([]entity.ToolName, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name())
	}
	return names
}

func (a *Agent) Execute(ctx context.Context, task string) (string, error) {
	resp, err := a.Run(ctx, entity.AgentRequest{Type: a.cfg.Type, Task: task})
	if err != nil {
		return "", err
	}
	return resp.Result, nil
}

func (a *Agent) Run(ctx context.Context, req entity.AgentRequest) (*entity.AgentResponse, error) {
	maxIterations := a.cfg.MaxIterations
	if req.MaxIterations > 0 {
		maxIterations = req.MaxIterations
	}

	task := a.withDocument(req.Task)
	a.logger.Info("Agent executing", "taskLength", len(task), "tools", len(a.ToolNames()))

	result, err := a.loop.Run(ctx, input.RunRequest{
		Agent:         a.cfg.Type,
		SystemPrompt:  a.cfg.SystemPrompt,
		Task:          task,
		Tools:         a.tools,
		MaxIterations: maxIterations,
		Temperature:   a.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	return &entity.AgentResponse{
		Type:       a.cfg.Type,
		Result:     result.FinalAnswer,
		Iterations: result.Iterations,
	}, nil
}

func (a *Agent) withDocument(task string) string {
	if a.cfg.Document == nil {
		return task
	}
	doc, ok := a.cfg.Document.Get()
	if !ok {
		return task
	}
	return AttachDocument(task, doc)
}

// AttachDocument appends the SOW text to task under a fixed header.
func AttachDocument(task string, doc *entity.Document) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(task))
	fmt.Fprintf(&b, "\n\n%s\nFile: %s\n\n%s\n", documentHeader, doc.Path, doc.Content)
	return b.String()
}

// RunReview executes agent on task and wraps the outcome, timing and
// iteration count into a Review. Progress may be nil.
func RunReview(ctx context.Context, agent output.SimpleAgent, task string, progress output.ProgressPort) entity.Review {
	agentType := agent.GetType()
	if progress != nil {
		progress.ShowAgentStart(ctx, agentType, task)
	}

	start := time.Now()
	review := entity.Review{Type: agentType}

	if ra, ok := agent.(output.ReviewAgent); ok {
		resp, err := ra.Run(ctx, entity.AgentRequest{Type: agentType, Task: task})
		if err != nil {
			review.Err = err
		} else {
			review.Content = resp.Result
			review.Iterations = resp.Iterations
		}
	} else {
		review.Content, review.Err = agent.Execute(ctx, task)
	}

	review.Duration = time.Since(start)
	if progress != nil {
		progress.ShowAgentDone(ctx, agentType, review.Duration, review.Err)
	}
	return review
}
