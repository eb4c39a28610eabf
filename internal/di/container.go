package di

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"sow-reviewer/internal/adapter/tool"
	"sow-reviewer/internal/application/port/input"
	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/application/service"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/infrastructure/document"
	"sow-reviewer/internal/infrastructure/llm/langchain"
	"sow-reviewer/internal/infrastructure/llm/openrouter"
	"sow-reviewer/internal/infrastructure/logger"
	"sow-reviewer/internal/infrastructure/mcp"
	"sow-reviewer/internal/infrastructure/prompts"
	"sow-reviewer/internal/infrastructure/report"
	"sow-reviewer/internal/infrastructure/skill"
	"sow-reviewer/internal/infrastructure/userinteraction"
	"sow-reviewer/internal/infrastructure/web"
	"sow-reviewer/internal/usecase/agents/reviewer"
	"sow-reviewer/internal/usecase/evaluator"
	"sow-reviewer/internal/usecase/executor"
	"sow-reviewer/internal/usecase/orchestrator"
	"sow-reviewer/internal/usecase/review"
)

const (
	BackendOllama     = "ollama"
	BackendBedrock    = "bedrock"
	BackendOpenRouter = "openrouter"
)

const (
	defaultMaxIterations         = 15
	defaultCoordinatorIterations = 20
)

type Container struct {
	Logger   output.LoggerPort
	LLM      output.LLMPort
	Progress *userinteraction.ConsoleProgress
	Reader   output.DocumentReader
	Reviewer input.ReviewExecutor
	Markdown output.ReportWriter
	PDF      output.ReportWriter
	Terminal *report.TerminalPrinter
	Skill    *skill.Skill
	Model    string

	mcp *mcp.Manager
}

type Config struct {
	Backend     string
	Model       string
	NativeTools bool

	OllamaHost        string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	AWSProfile        string
	AWSRegion         string

	Mode          entity.ReviewMode
	Concurrency   int
	MaxIterations int
	MaxHandoffs   int
	Temperature   float32

	MaxDocumentTokens int
	SkillPath         string
	EnableMCP         bool
	FetchTimeout      time.Duration

	RunName  string
	LogDir   string
	LogLevel string
	Verbose  bool
	Out      io.Writer
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}

	log, err := logger.NewLoggerAdapter(cfg.RunName, logger.Options{Dir: cfg.LogDir, ConsoleLevel: cfg.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &Container{
		Logger:   log,
		Progress: userinteraction.NewConsoleProgress(cfg.Out, cfg.Verbose),
		Reader:   document.NewReader(cfg.MaxDocumentTokens, log),
		Markdown: report.NewMarkdownWriter(),
		PDF:      report.NewPDFWriter(),
		Terminal: report.NewTerminalPrinter(cfg.Out, 100),
	}

	llm, model, err := newLLM(cfg, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.LLM = llm
	c.Model = model
	if !cfg.NativeTools {
		log.Warn("Tool calling disabled: agents review the attached document only", "mode", cfg.Mode)
	}

	sk, err := skill.Load(cfg.SkillPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load skill: %w", err)
	}
	c.Skill = sk
	log.Info("Skill loaded", "name", sk.Name, "source", sk.Source, "path", sk.FilePath)

	var mcpTools []entity.ToolName
	tools := service.NewToolRegistry()
	if cfg.EnableMCP {
		c.mcp = mcp.NewManager(log)
		if err := c.mcp.Start(ctx, mcp.AWSServers(cfg.AWSProfile, cfg.AWSRegion)); err != nil {
			log.Warn("MCP servers unavailable, continuing without them", "error", err)
		}
		for _, t := range c.mcp.Tools() {
			tools.Register(t)
		}
		mcpTools = c.mcp.ToolNames()
	}

	docs := tool.NewDocumentSource()
	fetchCfg := web.DefaultConfig()
	fetchCfg.RedirectHosts = []string{"calculator.aws", "www.calculator.aws"}
	if cfg.FetchTimeout > 0 {
		fetchCfg.Timeout = cfg.FetchTimeout
	}
	registerDocumentTools(tools, docs, web.NewFetcher(fetchCfg, log), log)

	loop := executor.New(llm, log, c.Progress)

	skillAgent, err := newSkillAgent(sk, loop, tools, log, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	tools.Register(tool.NewAgentTool(skillAgent, log))

	agents := service.NewSimpleAgentRegistry()
	for _, r := range reviewRoles() {
		allowed := r.tools
		if r.useMCP {
			allowed = append(append([]entity.ToolName{}, allowed...), mcpTools...)
		}
		agents.Register(reviewer.New(reviewer.Config{
			Type:          r.agent,
			Description:   r.description,
			SystemPrompt:  r.prompt(),
			Tools:         allowed,
			MaxIterations: cfg.MaxIterations,
			Temperature:   cfg.Temperature,
			Document:      docs,
		}, loop, tools, log))
	}

	briefPrompt, err := prompts.GenerateCoordinatorPrompt(prompts.CoordinatorPrompt, agents, false, 0)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to generate coordinator prompt: %w", err)
	}
	agents.Register(reviewer.New(reviewer.Config{
		Type:          entity.AgentTypeCoordinator,
		Description:   "Plans the review and briefs the specialists.",
		SystemPrompt:  briefPrompt,
		MaxIterations: 1,
		Temperature:   cfg.Temperature,
		Document:      docs,
	}, loop, nil, log))

	newDelegator := func(maxHandoffs int) orchestrator.Delegator {
		return tool.NewRunAgentTool(agents, c.Progress, log, maxHandoffs)
	}
	coordinator := orchestrator.New(loop, agents, newDelegator, log, prompts.CoordinatorPrompt, orchestrator.Options{
		MaxHandoffs:   cfg.MaxHandoffs,
		MaxIterations: defaultCoordinatorIterations,
		Temperature:   cfg.Temperature,
	})

	c.Reviewer = review.New(
		agents,
		coordinator,
		evaluator.New(llm, log, prompts.EvaluatorPrompt),
		docs,
		c.Progress,
		log,
		review.Options{
			Mode:        cfg.Mode,
			Concurrency: cfg.Concurrency,
			Backend:     cfg.Backend,
			Model:       model,
		},
	)

	log.Info("Container ready",
		"backend", cfg.Backend,
		"model", model,
		"mode", cfg.Mode,
		"tools", len(tools.All()),
		"mcpTools", len(mcpTools),
	)
	return c, nil
}

func (c *Container) Close() {
	if c.mcp != nil {
		if err := c.mcp.Close(); err != nil && c.Logger != nil {
			c.Logger.Warn("Failed to close MCP servers", "error", err)
		}
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}

func newLLM(cfg Config, log output.LoggerPort) (output.LLMPort, string, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendOllama, "":
		llmCfg := openrouter.OllamaConfig(cfg.OllamaHost, cfg.Model)
		llmCfg.DisableTools = !cfg.NativeTools
		llmCfg.Logger = log
		llm := openrouter.NewOpenRouterAdapter(llmCfg)
		return llm, llm.Model(), nil

	case BackendBedrock:
		// The AWS SDK credential chain reads the profile and region from the environment.
		if cfg.AWSProfile != "" {
			os.Setenv("AWS_PROFILE", cfg.AWSProfile)
		}
		if cfg.AWSRegion != "" {
			os.Setenv("AWS_REGION", cfg.AWSRegion)
		}
		llm, err := langchain.NewBedrock(langchain.Config{
			Model:        cfg.Model,
			DisableTools: !cfg.NativeTools,
			Logger:       log,
		})
		if err != nil {
			return nil, "", err
		}
		return llm, llm.Model(), nil

	case BackendOpenRouter:
		if cfg.OpenRouterAPIKey == "" {
			return nil, "", fmt.Errorf("OPENROUTER_API_KEY is required for the %s backend", BackendOpenRouter)
		}
		if cfg.Model == "" {
			return nil, "", fmt.Errorf("a model is required for the %s backend (--model or OPENROUTER_MODEL_NAME)", BackendOpenRouter)
		}
		llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.Model)
		if cfg.OpenRouterBaseURL != "" {
			llmCfg.BaseURL = cfg.OpenRouterBaseURL
		}
		llmCfg.DisableTools = !cfg.NativeTools
		llmCfg.Logger = log
		llm := openrouter.NewOpenRouterAdapter(llmCfg)
		return llm, llm.Model(), nil

	default:
		return nil, "", fmt.Errorf("%w: %s", entity.ErrUnsupportedBackend, cfg.Backend)
	}
}

func newSkillAgent(sk *skill.Skill, loop input.AgentLoop, tools output.ToolRegistry, log output.LoggerPort, cfg Config) (*reviewer.Agent, error) {
	systemPrompt, err := prompts.GenerateSkillPrompt(prompts.SkillPrompt, sk.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to generate skill prompt: %w", err)
	}

	allowed := make([]entity.ToolName, 0, len(sk.AllowedTools))
	for _, name := range sk.AllowedTools {
		allowed = append(allowed, entity.ToolName(name))
	}

	description := sk.Description
	if description == "" {
		description = "AWS Solution Architect skill: validates architecture and cost decisions against AWS best practices."
	}

	return reviewer.New(reviewer.Config{
		Type:          entity.AgentTypeArchitectSkill,
		Description:   description + " Pass the SOW text to validate in 'task'.",
		SystemPrompt:  systemPrompt,
		Tools:         allowed,
		MaxIterations: cfg.MaxIterations,
		Temperature:   cfg.Temperature,
	}, loop, tools, log), nil
}

func registerDocumentTools(registry *service.ToolRegistryImpl, docs *tool.DocumentSource, fetcher output.WebFetcher, log output.LoggerPort) {
	registry.Register(tool.NewExtractSectionTool(docs))
	registry.Register(tool.NewListSectionsTool(docs))
	registry.Register(tool.NewValidateArchitectureTool(docs))
	registry.Register(tool.NewValidateCostTool(docs))
	registry.Register(tool.NewFetchCalculatorTool(fetcher, log))
}
