package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sow-reviewer/internal/di"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/infrastructure/env"
	"sow-reviewer/internal/infrastructure/llm/openrouter"
)

const (
	formatMarkdown = "md"
	formatPDF      = "pdf"
	formatBoth     = "both"
)

type reviewOptions struct {
	backend     string
	bedrock     bool
	model       string
	ollamaHost  string
	profile     string
	region      string
	format      string
	output      string
	mode        string
	concurrency int
	skillPath   string
	mcp         bool
	printReport bool
	timeout     time.Duration
	verbose     bool
	logDir      string
}

func (o *reviewOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.backend, "backend", "", "Model backend: ollama, bedrock or openrouter (default ollama)")
	f.BoolVar(&o.bedrock, "bedrock", false, "Use Amazon Bedrock (same as --backend bedrock)")
	f.StringVar(&o.model, "model", "", "Model ID (default depends on the backend)")
	f.StringVar(&o.ollamaHost, "ollama-host", "", "Ollama server URL (default "+openrouter.DefaultOllamaHost+")")
	f.StringVar(&o.profile, "profile", "", "AWS profile for Bedrock and MCP servers (default demo)")
	f.StringVar(&o.region, "region", "", "AWS region (default us-east-1)")
	f.StringVarP(&o.format, "format", "f", formatMarkdown, "Output format: md, pdf or both")
	f.StringVarP(&o.output, "output", "o", "", "Output file (default <sow-file>_review.<ext>)")
	f.StringVar(&o.mode, "mode", string(entity.ModeParallel), "Review mode: parallel or swarm")
	f.IntVar(&o.concurrency, "concurrency", 4, "Specialists running at the same time")
	f.StringVar(&o.skillPath, "skill", "", "Path to the AWS Solution Architect SKILL.md")
	f.BoolVar(&o.mcp, "mcp", false, "Start the AWS pricing and documentation MCP servers (needs uvx)")
	f.BoolVar(&o.printReport, "print", false, "Render the report in the terminal")
	f.DurationVar(&o.timeout, "timeout", 30*time.Minute, "Overall review timeout")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Show tool calls")
	f.StringVar(&o.logDir, "log-dir", "log", "Directory for JSON run logs (empty disables)")
}

func newReviewCmd() *cobra.Command {
	opts := &reviewOptions{}
	cmd := &cobra.Command{
		Use:   "review <sow-file>",
		Short: "Review a SOW and write the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, opts, args[0])
		},
	}
	opts.register(cmd)
	return cmd
}

func runReview(cmd *cobra.Command, opts *reviewOptions, sowFile string) error {
	out := cmd.OutOrStdout()
	envService := env.NewEnvService()

	cfg, err := opts.config(envService, sowFile)
	if err != nil {
		return err
	}
	cfg.Out = out

	outputs, err := outputPaths(sowFile, opts.output, opts.format)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer container.Close()

	container.Logger.Info("Environment loaded", "appEnv", envService.AppEnv(), "files", envService.Loaded())
	container.Progress.Println("Using %s %s", cfg.Backend, container.Model)
	container.Logger.Info("Reading SOW document", "path", sowFile)

	doc, err := container.Reader.Read(ctx, sowFile)
	if err != nil {
		container.Logger.Error("Failed to read document", "error", err)
		return err
	}
	container.Progress.Println("Document loaded: %d characters, ~%d tokens", len(doc.Content), doc.Tokens)

	container.Logger.Info("Task started", "mode", cfg.Mode, "concurrency", cfg.Concurrency)
	report, err := container.Reviewer.Review(ctx, doc)
	if err != nil {
		container.Logger.Error("Task failed", "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("review timed out after %s: %w", opts.timeout, err)
		}
		return err
	}

	for _, o := range outputs {
		writer := container.Markdown
		if o.format == formatPDF {
			writer = container.PDF
		}
		if err := writer.Write(ctx, report, o.path); err != nil {
			container.Logger.Error("Failed to write report", "path", o.path, "error", err)
			return err
		}
		container.Logger.Info("Report written", "format", o.format, "path", o.path)
	}

	if opts.printReport {
		if err := container.Terminal.Print(report); err != nil {
			container.Logger.Warn("Failed to render report in terminal", "error", err)
		}
	}

	container.Logger.Info("Task completed", "status", report.Verdict.Status, "failedReviews", len(report.FailedReviews()))

	paths := make([]string, 0, len(outputs))
	for _, o := range outputs {
		paths = append(paths, o.path)
	}
	fmt.Fprintf(out, "\n✓ Review complete. Report saved to %s\n", strings.Join(paths, ", "))
	return nil
}

// config merges flags over environment values.
func (o *reviewOptions) config(envService *env.EnvService, sowFile string) (di.Config, error) {
	backend := o.backend
	if o.bedrock {
		if backend != "" && backend != di.BackendBedrock {
			return di.Config{}, fmt.Errorf("--bedrock conflicts with --backend %s", backend)
		}
		backend = di.BackendBedrock
	}
	if backend == "" {
		backend = envService.GetWithDefault("SOW_BACKEND", di.BackendOllama)
	}

	model := o.model
	if model == "" && backend == di.BackendOpenRouter {
		model = envService.Get("OPENROUTER_MODEL_NAME")
	}

	apiKey := envService.Get("OPENROUTER_API_KEY")
	if backend == di.BackendOpenRouter {
		var err error
		if apiKey, err = envService.Require("OPENROUTER_API_KEY"); err != nil {
			return di.Config{}, err
		}
	}

	mode := entity.ReviewMode(o.mode)
	if mode != entity.ModeParallel && mode != entity.ModeSwarm {
		return di.Config{}, fmt.Errorf("unknown mode %q (want parallel or swarm)", o.mode)
	}

	if o.concurrency < 1 {
		return di.Config{}, fmt.Errorf("--concurrency must be at least 1")
	}

	return di.Config{
		Backend:     backend,
		Model:       model,
		NativeTools: envService.GetBool("NATIVE_TOOLS", true),

		OllamaHost:        firstNonEmpty(o.ollamaHost, envService.Get("OLLAMA_HOST")),
		OpenRouterAPIKey:  apiKey,
		OpenRouterBaseURL: envService.Get("OPENROUTER_BASE_URL"),
		AWSProfile:        firstNonEmpty(o.profile, envService.GetWithDefault("AWS_PROFILE", "demo")),
		AWSRegion:         firstNonEmpty(o.region, envService.GetWithDefault("AWS_REGION", "us-east-1")),

		Mode:          mode,
		Concurrency:   o.concurrency,
		MaxIterations: envService.GetInt("MAX_AGENT_ITERATIONS", 15),
		MaxHandoffs:   envService.GetInt("MAX_HANDOFFS", 12),

		MaxDocumentTokens: envService.GetInt("MAX_DOCUMENT_TOKENS", 0),
		SkillPath:         o.skillPath,
		EnableMCP:         o.mcp,
		FetchTimeout:      envService.GetDuration("FETCH_TIMEOUT", 15*time.Second),

		RunName:  entity.Document{Path: sowFile}.Name(),
		LogDir:   o.logDir,
		LogLevel: envService.GetWithDefault("LOG_LEVEL", "warn"),
		Verbose:  o.verbose,
	}, nil
}

type outputFile struct {
	format string
	path   string
}

// outputPaths returns the report files to write. Without --output they sit
// next to the SOW as <name>_review.md / .pdf.
func outputPaths(sowFile, output, format string) ([]outputFile, error) {
	var formats []string
	switch strings.ToLower(format) {
	case formatMarkdown, "markdown":
		formats = []string{formatMarkdown}
	case formatPDF:
		formats = []string{formatPDF}
	case formatBoth:
		formats = []string{formatMarkdown, formatPDF}
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, format)
	}

	base := strings.TrimSuffix(sowFile, filepath.Ext(sowFile)) + "_review"
	if output != "" {
		base = strings.TrimSuffix(output, filepath.Ext(output))
	}

	files := make([]outputFile, 0, len(formats))
	for _, f := range formats {
		files = append(files, outputFile{format: f, path: base + "." + f})
	}
	return files, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
