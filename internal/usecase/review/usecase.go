package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sow-reviewer/internal/application/port/input"
	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/domain/sow"
	"sow-reviewer/internal/usecase/agents/reviewer"
	"sow-reviewer/internal/usecase/orchestrator"
)

const DefaultConcurrency = 4

var _ input.ReviewExecutor = (*UseCase)(nil)

type Coordinator interface {
	Coordinate(ctx context.Context, task string) (*orchestrator.Result, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, criteria entity.EvaluationCriteria) (*entity.Verdict, error)
}

type Options struct {
	Mode        entity.ReviewMode
	Concurrency int
	Backend     string
	Model       string
}

// UseCase runs a full SOW review: coordinator, specialists, final
// validation and verdict.
type UseCase struct {
	agents      output.SimpleAgentRegistry
	coordinator Coordinator
	evaluator   Evaluator
	docs        output.ActiveDocument
	progress    output.ProgressPort
	logger      output.LoggerPort
	opts        Options
}

func New(
	agents output.SimpleAgentRegistry,
	coordinator Coordinator,
	evaluator Evaluator,
	docs output.ActiveDocument,
	progress output.ProgressPort,
	logger output.LoggerPort,
	opts Options,
) *UseCase {
	if opts.Mode == "" {
		opts.Mode = entity.ModeParallel
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &UseCase{
		agents:      agents,
		coordinator: coordinator,
		evaluator:   evaluator,
		docs:        docs,
		progress:    progress,
		logger:      logger,
		opts:        opts,
	}
}

func (uc *UseCase) Review(ctx context.Context, doc *entity.Document) (*entity.Report, error) {
	if doc == nil {
		return nil, entity.ErrEmptyDocument
	}
	uc.docs.Set(doc)

	report := &entity.Report{
		Title:       documentTitle(doc),
		Document:    *doc,
		Backend:     uc.opts.Backend,
		Model:       uc.opts.Model,
		Mode:        uc.opts.Mode,
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
	}

	log := uc.logger.WithFields(map[string]any{"runId": report.RunID, "mode": string(report.Mode)})
	log.Info("Review started", "document", doc.Path, "tokens", doc.Tokens, "truncated", doc.Truncated)

	var reviews []entity.Review
	switch uc.opts.Mode {
	case entity.ModeParallel:
		report.Brief = uc.brief(ctx, log)
		uc.stage(ctx, "Specialist reviews")
		reviews = uc.runSpecialists(ctx, entity.SpecialistTypes, specialistTask(report.Brief))
	case entity.ModeSwarm:
		report.Brief, reviews = uc.swarm(ctx, log, doc)
	default:
		return nil, fmt.Errorf("unknown review mode %q", uc.opts.Mode)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var errs []error
	for i := range reviews {
		reviews[i].Score = parseScore(reviews[i].Content)
		if reviews[i].Failed() {
			errs = append(errs, fmt.Errorf("%s: %w", reviews[i].Type, reviews[i].Err))
		}
	}
	report.Reviews = reviews

	if len(errs) == len(reviews) {
		log.Error("All specialist reviews failed", "count", len(errs))
		return nil, fmt.Errorf("%w: %w", entity.ErrAllReviewsFailed, errors.Join(errs...))
	}
	if len(errs) > 0 {
		log.Warn("Some specialist reviews failed", "failed", len(errs), "total", len(reviews))
	}

	report.Final = uc.finalize(ctx, log, reviews)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uc.stage(ctx, "Verdict")
	verdict, err := uc.evaluator.Evaluate(ctx, entity.EvaluationCriteria{
		FinalReport: report.Final.Content,
		Reviews:     reviews,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	report.Verdict = verdict

	log.Info("Review completed", "status", verdict.Status, "overallScore", verdict.OverallScore, "failed", len(errs))
	return report, nil
}

// brief asks the coordinator for a short review brief. A failed brief only
// costs the specialists some guidance.
func (uc *UseCase) brief(ctx context.Context, log output.LoggerPort) string {
	agent, ok := uc.agents.Get(entity.AgentTypeCoordinator)
	if !ok {
		log.Warn("No coordinator registered, skipping brief")
		return ""
	}

	uc.stage(ctx, "Coordinator brief")
	rv := reviewer.RunReview(ctx, agent, "Write the review brief for the SOW below.", uc.progress)
	if rv.Failed() {
		log.Warn("Coordinator brief failed", "error", rv.Err)
		return ""
	}
	return rv.Content
}

// swarm lets the coordinator delegate. Specialists it never ran are run
// directly so every role appears in the report.
func (uc *UseCase) swarm(ctx context.Context, log output.LoggerPort, doc *entity.Document) (string, []entity.Review) {
	uc.stage(ctx, "Coordinator delegation")

	task := reviewer.AttachDocument("Coordinate the review of the SOW below.", doc)
	result, err := uc.coordinator.Coordinate(ctx, task)
	if err != nil {
		log.Warn("Coordinator failed", "error", err)
	}

	collected := map[entity.AgentType]entity.Review{}
	summary := ""
	if result != nil {
		collected = result.Reviews
		summary = result.Summary
	}

	var missing []entity.AgentType
	for _, t := range entity.SpecialistTypes {
		if _, ok := collected[t]; !ok {
			missing = append(missing, t)
		}
	}

	if len(missing) > 0 && ctx.Err() == nil {
		log.Info("Running specialists the coordinator skipped", "count", len(missing))
		uc.stage(ctx, "Remaining specialist reviews")
		for _, rv := range uc.runSpecialists(ctx, missing, specialistTask(summary)) {
			collected[rv.Type] = rv
		}
	}

	reviews := make([]entity.Review, 0, len(entity.SpecialistTypes))
	for _, t := range entity.SpecialistTypes {
		if rv, ok := collected[t]; ok {
			reviews = append(reviews, rv)
		}
	}
	return summary, reviews
}

// runSpecialists runs the given roles concurrently. Results keep the order
// of types whatever the completion order.
func (uc *UseCase) runSpecialists(ctx context.Context, types []entity.AgentType, task string) []entity.Review {
	reviews := make([]entity.Review, len(types))

	var g errgroup.Group
	g.SetLimit(uc.opts.Concurrency)

	for i, agentType := range types {
		agent, ok := uc.agents.Get(agentType)
		if !ok {
			reviews[i] = entity.Review{Type: agentType, Err: fmt.Errorf("%w: %s", entity.ErrAgentNotFound, agentType)}
			continue
		}

		g.Go(func() error {
			reviews[i] = reviewer.RunReview(ctx, agent, task, uc.progress)
			return nil
		})
	}

	_ = g.Wait()
	return reviews
}

func (uc *UseCase) finalize(ctx context.Context, log output.LoggerPort, reviews []entity.Review) entity.Review {
	agent, ok := uc.agents.Get(entity.AgentTypeSolutionArchitect)
	if !ok {
		return entity.Review{
			Type: entity.AgentTypeSolutionArchitect,
			Err:  fmt.Errorf("%w: %s", entity.ErrAgentNotFound, entity.AgentTypeSolutionArchitect),
		}
	}

	uc.stage(ctx, "Final validation")
	rv := reviewer.RunReview(ctx, agent, finalTask(reviews), uc.progress)
	if rv.Failed() {
		log.Warn("Final validation failed", "error", rv.Err)
		return rv
	}
	rv.Score = parseScore(rv.Content)
	return rv
}

func (uc *UseCase) stage(ctx context.Context, name string) {
	if uc.progress != nil {
		uc.progress.ShowStage(ctx, name)
	}
}

func specialistTask(brief string) string {
	var b strings.Builder
	b.WriteString("Review the SOW below from your specialist perspective. Follow your instructions and finish with your score.")
	if brief = strings.TrimSpace(brief); brief != "" {
		b.WriteString("\n\nReview brief from the coordinator:\n")
		b.WriteString(brief)
	}
	return b.String()
}

func finalTask(reviews []entity.Review) string {
	var b strings.Builder
	b.WriteString("Validate the SOW below against the specialist reviews and write the final validation report.\n\n")
	b.WriteString("Specialist reviews:\n")
	for _, rv := range reviews {
		fmt.Fprintf(&b, "\n=== %s ===\n", rv.Type.Title())
		if rv.Failed() {
			fmt.Fprintf(&b, "(review failed: %v)\n", rv.Err)
			continue
		}
		b.WriteString(strings.TrimSpace(rv.Content))
		b.WriteString("\n")
	}
	return b.String()
}

func parseScore(content string) *entity.Score {
	value, max, ok := sow.ParseScore(content)
	if !ok {
		return nil
	}
	return &entity.Score{Value: value, Max: max}
}

// documentTitle is the first H1 of the document, or its file name.
func documentTitle(doc *entity.Document) string {
	for _, h := range sow.Outline(doc.Content) {
		if h.Level == 1 {
			return h.Title
		}
	}
	return doc.Name()
}
