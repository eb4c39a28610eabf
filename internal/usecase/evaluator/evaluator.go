package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/domain/sow"
)

const maxCriticalGaps = 5

type Evaluator struct {
	llm    output.LLMPort
	logger output.LoggerPort
	prompt string
}

func New(llm output.LLMPort, logger output.LoggerPort, prompt string) *Evaluator {
	return &Evaluator{
		llm:    llm,
		logger: logger,
		prompt: prompt,
	}
}

// Evaluate asks the model for a verdict on the final report. When the model
// call or its JSON fails, the verdict is derived from the report text.
func (e *Evaluator) Evaluate(ctx context.Context, criteria entity.EvaluationCriteria) (*entity.Verdict, error) {
	if strings.TrimSpace(criteria.FinalReport) == "" {
		e.logger.Info("No final report, deriving verdict from reviews", "reviews", len(criteria.Reviews))
		return Derive(criteria), nil
	}

	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: e.prompt},
		{Role: entity.RoleUser, Content: fmt.Sprintf("Final validation report:\n\n%s", criteria.FinalReport)},
	}

	resp, err := e.llm.Chat(ctx, output.ChatRequest{
		Messages:    messages,
		Temperature: 0.0,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("evaluation llm request failed: %w", err)
		}
		e.logger.Warn("Evaluation request failed, deriving verdict", "error", err)
		return Derive(criteria), nil
	}

	verdict, err := e.parseEvaluationResponse(resp.Message.Content)
	if err != nil {
		e.logger.Warn("Failed to parse evaluation response, deriving verdict", "error", err)
		return Derive(criteria), nil
	}

	e.logger.Info("Evaluation completed",
		"status", verdict.Status,
		"overallScore", verdict.OverallScore,
		"criticalGaps", len(verdict.CriticalGaps),
	)

	return verdict, nil
}

func (e *Evaluator) parseEvaluationResponse(response string) (*entity.Verdict, error) {
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")

	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON found in response")
	}

	jsonStr := response[start : end+1]

	var verdict entity.Verdict
	if err := json.Unmarshal([]byte(jsonStr), &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	verdict.Status = entity.VerdictStatus(strings.ToLower(strings.TrimSpace(string(verdict.Status))))
	switch verdict.Status {
	case entity.VerdictApprove, entity.VerdictRevise, entity.VerdictReject:
	default:
		return nil, fmt.Errorf("unknown status %q", verdict.Status)
	}

	verdict.OverallScore = clamp(verdict.OverallScore, 0, 10)
	if verdict.CriticalGaps == nil {
		verdict.CriticalGaps = []string{}
	}
	if len(verdict.CriticalGaps) > maxCriticalGaps {
		verdict.CriticalGaps = verdict.CriticalGaps[:maxCriticalGaps]
	}

	return &verdict, nil
}

// Derive builds a verdict without the model. The status comes from the
// recommendation keywords of the final report, REJECT winning over REVISE
// over APPROVE. The score is the final report's last score, or else the
// average of the parsed review scores, on a 0-10 scale. Without a final
// report the status follows the score.
func Derive(criteria entity.EvaluationCriteria) *entity.Verdict {
	verdict := &entity.Verdict{
		Status:       deriveStatus(criteria.FinalReport),
		CriticalGaps: criticalGaps(criteria.FinalReport),
		Derived:      true,
	}

	scored := 0
	if value, max, ok := sow.ParseScore(criteria.FinalReport); ok {
		verdict.OverallScore = entity.Score{Value: value, Max: max}.Normalized()
		scored = 1
	} else {
		var total float64
		for _, rv := range criteria.Reviews {
			if rv.Score == nil {
				continue
			}
			total += rv.Score.Normalized()
			scored++
		}
		if scored > 0 {
			verdict.OverallScore = total / float64(scored)
		}
	}

	if strings.TrimSpace(criteria.FinalReport) == "" && scored > 0 {
		verdict.Status = statusForScore(verdict.OverallScore)
	}

	completed := 0
	for _, rv := range criteria.Reviews {
		if !rv.Failed() {
			completed++
		}
	}
	verdict.Summary = fmt.Sprintf("%d of %d specialist reviews completed.", completed, len(criteria.Reviews))

	return verdict
}

func deriveStatus(report string) entity.VerdictStatus {
	upper := strings.ToUpper(report)
	switch {
	case strings.Contains(upper, "REJECT"):
		return entity.VerdictReject
	case strings.Contains(upper, "REVISE"), strings.Contains(upper, "REVISION"):
		return entity.VerdictRevise
	case strings.Contains(upper, "APPROVE"):
		return entity.VerdictApprove
	default:
		return entity.VerdictRevise
	}
}

func statusForScore(score float64) entity.VerdictStatus {
	switch {
	case score >= 8:
		return entity.VerdictApprove
	case score >= 5:
		return entity.VerdictRevise
	default:
		return entity.VerdictReject
	}
}

// criticalGaps collects list items that mention "critical", or the items of
// a section whose heading does.
func criticalGaps(report string) []string {
	gaps := []string{}
	inCritical := false

	for _, line := range strings.Split(report, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			inCritical = strings.Contains(strings.ToLower(trimmed), "critical")
			continue
		}

		item, ok := listItem(trimmed)
		if !ok {
			continue
		}
		if inCritical || strings.Contains(strings.ToLower(item), "critical") {
			gaps = append(gaps, item)
			if len(gaps) == maxCriticalGaps {
				break
			}
		}
	}

	return gaps
}

func listItem(line string) (string, bool) {
	for _, prefix := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(line) && line[i] == '.' && line[i+1] == ' ' {
		return strings.TrimSpace(line[i+2:]), true
	}
	return "", false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
