package evaluator

import (
	"context"
	"errors"
	"testing"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/infrastructure/prompts"
	"sow-reviewer/internal/testutil"
)

const finalReport = `# SOW Review - Final Validation Report

## Critical Gaps
1. No disaster recovery plan
2. Pricing calculator link is missing

## Recommendations
- Add a RACI matrix

**Status**: ❌ **REJECT - Requires Revisions**

## Overall Score: 2.5/5`

func TestParseEvaluationResponse_ValidJSON(t *testing.T) {
	e := &Evaluator{}

	jsonResponse := `{
  "status": "approve",
  "overall_score": 8.5,
  "critical_gaps": ["minor gap"],
  "summary": "good SOW"
}`

	result, err := e.parseEvaluationResponse(jsonResponse)
	if err != nil {
		t.Fatalf("parseEvaluationResponse failed: %v", err)
	}

	if result.Status != entity.VerdictApprove {
		t.Errorf("Expected status=approve, got %s", result.Status)
	}

	if result.OverallScore != 8.5 {
		t.Errorf("Expected overall_score=8.5, got %f", result.OverallScore)
	}

	if len(result.CriticalGaps) != 1 || result.CriticalGaps[0] != "minor gap" {
		t.Errorf("Expected critical_gaps=[\"minor gap\"], got %v", result.CriticalGaps)
	}

	if result.Summary != "good SOW" {
		t.Errorf("Expected summary=\"good SOW\", got %s", result.Summary)
	}

	if result.Derived {
		t.Error("Expected derived=false")
	}
}

func TestParseEvaluationResponse_WithTextAround(t *testing.T) {
	e := &Evaluator{}

	response := "Here's my verdict:\n\n```json\n" + `{
  "status": "REJECT",
  "overall_score": 14,
  "critical_gaps": ["a", "b", "c", "d", "e", "f"],
  "summary": "not ready"
}` + "\n```\n\nHope this helps!"

	result, err := e.parseEvaluationResponse(response)
	if err != nil {
		t.Fatalf("parseEvaluationResponse failed: %v", err)
	}

	if result.Status != entity.VerdictReject {
		t.Errorf("Expected status=reject, got %s", result.Status)
	}

	if result.OverallScore != 10 {
		t.Errorf("Expected overall_score clamped to 10, got %f", result.OverallScore)
	}

	if len(result.CriticalGaps) != maxCriticalGaps {
		t.Errorf("Expected %d critical gaps, got %d", maxCriticalGaps, len(result.CriticalGaps))
	}
}

func TestParseEvaluationResponse_Invalid(t *testing.T) {
	e := &Evaluator{}

	for _, response := range []string{
		"This is not JSON at all",
		`{"status": "maybe", "overall_score": 5}`,
		`} nope {`,
	} {
		if _, err := e.parseEvaluationResponse(response); err == nil {
			t.Errorf("Expected error for %q", response)
		}
	}
}

func TestDerive_FromFinalReport(t *testing.T) {
	verdict := Derive(entity.EvaluationCriteria{
		FinalReport: finalReport,
		Reviews: []entity.Review{
			{Type: entity.AgentTypeArchitectureReviewer, Content: "x"},
			{Type: entity.AgentTypeCostReviewer, Err: errors.New("timeout")},
		},
	})

	if verdict.Status != entity.VerdictReject {
		t.Errorf("Expected status=reject, got %s", verdict.Status)
	}

	if verdict.OverallScore != 5 {
		t.Errorf("Expected overall_score=5, got %f", verdict.OverallScore)
	}

	want := []string{"No disaster recovery plan", "Pricing calculator link is missing"}
	if len(verdict.CriticalGaps) != len(want) {
		t.Fatalf("Expected critical gaps %v, got %v", want, verdict.CriticalGaps)
	}
	for i := range want {
		if verdict.CriticalGaps[i] != want[i] {
			t.Errorf("Expected gap %q, got %q", want[i], verdict.CriticalGaps[i])
		}
	}

	if verdict.Summary != "1 of 2 specialist reviews completed." {
		t.Errorf("Unexpected summary: %s", verdict.Summary)
	}

	if !verdict.Derived {
		t.Error("Expected derived=true")
	}
}

func TestDerive_FromReviewScores(t *testing.T) {
	verdict := Derive(entity.EvaluationCriteria{
		Reviews: []entity.Review{
			{Type: entity.AgentTypeArchitectureReviewer, Score: &entity.Score{Value: 4, Max: 5}},
			{Type: entity.AgentTypeScopeReviewer, Score: &entity.Score{Value: 9, Max: 10}},
			{Type: entity.AgentTypeComplianceReviewer},
		},
	})

	if verdict.OverallScore != 8.5 {
		t.Errorf("Expected overall_score=8.5, got %f", verdict.OverallScore)
	}

	if verdict.Status != entity.VerdictApprove {
		t.Errorf("Expected status=approve, got %s", verdict.Status)
	}
}

func TestEvaluate_UsesModelVerdict(t *testing.T) {
	llm := testutil.NewScriptedLLM(testutil.Answer(`{"status":"revise","overall_score":6,"critical_gaps":[],"summary":"close"}`))
	e := New(llm, testutil.NewRecordingLogger(), prompts.EvaluatorPrompt)

	verdict, err := e.Evaluate(context.Background(), entity.EvaluationCriteria{FinalReport: finalReport})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if verdict.Status != entity.VerdictRevise || verdict.Derived {
		t.Errorf("Expected model verdict revise, got %+v", verdict)
	}

	requests := llm.Requests()
	if len(requests) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(requests))
	}
	if testutil.SystemPrompt(requests[0]) != prompts.EvaluatorPrompt {
		t.Error("Expected evaluator prompt as system message")
	}
}

func TestEvaluate_FallsBackOnFailure(t *testing.T) {
	cases := map[string]*testutil.FakeLLM{
		"llm error": testutil.NewHandlerLLM(func(req output.ChatRequest) (entity.Message, error) {
			return entity.Message{}, errors.New("connection refused")
		}),
		"bad json": testutil.NewScriptedLLM(testutil.Answer("The SOW should be rejected.")),
	}

	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			logger := testutil.NewRecordingLogger()
			e := New(llm, logger, prompts.EvaluatorPrompt)

			verdict, err := e.Evaluate(context.Background(), entity.EvaluationCriteria{FinalReport: finalReport})
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if !verdict.Derived || verdict.Status != entity.VerdictReject {
				t.Errorf("Expected derived reject verdict, got %+v", verdict)
			}
			if !logger.Contains("deriving verdict") {
				t.Error("Expected fallback to be logged")
			}
		})
	}
}

func TestEvaluate_SkipsModelWithoutFinalReport(t *testing.T) {
	llm := testutil.NewScriptedLLM()
	e := New(llm, testutil.NewRecordingLogger(), prompts.EvaluatorPrompt)

	verdict, err := e.Evaluate(context.Background(), entity.EvaluationCriteria{})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(llm.Requests()) != 0 {
		t.Error("Expected no model request")
	}
	if verdict.Status != entity.VerdictRevise {
		t.Errorf("Expected revise, got %s", verdict.Status)
	}
}
