package entity

type VerdictStatus string

const (
	VerdictApprove VerdictStatus = "approve"
	VerdictRevise  VerdictStatus = "revise"
	VerdictReject  VerdictStatus = "reject"
)

type Verdict struct {
	Status       VerdictStatus `json:"status"`
	OverallScore float64       `json:"overall_score"`
	CriticalGaps []string      `json:"critical_gaps"`
	Summary      string        `json:"summary"`
	// Derived is set when the verdict was inferred from the report text instead of parsed JSON.
	Derived bool `json:"-"`
}

type EvaluationCriteria struct {
	FinalReport string
	Reviews     []Review
}
