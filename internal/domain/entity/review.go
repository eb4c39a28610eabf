package entity

import "time"

type Score struct {
	Value float64
	Max   float64
}

// Normalized returns the score on a 0-10 scale.
func (s Score) Normalized() float64 {
	if s.Max == 0 {
		return 0
	}
	return s.Value / s.Max * 10
}

type Review struct {
	Type       AgentType
	Content    string
	Score      *Score
	Iterations int
	Duration   time.Duration
	Err        error
}

func (r Review) Failed() bool {
	return r.Err != nil
}

type ReviewMode string

const (
	ModeParallel ReviewMode = "parallel"
	ModeSwarm    ReviewMode = "swarm"
)

type Report struct {
	Title       string
	Document    Document
	Backend     string
	Model       string
	Mode        ReviewMode
	RunID       string
	GeneratedAt time.Time
	Brief       string
	Reviews     []Review
	Final       Review
	Verdict     *Verdict
}

// Review returns the specialist review of the given type, if present.
func (r *Report) Review(t AgentType) (Review, bool) {
	for _, rv := range r.Reviews {
		if rv.Type == t {
			return rv, true
		}
	}
	return Review{}, false
}

func (r *Report) FailedReviews() []Review {
	var failed []Review
	for _, rv := range r.Reviews {
		if rv.Failed() {
			failed = append(failed, rv)
		}
	}
	return failed
}
