package prompts

import (
	_ "embed"

	"sow-reviewer/internal/domain/entity"
)

//go:embed coordinator.txt
var CoordinatorPrompt string

//go:embed architecture.txt
var ArchitecturePrompt string

//go:embed cost.txt
var CostPrompt string

//go:embed scope.txt
var ScopePrompt string

//go:embed compliance.txt
var CompliancePrompt string

//go:embed solution_architect.txt
var SolutionArchitectPrompt string

//go:embed skill.txt
var SkillPrompt string

//go:embed evaluator.txt
var EvaluatorPrompt string

// ForAgent returns the static system prompt of a reviewer role.
func ForAgent(t entity.AgentType) (string, bool) {
	switch t {
	case entity.AgentTypeArchitectureReviewer:
		return ArchitecturePrompt, true
	case entity.AgentTypeCostReviewer:
		return CostPrompt, true
	case entity.AgentTypeScopeReviewer:
		return ScopePrompt, true
	case entity.AgentTypeComplianceReviewer:
		return CompliancePrompt, true
	case entity.AgentTypeSolutionArchitect:
		return SolutionArchitectPrompt, true
	default:
		return "", false
	}
}
