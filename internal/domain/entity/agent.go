package entity

type AgentType string

const (
	AgentTypeCoordinator          AgentType = "coordinator"
	AgentTypeArchitectureReviewer AgentType = "architecture_reviewer"
	AgentTypeCostReviewer         AgentType = "cost_reviewer"
	AgentTypeScopeReviewer        AgentType = "scope_reviewer"
	AgentTypeComplianceReviewer   AgentType = "compliance_reviewer"
	AgentTypeSolutionArchitect    AgentType = "solution_architect"
	AgentTypeArchitectSkill       AgentType = "aws_solution_architect_skill"
)

// SpecialistTypes is the fixed order in which specialist reviews run and are reported.
var SpecialistTypes = []AgentType{
	AgentTypeArchitectureReviewer,
	AgentTypeCostReviewer,
	AgentTypeScopeReviewer,
	AgentTypeComplianceReviewer,
}

func (t AgentType) String() string {
	return string(t)
}

// Title is the human readable name used in report headings.
func (t AgentType) Title() string {
	switch t {
	case AgentTypeCoordinator:
		return "Coordinator"
	case AgentTypeArchitectureReviewer:
		return "Architecture Review"
	case AgentTypeCostReviewer:
		return "Cost Review"
	case AgentTypeScopeReviewer:
		return "Scope & Deliverables Review"
	case AgentTypeComplianceReviewer:
		return "Compliance & Legal Review"
	case AgentTypeSolutionArchitect:
		return "Solution Architect Validation"
	case AgentTypeArchitectSkill:
		return "AWS Solution Architect Skill"
	default:
		return string(t)
	}
}

func IsSpecialist(t AgentType) bool {
	for _, s := range SpecialistTypes {
		if s == t {
			return true
		}
	}
	return false
}

type AgentRequest struct {
	Type          AgentType
	Task          string
	MaxIterations int
}

type AgentResponse struct {
	Type       AgentType
	Result     string
	Iterations int
}
