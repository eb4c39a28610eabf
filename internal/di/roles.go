package di

import (
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/infrastructure/prompts"
)

var documentTools = []entity.ToolName{
	entity.ToolExtractSection,
	entity.ToolListSections,
}

type role struct {
	agent       entity.AgentType
	description string
	tools       []entity.ToolName
	useMCP      bool
}

func (r role) prompt() string {
	prompt, _ := prompts.ForAgent(r.agent)
	return prompt
}

func reviewRoles() []role {
	return []role{
		{
			agent:       entity.AgentTypeArchitectureReviewer,
			description: "Reviews the technical architecture: diagram, components, AWS service choices, security, scalability and availability.",
			tools:       append(append([]entity.ToolName{}, documentTools...), entity.ToolValidateArchitecture, entity.ToolArchitectSkill),
		},
		{
			agent:       entity.AgentTypeCostReviewer,
			description: "Reviews cost estimates, AWS Pricing Calculator links and pricing accuracy.",
			tools:       append(append([]entity.ToolName{}, documentTools...), entity.ToolValidateCost, entity.ToolFetchCalculator),
			useMCP:      true,
		},
		{
			agent:       entity.AgentTypeScopeReviewer,
			description: "Reviews scope, deliverables, milestones, acceptance criteria and timeline.",
			tools:       documentTools,
		},
		{
			agent:       entity.AgentTypeComplianceReviewer,
			description: "Reviews legal terms, assumptions, responsibilities, data protection and compliance requirements.",
			tools:       documentTools,
		},
		{
			agent:       entity.AgentTypeSolutionArchitect,
			description: "Validates the SOW against the specialist reviews and writes the final validation report.",
			useMCP:      true,
		},
	}
}
