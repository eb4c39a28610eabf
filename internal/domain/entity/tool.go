package entity

type ToolName string

const (
	ToolExtractSection       ToolName = "extract_section"
	ToolListSections         ToolName = "list_sections"
	ToolValidateArchitecture ToolName = "validate_architecture"
	ToolValidateCost         ToolName = "validate_cost_section"
	ToolFetchCalculator      ToolName = "fetch_calculator_data"
	ToolArchitectSkill       ToolName = ToolName(AgentTypeArchitectSkill)
	ToolRunAgent             ToolName = "run_agent"
)

func (t ToolName) String() string {
	return string(t)
}
