package prompts

import (
	"bytes"
	"sort"
	"text/template"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

type AgentInfo struct {
	Name        string
	Description string
}

type CoordinatorPromptData struct {
	Agents      []AgentInfo
	Delegate    bool
	MaxHandoffs int
}

type SkillPromptData struct {
	Content string
}

// GenerateCoordinatorPrompt renders the coordinator template with the specialists
// found in the registry. Delegate switches the prompt to run_agent handoffs.
func GenerateCoordinatorPrompt(baseTemplate string, agentRegistry output.SimpleAgentRegistry, delegate bool, maxHandoffs int) (string, error) {
	agents := agentRegistry.List()
	agentInfos := make([]AgentInfo, 0, len(agents))

	for _, agent := range agents {
		if !entity.IsSpecialist(agent.GetType()) {
			continue
		}
		agentInfos = append(agentInfos, AgentInfo{
			Name:        string(agent.GetType()),
			Description: agent.GetDescription(),
		})
	}

	sort.Slice(agentInfos, func(i, j int) bool {
		return agentInfos[i].Name < agentInfos[j].Name
	})

	return render("coordinator", baseTemplate, CoordinatorPromptData{
		Agents:      agentInfos,
		Delegate:    delegate,
		MaxHandoffs: maxHandoffs,
	})
}

// GenerateSkillPrompt wraps a skill body into the skill agent's system prompt.
func GenerateSkillPrompt(baseTemplate, content string) (string, error) {
	return render("skill", baseTemplate, SkillPromptData{Content: content})
}

func render(name, baseTemplate string, data any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
