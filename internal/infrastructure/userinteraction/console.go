package userinteraction

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

var _ output.ProgressPort = (*ConsoleProgress)(nil)

// ConsoleProgress prints review progress. Specialists run concurrently, so
// every write holds the mutex to keep lines whole.
type ConsoleProgress struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// NewConsoleProgress prints stages and agent lifecycle; verbose adds tool calls.
func NewConsoleProgress(out io.Writer, verbose bool) *ConsoleProgress {
	return &ConsoleProgress{out: out, verbose: verbose}
}

func (c *ConsoleProgress) ShowStage(ctx context.Context, stage string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(c.out, "\n━━━ %s ━━━\n", stage)
}

func (c *ConsoleProgress) ShowAgentStart(ctx context.Context, agent entity.AgentType, task string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	blue := color.New(color.FgBlue, color.Bold)
	blue.Fprintf(c.out, "%s %s started\n", agentIcon(agent), agent.Title())

	if c.verbose && task != "" {
		dim := color.New(color.Faint)
		dim.Fprintf(c.out, "   %s\n", truncate(firstLine(task), 100))
	}
}

func (c *ConsoleProgress) ShowAgentDone(ctx context.Context, agent entity.AgentType, elapsed time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		red := color.New(color.FgRed)
		red.Fprintf(c.out, "❌ %s failed after %s: %s\n", agent.Title(), elapsed.Round(time.Second), truncate(err.Error(), 200))
		return
	}

	green := color.New(color.FgGreen)
	green.Fprintf(c.out, "✓ %s done in %s\n", agent.Title(), elapsed.Round(time.Second))
}

func (c *ConsoleProgress) ShowToolStart(ctx context.Context, agent entity.AgentType, toolName, arguments string) {
	if !c.verbose {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	icon, name := getToolDisplay(toolName)
	yellow := color.New(color.FgYellow)
	yellow.Fprintf(c.out, "   %s [%s] %s\n", icon, agent, name)

	if summary := formatToolArguments(toolName, arguments); summary != "" {
		dim := color.New(color.Faint)
		dim.Fprintf(c.out, "      %s\n", summary)
	}
}

func (c *ConsoleProgress) ShowToolResult(ctx context.Context, agent entity.AgentType, toolName, result string, isError bool) {
	if !c.verbose {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if isError {
		red := color.New(color.FgRed)
		red.Fprint(c.out, "      ❌ Error: ")

		dim := color.New(color.Faint)
		dim.Fprintln(c.out, truncate(result, 300))
		return
	}

	green := color.New(color.FgGreen)
	green.Fprintf(c.out, "      ✓ %s\n", formatToolResult(toolName, result))
}

// Println prints a plain status line.
func (c *ConsoleProgress) Println(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

func agentIcon(agent entity.AgentType) string {
	switch agent {
	case entity.AgentTypeCoordinator:
		return "🧭"
	case entity.AgentTypeArchitectureReviewer:
		return "🏗️"
	case entity.AgentTypeCostReviewer:
		return "💰"
	case entity.AgentTypeScopeReviewer:
		return "📋"
	case entity.AgentTypeComplianceReviewer:
		return "⚖️"
	case entity.AgentTypeSolutionArchitect:
		return "🎯"
	default:
		return "🤖"
	}
}

func getToolDisplay(toolName string) (string, string) {
	displays := map[string][2]string{
		string(entity.ToolExtractSection):       {"📑", "Extract section"},
		string(entity.ToolListSections):         {"🗂️", "List sections"},
		string(entity.ToolValidateArchitecture): {"🏗️", "Validate architecture"},
		string(entity.ToolValidateCost):         {"💲", "Validate cost section"},
		string(entity.ToolFetchCalculator):      {"🌐", "Fetch calculator estimate"},
		string(entity.ToolArchitectSkill):       {"🧠", "AWS Solution Architect skill"},
		string(entity.ToolRunAgent):             {"🤖", "Run agent"},
	}

	if display, ok := displays[toolName]; ok {
		return display[0], display[1]
	}
	if server, tool, ok := strings.Cut(toolName, "__"); ok {
		return "🔌", fmt.Sprintf("%s: %s", server, tool)
	}
	return "🔧", toolName
}

func formatToolArguments(toolName, arguments string) string {
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return ""
	}

	switch entity.ToolName(toolName) {
	case entity.ToolExtractSection:
		if name, ok := args["section_name"].(string); ok {
			return fmt.Sprintf("Section: %s", name)
		}

	case entity.ToolValidateArchitecture, entity.ToolValidateCost:
		if content, ok := args["content"].(string); ok && content != "" {
			return fmt.Sprintf("Content: %d chars", len(content))
		}
		return "Content: whole document"

	case entity.ToolFetchCalculator:
		if url, ok := args["calculator_url"].(string); ok {
			return fmt.Sprintf("URL: %s", truncate(url, 80))
		}

	case entity.ToolArchitectSkill:
		if task, ok := args["task"].(string); ok {
			return fmt.Sprintf("Task: %s", truncate(firstLine(task), 80))
		}

	case entity.ToolRunAgent:
		agentType, _ := args["agent_type"].(string)
		task, _ := args["task"].(string)
		return fmt.Sprintf("Agent: %s | Task: %s", entity.AgentType(agentType).Title(), truncate(firstLine(task), 60))
	}

	return ""
}

func formatToolResult(toolName, result string) string {
	switch entity.ToolName(toolName) {
	case entity.ToolExtractSection:
		if strings.HasPrefix(result, "Section") {
			return truncate(firstLine(result), 100)
		}
		return fmt.Sprintf("%d chars", len(result))

	case entity.ToolListSections:
		return fmt.Sprintf("%d headings", strings.Count(result, "\n")+1)

	case entity.ToolArchitectSkill, entity.ToolRunAgent:
		return truncate(firstLine(result), 150)
	}

	return truncate(firstLine(result), 100)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return entity.CutUTF8(s, maxLen) + "..."
}
