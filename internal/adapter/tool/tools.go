package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/domain/sow"
)

var errNoDocument = errors.New("no document loaded")

var _ output.ActiveDocument = (*DocumentSource)(nil)

// DocumentSource holds the SOW under review; document tools read it when the
// model does not pass text explicitly.
type DocumentSource struct {
	mu  sync.RWMutex
	doc *entity.Document
}

func NewDocumentSource() *DocumentSource {
	return &DocumentSource{}
}

func (s *DocumentSource) Set(doc *entity.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
}

func (s *DocumentSource) Get() (*entity.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc, s.doc != nil
}

func (s *DocumentSource) content(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	doc, ok := s.Get()
	if !ok {
		return "", errNoDocument
	}
	return doc.Content, nil
}

func parseArgs(arguments string, v any) error {
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	if err := json.Unmarshal([]byte(arguments), v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type ExtractSectionTool struct {
	docs *DocumentSource
}

func NewExtractSectionTool(docs *DocumentSource) *ExtractSectionTool {
	return &ExtractSectionTool{docs: docs}
}

func (t *ExtractSectionTool) Name() entity.ToolName { return entity.ToolExtractSection }
func (t *ExtractSectionTool) Description() string {
	return "Extract one section of the SOW by heading name (case-insensitive substring match, e.g. 'Architecture', 'Cost', 'Timeline'). Returns the text up to the next heading. The SOW under review is used unless 'document' is given."
}
func (t *ExtractSectionTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"section_name": map[string]interface{}{
				"type":        "string",
				"description": "Heading text to look for",
			},
			"document": map[string]interface{}{
				"type":        "string",
				"description": "Optional markdown to search instead of the SOW under review",
			},
		},
		"required": []string{"section_name"},
	}
}

func (t *ExtractSectionTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		SectionName string `json:"section_name"`
		Document    string `json:"document"`
	}
	if err := parseArgs(args, &input); err != nil {
		return "", err
	}
	if strings.TrimSpace(input.SectionName) == "" {
		return "", errors.New("section_name is required")
	}

	content, err := t.docs.content(input.Document)
	if err != nil {
		return "", err
	}

	if section := sow.ExtractSection(content, input.SectionName); section != "" {
		return section, nil
	}

	outline := sow.FormatOutline(sow.Outline(content))
	if outline == "" {
		outline = "(document has no headings)"
	}
	return fmt.Sprintf("Section '%s' not found. Available sections:\n%s", input.SectionName, outline), nil
}

type ListSectionsTool struct {
	docs *DocumentSource
}

func NewListSectionsTool(docs *DocumentSource) *ListSectionsTool {
	return &ListSectionsTool{docs: docs}
}

func (t *ListSectionsTool) Name() entity.ToolName { return entity.ToolListSections }
func (t *ListSectionsTool) Description() string {
	return "List the headings of the SOW under review as an indented outline. Use it to find section names for extract_section."
}
func (t *ListSectionsTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *ListSectionsTool) Execute(ctx context.Context, args string) (string, error) {
	content, err := t.docs.content("")
	if err != nil {
		return "", err
	}
	outline := sow.FormatOutline(sow.Outline(content))
	if outline == "" {
		return "The document has no headings.", nil
	}
	return outline, nil
}

type ValidateArchitectureTool struct {
	docs *DocumentSource
}

func NewValidateArchitectureTool(docs *DocumentSource) *ValidateArchitectureTool {
	return &ValidateArchitectureTool{docs: docs}
}

func (t *ValidateArchitectureTool) Name() entity.ToolName { return entity.ToolValidateArchitecture }
func (t *ValidateArchitectureTool) Description() string {
	return "Check an architecture section for a diagram reference and component details. Without 'content' the SOW's architecture section (or the whole SOW) is checked. Returns JSON."
}
func (t *ValidateArchitectureTool) Parameters() map[string]interface{} {
	return contentParameters("Architecture section text")
}

func (t *ValidateArchitectureTool) Execute(ctx context.Context, args string) (string, error) {
	content, err := sectionContent(t.docs, args, "architecture")
	if err != nil {
		return "", err
	}
	return marshal(sow.ValidateArchitecture(content))
}

type ValidateCostTool struct {
	docs *DocumentSource
}

func NewValidateCostTool(docs *DocumentSource) *ValidateCostTool {
	return &ValidateCostTool{docs: docs}
}

func (t *ValidateCostTool) Name() entity.ToolName { return entity.ToolValidateCost }
func (t *ValidateCostTool) Description() string {
	return "Check a cost section for calculator references and cost estimates and extract AWS Pricing Calculator links. Without 'content' the SOW's cost section (or the whole SOW) is checked. Returns JSON."
}
func (t *ValidateCostTool) Parameters() map[string]interface{} {
	return contentParameters("Cost section text")
}

func (t *ValidateCostTool) Execute(ctx context.Context, args string) (string, error) {
	content, err := sectionContent(t.docs, args, "cost", "pricing")
	if err != nil {
		return "", err
	}
	return marshal(sow.ValidateCost(content))
}

func contentParameters(description string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": description + " (optional)",
			},
		},
	}
}

// sectionContent prefers explicit content, then the first matching section,
// then the whole document.
func sectionContent(docs *DocumentSource, args string, sections ...string) (string, error) {
	var input struct {
		Content string `json:"content"`
	}
	if err := parseArgs(args, &input); err != nil {
		return "", err
	}
	if strings.TrimSpace(input.Content) != "" {
		return input.Content, nil
	}

	content, err := docs.content("")
	if err != nil {
		return "", err
	}
	for _, name := range sections {
		if section := sow.ExtractSection(content, name); section != "" {
			return section, nil
		}
	}
	return content, nil
}

func marshal(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
