package tool

import (
	"context"
	"fmt"
	"strings"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/domain/sow"
)

const excerptLen = 1500

type FetchCalculatorTool struct {
	fetcher output.WebFetcher
	logger  output.LoggerPort
}

func NewFetchCalculatorTool(fetcher output.WebFetcher, logger output.LoggerPort) *FetchCalculatorTool {
	return &FetchCalculatorTool{fetcher: fetcher, logger: logger}
}

func (t *FetchCalculatorTool) Name() entity.ToolName { return entity.ToolFetchCalculator }
func (t *FetchCalculatorTool) Description() string {
	return "Fetch an AWS Pricing Calculator estimate link from the SOW. Returns the estimate ID, whether the link is reachable and the visible page text. Use the calculator links reported by validate_cost_section."
}
func (t *FetchCalculatorTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"calculator_url": map[string]interface{}{
				"type":        "string",
				"description": "AWS Pricing Calculator URL, e.g. https://calculator.aws/#/estimate?id=abc123",
			},
		},
		"required": []string{"calculator_url"},
	}
}

func (t *FetchCalculatorTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		CalculatorURL string `json:"calculator_url"`
	}
	if err := parseArgs(args, &input); err != nil {
		return "", err
	}

	input.CalculatorURL = strings.TrimSpace(input.CalculatorURL)
	id, ok := sow.EstimateID(input.CalculatorURL)
	if !ok {
		return "Invalid calculator URL format", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Calculator estimate ID: %s\n", id)
	fmt.Fprintf(&b, "URL: %s\n", input.CalculatorURL)

	page, err := t.fetcher.Fetch(ctx, input.CalculatorURL)
	switch {
	case err != nil && page == nil:
		t.logger.Warn("Calculator fetch failed", "url", input.CalculatorURL, "error", err)
		fmt.Fprintf(&b, "Reachable: no (%v)\n", err)
	case err != nil:
		fmt.Fprintf(&b, "Reachable: no (HTTP %d)\n", page.StatusCode)
	default:
		fmt.Fprintf(&b, "Reachable: yes (HTTP %d)\n", page.StatusCode)
		if page.Title != "" {
			fmt.Fprintf(&b, "Page title: %s\n", page.Title)
		}
		if text := strings.TrimSpace(page.Text); text != "" {
			if len(text) > excerptLen {
				text = entity.CutUTF8(text, excerptLen) + "..."
			}
			fmt.Fprintf(&b, "Page text:\n%s\n", text)
		}
	}

	b.WriteString("The calculator renders estimate details client-side. Validate the listed services and costs with the pricing tools or the SOW's cost breakdown.")
	return b.String(), nil
}
