package sow

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	calculatorLinkRe = regexp.MustCompile(`https?://calculator\.aws[^\s\)]+`)
	estimatePathRe   = regexp.MustCompile(`/estimate/([a-zA-Z0-9]+)`)
	estimateQueryRe  = regexp.MustCompile(`[?&]id=([a-zA-Z0-9]+)`)
	scoreRe          = regexp.MustCompile(`(?i)score\**\s*:?\**\s*(\d+(?:\.\d+)?)\s*/\s*(\d+(?:\.\d+)?)`)
)

type ArchitectureCheck struct {
	HasDiagram    bool     `json:"has_diagram"`
	HasComponents bool     `json:"has_components"`
	Valid         bool     `json:"valid"`
	Issues        []string `json:"issues"`
}

type CostCheck struct {
	HasCalculatorRef bool     `json:"has_calculator_ref"`
	HasEstimates     bool     `json:"has_estimates"`
	CalculatorLinks  []string `json:"calculator_links"`
	Valid            bool     `json:"valid"`
	Issues           []string `json:"issues"`
}

func ValidateArchitecture(content string) ArchitectureCheck {
	lower := strings.ToLower(content)

	check := ArchitectureCheck{
		HasDiagram:    containsAny(lower, "diagram", "architecture", "figure", "!["),
		HasComponents: containsAny(lower, "component", "service", "layer", "tier"),
		Issues:        []string{},
	}
	check.Valid = check.HasDiagram && check.HasComponents
	if !check.Valid {
		check.Issues = append(check.Issues, "Missing architecture diagram or component details")
	}
	return check
}

func ValidateCost(content string) CostCheck {
	lower := strings.ToLower(content)

	check := CostCheck{
		HasCalculatorRef: containsAny(lower, "calculator", "pricing"),
		HasEstimates:     strings.ContainsAny(content, "$€£") || strings.Contains(lower, "cost"),
		CalculatorLinks:  CalculatorLinks(content),
		Issues:           []string{},
	}
	check.Valid = check.HasCalculatorRef && check.HasEstimates
	if !check.Valid {
		check.Issues = append(check.Issues, "Missing cost calculator reference or estimates")
	}
	return check
}

// CalculatorLinks finds AWS Pricing Calculator URLs in content.
func CalculatorLinks(content string) []string {
	links := calculatorLinkRe.FindAllString(content, -1)
	if links == nil {
		return []string{}
	}
	return links
}

// EstimateID extracts the estimate identifier from an AWS Pricing Calculator
// link. Only https links on calculator.aws (or a subdomain) qualify. Both the
// path form (/estimate/<id>) and the share form (#/estimate?id=<id>) are accepted.
func EstimateID(link string) (string, bool) {
	if !IsCalculatorURL(link) {
		return "", false
	}
	if m := estimatePathRe.FindStringSubmatch(link); m != nil {
		return m[1], true
	}
	if m := estimateQueryRe.FindStringSubmatch(link); m != nil {
		return m[1], true
	}
	return "", false
}

// IsCalculatorURL reports whether link is an https URL on calculator.aws.
func IsCalculatorURL(link string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Scheme != "https" || u.User != nil {
		return false
	}
	if port := u.Port(); port != "" && port != "443" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "calculator.aws" || strings.HasSuffix(host, ".calculator.aws")
}

// ParseScore returns the last "Score: X/Y" found in text.
func ParseScore(text string) (value, max float64, ok bool) {
	matches := scoreRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, 0, false
	}
	last := matches[len(matches)-1]

	value, err := strconv.ParseFloat(last[1], 64)
	if err != nil {
		return 0, 0, false
	}
	max, err = strconv.ParseFloat(last[2], 64)
	if err != nil || max == 0 || value > max {
		return 0, 0, false
	}
	return value, max, true
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
