// Package skill loads SKILL.md guidance documents that back the solution architect skill agent.
package skill

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where a project-local skill overrides the bundled one.
const DefaultPath = ".agents/skills/aws-solution-architect/SKILL.md"

const bundledSource = "bundled"

//go:embed default/SKILL.md
var bundled string

type Skill struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// AllowedTools grants the skill agent tools by name. Most skills need none.
	AllowedTools []string `yaml:"-"`

	Content  string `yaml:"-"`
	Source   string `yaml:"-"`
	FilePath string `yaml:"-"`
}

type frontmatter struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	AllowedTools toolList `yaml:"allowed-tools"`
	// allowed_tools is accepted for files written before the hyphenated key.
	AllowedToolsAlt toolList `yaml:"allowed_tools"`
}

// toolList accepts a YAML sequence or a comma or space separated string.
type toolList []string

func (l *toolList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
	case yaml.ScalarNode:
		*l = strings.FieldsFunc(node.Value, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
	default:
		return fmt.Errorf("allowed-tools: expected a list or a string")
	}
	return nil
}

// Load reads the skill at path. An empty path tries DefaultPath and falls back
// to the bundled skill; an explicit path must exist.
func Load(path string) (*Skill, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Bundled()
		}
		return nil, fmt.Errorf("read skill %s: %w", path, err)
	}

	s, err := Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	s.Source = "file"
	s.FilePath = path

	return s, nil
}

func Bundled() (*Skill, error) {
	s, err := Parse(bundled)
	if err != nil {
		return nil, err
	}
	s.Source = bundledSource
	return s, nil
}

// Parse reads optional YAML frontmatter followed by markdown guidance.
func Parse(content string) (*Skill, error) {
	var s Skill

	trimmed := strings.TrimLeft(content, "\ufeff \t\r\n")
	if strings.HasPrefix(trimmed, "---") {
		parts := strings.SplitN(trimmed, "---", 3)
		if len(parts) < 3 {
			return nil, fmt.Errorf("invalid skill file: unterminated YAML frontmatter")
		}
		var fm frontmatter
		if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
			return nil, fmt.Errorf("failed to parse YAML frontmatter: %w", err)
		}
		s.Name = fm.Name
		s.Description = fm.Description
		s.AllowedTools = append([]string(fm.AllowedTools), fm.AllowedToolsAlt...)
		s.Content = strings.TrimSpace(parts[2])
	} else {
		s.Content = strings.TrimSpace(trimmed)
	}

	if s.Name == "" {
		s.Name = "aws-solution-architect"
	}
	if s.Content == "" {
		return nil, fmt.Errorf("skill %s has no guidance content", s.Name)
	}

	return &s, nil
}
