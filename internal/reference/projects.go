// Package reference provides the owner-supplied text the assistant answers
// from: the project list and the résumé.
package reference

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed projects.yaml
var defaultProjects []byte

// Project is one showcase entry.
type Project struct {
	Name     string   `yaml:"name" json:"name"`
	Category string   `yaml:"category" json:"category"`
	Skills   []string `yaml:"skills" json:"skills"`
}

// DefaultProjects returns the embedded project list.
func DefaultProjects() ([]Project, error) {
	return ParseProjects(defaultProjects)
}

// LoadProjects reads a project list from a YAML file.
func LoadProjects(path string) ([]Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reference: read %s: %w", path, err)
	}
	return ParseProjects(data)
}

func ParseProjects(data []byte) ([]Project, error) {
	var projects []Project
	if err := yaml.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("reference: parse projects: %w", err)
	}
	for i, p := range projects {
		if p.Name == "" {
			return nil, fmt.Errorf("reference: projects[%d].name is required", i)
		}
	}
	return projects, nil
}

// ProjectsText serializes projects as one plain-text line each.
func ProjectsText(projects []Project) string {
	var b strings.Builder
	for _, p := range projects {
		fmt.Fprintf(&b, "- %s (%s)", p.Name, p.Category)
		if len(p.Skills) > 0 {
			b.WriteString(": ")
			b.WriteString(strings.Join(p.Skills, ", "))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
