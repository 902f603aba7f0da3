package guard

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

// Policy is the versioned data the guard is compiled from.
type Policy struct {
	Version         string   `yaml:"version"`
	MaxInputChars   int      `yaml:"max_input_chars"`
	DenyTerms       []string `yaml:"deny_terms"`
	ForcingPatterns []string `yaml:"forcing_patterns"`
	ReplacePhrases  []string `yaml:"replace_phrases"`
}

// DefaultPolicy returns the embedded policy.
func DefaultPolicy() (*Policy, error) {
	return ParsePolicy(defaultPolicy)
}

// LoadPolicy reads a policy file from path.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("guard: read %s: %w", path, err)
	}
	return ParsePolicy(data)
}

// ParsePolicy unmarshals YAML bytes into a validated Policy.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("guard: parse policy: %w", err)
	}
	if p.Version == "" {
		return nil, fmt.Errorf("guard: policy version is required")
	}
	if p.MaxInputChars <= 0 {
		return nil, fmt.Errorf("guard: max_input_chars must be positive")
	}
	return &p, nil
}
