// Package guard rejects visitor input that looks like an attempt to steer
// the assistant away from its instructions.
package guard

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// RefusalText is typed back to the visitor when input is blocked.
const RefusalText = "Nice try. I only answer questions about this portfolio, and my instructions stay as they are."

// Guard is an immutable, compiled Policy. It is safe for concurrent use.
type Guard struct {
	version  string
	maxChars int
	terms    []string
	forcing  []*regexp.Regexp
	replace  []string
}

// New compiles p.
func New(p *Policy) (*Guard, error) {
	g := &Guard{
		version:  p.Version,
		maxChars: p.MaxInputChars,
		terms:    lowerAll(p.DenyTerms),
		replace:  lowerAll(p.ReplacePhrases),
	}
	for _, expr := range p.ForcingPatterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("guard: compile %q: %w", expr, err)
		}
		g.forcing = append(g.forcing, re)
	}
	return g, nil
}

// Default compiles the embedded policy.
func Default() (*Guard, error) {
	p, err := DefaultPolicy()
	if err != nil {
		return nil, err
	}
	return New(p)
}

// Version returns the policy version the guard was compiled from.
func (g *Guard) Version() string {
	return g.version
}

// Blocked reports whether text must not be sent to the completion provider.
func (g *Guard) Blocked(text string) bool {
	_, blocked := g.Check(text)
	return blocked
}

// Check is Blocked plus the name of the rule that matched.
func (g *Guard) Check(text string) (rule string, blocked bool) {
	if utf8.RuneCountInString(text) > g.maxChars {
		return "length", true
	}
	lower := strings.ToLower(text)
	for _, t := range g.terms {
		if strings.Contains(lower, t) {
			return "deny_term", true
		}
	}
	for _, re := range g.forcing {
		if re.MatchString(text) {
			return "forcing_pattern", true
		}
	}
	for _, p := range g.replace {
		if strings.Contains(lower, p) {
			return "replace_phrase", true
		}
	}
	return "", false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
