// Package category maps a window to a usage category with ordered substring rules.
package category

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Other is the label used when no rule matches.
const Other = "Other"

// Rule matches when the lower-cased "title process" text contains any of Any.
// When Rules is non-empty the first matching sub-rule decides the category
// and Category is only the fallback.
type Rule struct {
	Name     string   `yaml:"name,omitempty"`
	Any      []string `yaml:"any"`
	Category string   `yaml:"category"`
	Rules    []Rule   `yaml:"rules,omitempty"`
}

func (r Rule) matches(text string) bool {
	for _, s := range r.Any {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

func (r Rule) resolve(text string) string {
	for _, sub := range r.Rules {
		if sub.matches(text) {
			return sub.resolve(text)
		}
	}
	return r.Category
}

// DefaultRules returns the built-in rule table. Order is significant.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "music", Any: []string{"spotify"}, Category: "Music"},
		{Name: "editor", Any: []string{"vscode", "code"}, Category: "Work"},
		{
			Name:     "browser",
			Any:      []string{"chrome", "brave"},
			Category: "Browsing",
			Rules: []Rule{
				{Name: "streaming", Any: []string{"youtube", "netflix"}, Category: "Entertainment"},
				{Name: "office", Any: []string{"docs", "chatgpt", "slack"}, Category: "Work"},
				{Name: "forges", Any: []string{"github", "gitlab", "bitbucket"}, Category: "Work"},
				{Name: "research", Any: []string{"research", "papers", "arxiv"}, Category: "Research"},
				{Name: "learning", Any: []string{"education", "learning", "courses"}, Category: "Education"},
			},
		},
		{Name: "games", Any: []string{"game"}, Category: "Gaming"},
		{Name: "chat", Any: []string{"whatsapp", "discord", "teams", "telegram"}, Category: "Chatting"},
	}
}

// Categorizer evaluates rules first-match-wins. It is immutable and safe
// for concurrent use.
type Categorizer struct {
	rules []Rule
}

// New returns a Categorizer over rules. Substrings are lower-cased so rule
// files may use any case.
func New(rules []Rule) *Categorizer {
	return &Categorizer{rules: normalize(rules)}
}

// Default returns a Categorizer over DefaultRules.
func Default() *Categorizer {
	return New(DefaultRules())
}

// Categorize returns the category for a window title and process name.
func (c *Categorizer) Categorize(title, processName string) string {
	text := strings.ToLower(title) + " " + strings.ToLower(processName)
	for _, r := range c.rules {
		if r.matches(text) {
			return r.resolve(text)
		}
	}
	return Other
}

// Rules returns a copy of the active rule table.
func (c *Categorizer) Rules() []Rule {
	return normalize(c.rules)
}

func normalize(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		subs := make([]string, len(r.Any))
		for j, s := range r.Any {
			subs[j] = strings.ToLower(s)
		}
		out[i] = Rule{Name: r.Name, Any: subs, Category: r.Category, Rules: normalize(r.Rules)}
	}
	return out
}

// Validate rejects rules that could never match or that have no category.
func Validate(rules []Rule) error {
	for i, r := range rules {
		label := r.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if len(r.Any) == 0 {
			return fmt.Errorf("rule %s: no match substrings", label)
		}
		for _, s := range r.Any {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("rule %s: empty match substring", label)
			}
		}
		if r.Category == "" {
			return fmt.Errorf("rule %s: missing category", label)
		}
		if err := Validate(r.Rules); err != nil {
			return fmt.Errorf("rule %s: %w", label, err)
		}
	}
	return nil
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule file. An empty path yields DefaultRules.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes a YAML rule document of the form `rules: [...]`.
func ParseRules(data []byte) ([]Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse category rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("category rules file defines no rules")
	}
	if err := Validate(f.Rules); err != nil {
		return nil, err
	}
	return f.Rules, nil
}
