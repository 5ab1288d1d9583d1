package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadApp loads and validates the application configuration.
func LoadApp(path string) (*App, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var app App
	if err := yaml.Unmarshal(raw, &app); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	app.applyDefaults()
	if err := app.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &app, nil
}

// LoadRules loads the per-country rules. Inactive countries are kept in the
// result; callers filter with ActiveRules.
func LoadRules(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}

	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("rules %s: no countries defined", path)
	}

	seen := make(map[string]bool, len(doc.Rules))
	for i := range doc.Rules {
		if err := doc.Rules[i].validate(); err != nil {
			return nil, fmt.Errorf("invalid rules %s: %w", path, err)
		}
		if seen[doc.Rules[i].Country] {
			return nil, fmt.Errorf("rules %s: duplicate country %s", path, doc.Rules[i].Country)
		}
		seen[doc.Rules[i].Country] = true
	}
	return doc.Rules, nil
}

// ActiveRules filters rules down to active countries, preserving order.
func ActiveRules(rules []Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}
