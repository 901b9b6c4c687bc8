// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/devKaos117/hekate/internal/provider"
)

// RulesFile is the on-disk format for website lookup rules. File entries
// extend and override the built-in tables.
type RulesFile struct {
	Rules   map[string]provider.WebsiteRule `yaml:"rules"`
	Aliases map[string]string               `yaml:"aliases"`
}

// LoadRules reads a rules file and merges it over the built-in rule and
// alias tables.
func LoadRules(path string) (map[string]provider.WebsiteRule, map[string]string, error) {
	rules := provider.DefaultWebsiteRules()
	aliases := provider.DefaultAliases()

	if path == "" {
		return rules, aliases, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read rules file: %w", err)
	}

	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	for name, rule := range file.Rules {
		if rule.URL == "" {
			return nil, nil, fmt.Errorf("rule %q in %s has no url", name, path)
		}
		rules[name] = rule
	}
	for alias, canonical := range file.Aliases {
		aliases[alias] = canonical
	}

	return rules, aliases, nil
}
