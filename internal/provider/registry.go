// SPDX-License-Identifier: MIT

package provider

import (
	"github.com/rs/zerolog"

	"github.com/devKaos117/hekate/internal/httpx"
)

// RegistryConfig selects and configures the lookup strategies.
type RegistryConfig struct {
	// Methods lists provider names in lookup priority order.
	Methods []string
	// WikipediaLangs are the language editions the wikipedia provider
	// searches, in order.
	WikipediaLangs []string
	// WebsiteRules overrides or extends the built-in vendor rule table.
	WebsiteRules map[string]WebsiteRule
	// Aliases overrides the built-in alias table.
	Aliases map[string]string
}

// DefaultMethods is the stock provider order.
var DefaultMethods = []string{"website", "wikipedia", "google"}

// Build constructs the configured providers in order. Unknown method names
// are skipped with a warning so a stale config does not take the whole
// service down.
func Build(cfg RegistryConfig, client *httpx.Client, logger zerolog.Logger) []Provider {
	methods := cfg.Methods
	if len(methods) == 0 {
		methods = DefaultMethods
	}

	rules := cfg.WebsiteRules
	if rules == nil {
		rules = DefaultWebsiteRules()
	}

	providers := make([]Provider, 0, len(methods))
	for _, name := range methods {
		switch name {
		case "website":
			providers = append(providers, NewWebsiteProvider(client, logger, rules, cfg.Aliases))
		case "wikipedia":
			providers = append(providers, NewWikipediaProvider(client, logger, cfg.WikipediaLangs))
		case "google":
			providers = append(providers, NewGoogleProvider(client, logger))
		default:
			logger.Warn().Str("method", name).Msg("unknown lookup method in config, skipping")
		}
	}
	return providers
}
