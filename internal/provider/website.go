// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/devKaos117/hekate/internal/htmlutil"
	"github.com/devKaos117/hekate/internal/httpx"
	"github.com/devKaos117/hekate/internal/version"
)

// WebsiteRule describes how to extract version information from one vendor
// page. VersionClass selects an element by CSS class; VersionRegex either
// refines that element's text or, when no class is set, scans the whole page.
type WebsiteRule struct {
	URL           string `yaml:"url"`
	VersionClass  string `yaml:"version_class,omitempty"`
	VersionRegex  string `yaml:"version_regex,omitempty"`
	DownloadClass string `yaml:"download_class,omitempty"`
}

// DefaultWebsiteRules covers the vendor pages known out of the box.
func DefaultWebsiteRules() map[string]WebsiteRule {
	return map[string]WebsiteRule{
		"firefox": {
			URL:           "https://www.mozilla.org/en-US/firefox/new/",
			VersionClass:  "c-release-version",
			DownloadClass: "download-link",
		},
		"chrome": {
			URL:          "https://www.google.com/chrome/",
			VersionRegex: `Chrome\s+(\d+\.\d+\.\d+\.\d+)`,
		},
		"vlc": {
			URL:          "https://www.videolan.org/vlc/",
			VersionClass: "get-vlc-release",
		},
		"vmware": {
			URL:          "https://www.vmware.com/products/workstation-pro.html",
			VersionRegex: `VMware Workstation (\d+\.?\d*)`,
		},
		"visual studio code": {
			URL:          "https://code.visualstudio.com/updates",
			VersionClass: "release",
		},
		"nodejs": {
			URL:          "https://nodejs.org/en/",
			VersionClass: "home-downloadbutton",
		},
		"python": {
			URL:          "https://www.python.org/downloads/",
			VersionClass: "download-for-current-os",
			VersionRegex: `Python\s+(\d+\.\d+\.\d+)`,
		},
	}
}

// DefaultAliases maps common alternative names onto rule keys.
func DefaultAliases() map[string]string {
	return map[string]string{
		"vs code":                "visual studio code",
		"vscode":                 "visual studio code",
		"chrome browser":         "chrome",
		"google chrome":          "chrome",
		"mozilla firefox":        "firefox",
		"vmware workstation":     "vmware",
		"vmware workstation pro": "vmware",
		"node.js":                "nodejs",
		"node":                   "nodejs",
	}
}

// WebsiteProvider checks official vendor pages for software versions using
// a per-site rule table. The tables can be swapped at runtime when the rules
// file is reloaded.
type WebsiteProvider struct {
	client *httpx.Client
	logger zerolog.Logger

	mu      sync.RWMutex
	rules   map[string]WebsiteRule
	aliases map[string]string
}

// NewWebsiteProvider creates a vendor-page provider. Nil rules or aliases
// fall back to the built-in tables.
func NewWebsiteProvider(client *httpx.Client, logger zerolog.Logger, rules map[string]WebsiteRule, aliases map[string]string) *WebsiteProvider {
	if rules == nil {
		rules = DefaultWebsiteRules()
	}
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &WebsiteProvider{
		client:  client,
		logger:  logger.With().Str("provider", "website").Logger(),
		rules:   rules,
		aliases: aliases,
	}
}

func (p *WebsiteProvider) Name() string { return "website" }

// UpdateRules atomically replaces the rule and alias tables. Nil arguments
// leave the corresponding table untouched.
func (p *WebsiteProvider) UpdateRules(rules map[string]WebsiteRule, aliases map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rules != nil {
		p.rules = rules
	}
	if aliases != nil {
		p.aliases = aliases
	}
}

// CanHandle reports whether the software (or an alias of it) has a rule.
func (p *WebsiteProvider) CanHandle(software string) bool {
	_, ok := p.lookupRule(software)
	return ok
}

// Known lists the rule keys, for the providers API endpoint.
func (p *WebsiteProvider) Known() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.rules))
	for name := range p.rules {
		out = append(out, name)
	}
	return out
}

func (p *WebsiteProvider) lookupRule(software string) (WebsiteRule, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	name := strings.ToLower(strings.TrimSpace(software))
	if canonical, ok := p.aliases[name]; ok {
		name = canonical
	}
	rule, ok := p.rules[name]
	return rule, ok
}

// Lookup fetches the vendor page configured for the software and applies
// the rule's class selector and/or regex.
func (p *WebsiteProvider) Lookup(ctx context.Context, software string) (*Result, error) {
	rule, ok := p.lookupRule(software)
	if !ok {
		return nil, ErrNoVersion
	}

	resp, err := p.client.Get(ctx, rule.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rule.URL, err)
	}

	doc, err := htmlutil.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rule.URL, err)
	}

	var latest string
	switch {
	case rule.VersionClass != "":
		element := htmlutil.FirstByClass(doc, rule.VersionClass)
		if element == nil {
			break
		}
		text := htmlutil.Text(element)
		if rule.VersionRegex != "" {
			latest = p.applyRegex(rule.VersionRegex, text)
		} else if versions := version.Extract(text); len(versions) > 0 {
			latest = versions[0]
		}
	case rule.VersionRegex != "":
		latest = p.applyRegex(rule.VersionRegex, string(resp.Body))
	}

	// Fall back to generic page signals when the rule came up empty.
	if latest == "" {
		latest = htmlutil.MetaVersion(doc)
	}
	if latest == "" {
		latest = htmlutil.HeaderVersion(doc)
	}
	if latest == "" {
		return nil, ErrNoVersion
	}

	result := &Result{
		Software:      software,
		LatestVersion: latest,
		SourceURL:     rule.URL,
		Method:        p.Name(),
	}

	if rule.DownloadClass != "" {
		if a := htmlutil.FirstByTagClass(doc, "a", rule.DownloadClass); a != nil {
			if links := htmlutil.DownloadLinks(a.Parent, rule.URL); len(links) > 0 {
				result.DownloadURL = links[0].URL
			} else if href := htmlutil.AttrVal(a, "href"); href != "" {
				result.DownloadURL = href
			}
		}
	}
	if date := htmlutil.ReleaseDate(doc); date != "" {
		result.ReleaseDate = date
	}

	return result, nil
}

func (p *WebsiteProvider) applyRegex(pattern, text string) string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		p.logger.Warn().Err(err).Str("pattern", pattern).Msg("invalid version regex in rule")
		return ""
	}
	if m := re.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return ""
}
