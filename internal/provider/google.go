// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/devKaos117/hekate/internal/htmlutil"
	"github.com/devKaos117/hekate/internal/httpx"
	"github.com/devKaos117/hekate/internal/version"
)

// CSS classes Google currently uses in its result markup. They rotate
// occasionally; when the scrape comes back empty these are the first thing
// to re-check.
const (
	googleResultClass   = "MjjYud"
	googleSnippetClass  = "VwiC3b"
	googleFeaturedClass = "hgKElc"
)

// GoogleProvider finds software versions by scraping Google search results
// for queries like "<software> latest version".
type GoogleProvider struct {
	client    *httpx.Client
	logger    zerolog.Logger
	searchURL string // override for tests
}

// NewGoogleProvider creates a Google search provider.
func NewGoogleProvider(client *httpx.Client, logger zerolog.Logger) *GoogleProvider {
	return &GoogleProvider{
		client:    client,
		logger:    logger.With().Str("provider", "google").Logger(),
		searchURL: "https://www.google.com/search",
	}
}

func (p *GoogleProvider) Name() string { return "google" }

// CanHandle always returns true: a web search works for any software name.
func (p *GoogleProvider) CanHandle(string) bool { return true }

// Lookup searches Google with several query phrasings and extracts version
// candidates from result titles, snippets and the featured snippet.
func (p *GoogleProvider) Lookup(ctx context.Context, software string) (*Result, error) {
	queries := []string{
		fmt.Sprintf("%s latest version", software),
		fmt.Sprintf("%s current version", software),
		fmt.Sprintf("%s changelog", software),
	}

	linkKeywords := []string{"download", "updates", "changelog", "release", strings.ToLower(software)}

	var versions []string
	var sourceURLs []string

	for _, query := range queries {
		resp, err := p.client.Get(ctx, p.searchURL, url.Values{"q": {query}})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn().Err(err).Str("software", software).Str("query", query).Msg("search request failed")
			continue
		}

		doc, err := htmlutil.Parse(resp.Body)
		if err != nil {
			p.logger.Warn().Err(err).Str("software", software).Msg("parsing search results failed")
			continue
		}

		for _, item := range htmlutil.ElementsByClass(doc, googleResultClass) {
			if titles := htmlutil.ElementsByTag(item, "h3"); len(titles) > 0 {
				versions = append(versions, version.Extract(htmlutil.Text(titles[0]))...)
			}
			if snippet := htmlutil.FirstByClass(item, googleSnippetClass); snippet != nil {
				versions = append(versions, version.Extract(htmlutil.Text(snippet))...)
			}

			// Only the first anchor of a result block is the result link;
			// later ones are sitelinks and ads.
			if anchors := htmlutil.ElementsByTag(item, "a"); len(anchors) > 0 {
				if href := htmlutil.AttrVal(anchors[0], "href"); href != "" {
					lower := strings.ToLower(href)
					for _, kw := range linkKeywords {
						if strings.Contains(lower, kw) {
							sourceURLs = append(sourceURLs, href)
							break
						}
					}
				}
			}
		}

		// The featured snippet often carries the exact latest version.
		if featured := htmlutil.FirstByClass(doc, googleFeaturedClass); featured != nil {
			versions = append(versions, version.Extract(htmlutil.Text(featured))...)
		}

		// When the result markup classes rotated away, fall back to scanning
		// the text around mentions of the software name.
		if len(versions) == 0 {
			for _, fragment := range htmlutil.TextAround(doc, software, 80) {
				versions = append(versions, version.Extract(fragment)...)
			}
		}
	}

	latest := version.Highest(versions)
	if latest == "" {
		return nil, ErrNoVersion
	}

	result := &Result{
		Software:      software,
		LatestVersion: latest,
		Method:        p.Name(),
	}
	if len(sourceURLs) > 0 {
		result.SourceURL = sourceURLs[0]
	}
	return result, nil
}
