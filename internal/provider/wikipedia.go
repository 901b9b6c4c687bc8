// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/devKaos117/hekate/internal/htmlutil"
	"github.com/devKaos117/hekate/internal/httpx"
	"github.com/devKaos117/hekate/internal/version"
)

// WikipediaProvider finds software versions from the infobox of the
// software's Wikipedia article, located via the MediaWiki prefix search API.
type WikipediaProvider struct {
	client *httpx.Client
	logger zerolog.Logger
	langs  []string

	// baseURL builds the wiki root for a language, e.g.
	// "https://en.wikipedia.org". Overridable for tests.
	baseURL func(lang string) string
}

// NewWikipediaProvider creates a Wikipedia provider searching the given
// language editions in order (defaults to en, pt).
func NewWikipediaProvider(client *httpx.Client, logger zerolog.Logger, langs []string) *WikipediaProvider {
	if len(langs) == 0 {
		langs = []string{"en", "pt"}
	}
	return &WikipediaProvider{
		client: client,
		logger: logger.With().Str("provider", "wikipedia").Logger(),
		langs:  langs,
		baseURL: func(lang string) string {
			return fmt.Sprintf("https://%s.wikipedia.org", lang)
		},
	}
}

func (p *WikipediaProvider) Name() string { return "wikipedia" }

// CanHandle always returns true: any software may have an article.
func (p *WikipediaProvider) CanHandle(string) bool { return true }

// prefixSearchResponse is the subset of the MediaWiki query response we use.
type prefixSearchResponse struct {
	Query struct {
		Pages map[string]struct {
			PageID int    `json:"pageid"`
			Title  string `json:"title"`
		} `json:"pages"`
	} `json:"query"`
}

// Lookup locates the article via prefix search, fetches it by page ID and
// scans the infobox rows for the first version-looking string.
func (p *WikipediaProvider) Lookup(ctx context.Context, software string) (*Result, error) {
	for _, lang := range p.langs {
		result, err := p.lookupLang(ctx, lang, software)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn().Err(err).
				Str("software", software).
				Str("lang", lang).
				Msg("wikipedia lookup failed")
			continue
		}
		return result, nil
	}
	return nil, ErrNoVersion
}

func (p *WikipediaProvider) lookupLang(ctx context.Context, lang, software string) (*Result, error) {
	searchParams := url.Values{
		"action":       {"query"},
		"format":       {"json"},
		"generator":    {"prefixsearch"},
		"redirects":    {""},
		"gpssearch":    {software},
		"gpslimit":     {"1"},
		"gpsnamespace": {"0"},
	}

	resp, err := p.client.Get(ctx, p.baseURL(lang)+"/w/api.php", searchParams)
	if err != nil {
		return nil, fmt.Errorf("prefix search: %w", err)
	}

	var search prefixSearchResponse
	if err := resp.JSON(&search); err != nil {
		return nil, fmt.Errorf("decode prefix search: %w", err)
	}
	if len(search.Query.Pages) == 0 {
		return nil, ErrNoVersion
	}

	var pageID int
	for _, page := range search.Query.Pages {
		pageID = page.PageID
		break
	}

	pageResp, err := p.client.Get(ctx, p.baseURL(lang)+"/w/index.php", url.Values{
		"curid": {fmt.Sprintf("%d", pageID)},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}

	doc, err := htmlutil.Parse(pageResp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse article: %w", err)
	}

	infobox := htmlutil.FirstByTagClass(doc, "table", "infobox")
	if infobox == nil {
		return nil, ErrNoVersion
	}

	for _, row := range htmlutil.ElementsByTag(infobox, "tr") {
		if versions := version.Extract(htmlutil.Text(row)); len(versions) > 0 {
			return &Result{
				Software:      software,
				LatestVersion: versions[0],
				SourceURL:     pageResp.FinalURL,
				Method:        p.Name(),
			}, nil
		}
	}

	return nil, ErrNoVersion
}
