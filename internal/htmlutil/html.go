// SPDX-License-Identifier: MIT

// Package htmlutil provides helpers for extracting version, download and
// release-date information from scraped HTML documents.
package htmlutil

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/devKaos117/hekate/internal/version"
)

// Parse parses an HTML document from raw bytes.
func Parse(body []byte) (*html.Node, error) {
	return html.Parse(strings.NewReader(string(body)))
}

// Walk visits every node under root in document order. The visitor returns
// false to stop the walk.
func Walk(root *html.Node, visit func(*html.Node) bool) {
	var rec func(*html.Node) bool
	rec = func(n *html.Node) bool {
		if !visit(n) {
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !rec(c) {
				return false
			}
		}
		return true
	}
	if root != nil {
		rec(root)
	}
}

// AttrVal returns the value of the named attribute, or "".
func AttrVal(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether the node carries the given CSS class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(AttrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// ElementsByTag collects all elements with one of the given tag names.
func ElementsByTag(root *html.Node, names ...string) []*html.Node {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if _, ok := want[n.Data]; ok {
				out = append(out, n)
			}
		}
		return true
	})
	return out
}

// ElementsByClass collects all elements carrying the given CSS class.
func ElementsByClass(root *html.Node, class string) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && HasClass(n, class) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FirstByClass returns the first element carrying the given CSS class.
func FirstByClass(root *html.Node, class string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && HasClass(n, class) {
			found = n
			return false
		}
		return true
	})
	return found
}

// FirstByTagClass returns the first element with the tag name carrying the class.
func FirstByTagClass(root *html.Node, tag, class string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag && HasClass(n, class) {
			found = n
			return false
		}
		return true
	})
	return found
}

// Text concatenates all text content under n, space separated and trimmed.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var parts []string
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		}
		return true
	})
	return strings.Join(parts, " ")
}

var versionMetaNames = []string{
	"version",
	"application-version",
	"app-version",
	"software-version",
	"product-version",
}

// MetaVersion searches for version information in meta tags.
func MetaVersion(root *html.Node) string {
	for _, meta := range ElementsByTag(root, "meta") {
		name := AttrVal(meta, "name")
		for _, want := range versionMetaNames {
			if name == want {
				if content := AttrVal(meta, "content"); content != "" {
					return content
				}
			}
		}
	}
	return ""
}

// HeaderVersion looks for version information in page headers (h1-h3).
func HeaderVersion(root *html.Node) string {
	for _, h := range ElementsByTag(root, "h1", "h2", "h3") {
		if versions := version.Extract(Text(h)); len(versions) > 0 {
			return versions[0]
		}
	}
	return ""
}

// Keywords and file extensions that suggest a download link.
var (
	downloadKeywords = []string{
		"download", "get", "install", "setup",
		"binary", "executable", "latest", "stable",
	}
	downloadExtensions = []string{
		".exe", ".msi", ".dmg", ".pkg", ".rpm", ".deb",
		".zip", ".tar.gz", ".tar.xz", ".appimage",
	}
)

// Link is an anchor considered to point at a software download.
type Link struct {
	Text string
	URL  string
}

// DownloadLinks finds download links in the document. Relative hrefs are
// resolved against baseURL.
func DownloadLinks(root *html.Node, baseURL string) []Link {
	base, _ := url.Parse(baseURL)

	var links []Link
	for _, a := range ElementsByTag(root, "a") {
		href := AttrVal(a, "href")
		if href == "" || href == "#" || strings.HasPrefix(href, "javascript:") {
			continue
		}

		if parsed, err := url.Parse(href); err == nil && parsed.Host == "" && base != nil {
			href = base.ResolveReference(parsed).String()
		}

		text := strings.ToLower(Text(a))
		lowerHref := strings.ToLower(href)
		path := ""
		if parsed, err := url.Parse(href); err == nil {
			path = strings.ToLower(parsed.Path)
		}

		matched := false
		for _, kw := range downloadKeywords {
			if strings.Contains(text, kw) || strings.Contains(path, kw) {
				matched = true
				break
			}
		}
		if !matched {
			for _, ext := range downloadExtensions {
				if strings.HasSuffix(lowerHref, ext) {
					matched = true
					break
				}
			}
		}
		if matched {
			links = append(links, Link{Text: text, URL: href})
		}
	}
	return links
}

var releaseDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)released on (\w+ \d+,? \d{4})`),
	regexp.MustCompile(`(?i)release date:?\s*(\w+ \d+,? \d{4})`),
	regexp.MustCompile(`(?i)released:?\s*(\w+ \d+,? \d{4})`),
	regexp.MustCompile(`(?i)available since (\w+ \d+,? \d{4})`),
	regexp.MustCompile(`(?i)released (\d{1,2}/\d{1,2}/\d{2,4})`),
	regexp.MustCompile(`(?i)released (\d{4}-\d{2}-\d{2})`),
}

// ReleaseDate tries to extract a release date from the document: <time>
// elements first, then textual patterns.
func ReleaseDate(root *html.Node) string {
	for _, tn := range ElementsByTag(root, "time") {
		if dt := AttrVal(tn, "datetime"); dt != "" {
			return dt
		}
		if t := Text(tn); t != "" {
			return t
		}
	}

	text := Text(root)
	for _, p := range releaseDatePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// TextAround returns text fragments containing term, each padded with
// contextChars characters on both sides.
func TextAround(root *html.Node, term string, contextChars int) []string {
	text := Text(root)
	pattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(term))
	if err != nil {
		return nil
	}

	var fragments []string
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		start := loc[0] - contextChars
		if start < 0 {
			start = 0
		}
		end := loc[1] + contextChars
		if end > len(text) {
			end = len(text)
		}
		fragments = append(fragments, text[start:end])
	}
	return fragments
}
