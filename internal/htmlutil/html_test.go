// SPDX-License-Identifier: MIT

package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func mustParse(t *testing.T, doc string) *html.Node {
	t.Helper()
	root, err := Parse([]byte(doc))
	require.NoError(t, err)
	return root
}

func TestMetaVersion(t *testing.T) {
	root := mustParse(t, `<html><head>
		<meta name="description" content="some page">
		<meta name="application-version" content="4.2.1">
	</head><body></body></html>`)

	assert.Equal(t, "4.2.1", MetaVersion(root))
}

func TestMetaVersionAbsent(t *testing.T) {
	root := mustParse(t, `<html><head><meta name="author" content="x"></head></html>`)
	assert.Equal(t, "", MetaVersion(root))
}

func TestHeaderVersion(t *testing.T) {
	root := mustParse(t, `<html><body>
		<h1>Great Software</h1>
		<h2>Release 7.1.0 notes</h2>
	</body></html>`)

	assert.Equal(t, "7.1.0", HeaderVersion(root))
}

func TestFirstByClassAndText(t *testing.T) {
	root := mustParse(t, `<html><body>
		<div class="release header">
			<span class="c-release-version">128.0.2</span>
		</div>
	</body></html>`)

	n := FirstByClass(root, "c-release-version")
	require.NotNil(t, n)
	assert.Equal(t, "128.0.2", Text(n))

	assert.Nil(t, FirstByClass(root, "missing"))
}

func TestElementsByClass(t *testing.T) {
	root := mustParse(t, `<html><body>
		<div class="result">one</div>
		<div class="result highlighted">two</div>
		<div class="other">three</div>
	</body></html>`)

	assert.Len(t, ElementsByClass(root, "result"), 2)
}

func TestDownloadLinks(t *testing.T) {
	root := mustParse(t, `<html><body>
		<a href="/releases/app-1.2.3.tar.gz">app-1.2.3.tar.gz</a>
		<a href="https://example.com/download">Download now</a>
		<a href="#">anchor</a>
		<a href="javascript:void(0)">js</a>
		<a href="/about">About us</a>
	</body></html>`)

	links := DownloadLinks(root, "https://example.com/page")
	require.Len(t, links, 2)
	assert.Equal(t, "https://example.com/releases/app-1.2.3.tar.gz", links[0].URL)
	assert.Equal(t, "https://example.com/download", links[1].URL)
}

func TestReleaseDateFromTimeTag(t *testing.T) {
	root := mustParse(t, `<html><body>
		<time datetime="2026-06-10">June 10, 2026</time>
	</body></html>`)

	assert.Equal(t, "2026-06-10", ReleaseDate(root))
}

func TestReleaseDateFromText(t *testing.T) {
	root := mustParse(t, `<html><body>
		<p>Version 2.0 was released on June 10, 2026 for all platforms.</p>
	</body></html>`)

	assert.Equal(t, "June 10, 2026", ReleaseDate(root))
}

func TestTextAround(t *testing.T) {
	root := mustParse(t, `<html><body><p>The latest version 3.1 shipped recently.</p></body></html>`)

	frags := TextAround(root, "version", 10)
	require.Len(t, frags, 1)
	assert.Contains(t, frags[0], "version 3.1")
}
