package converter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanifm/pagedown/internal/fetcher"
	"github.com/hanifm/pagedown/internal/metadata"
	"github.com/hanifm/pagedown/pkg/retry"
	"github.com/hanifm/pagedown/pkg/timeutil"
)

func fastRetryParam() retry.RetryParam {
	return retry.RetryParam{
		Jitter:      0,
		RandomSeed:  1,
		MaxAttempts: 1,
		BackoffParam: timeutil.NewBackoffParam(
			time.Millisecond,
			2.0,
			5*time.Millisecond,
		),
	}
}

func newConverter(options Options) PageConverter {
	htmlFetcher := fetcher.NewHtmlFetcher(&metadata.NoopSink{})
	return NewPageConverter(
		&htmlFetcher,
		&metadata.NoopSink{},
		options,
		"pagedown-test/1.0",
		5*time.Second,
		fastRetryParam(),
	)
}

func defaultOptions() Options {
	return NewOptions("", true, true, false, false)
}

func testPageURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func TestConvertHTMLHeadingAndParagraph(t *testing.T) {
	conv := newConverter(defaultOptions())
	doc, err := conv.convertHTML(
		testPageURL(t, "https://docs.example.com/intro"),
		[]byte("<html><body><h1>Getting Started</h1><p>Welcome to the guide.</p></body></html>"),
	)

	require.NoError(t, err)
	assert.Equal(t, "Getting Started", doc.Title())
	assert.Contains(t, doc.Markdown(), "# Getting Started")
	assert.Contains(t, doc.Markdown(), "Welcome to the guide.")
}

func TestConvertHTMLNoTopHeadingYieldsEmptyTitle(t *testing.T) {
	conv := newConverter(defaultOptions())
	doc, err := conv.convertHTML(
		testPageURL(t, "https://docs.example.com/"),
		[]byte("<html><body><h2>Minor</h2><p>text</p></body></html>"),
	)

	require.NoError(t, err)
	assert.Empty(t, doc.Title())
}

func TestConvertHTMLCSSSelectorNarrowsContent(t *testing.T) {
	conv := newConverter(NewOptions("main", true, true, false, false))
	doc, err := conv.convertHTML(
		testPageURL(t, "https://docs.example.com/"),
		[]byte(`<html><body>
			<nav><a href="/elsewhere">Site nav</a></nav>
			<main><h1>Doc</h1><p>Body text.</p></main>
			<footer>Copyright</footer>
		</body></html>`),
	)

	require.NoError(t, err)
	assert.Contains(t, doc.Markdown(), "Body text.")
	assert.NotContains(t, doc.Markdown(), "Site nav")
	assert.NotContains(t, doc.Markdown(), "Copyright")
}

func TestConvertHTMLSelectorWithoutMatchKeepsWholeDocument(t *testing.T) {
	conv := newConverter(NewOptions("main", true, true, false, false))
	doc, err := conv.convertHTML(
		testPageURL(t, "https://docs.example.com/"),
		[]byte("<html><body><p>Only body content.</p></body></html>"),
	)

	require.NoError(t, err)
	assert.Contains(t, doc.Markdown(), "Only body content.")
}

func TestConvertHTMLInvalidSelectorFails(t *testing.T) {
	conv := newConverter(NewOptions("div(", true, true, false, false))
	_, err := conv.convertHTML(
		testPageURL(t, "https://docs.example.com/"),
		[]byte("<html><body><p>text</p></body></html>"),
	)

	require.Error(t, err)
	conversionErr, ok := err.(*ConversionError)
	require.True(t, ok)
	assert.Equal(t, ErrCauseInvalidSelector, conversionErr.Cause)
}

func TestConvertHTMLStripLinksKeepsText(t *testing.T) {
	conv := newConverter(NewOptions("", false, true, false, false))
	doc, err := conv.convertHTML(
		testPageURL(t, "https://docs.example.com/"),
		[]byte(`<html><body><p>See the <a href="/guide">full guide</a> for details.</p></body></html>`),
	)

	require.NoError(t, err)
	assert.Contains(t, doc.Markdown(), "full guide")
	assert.NotContains(t, doc.Markdown(), "](/guide)")
}

func TestConvertHTMLStripImages(t *testing.T) {
	conv := newConverter(NewOptions("", true, false, false, false))
	doc, err := conv.convertHTML(
		testPageURL(t, "https://docs.example.com/"),
		[]byte(`<html><body><p>Before.</p><img src="/diagram.png" alt="diagram"><p>After.</p></body></html>`),
	)

	require.NoError(t, err)
	assert.NotContains(t, doc.Markdown(), "diagram.png")
	assert.Contains(t, doc.Markdown(), "Before.")
	assert.Contains(t, doc.Markdown(), "After.")
}

func TestConvertHTMLRemovesZeroWidthCharacters(t *testing.T) {
	conv := newConverter(defaultOptions())
	doc, err := conv.convertHTML(
		testPageURL(t, "https://docs.example.com/"),
		[]byte("<html><body><p>zero​width\uFEFFgone</p></body></html>"),
	)

	require.NoError(t, err)
	assert.Contains(t, doc.Markdown(), "zerowidthgone")
}

func TestConvertHTMLCompactOutputCollapsesBlankRuns(t *testing.T) {
	conv := newConverter(NewOptions("", true, true, false, true))
	doc, err := conv.convertHTML(
		testPageURL(t, "https://docs.example.com/"),
		[]byte("<html><body><h1>A</h1><div></div><div></div><p>B</p></body></html>"),
	)

	require.NoError(t, err)
	assert.NotContains(t, doc.Markdown(), "\n\n\n")
}

func TestConvertHTMLTableOfContents(t *testing.T) {
	conv := newConverter(NewOptions("", true, true, true, false))
	doc, err := conv.convertHTML(
		testPageURL(t, "https://docs.example.com/"),
		[]byte(`<html><body>
			<h1>User Guide</h1><p>intro</p>
			<h2>Install</h2><p>how</p>
			<h2>Install</h2><p>again</p>
		</body></html>`),
	)

	require.NoError(t, err)
	md := doc.Markdown()
	assert.True(t, strings.HasPrefix(md, "# Table of Contents"))
	assert.Contains(t, md, "- [User Guide](#user-guide)")
	assert.Contains(t, md, "  - [Install](#install)")
	assert.Contains(t, md, "  - [Install](#install-2)")
}

func TestPrependTOCWithoutHeadingsIsIdentity(t *testing.T) {
	assert.Equal(t, "plain text\n", prependTOC("plain text\n"))
}

func TestHeadingSlug(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Getting Started", "getting-started"},
		{"API & Reference", "api--reference"},
		{"What's New?", "whats-new"},
		{"snake_case_term", "snake_case_term"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, headingSlug(tt.text), tt.text)
	}
}

func TestConvertFetchesAndConverts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><h1>Remote</h1><p>fetched</p></body></html>"))
	}))
	defer server.Close()

	conv := newConverter(defaultOptions())
	doc, err := conv.Convert(context.Background(), testPageURL(t, server.URL), 0)

	require.Nil(t, err)
	assert.Equal(t, "Remote", doc.Title())
	assert.Contains(t, doc.Markdown(), "fetched")
}

func TestConvertFetchFailureIsTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	conv := newConverter(defaultOptions())
	_, err := conv.Convert(context.Background(), testPageURL(t, server.URL), 0)

	require.NotNil(t, err)
	conversionErr, ok := err.(*ConversionError)
	require.True(t, ok)
	assert.Equal(t, ErrCauseFetchFailure, conversionErr.Cause)
}
