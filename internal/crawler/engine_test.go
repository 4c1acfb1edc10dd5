package crawler_test

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanifm/pagedown/internal/config"
	"github.com/hanifm/pagedown/internal/converter"
	"github.com/hanifm/pagedown/internal/crawler"
	"github.com/hanifm/pagedown/internal/fetcher"
	"github.com/hanifm/pagedown/internal/metadata"
	"github.com/hanifm/pagedown/internal/scope"
	"github.com/hanifm/pagedown/internal/sitemap"
	"github.com/hanifm/pagedown/internal/storage"
	"github.com/hanifm/pagedown/pkg/failure"
	"github.com/hanifm/pagedown/pkg/limiter"
	"github.com/hanifm/pagedown/pkg/retry"
)

// stubConverter returns a canned document per URL, or the configured
// failure. It records every URL it was asked to convert.
type stubConverter struct {
	failures map[string]failure.ClassifiedError
	calls    []string
}

func (s *stubConverter) Convert(
	_ context.Context,
	pageUrl url.URL,
	_ int,
) (converter.Document, failure.ClassifiedError) {
	key := pageUrl.String()
	s.calls = append(s.calls, key)
	if err, ok := s.failures[key]; ok {
		return converter.Document{}, err
	}
	return converter.NewDocument(pageUrl, "Page "+pageUrl.Path, "# Page "+pageUrl.Path+"\n\nBody."), nil
}

// stubFetcher serves static HTML bodies for link discovery.
type stubFetcher struct {
	pages map[string]string
}

func (s *stubFetcher) Fetch(
	_ context.Context,
	_ int,
	fetchParam fetcher.FetchParam,
	_ retry.RetryParam,
) (fetcher.FetchResult, failure.ClassifiedError) {
	fetchUrl := fetchParam.FetchURL()
	body, ok := s.pages[fetchUrl.String()]
	if !ok {
		return fetcher.FetchResult{}, &fetcher.FetchError{
			Message:   "no route to " + fetchUrl.String(),
			Retryable: false,
			Cause:     fetcher.ErrCauseNetworkFailure,
		}
	}
	meta := fetcher.NewResponseMeta(200, uint64(len(body)), map[string]string{
		"Content-Type": "text/html; charset=utf-8",
	})
	return fetcher.NewFetchResult(fetchUrl, []byte(body), meta), nil
}

type stubParser struct {
	urls []string
	err  failure.ClassifiedError
}

func (s *stubParser) Parse(_ context.Context, _ string) ([]string, failure.ClassifiedError) {
	if s.err != nil {
		return nil, s.err
	}
	return s.urls, nil
}

// stubSink captures writes in memory instead of touching the filesystem.
type stubSink struct {
	written map[string][]byte
	kinds   map[string]metadata.ArtifactKind
}

func newStubSink() *stubSink {
	return &stubSink{
		written: make(map[string][]byte),
		kinds:   make(map[string]metadata.ArtifactKind),
	}
}

func (s *stubSink) Write(
	fullPath string,
	content []byte,
	kind metadata.ArtifactKind,
	_ string,
) (string, failure.ClassifiedError) {
	s.written[fullPath] = content
	s.kinds[fullPath] = kind
	return "stubhash", nil
}

func baseConfig(outputDir string) *config.Config {
	seed, _ := url.Parse("https://docs.example.com/")
	return config.WithDefault([]url.URL{*seed}).
		WithDelay(0).
		WithRandomSeed(1).
		WithVerbose(false).
		WithOutputDir(outputDir)
}

func newTestEngine(
	cfg config.Config,
	conv converter.Converter,
	f fetcher.Fetcher,
	parser sitemap.Parser,
	sink storage.Sink,
) crawler.Engine {
	noop := &metadata.NoopSink{}
	return crawler.NewEngineWithDeps(
		cfg,
		noop,
		noop,
		conv,
		f,
		parser,
		sink,
		storage.NewManifestWriter(noop),
		limiter.NewPacer(0, 0, 1),
	)
}

func pageURLs(result storage.CrawlResult) []string {
	urls := make([]string, 0, len(result.Pages()))
	for _, page := range result.Pages() {
		urls = append(urls, page.URL())
	}
	return urls
}

func TestCrawlFollowsLinksWithinDepthBound(t *testing.T) {
	cfg, err := baseConfig(t.TempDir()).WithMaxDepth(1).Build()
	require.NoError(t, err)

	conv := &stubConverter{}
	fetch := &stubFetcher{pages: map[string]string{
		"https://docs.example.com/":       `<a href="/level1">next</a>`,
		"https://docs.example.com/level1": `<a href="/level2">deeper</a>`,
	}}
	engine := newTestEngine(cfg, conv, fetch, &stubParser{}, newStubSink())

	result, crawlErr := engine.Crawl(context.Background())
	require.Nil(t, crawlErr)

	assert.Equal(t, []string{
		"https://docs.example.com/",
		"https://docs.example.com/level1",
	}, pageURLs(result))
	assert.Equal(t, 2, result.SuccessfulCount())
	assert.NotContains(t, conv.calls, "https://docs.example.com/level2")
}

func TestCrawlStopsAtMaxPages(t *testing.T) {
	cfg, err := baseConfig(t.TempDir()).WithMaxDepth(3).WithMaxPages(2).Build()
	require.NoError(t, err)

	conv := &stubConverter{}
	fetch := &stubFetcher{pages: map[string]string{
		"https://docs.example.com/": `
			<a href="/a">a</a>
			<a href="/b">b</a>
			<a href="/c">c</a>
			<a href="/d">d</a>`,
		"https://docs.example.com/a": `<a href="/e">e</a>`,
	}}
	engine := newTestEngine(cfg, conv, fetch, &stubParser{}, newStubSink())

	result, crawlErr := engine.Crawl(context.Background())
	require.Nil(t, crawlErr)

	assert.Len(t, result.Pages(), 2)
	assert.Equal(t, []string{
		"https://docs.example.com/",
		"https://docs.example.com/a",
	}, pageURLs(result))
}

func TestCrawlDeduplicatesEquivalentURLs(t *testing.T) {
	cfg, err := baseConfig(t.TempDir()).WithMaxDepth(1).Build()
	require.NoError(t, err)

	conv := &stubConverter{}
	fetch := &stubFetcher{pages: map[string]string{
		"https://docs.example.com/": `
			<a href="/guide">one</a>
			<a href="/guide/">two</a>
			<a href="https://DOCS.example.com/guide">three</a>`,
	}}
	engine := newTestEngine(cfg, conv, fetch, &stubParser{}, newStubSink())

	result, crawlErr := engine.Crawl(context.Background())
	require.Nil(t, crawlErr)

	assert.Equal(t, []string{
		"https://docs.example.com/",
		"https://docs.example.com/guide",
	}, pageURLs(result))
}

func TestCrawlIsolatesPageFailures(t *testing.T) {
	cfg, err := baseConfig(t.TempDir()).WithMaxDepth(1).Build()
	require.NoError(t, err)

	conv := &stubConverter{failures: map[string]failure.ClassifiedError{
		"https://docs.example.com/bad": &converter.ConversionError{
			Message: "boom",
			Cause:   converter.ErrCauseFetchFailure,
		},
	}}
	fetch := &stubFetcher{pages: map[string]string{
		"https://docs.example.com/": `
			<a href="/bad">bad</a>
			<a href="/good">good</a>`,
	}}
	engine := newTestEngine(cfg, conv, fetch, &stubParser{}, newStubSink())

	result, crawlErr := engine.Crawl(context.Background())
	require.Nil(t, crawlErr)

	require.Len(t, result.Pages(), 3)
	assert.Equal(t, 2, result.SuccessfulCount())
	assert.Equal(t, 1, result.ErrorCount())

	bad := result.Pages()[1]
	assert.Equal(t, "https://docs.example.com/bad", bad.URL())
	assert.Equal(t, storage.StatusError, bad.Status())
	assert.Contains(t, bad.ErrorMessage(), "boom")
	// Failed pages still carry the path the output would have used.
	assert.NotEmpty(t, bad.OutputPath())
	assert.Empty(t, bad.ContentHash())
}

func TestCrawlWritesManifestWhenAllPagesFail(t *testing.T) {
	outputDir := t.TempDir()
	cfg, err := baseConfig(outputDir).WithMaxDepth(0).Build()
	require.NoError(t, err)

	conv := &stubConverter{failures: map[string]failure.ClassifiedError{
		"https://docs.example.com/": &converter.ConversionError{
			Message: "unreachable",
			Cause:   converter.ErrCauseFetchFailure,
		},
	}}
	engine := newTestEngine(cfg, conv, &stubFetcher{}, &stubParser{}, newStubSink())

	result, crawlErr := engine.Crawl(context.Background())
	require.Nil(t, crawlErr)
	assert.Equal(t, 1, result.ErrorCount())

	raw, readErr := os.ReadFile(filepath.Join(outputDir, storage.ManifestFilename))
	require.NoError(t, readErr)

	var manifest map[string]any
	require.NoError(t, json.Unmarshal(raw, &manifest))
	pages := manifest["pages"].([]any)
	require.Len(t, pages, 1)
	assert.Equal(t, "error", pages[0].(map[string]any)["status"])
}

func TestCrawlRendersXMLWhenConfigured(t *testing.T) {
	cfg, err := baseConfig(t.TempDir()).
		WithMaxDepth(0).
		WithFormat(config.FormatXML).
		Build()
	require.NoError(t, err)

	sink := newStubSink()
	engine := newTestEngine(cfg, &stubConverter{}, &stubFetcher{}, &stubParser{}, sink)

	result, crawlErr := engine.Crawl(context.Background())
	require.Nil(t, crawlErr)
	require.Len(t, result.Pages(), 1)

	page := result.Pages()[0]
	assert.True(t, strings.HasSuffix(page.OutputPath(), ".xml"))

	require.Len(t, sink.written, 1)
	for path, content := range sink.written {
		assert.Equal(t, metadata.ArtifactXML, sink.kinds[path])
		assert.Contains(t, string(content), "<ai_documentation>")
		assert.Contains(t, string(content), "<source>https://docs.example.com/</source>")
	}
}

func TestCrawlSitemapProcessesListOrderAtDepthZero(t *testing.T) {
	cfg, err := baseConfig(t.TempDir()).Build()
	require.NoError(t, err)

	parser := &stubParser{urls: []string{
		"https://docs.example.com/b",
		"https://docs.example.com/a",
		"https://other.example.org/off-scope",
		"https://docs.example.com/c",
	}}
	engine := newTestEngine(cfg, &stubConverter{}, &stubFetcher{}, parser, newStubSink())

	result, crawlErr := engine.CrawlSitemap(context.Background(), "https://docs.example.com/sitemap.xml")
	require.Nil(t, crawlErr)

	assert.Equal(t, []string{
		"https://docs.example.com/b",
		"https://docs.example.com/a",
		"https://docs.example.com/c",
	}, pageURLs(result))
	for _, page := range result.Pages() {
		assert.Equal(t, 0, page.Depth())
	}
	assert.Equal(t, []string{"https://docs.example.com/sitemap.xml"}, result.SeedURLs())
	assert.Equal(t, 0, result.MaxDepth())
}

func TestCrawlSitemapSameDomainKeepsSiblingSubdomains(t *testing.T) {
	cfg, err := baseConfig(t.TempDir()).WithScopePolicy(scope.SameDomain).Build()
	require.NoError(t, err)

	parser := &stubParser{urls: []string{
		"https://docs.example.com/a",
		"https://api.example.com/reference",
	}}
	engine := newTestEngine(cfg, &stubConverter{}, &stubFetcher{}, parser, newStubSink())

	result, crawlErr := engine.CrawlSitemap(context.Background(), "https://docs.example.com/sitemap.xml")
	require.Nil(t, crawlErr)

	assert.Equal(t, []string{
		"https://docs.example.com/a",
		"https://api.example.com/reference",
	}, pageURLs(result))
}

func TestCrawlSitemapRespectsMaxPages(t *testing.T) {
	cfg, err := baseConfig(t.TempDir()).WithMaxPages(1).Build()
	require.NoError(t, err)

	parser := &stubParser{urls: []string{
		"https://docs.example.com/a",
		"https://docs.example.com/b",
	}}
	engine := newTestEngine(cfg, &stubConverter{}, &stubFetcher{}, parser, newStubSink())

	result, crawlErr := engine.CrawlSitemap(context.Background(), "https://docs.example.com/sitemap.xml")
	require.Nil(t, crawlErr)
	assert.Equal(t, []string{"https://docs.example.com/a"}, pageURLs(result))
}

func TestCrawlSitemapParseFailureIsSetupError(t *testing.T) {
	outputDir := t.TempDir()
	cfg, err := baseConfig(outputDir).Build()
	require.NoError(t, err)

	parser := &stubParser{err: &sitemap.SitemapError{
		Message: "fetch failed",
		Cause:   sitemap.ErrCauseFetchFailure,
	}}
	engine := newTestEngine(cfg, &stubConverter{}, &stubFetcher{}, parser, newStubSink())

	_, crawlErr := engine.CrawlSitemap(context.Background(), "https://docs.example.com/sitemap.xml")
	require.NotNil(t, crawlErr)

	_, statErr := os.Stat(filepath.Join(outputDir, storage.ManifestFilename))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCrawlUnusableOutputDirIsSetupError(t *testing.T) {
	// A regular file where the output directory should go makes MkdirAll
	// fail before any page is processed.
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	cfg, err := baseConfig(blocked).Build()
	require.NoError(t, err)

	conv := &stubConverter{}
	engine := newTestEngine(cfg, conv, &stubFetcher{}, &stubParser{}, newStubSink())

	result, crawlErr := engine.Crawl(context.Background())
	require.NotNil(t, crawlErr)
	assert.Empty(t, result.Pages())
	assert.Empty(t, conv.calls)
}

func TestCrawlDiscoveryFetchFailureIsSilent(t *testing.T) {
	cfg, err := baseConfig(t.TempDir()).WithMaxDepth(2).Build()
	require.NoError(t, err)

	// The fetcher knows no pages, so every discovery fetch fails. The
	// seed itself still converts and the crawl completes cleanly.
	engine := newTestEngine(cfg, &stubConverter{}, &stubFetcher{}, &stubParser{}, newStubSink())

	result, crawlErr := engine.Crawl(context.Background())
	require.Nil(t, crawlErr)

	assert.Equal(t, []string{"https://docs.example.com/"}, pageURLs(result))
	assert.Equal(t, 1, result.SuccessfulCount())
}
