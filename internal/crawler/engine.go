package crawler

import (
	"context"
	"net/url"
	"time"

	"github.com/hanifm/pagedown/internal/aidoc"
	"github.com/hanifm/pagedown/internal/config"
	"github.com/hanifm/pagedown/internal/converter"
	"github.com/hanifm/pagedown/internal/fetcher"
	"github.com/hanifm/pagedown/internal/frontier"
	"github.com/hanifm/pagedown/internal/links"
	"github.com/hanifm/pagedown/internal/metadata"
	"github.com/hanifm/pagedown/internal/scope"
	"github.com/hanifm/pagedown/internal/sitemap"
	"github.com/hanifm/pagedown/internal/storage"
	"github.com/hanifm/pagedown/pkg/failure"
	"github.com/hanifm/pagedown/pkg/fileutil"
	"github.com/hanifm/pagedown/pkg/hashutil"
	"github.com/hanifm/pagedown/pkg/limiter"
	"github.com/hanifm/pagedown/pkg/retry"
	"github.com/hanifm/pagedown/pkg/timeutil"
)

/*
 Engine is the sole control-plane authority of the crawl.

 Determinism and admission guarantees:
 - Engine is the ONLY component allowed to decide whether a URL may
   enter the crawl frontier.
 - Scope filtering, normalization, and dedup are completed before a URL
   is admitted.
 - No other component may enqueue, reject, or reorder URLs.
 - Pipeline stages detect and classify failure, but never decide
   continuation or abortion.

 Lifecycle per run: INITIALIZING -> RUNNING -> DRAINING -> DONE.
 - INITIALIZING: seeds normalized into the visited set, enqueued at depth 0
 - RUNNING: strict FIFO processing with per-page isolation, link discovery
   on success below max depth, pacing between items
 - DRAINING: page limit reached; the rest of the frontier is discarded
   silently and never appears in the result
 - DONE: end timestamp stamped, manifest written

 Metadata emission is observational only and MUST NOT influence
 scheduling, retries, or crawl termination.
*/

type runState int

const (
	stateInitializing runState = iota
	stateRunning
	stateDraining
	stateDone
)

type Engine struct {
	cfg            config.Config
	metadataSink   metadata.MetadataSink
	crawlFinalizer metadata.CrawlFinalizer
	pageConverter  converter.Converter
	htmlFetcher    fetcher.Fetcher
	linkExtractor  links.LinkExtractor
	sitemapParser  sitemap.Parser
	storageSink    storage.Sink
	manifestWriter storage.ManifestWriter
	xmlRenderer    aidoc.Renderer
	pacer          *limiter.Pacer
	retryParam     retry.RetryParam
}

func NewEngine(cfg config.Config) Engine {
	recorder := metadata.NewRecorder("single-sync-worker", cfg.Verbose())
	htmlFetcher := fetcher.NewHtmlFetcher(&recorder)
	retryParam := retryParamFromConfig(cfg)
	pageConverter := converter.NewPageConverter(
		&htmlFetcher,
		&recorder,
		converter.NewOptions(
			cfg.CSSSelector(),
			cfg.IncludeLinks(),
			cfg.IncludeImages(),
			cfg.IncludeTOC(),
			cfg.CompactOutput(),
		),
		cfg.UserAgent(),
		cfg.Timeout(),
		retryParam,
	)
	sitemapReader := sitemap.NewReader(
		&htmlFetcher,
		&recorder,
		cfg.UserAgent(),
		cfg.Timeout(),
		retryParam,
	)
	storageSink := storage.NewLocalSink(&recorder, hashutil.HashAlgoBLAKE3)
	manifestWriter := storage.NewManifestWriter(&recorder)
	xmlRenderer := aidoc.NewRenderer(aidoc.NewOptions(
		cfg.XMLIncludeMetadata(),
		cfg.XMLAddDate(),
		cfg.XMLDocTag(),
		cfg.XMLBeautify(),
	))

	return Engine{
		cfg:            cfg,
		metadataSink:   &recorder,
		crawlFinalizer: &recorder,
		pageConverter:  &pageConverter,
		htmlFetcher:    &htmlFetcher,
		linkExtractor:  links.NewLinkExtractor(&recorder),
		sitemapParser:  &sitemapReader,
		storageSink:    &storageSink,
		manifestWriter: manifestWriter,
		xmlRenderer:    xmlRenderer,
		pacer:          limiter.NewPacer(cfg.Delay(), cfg.Jitter(), cfg.RandomSeed()),
		retryParam:     retryParam,
	}
}

// NewEngineWithDeps creates an Engine with injected collaborators.
// Used by tests to substitute fakes for the network-facing pieces.
func NewEngineWithDeps(
	cfg config.Config,
	metadataSink metadata.MetadataSink,
	crawlFinalizer metadata.CrawlFinalizer,
	pageConverter converter.Converter,
	htmlFetcher fetcher.Fetcher,
	sitemapParser sitemap.Parser,
	storageSink storage.Sink,
	manifestWriter storage.ManifestWriter,
	pacer *limiter.Pacer,
) Engine {
	return Engine{
		cfg:            cfg,
		metadataSink:   metadataSink,
		crawlFinalizer: crawlFinalizer,
		pageConverter:  pageConverter,
		htmlFetcher:    htmlFetcher,
		linkExtractor:  links.NewLinkExtractor(metadataSink),
		sitemapParser:  sitemapParser,
		storageSink:    storageSink,
		manifestWriter: manifestWriter,
		xmlRenderer: aidoc.NewRenderer(aidoc.NewOptions(
			cfg.XMLIncludeMetadata(),
			cfg.XMLAddDate(),
			cfg.XMLDocTag(),
			cfg.XMLBeautify(),
		)),
		pacer:      pacer,
		retryParam: retryParamFromConfig(cfg),
	}
}

// Crawl runs link-following BFS from the configured seeds and returns the
// finalized result. The manifest is always written for a completed run,
// even when every page failed.
func (e *Engine) Crawl(ctx context.Context) (storage.CrawlResult, failure.ClassifiedError) {
	startTime := time.Now()
	state := stateInitializing

	// An unusable output directory is a setup error, not a page error.
	if err := fileutil.EnsureDir(e.cfg.OutputDir()); err != nil {
		return storage.CrawlResult{}, err
	}

	front := frontier.NewFrontier()
	for _, seed := range e.cfg.SeedURLs() {
		front.Admit(seed.String(), 0)
	}

	var pages []storage.CrawledPage
	state = stateRunning

	for state == stateRunning {
		if e.cfg.MaxPages() > 0 && len(pages) >= e.cfg.MaxPages() {
			state = stateDraining
			break
		}

		entry, ok := front.Next()
		if !ok {
			break
		}

		// Entries beyond the depth bound are discarded without fetching.
		if entry.Depth() > e.cfg.MaxDepth() {
			continue
		}

		page := e.processPage(ctx, entry.URL(), entry.Depth())
		pages = append(pages, page)
		e.metadataSink.RecordPage(entry.URL(), entry.Depth(), string(page.Status()))

		if page.Status() == storage.StatusSuccess && entry.Depth() < e.cfg.MaxDepth() {
			for _, link := range e.discoverLinks(ctx, entry.URL(), entry.Depth()) {
				front.Admit(link, entry.Depth()+1)
			}
		}

		// Pacing applies between items, skipped after the last one.
		if front.Pending() > 0 {
			if err := e.pacer.Pause(ctx); err != nil {
				break
			}
		}
	}
	// DRAINING discards the rest of the frontier by falling through.

	return e.finalize(startTime, pages, e.seedStrings(), e.cfg.MaxDepth())
}

// CrawlSitemap converts every page listed by the sitemap, in list order,
// at fixed depth 0 and with no link discovery. A top-level sitemap
// failure is a setup error: no pages, no manifest.
func (e *Engine) CrawlSitemap(
	ctx context.Context,
	sitemapUrl string,
) (storage.CrawlResult, failure.ClassifiedError) {
	startTime := time.Now()

	if err := fileutil.EnsureDir(e.cfg.OutputDir()); err != nil {
		return storage.CrawlResult{}, err
	}

	urls, parseErr := e.sitemapParser.Parse(ctx, sitemapUrl)
	if parseErr != nil {
		return storage.CrawlResult{}, parseErr
	}

	// Sitemaps for a whole domain stay unfiltered under SAME_DOMAIN;
	// narrower policies still apply.
	if e.cfg.ScopePolicy() != scope.SameDomain {
		scopeSeed := sitemapUrl
		if seeds := e.cfg.SeedURLs(); len(seeds) > 0 {
			scopeSeed = seeds[0].String()
		}
		urls = scope.Filter(urls, scopeSeed, e.cfg.ScopePolicy(), e.cfg.PathPrefix())
	}

	var pages []storage.CrawledPage
	for i, pageUrl := range urls {
		if e.cfg.MaxPages() > 0 && len(pages) >= e.cfg.MaxPages() {
			break
		}

		page := e.processPage(ctx, pageUrl, 0)
		pages = append(pages, page)
		e.metadataSink.RecordPage(pageUrl, 0, string(page.Status()))

		if i+1 < len(urls) {
			if err := e.pacer.Pause(ctx); err != nil {
				break
			}
		}
	}

	return e.finalize(startTime, pages, []string{sitemapUrl}, 0)
}

// processPage converts one URL and persists the output. Every failure is
// absorbed into a status=error record; nothing here aborts the run.
func (e *Engine) processPage(ctx context.Context, rawURL string, depth int) storage.CrawledPage {
	outputPath := storage.FilePath(rawURL, e.cfg.OutputDir(), e.cfg.Format())
	relativePath := storage.RelativePath(outputPath, e.cfg.OutputDir())

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return storage.NewCrawledPage(
			rawURL, relativePath, "", time.Now(), depth,
			storage.StatusError, err.Error(), "",
		)
	}

	doc, convErr := e.pageConverter.Convert(ctx, *parsed, depth)
	if convErr != nil {
		return storage.NewCrawledPage(
			rawURL, relativePath, "", time.Now(), depth,
			storage.StatusError, convErr.Error(), "",
		)
	}

	content := doc.Markdown()
	kind := metadata.ArtifactMarkdown
	if e.cfg.Format() == config.FormatXML {
		content = e.xmlRenderer.Render(doc.Markdown(), rawURL)
		kind = metadata.ArtifactXML
	}

	contentHash, writeErr := e.storageSink.Write(outputPath, []byte(content), kind, rawURL)
	if writeErr != nil {
		return storage.NewCrawledPage(
			rawURL, relativePath, doc.Title(), time.Now(), depth,
			storage.StatusError, writeErr.Error(), "",
		)
	}

	return storage.NewCrawledPage(
		rawURL, relativePath, doc.Title(), time.Now(), depth,
		storage.StatusSuccess, "", contentHash,
	)
}

// discoverLinks re-fetches a successfully converted page and returns its
// in-scope links. Best-effort: any failure yields zero links and is never
// reflected in the page's own record.
func (e *Engine) discoverLinks(ctx context.Context, rawURL string, depth int) []string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	fetchParam := fetcher.NewFetchParam(*parsed, e.cfg.UserAgent(), e.cfg.Timeout(), true)
	result, fetchErr := e.htmlFetcher.Fetch(ctx, depth, fetchParam, e.retryParam)
	if fetchErr != nil {
		return nil
	}

	discovered, extractErr := e.linkExtractor.Extract(*parsed, result.Body())
	if extractErr != nil {
		return nil
	}

	// Scope is always judged against the FIRST seed.
	scopeSeed := rawURL
	if seeds := e.cfg.SeedURLs(); len(seeds) > 0 {
		scopeSeed = seeds[0].String()
	}
	return scope.Filter(discovered, scopeSeed, e.cfg.ScopePolicy(), e.cfg.PathPrefix())
}

func (e *Engine) finalize(
	startTime time.Time,
	pages []storage.CrawledPage,
	seedURLs []string,
	maxDepth int,
) (storage.CrawlResult, failure.ClassifiedError) {
	endTime := time.Now()
	result := storage.NewCrawlResult(
		pages,
		startTime,
		endTime,
		seedURLs,
		maxDepth,
		e.cfg.Format(),
	)

	if _, err := e.manifestWriter.WriteManifest(result, e.cfg.OutputDir()); err != nil {
		return result, err
	}

	e.crawlFinalizer.RecordFinalCrawlStats(
		len(pages),
		result.ErrorCount(),
		endTime.Sub(startTime),
	)
	return result, nil
}

func (e *Engine) seedStrings() []string {
	seeds := e.cfg.SeedURLs()
	out := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		out = append(out, seed.String())
	}
	return out
}

func retryParamFromConfig(cfg config.Config) retry.RetryParam {
	return retry.RetryParam{
		Jitter:      cfg.Jitter(),
		RandomSeed:  cfg.RandomSeed(),
		MaxAttempts: cfg.MaxAttempt(),
		BackoffParam: timeutil.NewBackoffParam(
			cfg.BackoffInitialDuration(),
			cfg.BackoffMultiplier(),
			cfg.BackoffMaxDuration(),
		),
	}
}
