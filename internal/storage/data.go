package storage

import (
	"time"

	"github.com/hanifm/pagedown/internal/config"
)

// Persistence & crawl record model

type PageStatus string

const (
	StatusSuccess PageStatus = "success"
	StatusError   PageStatus = "error"
	StatusSkipped PageStatus = "skipped"
)

// CrawledPage is the per-page record that ends up in the manifest.
// Immutable once constructed.
type CrawledPage struct {
	url          string
	outputPath   string
	title        string
	crawledAt    time.Time
	depth        int
	status       PageStatus
	errorMessage string
	contentHash  string
}

func NewCrawledPage(
	url string,
	outputPath string,
	title string,
	crawledAt time.Time,
	depth int,
	status PageStatus,
	errorMessage string,
	contentHash string,
) CrawledPage {
	return CrawledPage{
		url:          url,
		outputPath:   outputPath,
		title:        title,
		crawledAt:    crawledAt,
		depth:        depth,
		status:       status,
		errorMessage: errorMessage,
		contentHash:  contentHash,
	}
}

func (p CrawledPage) URL() string {
	return p.url
}

// OutputPath is relative to the output directory, empty for pages that
// produced no file.
func (p CrawledPage) OutputPath() string {
	return p.outputPath
}

func (p CrawledPage) Title() string {
	return p.title
}

func (p CrawledPage) CrawledAt() time.Time {
	return p.crawledAt
}

func (p CrawledPage) Depth() int {
	return p.depth
}

func (p CrawledPage) Status() PageStatus {
	return p.status
}

func (p CrawledPage) ErrorMessage() string {
	return p.errorMessage
}

func (p CrawledPage) ContentHash() string {
	return p.contentHash
}

// CrawlResult is the complete outcome of one crawl run.
type CrawlResult struct {
	pages        []CrawledPage
	startTime    time.Time
	endTime      time.Time
	seedURLs     []string
	maxDepth     int
	outputFormat config.OutputFormat
}

func NewCrawlResult(
	pages []CrawledPage,
	startTime time.Time,
	endTime time.Time,
	seedURLs []string,
	maxDepth int,
	outputFormat config.OutputFormat,
) CrawlResult {
	return CrawlResult{
		pages:        pages,
		startTime:    startTime,
		endTime:      endTime,
		seedURLs:     seedURLs,
		maxDepth:     maxDepth,
		outputFormat: outputFormat,
	}
}

func (r CrawlResult) Pages() []CrawledPage {
	return r.pages
}

func (r CrawlResult) StartTime() time.Time {
	return r.startTime
}

func (r CrawlResult) EndTime() time.Time {
	return r.endTime
}

func (r CrawlResult) SeedURLs() []string {
	return r.seedURLs
}

func (r CrawlResult) MaxDepth() int {
	return r.maxDepth
}

func (r CrawlResult) OutputFormat() config.OutputFormat {
	return r.outputFormat
}

func (r CrawlResult) SuccessfulCount() int {
	return r.countByStatus(StatusSuccess)
}

func (r CrawlResult) ErrorCount() int {
	return r.countByStatus(StatusError)
}

func (r CrawlResult) SkippedCount() int {
	return r.countByStatus(StatusSkipped)
}

func (r CrawlResult) countByStatus(status PageStatus) int {
	count := 0
	for _, page := range r.pages {
		if page.status == status {
			count++
		}
	}
	return count
}
