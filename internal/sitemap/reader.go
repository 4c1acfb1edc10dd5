package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/hanifm/pagedown/internal/fetcher"
	"github.com/hanifm/pagedown/internal/metadata"
	"github.com/hanifm/pagedown/pkg/failure"
	"github.com/hanifm/pagedown/pkg/retry"
)

/*
Responsibilities
- Fetch sitemap documents over HTTP
- Parse sitemap XML into a flat page URL list
- Recurse into sitemap index references

Recognized Shapes
- Sitemap index: namespaced <sitemap><loc> entries referencing child
  sitemaps; the reader descends depth-first and concatenates results
- Leaf sitemap: <url><loc> entries naming page URLs

Fallback Scanning (leaf documents only), first strategy with results wins:
 1. Namespaced <url><loc>
 2. Unnamespaced <url><loc>
 3. Any <loc> whose text is an absolute http(s) URL

Cycle Safety
- Child sitemaps already visited in this descent are skipped
- Descent deeper than maxIndexDepth is an error
*/

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// maxIndexDepth bounds sitemap index recursion so a self-referential
// index cannot descend forever.
const maxIndexDepth = 10

// Parser is the boundary the crawl engine sees: a sitemap URL in, a
// flat page URL list out.
type Parser interface {
	Parse(ctx context.Context, sitemapUrl string) ([]string, failure.ClassifiedError)
}

var _ Parser = (*Reader)(nil)

type Reader struct {
	fetcher      fetcher.Fetcher
	metadataSink metadata.MetadataSink
	userAgent    string
	timeout      time.Duration
	retryParam   retry.RetryParam
}

func NewReader(
	fetcher fetcher.Fetcher,
	metadataSink metadata.MetadataSink,
	userAgent string,
	timeout time.Duration,
	retryParam retry.RetryParam,
) Reader {
	return Reader{
		fetcher:      fetcher,
		metadataSink: metadataSink,
		userAgent:    userAgent,
		timeout:      timeout,
		retryParam:   retryParam,
	}
}

// Parse fetches sitemapUrl and returns every page URL it lists, descending
// into nested sitemap indexes. A structurally valid but empty document
// yields an empty list.
func (r *Reader) Parse(ctx context.Context, sitemapUrl string) ([]string, failure.ClassifiedError) {
	visited := make(map[string]struct{})
	result, err := r.parse(ctx, sitemapUrl, 0, visited)
	if err != nil {
		var sitemapError *SitemapError
		errors.As(err, &sitemapError)
		r.metadataSink.RecordError(
			time.Now(),
			"sitemap",
			"Reader.Parse",
			mapSitemapErrorToMetadataCause(sitemapError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sitemapUrl),
			},
		)
		return nil, sitemapError
	}
	return result, nil
}

func (r *Reader) parse(
	ctx context.Context,
	sitemapUrl string,
	indexDepth int,
	visited map[string]struct{},
) ([]string, error) {
	if indexDepth > maxIndexDepth {
		return nil, &SitemapError{
			Message:   fmt.Sprintf("index nesting exceeds %d levels", maxIndexDepth),
			Retryable: false,
			Cause:     ErrCauseIndexTooDeep,
		}
	}
	visited[sitemapUrl] = struct{}{}

	body, err := r.fetch(ctx, sitemapUrl)
	if err != nil {
		return nil, err
	}

	entries, err := scanLocEntries(body)
	if err != nil {
		return nil, err
	}

	// Index shape: namespaced <sitemap><loc> references.
	var childRefs []string
	for _, entry := range entries {
		if entry.isSitemapRef() {
			childRefs = append(childRefs, entry.text)
		}
	}
	if len(childRefs) > 0 {
		var urls []string
		for _, ref := range childRefs {
			if _, seen := visited[ref]; seen {
				continue
			}
			childUrls, err := r.parse(ctx, ref, indexDepth+1, visited)
			if err != nil {
				return nil, err
			}
			urls = append(urls, childUrls...)
		}
		return urls, nil
	}

	return leafPageURLs(entries), nil
}

func (r *Reader) fetch(ctx context.Context, sitemapUrl string) ([]byte, error) {
	parsed, err := url.Parse(sitemapUrl)
	if err != nil {
		return nil, &SitemapError{
			Message:   fmt.Sprintf("invalid sitemap URL %q: %v", sitemapUrl, err),
			Retryable: false,
			Cause:     ErrCauseFetchFailure,
		}
	}

	fetchParam := fetcher.NewFetchParam(*parsed, r.userAgent, r.timeout, false)
	result, fetchErr := r.fetcher.Fetch(ctx, 0, fetchParam, r.retryParam)
	if fetchErr != nil {
		return nil, &SitemapError{
			Message:   fmt.Sprintf("fetch of %q failed: %v", sitemapUrl, fetchErr),
			Retryable: false,
			Cause:     ErrCauseFetchFailure,
		}
	}

	return result.Body(), nil
}

// locEntry is one <loc> element together with its enclosing element,
// enough context to classify it against each scanning strategy.
type locEntry struct {
	name   xml.Name
	parent xml.Name
	text   string
}

func (e locEntry) isSitemapRef() bool {
	return e.name.Space == sitemapNamespace &&
		e.parent.Space == sitemapNamespace &&
		e.parent.Local == "sitemap"
}

func (e locEntry) isNamespacedPage() bool {
	return e.name.Space == sitemapNamespace &&
		e.parent.Space == sitemapNamespace &&
		e.parent.Local == "url"
}

func (e locEntry) isPlainPage() bool {
	return e.name.Space == "" &&
		e.parent.Space == "" &&
		e.parent.Local == "url"
}

func (e locEntry) isAbsoluteURL() bool {
	return strings.HasPrefix(e.text, "http://") || strings.HasPrefix(e.text, "https://")
}

// scanLocEntries walks the XML token stream and collects every <loc>
// element with its parent, in document order.
func scanLocEntries(body []byte) ([]locEntry, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))

	var stack []xml.Name
	var entries []locEntry

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &SitemapError{
				Message:   fmt.Sprintf("malformed XML: %v", err),
				Retryable: false,
				Cause:     ErrCauseXMLParseFailure,
			}
		}

		switch tok := token.(type) {
		case xml.StartElement:
			if tok.Name.Local == "loc" && len(stack) > 0 {
				var text string
				if err := decoder.DecodeElement(&text, &tok); err != nil {
					return nil, &SitemapError{
						Message:   fmt.Sprintf("malformed <loc> element: %v", err),
						Retryable: false,
						Cause:     ErrCauseXMLParseFailure,
					}
				}
				entries = append(entries, locEntry{
					name:   tok.Name,
					parent: stack[len(stack)-1],
					text:   strings.TrimSpace(text),
				})
				continue
			}
			stack = append(stack, tok.Name)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	return entries, nil
}

// leafPageURLs applies the fallback scanning order to a leaf document.
func leafPageURLs(entries []locEntry) []string {
	var urls []string

	for _, entry := range entries {
		if entry.isNamespacedPage() && entry.text != "" {
			urls = append(urls, entry.text)
		}
	}
	if len(urls) > 0 {
		return urls
	}

	for _, entry := range entries {
		if entry.isPlainPage() && entry.text != "" {
			urls = append(urls, entry.text)
		}
	}
	if len(urls) > 0 {
		return urls
	}

	for _, entry := range entries {
		if entry.isAbsoluteURL() {
			urls = append(urls, entry.text)
		}
	}
	return urls
}
