package links

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hanifm/pagedown/internal/metadata"
	"github.com/hanifm/pagedown/pkg/failure"
)

/*
Responsibilities
- Parse fetched HTML
- Discover anchor targets
- Resolve relative references against the page URL

Discovery Rules
- Only <a href> targets are considered
- Skipped outright:
    - Empty href values
    - Same-page fragments (#...)
    - javascript: pseudo-links
    - mailto: and tel: schemes
- Relative references resolve against the fetched page's URL
- Only http and https absolute results survive

Ordering
- Results preserve document order
- Duplicates are NOT removed here; deduplication belongs to the frontier
*/

type LinkExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewLinkExtractor(
	metadataSink metadata.MetadataSink,
) LinkExtractor {
	return LinkExtractor{
		metadataSink: metadataSink,
	}
}

// Extract returns the resolved absolute URLs of every qualifying anchor in
// htmlByte, in document order.
func (l *LinkExtractor) Extract(
	pageUrl url.URL,
	htmlByte []byte,
) ([]string, failure.ClassifiedError) {
	result, err := l.extract(pageUrl, htmlByte)
	if err != nil {
		var linkError *LinkError
		errors.As(err, &linkError)
		l.metadataSink.RecordError(
			time.Now(),
			"links",
			"LinkExtractor.Extract",
			mapLinkErrorToMetadataCause(linkError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, pageUrl.String()),
			},
		)
		return nil, linkError
	}
	return result, nil
}

func (l *LinkExtractor) extract(pageUrl url.URL, htmlByte []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlByte))
	if err != nil {
		return nil, &LinkError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseParseFailure,
		}
	}

	var discovered []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		if resolved, ok := resolveHref(pageUrl, href); ok {
			discovered = append(discovered, resolved)
		}
	})

	return discovered, nil
}

// resolveHref applies the discovery rules to a single href value.
func resolveHref(pageUrl url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	if strings.HasPrefix(href, "#") {
		return "", false
	}

	lowered := strings.ToLower(href)
	if strings.HasPrefix(lowered, "javascript:") ||
		strings.HasPrefix(lowered, "mailto:") ||
		strings.HasPrefix(lowered, "tel:") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := pageUrl.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}

	return resolved.String(), true
}
