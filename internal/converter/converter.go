package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"

	"github.com/hanifm/pagedown/internal/fetcher"
	"github.com/hanifm/pagedown/internal/metadata"
	"github.com/hanifm/pagedown/pkg/failure"
	"github.com/hanifm/pagedown/pkg/retry"
)

/*
Responsibilities
- Fetch one page
- Narrow content to a CSS selector when configured
- Strip links or images when configured
- Convert HTML to Markdown
- Clean converted output (invisible characters, blank-line runs)
- Prepend a table of contents when configured

Conversion Pipeline
 fetch -> narrow -> strip -> html-to-markdown -> cleanup -> TOC

Design Principles
- Semantic fidelity over visual fidelity
- No code reformatting
- DOM order preserved
- Deterministic output for identical input
*/

// selectorInvalidChars catches obvious CSS selector syntax errors before
// handing the selector to goquery, which silently matches nothing on
// malformed input.
var selectorInvalidChars = []string{"<", ">", "(", ")", "@"}

var (
	zeroWidthReplacer = strings.NewReplacer(
		"​", "",
		"‌", "",
		"‍", "",
		"\uFEFF", "",
	)
	blankLineRuns = regexp.MustCompile(`\n{3,}`)
)

// Converter is the boundary the crawl engine sees: one URL in, one
// converted document or a typed error out.
type Converter interface {
	Convert(
		ctx context.Context,
		pageUrl url.URL,
		crawlDepth int,
	) (Document, failure.ClassifiedError)
}

var _ Converter = (*PageConverter)(nil)

type PageConverter struct {
	fetcher      fetcher.Fetcher
	metadataSink metadata.MetadataSink
	options      Options
	userAgent    string
	timeout      time.Duration
	retryParam   retry.RetryParam
}

func NewPageConverter(
	fetcher fetcher.Fetcher,
	metadataSink metadata.MetadataSink,
	options Options,
	userAgent string,
	timeout time.Duration,
	retryParam retry.RetryParam,
) PageConverter {
	return PageConverter{
		fetcher:      fetcher,
		metadataSink: metadataSink,
		options:      options,
		userAgent:    userAgent,
		timeout:      timeout,
		retryParam:   retryParam,
	}
}

// Convert fetches pageUrl and runs the full conversion pipeline.
func (p *PageConverter) Convert(
	ctx context.Context,
	pageUrl url.URL,
	crawlDepth int,
) (Document, failure.ClassifiedError) {
	fetchParam := fetcher.NewFetchParam(pageUrl, p.userAgent, p.timeout, true)
	result, fetchErr := p.fetcher.Fetch(ctx, crawlDepth, fetchParam, p.retryParam)
	if fetchErr != nil {
		return Document{}, p.recordError(pageUrl, &ConversionError{
			Message:   fetchErr.Error(),
			Retryable: false,
			Cause:     ErrCauseFetchFailure,
		})
	}

	doc, err := p.convertHTML(pageUrl, result.Body())
	if err != nil {
		var conversionError *ConversionError
		errors.As(err, &conversionError)
		return Document{}, p.recordError(pageUrl, conversionError)
	}
	return doc, nil
}

func (p *PageConverter) recordError(pageUrl url.URL, err *ConversionError) *ConversionError {
	p.metadataSink.RecordError(
		time.Now(),
		"converter",
		"PageConverter.Convert",
		mapConversionErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, pageUrl.String()),
		},
	)
	return err
}

// convertHTML is the network-free part of the pipeline.
func (p *PageConverter) convertHTML(pageUrl url.URL, htmlByte []byte) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlByte))
	if err != nil {
		return Document{}, &ConversionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseParseFailure,
		}
	}

	content, err := p.selectContent(doc)
	if err != nil {
		return Document{}, err
	}

	content = p.stripContent(content)

	markdown, err := renderMarkdown(content)
	if err != nil {
		return Document{}, err
	}

	markdown = zeroWidthReplacer.Replace(markdown)
	if p.options.CompactOutput() {
		markdown = blankLineRuns.ReplaceAllString(markdown, "\n\n")
	}

	title := firstHeadingTitle(markdown)

	if p.options.IncludeTOC() {
		markdown = prependTOC(markdown)
	}

	return NewDocument(pageUrl, title, markdown), nil
}

// selectContent narrows the document to the configured CSS selector.
// When the selector matches nothing the whole document is kept, matching
// a warn-and-continue policy rather than failing the page.
func (p *PageConverter) selectContent(doc *goquery.Document) (string, error) {
	selector := strings.TrimSpace(p.options.CSSSelector())
	if selector == "" {
		html, err := doc.Html()
		if err != nil {
			return "", &ConversionError{
				Message:   fmt.Sprintf("failed to serialize document: %v", err),
				Retryable: false,
				Cause:     ErrCauseParseFailure,
			}
		}
		return html, nil
	}

	for _, ch := range selectorInvalidChars {
		if strings.Contains(selector, ch) {
			return "", &ConversionError{
				Message:   fmt.Sprintf("selector %q contains invalid characters", selector),
				Retryable: false,
				Cause:     ErrCauseInvalidSelector,
			}
		}
	}

	selection := doc.Find(selector)
	if selection.Length() == 0 {
		html, err := doc.Html()
		if err != nil {
			return "", &ConversionError{
				Message:   fmt.Sprintf("failed to serialize document: %v", err),
				Retryable: false,
				Cause:     ErrCauseParseFailure,
			}
		}
		return html, nil
	}

	var builder strings.Builder
	var serializeErr error
	selection.Each(func(_ int, sel *goquery.Selection) {
		outer, err := goquery.OuterHtml(sel)
		if err != nil {
			serializeErr = err
			return
		}
		builder.WriteString(outer)
	})
	if serializeErr != nil {
		return "", &ConversionError{
			Message:   fmt.Sprintf("failed to serialize selection: %v", serializeErr),
			Retryable: false,
			Cause:     ErrCauseParseFailure,
		}
	}
	return builder.String(), nil
}

// stripContent removes links and images from the HTML when configured.
// Anchors are unwrapped so their text survives; images are dropped whole.
func (p *PageConverter) stripContent(htmlContent string) string {
	if p.options.IncludeLinks() && p.options.IncludeImages() {
		return htmlContent
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	if !p.options.IncludeLinks() {
		doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
			sel.ReplaceWithSelection(sel.Contents())
		})
	}
	if !p.options.IncludeImages() {
		doc.Find("img").Remove()
	}

	stripped, err := doc.Html()
	if err != nil {
		return htmlContent
	}
	return stripped
}

// renderMarkdown is a stateless pure function that converts an HTML
// fragment to Markdown.
func renderMarkdown(htmlContent string) (string, error) {
	conv := htmltomarkdown.NewConverter(
		htmltomarkdown.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)

	markdown, err := conv.ConvertString(htmlContent)
	if err != nil {
		return "", &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}
	return markdown, nil
}
