package converter

import "net/url"

// Options controls how fetched HTML is shaped into Markdown.
// Immutable after construction.
type Options struct {
	cssSelector   string
	includeLinks  bool
	includeImages bool
	includeTOC    bool
	compactOutput bool
}

func NewOptions(
	cssSelector string,
	includeLinks bool,
	includeImages bool,
	includeTOC bool,
	compactOutput bool,
) Options {
	return Options{
		cssSelector:   cssSelector,
		includeLinks:  includeLinks,
		includeImages: includeImages,
		includeTOC:    includeTOC,
		compactOutput: compactOutput,
	}
}

func (o Options) CSSSelector() string {
	return o.cssSelector
}

func (o Options) IncludeLinks() bool {
	return o.includeLinks
}

func (o Options) IncludeImages() bool {
	return o.includeImages
}

func (o Options) IncludeTOC() bool {
	return o.includeTOC
}

func (o Options) CompactOutput() bool {
	return o.compactOutput
}

// Document is the outcome of converting one page.
type Document struct {
	sourceUrl url.URL
	title     string
	markdown  string
}

func NewDocument(sourceUrl url.URL, title string, markdown string) Document {
	return Document{
		sourceUrl: sourceUrl,
		title:     title,
		markdown:  markdown,
	}
}

func (d Document) SourceURL() url.URL {
	return d.sourceUrl
}

// Title is the text of the first level-1 heading, empty when the page
// has none.
func (d Document) Title() string {
	return d.title
}

func (d Document) Markdown() string {
	return d.markdown
}
