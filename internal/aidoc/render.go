package aidoc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

/*
Responsibilities
- Shape converted Markdown into a structured XML document for AI context use

Document Shape
- Root element named by Options.DocTag
- <metadata> with title, source URL, and date (each optional)
- <content> holding heading-delimited <section> elements
- Paragraphs become <text>, fenced code becomes <code language="...">
- Code block bodies are atomic: never split, never reinterpreted as Markdown

All text content is XML-escaped. Code blocks are protected by placeholder
substitution before section splitting so fenced content can never be
mistaken for headings or paragraph breaks.
*/

var (
	fencedCodeBlock = regexp.MustCompile("(?s)```(\\w*)\n(.*?)```")
	atxHeading      = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	firstH1         = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	paragraphBreak  = regexp.MustCompile(`\n\n+`)
	placeholderLine = regexp.MustCompile(`^CODE_BLOCK_PLACEHOLDER_(\d+)$`)

	xmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
)

type codeBlock struct {
	language string
	body     string
}

// Renderer converts Markdown to the structured XML document format.
type Renderer struct {
	options Options
	now     func() time.Time
}

func NewRenderer(options Options) Renderer {
	return Renderer{
		options: options,
		now:     time.Now,
	}
}

// NewRendererWithClock pins the date used in metadata. Used by tests.
func NewRendererWithClock(options Options, now func() time.Time) Renderer {
	return Renderer{
		options: options,
		now:     now,
	}
}

// Render converts markdown into the XML document. sourceURL may be empty,
// in which case no <source> element is emitted.
func (r *Renderer) Render(markdown string, sourceURL string) string {
	title := extractTitle(markdown)
	protected, blocks := protectCodeBlocks(markdown)

	var lines []string
	lines = append(lines, fmt.Sprintf("<%s>", r.options.DocTag()))

	if r.options.IncludeMetadata() {
		lines = append(lines, r.metadataLines(title, sourceURL)...)
	}

	lines = append(lines, r.indent("<content>", 1))
	lines = append(lines, r.contentLines(protected, blocks)...)
	lines = append(lines, r.indent("</content>", 1))

	lines = append(lines, fmt.Sprintf("</%s>", r.options.DocTag()))
	return strings.Join(lines, "\n")
}

func (r *Renderer) metadataLines(title string, sourceURL string) []string {
	var items []string
	if title != "" {
		items = append(items, r.indent(fmt.Sprintf("<title>%s</title>", escapeXML(title)), 2))
	}
	if sourceURL != "" {
		items = append(items, r.indent(fmt.Sprintf("<source>%s</source>", escapeXML(sourceURL)), 2))
	}
	if r.options.AddDate() {
		items = append(items, r.indent(fmt.Sprintf("<date>%s</date>", r.now().Format("2006-01-02")), 2))
	}
	if len(items) == 0 {
		return nil
	}

	lines := []string{r.indent("<metadata>", 1)}
	lines = append(lines, items...)
	lines = append(lines, r.indent("</metadata>", 1))
	return lines
}

// contentLines splits the protected Markdown on headings and emits the
// preamble plus one <section> per heading.
func (r *Renderer) contentLines(protected string, blocks []codeBlock) []string {
	var lines []string

	headings := atxHeading.FindAllStringSubmatchIndex(protected, -1)

	preambleEnd := len(protected)
	if len(headings) > 0 {
		preambleEnd = headings[0][0]
	}
	if preamble := strings.TrimSpace(protected[:preambleEnd]); preamble != "" {
		lines = append(lines, r.bodyLines(preamble, blocks, 2)...)
	}

	for i, match := range headings {
		headingText := strings.TrimSpace(protected[match[4]:match[5]])

		sectionEnd := len(protected)
		if i+1 < len(headings) {
			sectionEnd = headings[i+1][0]
		}
		sectionBody := strings.TrimSpace(protected[match[1]:sectionEnd])

		lines = append(lines, r.indent("<section>", 2))
		lines = append(lines, r.indent(fmt.Sprintf("<heading>%s</heading>", escapeXML(headingText)), 3))
		lines = append(lines, r.bodyLines(sectionBody, blocks, 3)...)
		lines = append(lines, r.indent("</section>", 2))
	}

	return lines
}

// bodyLines splits body into paragraphs and emits <text> or <code>
// elements at the given indent level.
func (r *Renderer) bodyLines(body string, blocks []codeBlock, level int) []string {
	var lines []string

	for _, para := range paragraphBreak.Split(body, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if match := placeholderLine.FindStringSubmatch(para); match != nil {
			blockIdx, err := strconv.Atoi(match[1])
			if err == nil && blockIdx < len(blocks) {
				lines = append(lines, r.codeLines(blocks[blockIdx], level)...)
				continue
			}
		}

		lines = append(lines, r.indent(fmt.Sprintf("<text>%s</text>", escapeXML(para)), level))
	}

	return lines
}

func (r *Renderer) codeLines(block codeBlock, level int) []string {
	var lines []string

	if block.language != "" {
		lines = append(lines, r.indent(fmt.Sprintf("<code language=%q>", block.language), level))
	} else {
		lines = append(lines, r.indent("<code>", level))
	}
	for _, codeLine := range strings.Split(strings.TrimRight(block.body, "\n"), "\n") {
		lines = append(lines, r.indent(escapeXML(codeLine), level+1))
	}
	lines = append(lines, r.indent("</code>", level))

	return lines
}

func (r *Renderer) indent(text string, level int) string {
	if !r.options.Beautify() {
		return text
	}
	return strings.Repeat("  ", level) + text
}

// protectCodeBlocks replaces fenced code blocks with placeholders so the
// section and paragraph splitters never look inside them.
func protectCodeBlocks(markdown string) (string, []codeBlock) {
	var blocks []codeBlock

	protected := fencedCodeBlock.ReplaceAllStringFunc(markdown, func(fenced string) string {
		match := fencedCodeBlock.FindStringSubmatch(fenced)
		placeholder := fmt.Sprintf("CODE_BLOCK_PLACEHOLDER_%d", len(blocks))
		blocks = append(blocks, codeBlock{
			language: match[1],
			body:     match[2],
		})
		return placeholder
	})

	return protected, blocks
}

// extractTitle returns the text of the first level-1 ATX heading.
func extractTitle(markdown string) string {
	match := firstH1.FindStringSubmatch(markdown)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func escapeXML(text string) string {
	return xmlEscaper.Replace(text)
}
