package converter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// Table-of-contents generation and title extraction work on the converted
// Markdown, not the source HTML, so both see exactly what the reader sees.
// Headings inside fenced code blocks never register because they are code
// leaves in the Markdown AST, not heading nodes.

type headingEntry struct {
	level int
	text  string
}

var slugDisallowed = regexp.MustCompile(`[^\w\-]`)

// markdownHeadings parses md and returns its headings in document order.
func markdownHeadings(md string) []headingEntry {
	// parser instances are single-use
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(md))

	var entries []headingEntry
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		heading, ok := node.(*ast.Heading)
		if !ok || !entering {
			return ast.GoToNext
		}
		entries = append(entries, headingEntry{
			level: heading.Level,
			text:  headingText(heading),
		})
		return ast.SkipChildren
	})
	return entries
}

func headingText(heading *ast.Heading) string {
	var builder strings.Builder
	ast.WalkFunc(heading, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if leaf := node.AsLeaf(); leaf != nil {
			builder.Write(leaf.Literal)
		}
		return ast.GoToNext
	})
	return strings.TrimSpace(builder.String())
}

// firstHeadingTitle returns the text of the first level-1 heading, empty
// when the document has none.
func firstHeadingTitle(md string) string {
	for _, entry := range markdownHeadings(md) {
		if entry.level == 1 {
			return entry.text
		}
	}
	return ""
}

// prependTOC builds a linked table of contents from the document's
// headings and prepends it. Documents without headings are returned
// unchanged.
func prependTOC(md string) string {
	entries := markdownHeadings(md)
	if len(entries) == 0 {
		return md
	}

	lines := []string{"# Table of Contents\n"}
	used := make(map[string]int)

	for _, entry := range entries {
		indent := strings.Repeat("  ", entry.level-1)
		slug := headingSlug(entry.text)

		if count, seen := used[slug]; seen {
			used[slug] = count + 1
			slug = fmt.Sprintf("%s-%d", slug, count+1)
		} else {
			used[slug] = 1
		}

		lines = append(lines, fmt.Sprintf("%s- [%s](#%s)", indent, entry.text, slug))
	}

	return strings.Join(lines, "\n") + "\n\n" + md
}

// headingSlug turns heading text into a GitHub-style anchor fragment.
func headingSlug(text string) string {
	slug := strings.ToLower(text)
	slug = strings.ReplaceAll(slug, " ", "-")
	return slugDisallowed.ReplaceAllString(slug, "")
}
