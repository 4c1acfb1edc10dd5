package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hanifm/pagedown/internal/config"
)

func TestFilePath(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		format config.OutputFormat
		want   string
	}{
		{
			name:   "simple page",
			url:    "https://example.com/docs/page",
			format: config.FormatMarkdown,
			want:   "out/example.com/docs/page.md",
		},
		{
			name:   "root path",
			url:    "https://example.com/",
			format: config.FormatMarkdown,
			want:   "out/example.com/index.md",
		},
		{
			name:   "empty path",
			url:    "https://example.com",
			format: config.FormatMarkdown,
			want:   "out/example.com/index.md",
		},
		{
			name:   "trailing slash",
			url:    "https://example.com/docs/",
			format: config.FormatMarkdown,
			want:   "out/example.com/docs/index.md",
		},
		{
			name:   "html suffix stripped",
			url:    "https://example.com/guide/intro.html",
			format: config.FormatMarkdown,
			want:   "out/example.com/guide/intro.md",
		},
		{
			name:   "htm suffix stripped",
			url:    "https://example.com/old.htm",
			format: config.FormatMarkdown,
			want:   "out/example.com/old.md",
		},
		{
			name:   "port replaced",
			url:    "https://example.com:8080/a",
			format: config.FormatMarkdown,
			want:   "out/example.com_8080/a.md",
		},
		{
			name:   "host lowercased",
			url:    "https://EXAMPLE.COM/Path",
			format: config.FormatMarkdown,
			want:   "out/example.com/Path.md",
		},
		{
			name:   "xml format",
			url:    "https://example.com/docs/page",
			format: config.FormatXML,
			want:   "out/example.com/docs/page.xml",
		},
		{
			name:   "hostile characters sanitized",
			url:    "https://example.com/a%3Cb%3E/c%3Fd",
			format: config.FormatMarkdown,
			want:   "out/example.com/a_b_/c_d.md",
		},
		{
			name:   "dot segments dropped",
			url:    "https://example.com/%2E%2E/secret",
			format: config.FormatMarkdown,
			want:   "out/example.com/secret.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilePath(tt.url, "out", tt.format)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestFilePathIsDeterministic(t *testing.T) {
	first := FilePath("https://example.com/docs/page", "out", config.FormatMarkdown)
	second := FilePath("https://example.com/docs/page", "out", config.FormatMarkdown)
	assert.Equal(t, first, second)
}

func TestFilePathTruncatesLongSegments(t *testing.T) {
	long := strings.Repeat("x", 300)
	got := FilePath("https://example.com/"+long, "out", config.FormatMarkdown)

	segment := filepath.Base(got)
	assert.Equal(t, strings.Repeat("x", 200)+".md", segment)
}

func TestFilePathAllSegmentsDroppedFallsBackToIndex(t *testing.T) {
	got := FilePath("https://example.com/%2E/%2E%2E/", "out", config.FormatMarkdown)
	assert.Equal(t, filepath.FromSlash("out/example.com/index.md"), got)
}

func TestRelativePath(t *testing.T) {
	full := filepath.FromSlash("out/example.com/docs/page.md")
	assert.Equal(t, filepath.FromSlash("example.com/docs/page.md"), RelativePath(full, "out"))
}
