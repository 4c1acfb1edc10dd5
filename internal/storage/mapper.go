package storage

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hanifm/pagedown/internal/config"
)

/*
Output Mapping
- Deterministic and total: same URL + output dir + format always maps to
  the same path
- The RAW URL is mapped, not the normalized dedup key; two raw URLs that
  share host+path+format may collide (last writer wins, accepted tradeoff)

Rules, in order:
 1. Host becomes the first path segment, lowercased, ':' of a port
    replaced by '_'
 2. Empty or root path maps to "index"
 3. A path ending in '/' appends "index"
 4. A trailing .html/.htm suffix is stripped
 5. Segments are sanitized: filesystem-hostile characters replaced by
    '_', empty/./.. segments dropped, segments capped at 200 characters
 6. The format extension is appended

If sanitization removes every segment the path falls back to "index".
*/

var (
	htmlSuffix   = regexp.MustCompile(`\.html?$`)
	hostileChars = regexp.MustCompile(`[<>:"|?*]`)
)

const maxSegmentLen = 200

// FilePath maps a page URL to its destination file under outputDir.
func FilePath(rawURL string, outputDir string, format config.OutputFormat) string {
	var host, path string
	if parsed, err := url.Parse(rawURL); err == nil {
		host = strings.ToLower(parsed.Host)
		path = parsed.Path
	}
	host = strings.ReplaceAll(host, ":", "_")

	switch {
	case path == "" || path == "/":
		path = "/index"
	case strings.HasSuffix(path, "/"):
		path += "index"
	}
	path = strings.TrimPrefix(path, "/")
	path = htmlSuffix.ReplaceAllString(path, "")
	path = sanitizePath(path)

	return filepath.Join(outputDir, host, path+format.Extension())
}

// RelativePath rebases a mapped path onto the output directory, falling
// back to the input when the two do not share a root.
func RelativePath(fullPath string, outputDir string) string {
	rel, err := filepath.Rel(outputDir, fullPath)
	if err != nil {
		return fullPath
	}
	return rel
}

func sanitizePath(path string) string {
	path = hostileChars.ReplaceAllString(path, "_")

	var kept []string
	for _, segment := range strings.Split(path, "/") {
		segment = strings.TrimSpace(segment)
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		if len(segment) > maxSegmentLen {
			segment = segment[:maxSegmentLen]
		}
		kept = append(kept, segment)
	}

	if len(kept) == 0 {
		return "index"
	}
	return strings.Join(kept, "/")
}
