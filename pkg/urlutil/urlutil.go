package urlutil

import (
	"net/url"
	"strings"
)

// Normalize maps equivalent URL spellings to a single deduplication key.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Fragments are removed
//   - Trailing slashes are removed, except for the root path
//   - An empty path becomes "/"
//   - Default ports are omitted (:80 for http, :443 for https)
//   - Query strings are preserved verbatim, in the order given
//
// Properties:
//   - Pure: no state, no network access
//   - Deterministic: same input always produces same output
//   - Idempotent: Normalize(Normalize(url)) == Normalize(url)
//
// Normalize never fails. Malformed input yields a best-effort key; the
// result is used only for deduplication, never for validation or fetching.
func Normalize(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		// Best effort: strip a fragment if one is recognizable.
		if i := strings.IndexByte(rawURL, '#'); i >= 0 {
			return rawURL[:i]
		}
		return rawURL
	}

	parsed.Scheme = lowerASCII(parsed.Scheme)
	parsed.Host = lowerASCII(parsed.Host)

	if port := parsed.Port(); port != "" {
		if (parsed.Scheme == "http" && port == "80") ||
			(parsed.Scheme == "https" && port == "443") {
			parsed.Host = parsed.Hostname()
		}
	}

	if len(parsed.Path) > 1 {
		parsed.Path = stripTrailingSlash(parsed.Path)
		parsed.RawPath = ""
	}
	if parsed.Path == "" && parsed.Host != "" {
		parsed.Path = "/"
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""

	return parsed.String()
}

// BaseDomain extracts the registrable domain from a hostname, stripping any
// port first. For hosts with more than two labels the last two are kept, so
// docs.example.com and api.example.com both map to example.com.
func BaseDomain(host string) string {
	host = lowerASCII(host)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// lowerASCII converts ASCII characters to lowercase without allocating.
// This is faster than strings.ToLower for ASCII-only strings.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
