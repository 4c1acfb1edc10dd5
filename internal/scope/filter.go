package scope

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hanifm/pagedown/pkg/urlutil"
)

/*
Responsibilities
- Decide whether a discovered URL is eligible for traversal
- Know nothing about fetching, queues, or visited state

The filter is pure policy: given a candidate list, a seed URL, and a policy,
it returns the admissible subset in input order. Deduplication belongs to the
crawl engine, not here.
*/

// Policy selects which discovered URLs stay in scope relative to the seed.
type Policy int

const (
	// SameSubdomain admits only candidates whose host equals the seed host
	// exactly (case-insensitive).
	SameSubdomain Policy = iota
	// SameDomain admits candidates sharing the seed's registrable base
	// domain, so sibling subdomains stay in scope.
	SameDomain
	// PathPrefix admits candidates on the seed host whose path starts with
	// a configured prefix (defaulting to the seed's own path).
	PathPrefix
)

func (p Policy) String() string {
	switch p {
	case SameSubdomain:
		return "subdomain"
	case SameDomain:
		return "domain"
	case PathPrefix:
		return "path-prefix"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts a CLI-level policy name into a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "subdomain", "same-subdomain":
		return SameSubdomain, nil
	case "domain", "same-domain":
		return SameDomain, nil
	case "path-prefix", "prefix":
		return PathPrefix, nil
	default:
		return SameSubdomain, fmt.Errorf("unknown scope policy: %q", name)
	}
}

// Filter returns the candidates admissible under the policy, preserving
// input order. pathPrefix is only consulted for PathPrefix; when empty the
// seed's own path serves as the prefix.
func Filter(candidates []string, seedURL string, policy Policy, pathPrefix string) []string {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil
	}

	filtered := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		parsed, err := url.Parse(candidate)
		if err != nil {
			continue
		}
		if admits(parsed, seed, policy, pathPrefix) {
			filtered = append(filtered, candidate)
		}
	}
	return filtered
}

func admits(candidate *url.URL, seed *url.URL, policy Policy, pathPrefix string) bool {
	switch policy {
	case SameDomain:
		return urlutil.BaseDomain(candidate.Host) == urlutil.BaseDomain(seed.Host)

	case SameSubdomain:
		return hostsEqual(candidate.Host, seed.Host)

	case PathPrefix:
		// Host equality is a hard requirement; a path match on a foreign
		// host must never admit a candidate.
		if !hostsEqual(candidate.Host, seed.Host) {
			return false
		}

		prefix := pathPrefix
		if prefix == "" {
			prefix = seed.Path
		}
		if !strings.HasSuffix(prefix, "/") {
			// Treat the final segment as a page, not a directory:
			// /docs/intro keeps the prefix /docs/.
			if i := strings.LastIndex(prefix, "/"); i >= 0 {
				prefix = prefix[:i+1]
			} else {
				prefix += "/"
			}
		}

		return strings.HasPrefix(candidate.Path, prefix) ||
			candidate.Path == strings.TrimSuffix(prefix, "/")

	default:
		return false
	}
}

func hostsEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}
