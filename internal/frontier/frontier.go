package frontier

import (
	"github.com/hanifm/pagedown/pkg/urlutil"
)

/*
Frontier Responsibilities
- Maintain BFS ordering
- Deduplicate URLs by normalized key
- Track crawl depth
- Prevent infinite traversal
- Knows nothing about:
	- fetching
	- conversion
	- storage

It is a data structure + policy module, not a pipeline executor.
*/

// Frontier is the strict-FIFO queue of admitted URLs plus the visited set
// that guards admission. Visited is marked at ADMISSION time, not at
// processing time, so a URL discovered twice before either copy is
// processed still enters the queue exactly once.
type Frontier struct {
	queue   *FIFOQueue[Entry]
	visited Set[string]
}

func NewFrontier() *Frontier {
	return &Frontier{
		queue:   NewFIFOQueue[Entry](),
		visited: NewSet[string](),
	}
}

// Admit offers a URL to the frontier. It returns true when the URL was
// new (by normalized key) and is now queued, false when an equivalent
// URL was admitted before.
func (f *Frontier) Admit(rawURL string, depth int) bool {
	key := urlutil.Normalize(rawURL)
	if f.visited.Contains(key) {
		return false
	}
	f.visited.Add(key)
	f.queue.Enqueue(NewEntry(rawURL, depth))
	return true
}

// Seen reports whether an equivalent URL has already been admitted,
// without admitting anything.
func (f *Frontier) Seen(rawURL string) bool {
	return f.visited.Contains(urlutil.Normalize(rawURL))
}

// Next consumes the oldest queued entry. The second return value is
// false when the frontier is exhausted.
func (f *Frontier) Next() (Entry, bool) {
	return f.queue.Dequeue()
}

// Pending is the number of queued, not-yet-consumed entries.
func (f *Frontier) Pending() int {
	return f.queue.Size()
}

// VisitedCount is the number of distinct normalized URLs ever admitted.
func (f *Frontier) VisitedCount() int {
	return f.visited.Size()
}
