package frontier

// Entry is one discovered-but-not-yet-processed URL.
//
// Lifecycle:
// - Created when discovered and admitted
// - Consumed exactly once when dequeued
// - Never re-enqueued (enforced by the visited set)
//
// Entry carries the URL as originally discovered; normalization applies
// only to the dedup key, never to what gets fetched.
type Entry struct {
	url   string
	depth int
}

func NewEntry(url string, depth int) Entry {
	return Entry{
		url:   url,
		depth: depth,
	}
}

func (e Entry) URL() string {
	return e.url
}

func (e Entry) Depth() int {
	return e.depth
}
