package aidoc

// Options controls the shape of the structured XML document.
// Immutable after construction.
type Options struct {
	includeMetadata bool
	addDate         bool
	docTag          string
	beautify        bool
}

const defaultDocTag = "ai_documentation"

func NewOptions(
	includeMetadata bool,
	addDate bool,
	docTag string,
	beautify bool,
) Options {
	if docTag == "" {
		docTag = defaultDocTag
	}
	return Options{
		includeMetadata: includeMetadata,
		addDate:         addDate,
		docTag:          docTag,
		beautify:        beautify,
	}
}

func (o Options) IncludeMetadata() bool {
	return o.includeMetadata
}

func (o Options) AddDate() bool {
	return o.addDate
}

func (o Options) DocTag() string {
	return o.docTag
}

func (o Options) Beautify() bool {
	return o.beautify
}
