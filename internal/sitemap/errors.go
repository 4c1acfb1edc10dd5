package sitemap

import (
	"fmt"

	"github.com/hanifm/pagedown/internal/metadata"
	"github.com/hanifm/pagedown/pkg/failure"
)

type SitemapErrorCause string

const (
	ErrCauseFetchFailure    SitemapErrorCause = "failed to fetch sitemap"
	ErrCauseXMLParseFailure SitemapErrorCause = "failed to parse sitemap XML"
	ErrCauseIndexTooDeep    SitemapErrorCause = "sitemap index nesting too deep"
)

type SitemapError struct {
	Message   string
	Retryable bool
	Cause     SitemapErrorCause
}

func (e *SitemapError) Error() string {
	return fmt.Sprintf("sitemap error: %s: %s", e.Cause, e.Message)
}

func (e *SitemapError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *SitemapError) IsRetryable() bool {
	return e.Retryable
}

func mapSitemapErrorToMetadataCause(err *SitemapError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseFetchFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseXMLParseFailure, ErrCauseIndexTooDeep:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
