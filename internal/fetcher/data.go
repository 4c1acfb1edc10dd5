package fetcher

import (
	"net/url"
	"time"
)

// HTTP boundary

type FetchParam struct {
	fetchUrl  url.URL
	userAgent string
	timeout   time.Duration
	// requireHTML rejects responses whose Content-Type is not an HTML type.
	// Sitemap fetches set this to false to accept XML.
	requireHTML bool
}

func NewFetchParam(
	fetchUrl url.URL,
	userAgent string,
	timeout time.Duration,
	requireHTML bool,
) FetchParam {
	return FetchParam{
		fetchUrl:    fetchUrl,
		userAgent:   userAgent,
		timeout:     timeout,
		requireHTML: requireHTML,
	}
}

func (p FetchParam) FetchURL() url.URL {
	return p.fetchUrl
}

func (p FetchParam) UserAgent() string {
	return p.userAgent
}

func (p FetchParam) Timeout() time.Duration {
	return p.timeout
}

func (p FetchParam) RequireHTML() bool {
	return p.requireHTML
}

type ResponseMeta struct {
	statusCode          int
	transferredSizeByte uint64
	responseHeaders     map[string]string
}

type FetchResult struct {
	url  url.URL
	body []byte
	meta ResponseMeta
}

func NewResponseMeta(
	statusCode int,
	transferredSizeByte uint64,
	responseHeaders map[string]string,
) ResponseMeta {
	return ResponseMeta{
		statusCode:          statusCode,
		transferredSizeByte: transferredSizeByte,
		responseHeaders:     responseHeaders,
	}
}

func NewFetchResult(fetchUrl url.URL, body []byte, meta ResponseMeta) FetchResult {
	return FetchResult{
		url:  fetchUrl,
		body: body,
		meta: meta,
	}
}

func (r FetchResult) URL() url.URL {
	return r.url
}

func (r FetchResult) Body() []byte {
	return r.body
}

func (r FetchResult) Code() int {
	return r.meta.statusCode
}

func (r FetchResult) Headers() map[string]string {
	return r.meta.responseHeaders
}

func (r FetchResult) TransferredSize() uint64 {
	return r.meta.transferredSizeByte
}
