package fetcher

import (
	"context"

	"github.com/hanifm/pagedown/pkg/failure"
	"github.com/hanifm/pagedown/pkg/retry"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		crawlDepth int,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
