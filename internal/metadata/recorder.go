package metadata

import (
	"log/slog"
	"os"
	"time"
)

/*
Metadata Collected
- Fetch timestamps
- HTTP status codes
- Crawl depth
- Written artifact paths

Logging Goals
- Debuggable crawl behavior
- Post-run auditability
- Failure diagnostics

Determinism guarantees:
 - Metadata does not affect control flow
 - Errors do not reorder the frontier
 - Output is stable given identical inputs

Metadata is write-only.
No component may read metadata to influence crawl decisions.
*/

/*
Recorder captures structured crawl events and emits them through slog.
It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events are recorded synchronously in the order they are received by the
  single crawl worker.
*/
type Recorder struct {
	workerId string
	logger   *slog.Logger
}

// NewRecorder creates a Recorder writing text logs to stderr. When verbose
// is false only warnings and errors are emitted.
func NewRecorder(workerId string, verbose bool) Recorder {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return Recorder{
		workerId: workerId,
		logger:   slog.New(handler).With(slog.String("worker", workerId)),
	}
}

// NewRecorderWithLogger creates a Recorder emitting through the provided
// logger. Used by tests to capture output.
func NewRecorderWithLogger(workerId string, logger *slog.Logger) Recorder {
	return Recorder{
		workerId: workerId,
		logger:   logger.With(slog.String("worker", workerId)),
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	args := []any{
		slog.String("package", packageName),
		slog.String("action", action),
		slog.String("cause", cause.String()),
		slog.Time("observed_at", observedAt),
	}
	for _, attr := range attrs {
		args = append(args, slog.String(string(attr.Key), attr.Value))
	}
	r.logger.Error(errorString, args...)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
	crawlDepth int,
) {
	r.logger.Info("fetch",
		slog.String("url", fetchUrl),
		slog.Int("status", httpStatus),
		slog.Duration("duration", duration),
		slog.String("content_type", contentType),
		slog.Int("retries", retryCount),
		slog.Int("depth", crawlDepth),
	)
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	args := []any{
		slog.String("kind", string(kind)),
		slog.String("path", path),
	}
	for _, attr := range attrs {
		args = append(args, slog.String(string(attr.Key), attr.Value))
	}
	r.logger.Info("artifact", args...)
}

// RecordPage logs the outcome of one processed page.
func (r *Recorder) RecordPage(url string, depth int, status string) {
	r.logger.Info("page",
		slog.String("url", url),
		slog.Int("depth", depth),
		slog.String("status", status),
	)
}

/*
RecordFinalCrawlStats records a terminal, derived summary of a completed crawl.

Contract:
  - MUST be called exactly once per crawl execution.
  - MUST be called only after crawl termination
    (frontier exhausted or a limit hit).
  - The provided stats MUST be derived from crawl-engine state,
    not accumulated incrementally via the recorder.
  - Recorded stats MUST NOT influence control flow.
*/
func (r *Recorder) RecordFinalCrawlStats(
	totalPages int,
	totalErrors int,
	duration time.Duration,
) {
	stats := crawlStats{
		totalPages:  totalPages,
		totalErrors: totalErrors,
		durationMs:  duration.Milliseconds(),
	}

	r.logger.Info("crawl complete",
		slog.Int("total_pages", stats.totalPages),
		slog.Int("total_errors", stats.totalErrors),
		slog.Int64("duration_ms", stats.durationMs),
	)
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		retryCount int,
		crawlDepth int,
	)

	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)

	RecordPage(url string, depth int, status string)
}

type CrawlFinalizer interface {
	RecordFinalCrawlStats(
		totalPages int,
		totalErrors int,
		duration time.Duration,
	)
}

// NoopSink implements MetadataSink but does nothing.
// Callers (or tests) can decide whether to inject Recorder or NoopSink;
// the purpose is to keep metadata orthogonal.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
	crawlDepth int,
) {
}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

func (n *NoopSink) RecordPage(url string, depth int, status string) {}

func (n *NoopSink) RecordFinalCrawlStats(
	totalPages int,
	totalErrors int,
	duration time.Duration,
) {
}
