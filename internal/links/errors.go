package links

import (
	"fmt"

	"github.com/hanifm/pagedown/internal/metadata"
	"github.com/hanifm/pagedown/pkg/failure"
)

type LinkErrorCause string

const (
	ErrCauseParseFailure LinkErrorCause = "failed to parse HTML"
)

type LinkError struct {
	Message   string
	Retryable bool
	Cause     LinkErrorCause
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("links error: %s: %s", e.Cause, e.Message)
}

func (e *LinkError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *LinkError) IsRetryable() bool {
	return e.Retryable
}

func mapLinkErrorToMetadataCause(err *LinkError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseParseFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
