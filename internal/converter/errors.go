package converter

import (
	"fmt"

	"github.com/hanifm/pagedown/internal/metadata"
	"github.com/hanifm/pagedown/pkg/failure"
)

type ConversionErrorCause string

const (
	ErrCauseFetchFailure      ConversionErrorCause = "failed to fetch page"
	ErrCauseParseFailure      ConversionErrorCause = "failed to parse HTML"
	ErrCauseInvalidSelector   ConversionErrorCause = "invalid CSS selector"
	ErrCauseConversionFailure ConversionErrorCause = "failed to convert HTML"
)

type ConversionError struct {
	Message   string
	Retryable bool
	Cause     ConversionErrorCause
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converter error: %s: %s", e.Cause, e.Message)
}

func (e *ConversionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *ConversionError) IsRetryable() bool {
	return e.Retryable
}

func mapConversionErrorToMetadataCause(err *ConversionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseFetchFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseParseFailure, ErrCauseConversionFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
