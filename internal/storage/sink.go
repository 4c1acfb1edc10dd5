package storage

import (
	"errors"
	"syscall"
	"time"

	"github.com/hanifm/pagedown/internal/metadata"
	"github.com/hanifm/pagedown/pkg/failure"
	"github.com/hanifm/pagedown/pkg/fileutil"
	"github.com/hanifm/pagedown/pkg/hashutil"
)

/*
Responsibilities
- Persist converted documents
- Ensure deterministic filenames (via the output mapper)
- Hash written content for the manifest

Output Characteristics
- Stable directory layout mirroring URL structure
- Idempotent writes
- Overwrite-safe reruns
*/

type Sink interface {
	Write(
		fullPath string,
		content []byte,
		kind metadata.ArtifactKind,
		sourceURL string,
	) (string, failure.ClassifiedError)
}

var _ Sink = (*LocalSink)(nil)

type LocalSink struct {
	metadataSink metadata.MetadataSink
	hashAlgo     hashutil.HashAlgo
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
	hashAlgo hashutil.HashAlgo,
) LocalSink {
	return LocalSink{
		metadataSink: metadataSink,
		hashAlgo:     hashAlgo,
	}
}

// Write persists content at fullPath, creating parent directories on
// demand, and returns the hex hash of the written content.
func (s *LocalSink) Write(
	fullPath string,
	content []byte,
	kind metadata.ArtifactKind,
	sourceURL string,
) (string, failure.ClassifiedError) {
	if err := fileutil.WriteFile(fullPath, content); err != nil {
		storageErr := &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      fullPath,
		}
		if errors.Is(err, syscall.ENOSPC) {
			storageErr.Cause = ErrCauseDiskFull
			storageErr.Retryable = true
		}
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(storageErr),
			storageErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceURL),
				metadata.NewAttr(metadata.AttrWritePath, fullPath),
			},
		)
		return "", storageErr
	}

	contentHash, hashErr := hashutil.HashBytes(content, s.hashAlgo)
	if hashErr != nil {
		// Hashing is manifest decoration; the file is already on disk.
		contentHash = ""
	}

	s.metadataSink.RecordArtifact(
		kind,
		fullPath,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, sourceURL),
			metadata.NewAttr(metadata.AttrWritePath, fullPath),
		},
	)
	return contentHash, nil
}
