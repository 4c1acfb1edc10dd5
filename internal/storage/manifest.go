package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hanifm/pagedown/internal/metadata"
	"github.com/hanifm/pagedown/pkg/failure"
	"github.com/hanifm/pagedown/pkg/fileutil"
)

// ManifestFilename is fixed; every run overwrites the previous manifest
// unconditionally.
const ManifestFilename = "index.json"

const manifestVersion = "1.0"

type manifestDTO struct {
	Version   string           `json:"version"`
	CrawlInfo crawlInfoDTO     `json:"crawl_info"`
	Pages     []crawledPageDTO `json:"pages"`
}

type crawlInfoDTO struct {
	SeedURLs     []string `json:"seed_urls"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	TotalPages   int      `json:"total_pages"`
	Successful   int      `json:"successful"`
	Errors       int      `json:"errors"`
	Skipped      int      `json:"skipped"`
	MaxDepth     int      `json:"max_depth"`
	OutputFormat string   `json:"output_format"`
}

type crawledPageDTO struct {
	URL          string  `json:"url"`
	OutputPath   string  `json:"output_path"`
	Title        *string `json:"title"`
	CrawledAt    string  `json:"crawled_at"`
	Depth        int     `json:"depth"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message"`
	ContentHash  string  `json:"content_hash,omitempty"`
}

type ManifestWriter struct {
	metadataSink metadata.MetadataSink
}

func NewManifestWriter(metadataSink metadata.MetadataSink) ManifestWriter {
	return ManifestWriter{
		metadataSink: metadataSink,
	}
}

// WriteManifest serializes result as index.json at the output directory
// root and returns the manifest path.
func (m *ManifestWriter) WriteManifest(
	result CrawlResult,
	outputDir string,
) (string, failure.ClassifiedError) {
	manifestPath := filepath.Join(outputDir, ManifestFilename)

	encoded, err := json.MarshalIndent(toManifestDTO(result), "", "  ")
	if err != nil {
		storageErr := &StorageError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
			Path:      manifestPath,
		}
		m.recordError(storageErr)
		return "", storageErr
	}

	if writeErr := fileutil.WriteFile(manifestPath, encoded); writeErr != nil {
		storageErr := &StorageError{
			Message:   writeErr.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      manifestPath,
		}
		m.recordError(storageErr)
		return "", storageErr
	}

	m.metadataSink.RecordArtifact(
		metadata.ArtifactManifest,
		manifestPath,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, manifestPath),
		},
	)
	return manifestPath, nil
}

func (m *ManifestWriter) recordError(storageErr *StorageError) {
	m.metadataSink.RecordError(
		time.Now(),
		"storage",
		"ManifestWriter.WriteManifest",
		mapStorageErrorToMetadataCause(storageErr),
		storageErr.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, storageErr.Path),
		},
	)
}

func toManifestDTO(result CrawlResult) manifestDTO {
	pages := make([]crawledPageDTO, 0, len(result.Pages()))
	for _, page := range result.Pages() {
		pages = append(pages, toPageDTO(page))
	}

	seedURLs := result.SeedURLs()
	if seedURLs == nil {
		seedURLs = []string{}
	}

	return manifestDTO{
		Version: manifestVersion,
		CrawlInfo: crawlInfoDTO{
			SeedURLs:     seedURLs,
			StartTime:    result.StartTime().Format(time.RFC3339),
			EndTime:      result.EndTime().Format(time.RFC3339),
			TotalPages:   len(result.Pages()),
			Successful:   result.SuccessfulCount(),
			Errors:       result.ErrorCount(),
			Skipped:      result.SkippedCount(),
			MaxDepth:     result.MaxDepth(),
			OutputFormat: string(result.OutputFormat()),
		},
		Pages: pages,
	}
}

func toPageDTO(page CrawledPage) crawledPageDTO {
	dto := crawledPageDTO{
		URL:         page.URL(),
		OutputPath:  page.OutputPath(),
		CrawledAt:   page.CrawledAt().Format(time.RFC3339),
		Depth:       page.Depth(),
		Status:      string(page.Status()),
		ContentHash: page.ContentHash(),
	}
	if title := page.Title(); title != "" {
		dto.Title = &title
	}
	if msg := page.ErrorMessage(); msg != "" {
		dto.ErrorMessage = &msg
	}
	return dto
}
