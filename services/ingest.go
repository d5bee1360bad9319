package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"movie-search-platform/internal/ai"
	"movie-search-platform/internal/logger"
	"movie-search-platform/models"

	"github.com/google/uuid"
)

// ReportStore persists ingestion run reports. Saving is best-effort; a store
// failure never fails the run.
type ReportStore interface {
	SaveReport(ctx context.Context, report models.IngestReport) error
}

// Ingestor drives the ingestion pipeline for movie source files:
// parse/validate -> dedup check -> chunk -> embed -> upsert. The unit of
// failure is one document; already-upserted documents stay upserted when a
// later one fails.
type Ingestor struct {
	chunker  *Chunker
	embedder ai.Embedder
	indexer  *Indexer
	reports  ReportStore
}

func NewIngestor(chunker *Chunker, embedder ai.Embedder, indexer *Indexer, reports ReportStore) *Ingestor {
	return &Ingestor{
		chunker:  chunker,
		embedder: embedder,
		indexer:  indexer,
		reports:  reports,
	}
}

// LoadMovieFile reads and validates one source file and derives the chunk
// metadata from its content and modification time.
func LoadMovieFile(path string) (models.MovieMetadata, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.MovieMetadata{}, "", fmt.Errorf("read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return models.MovieMetadata{}, "", fmt.Errorf("stat %s: %w", path, err)
	}
	movie, err := models.ParseMovie(data)
	if err != nil {
		return models.MovieMetadata{}, "", err
	}
	meta := models.NewMovieMetadata(movie, filepath.Base(path), info.ModTime())
	return meta, movie.Storyline, nil
}

// ProcessFile runs the pipeline for a single source file. The returned error
// is the underlying failure (nil for indexed and skipped outcomes); the
// FileResult carries the typed outcome for the batch report.
func (ing *Ingestor) ProcessFile(ctx context.Context, path string) (models.FileResult, error) {
	result := models.FileResult{File: path}

	meta, storyline, err := LoadMovieFile(path)
	if err != nil {
		result.Status = models.IngestFailed
		result.Error = err.Error()
		return result, err
	}

	exists, err := ing.indexer.Exists(ctx, meta)
	if err != nil {
		result.Status = models.IngestFailed
		result.Error = err.Error()
		return result, err
	}
	if exists {
		result.Status = models.IngestSkipped
		return result, nil
	}

	chunks := ing.chunker.Chunk(storyline)
	embeddings, err := ing.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		result.Status = models.IngestFailed
		result.Error = err.Error()
		return result, err
	}

	if err := ing.indexer.Upsert(ctx, meta, chunks, embeddings); err != nil {
		result.Status = models.IngestFailed
		result.Error = err.Error()
		return result, err
	}

	result.Status = models.IngestIndexed
	result.Chunks = len(chunks)
	return result, nil
}

// Run walks a directory tree of movie JSON files and processes each one,
// isolating per-file failures. The aggregated report is persisted when a
// report store is configured.
func (ing *Ingestor) Run(ctx context.Context, dir string) (models.IngestReport, error) {
	report := models.IngestReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	paths, err := ListMovieFiles(dir)
	if err != nil {
		return report, err
	}

	for _, path := range paths {
		result, err := ing.ProcessFile(ctx, path)
		switch result.Status {
		case models.IngestIndexed:
			logger.Info("indexed document", "file", path, "chunks", result.Chunks)
		case models.IngestSkipped:
			logger.Info("skipping unchanged document", "file", path)
		case models.IngestFailed:
			logger.Error("failed to process document", "file", path, "error", err)
		}
		report.Add(result)
	}

	report.FinishedAt = time.Now().UTC()
	if ing.reports != nil {
		if err := ing.reports.SaveReport(ctx, report); err != nil {
			logger.Warn("failed to persist ingest report", "run_id", report.RunID, "error", err)
		}
	}
	return report, nil
}

// ListMovieFiles returns all .json files under dir, in walk order.
func ListMovieFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return paths, nil
}

// IsValidationFailure reports whether a processing error was a document
// validation problem rather than a transient infrastructure failure.
// Validation failures are permanent and must not be retried.
func IsValidationFailure(err error) bool {
	var verr *models.ValidationError
	return errors.As(err, &verr)
}
