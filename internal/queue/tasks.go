package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"movie-search-platform/internal/logger"
	"movie-search-platform/models"
	"movie-search-platform/services"
)

const (
	TaskIndexMovie  = "movie:index"
	TaskScanLibrary = "movie:scan"
)

type IndexMoviePayload struct {
	Path string `json:"path"`
}

type ScanLibraryPayload struct {
	Dir string `json:"dir"`
}

// Task creators
func NewIndexMovieTask(path string) (*asynq.Task, error) {
	payload, err := json.Marshal(IndexMoviePayload{Path: path})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskIndexMovie,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("default"),
	), nil
}

func NewScanLibraryTask(dir string) (*asynq.Task, error) {
	payload, err := json.Marshal(ScanLibraryPayload{Dir: dir})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskScanLibrary,
		payload,
		asynq.MaxRetry(1),
		asynq.Timeout(time.Minute),
		asynq.Queue("default"),
	), nil
}

// TaskProcessor handles ingestion tasks. Each index task covers one source
// file, so concurrent workers never interleave delete and insert under the
// same document key.
type TaskProcessor struct {
	ingestor *services.Ingestor
	client   *asynq.Client
}

func NewTaskProcessor(ingestor *services.Ingestor, client *asynq.Client) *TaskProcessor {
	return &TaskProcessor{ingestor: ingestor, client: client}
}

// HandleIndexMovie processes one source file. Validation failures are
// permanent and skip asynq's retry; transient infrastructure failures are
// returned so asynq retries them.
func (p *TaskProcessor) HandleIndexMovie(ctx context.Context, t *asynq.Task) error {
	var payload IndexMoviePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	result, err := p.ingestor.ProcessFile(ctx, payload.Path)
	switch result.Status {
	case models.IngestIndexed:
		logger.Info("indexed document", "file", payload.Path, "chunks", result.Chunks)
		return nil
	case models.IngestSkipped:
		logger.Info("skipping unchanged document", "file", payload.Path)
		return nil
	default:
		if services.IsValidationFailure(err) {
			logger.Error("invalid document, not retrying", "file", payload.Path, "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
}

// HandleScanLibrary walks the movie directory and enqueues one index task
// per source file.
func (p *TaskProcessor) HandleScanLibrary(ctx context.Context, t *asynq.Task) error {
	var payload ScanLibraryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	paths, err := services.ListMovieFiles(payload.Dir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		task, err := NewIndexMovieTask(path)
		if err != nil {
			return err
		}
		if _, err := p.client.EnqueueContext(ctx, task); err != nil {
			return fmt.Errorf("enqueue index task for %s: %w", path, err)
		}
	}
	logger.Info("enqueued library scan", "dir", payload.Dir, "files", len(paths))
	return nil
}
