package models

import "time"

// Per-file ingestion outcomes. Skipped means the document's unique key was
// already present in the vector store, so nothing was mutated.
const (
	IngestIndexed = "indexed"
	IngestSkipped = "skipped"
	IngestFailed  = "failed"
)

// FileResult is the typed outcome of processing one source file.
type FileResult struct {
	File   string `json:"file" bson:"file"`
	Status string `json:"status" bson:"status"`
	Chunks int    `json:"chunks,omitempty" bson:"chunks,omitempty"`
	Error  string `json:"error,omitempty" bson:"error,omitempty"`
}

// IngestReport aggregates one ingestion run. Failures are per-file; a report
// with failures still reflects a completed run over the remaining documents.
type IngestReport struct {
	RunID      string       `json:"run_id" bson:"run_id"`
	StartedAt  time.Time    `json:"started_at" bson:"started_at"`
	FinishedAt time.Time    `json:"finished_at" bson:"finished_at"`
	Indexed    int          `json:"indexed" bson:"indexed"`
	Skipped    int          `json:"skipped" bson:"skipped"`
	Failed     int          `json:"failed" bson:"failed"`
	Results    []FileResult `json:"results" bson:"results"`
}

// Add records a single file outcome and updates the counters.
func (r *IngestReport) Add(result FileResult) {
	r.Results = append(r.Results, result)
	switch result.Status {
	case IngestIndexed:
		r.Indexed++
	case IngestSkipped:
		r.Skipped++
	case IngestFailed:
		r.Failed++
	}
}
