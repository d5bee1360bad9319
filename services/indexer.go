package services

import (
	"context"
	"fmt"

	"movie-search-platform/internal/chroma"
	"movie-search-platform/models"
)

// VectorCollection is the slice of the chroma collection API the pipeline
// depends on.
type VectorCollection interface {
	Get(ctx context.Context, req chroma.GetRequest) (*chroma.GetResult, error)
	Add(ctx context.Context, req chroma.AddRequest) error
	Delete(ctx context.Context, where map[string]any) error
	Query(ctx context.Context, req chroma.QueryRequest) (*chroma.QueryResult, error)
}

// Indexer writes a document's chunk vectors into the vector store keyed by
// the document's unique content key.
type Indexer struct {
	collection VectorCollection
}

func NewIndexer(collection VectorCollection) *Indexer {
	return &Indexer{collection: collection}
}

// Exists reports whether any vector records for the document's unique key
// are already stored. An unchanged file produces the same key, so a positive
// answer means re-ingestion can be skipped entirely.
func (ix *Indexer) Exists(ctx context.Context, meta models.MovieMetadata) (bool, error) {
	res, err := ix.collection.Get(ctx, chroma.GetRequest{
		Where: map[string]any{"doc_uniq_key": meta.UniqueKey},
		Limit: 1,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return len(res.IDs) > 0, nil
}

// Upsert replaces the document's stored chunk set with the given chunks.
// Existing records for the same source file are deleted first, by file name
// rather than unique key: a touched file carries a new key, and chunk counts
// vary across re-ingestions, so anything narrower would leave orphans from
// the previous version. After a successful upsert the stored ids are exactly
// {key}_chunk_0 .. {key}_chunk_{n-1}.
func (ix *Indexer) Upsert(ctx context.Context, meta models.MovieMetadata, chunks []string, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}

	where := map[string]any{"doc_fname": meta.FileName}
	if err := ix.collection.Delete(ctx, where); err != nil {
		return fmt.Errorf("%w: delete stale chunks: %v", ErrStoreUnavailable, err)
	}

	ids := make([]string, len(chunks))
	metadatas := make([]map[string]any, len(chunks))
	for i := range chunks {
		ids[i] = models.ChunkID(meta.UniqueKey, i)
		metadatas[i] = meta.Map()
	}

	err := ix.collection.Add(ctx, chroma.AddRequest{
		IDs:        ids,
		Embeddings: embeddings,
		Metadatas:  metadatas,
		Documents:  chunks,
	})
	if err != nil {
		return fmt.Errorf("%w: add chunks: %v", ErrStoreUnavailable, err)
	}
	return nil
}
