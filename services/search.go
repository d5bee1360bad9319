package services

import (
	"context"
	"fmt"
	"strings"

	"movie-search-platform/internal/ai"
	"movie-search-platform/internal/chroma"
	"movie-search-platform/models"
)

// Request bounds. Enforced here as well as at the HTTP binding layer so
// non-HTTP callers (worker, tests) get the same contract.
const (
	MaxQueryLength = 512
	MinTopK        = 1
	MaxTopK        = 10
)

// SearchService embeds a query and retrieves the nearest chunks from the
// vector store.
type SearchService struct {
	embedder   ai.Embedder
	collection VectorCollection
}

func NewSearchService(embedder ai.Embedder, collection VectorCollection) *SearchService {
	return &SearchService{embedder: embedder, collection: collection}
}

// Search validates the request, embeds the query text, and returns chunks
// ordered nearest first. Requesting more results than the collection holds
// returns fewer results, never an error.
func (s *SearchService) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	if err := validateSearchRequest(req); err != nil {
		return nil, err
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, []string{req.Query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	res, err := s.collection.Query(ctx, chroma.QueryRequest{
		QueryEmbeddings: embeddings,
		NResults:        req.TopK,
		Include:         []string{"documents", "metadatas", "distances"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &models.SearchResponse{Results: reshapeResults(res)}, nil
}

// validateSearchRequest rejects out-of-range fields before any model call is
// made; an unbounded query must not cost an embedding invocation.
func validateSearchRequest(req models.SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return &models.ValidationError{Message: "query must not be empty"}
	}
	if len(req.Query) > MaxQueryLength {
		return &models.ValidationError{
			Message: fmt.Sprintf("query exceeds maximum length of %d", MaxQueryLength),
		}
	}
	if req.TopK < MinTopK || req.TopK > MaxTopK {
		return &models.ValidationError{
			Message: fmt.Sprintf("top_k must be between %d and %d", MinTopK, MaxTopK),
		}
	}
	return nil
}

// reshapeResults flattens the store's batched result structure for the first
// (only) query embedding, preserving the store's nearest-first order.
func reshapeResults(res *chroma.QueryResult) []models.RetrievedChunk {
	if res == nil || len(res.Documents) == 0 {
		return []models.RetrievedChunk{}
	}

	documents := res.Documents[0]
	chunks := make([]models.RetrievedChunk, 0, len(documents))
	for i, doc := range documents {
		chunk := models.RetrievedChunk{Text: doc}
		if len(res.Metadatas) > 0 && i < len(res.Metadatas[0]) {
			chunk.Metadata = res.Metadatas[0][i]
		}
		if len(res.Distances) > 0 && i < len(res.Distances[0]) {
			chunk.Distance = res.Distances[0][i]
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
