package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"movie-search-platform/internal/chroma"
	"movie-search-platform/models"
)

func presetQueryResult() *chroma.QueryResult {
	return &chroma.QueryResult{
		IDs:       [][]string{{"k_chunk_0", "k_chunk_1", "k_chunk_2"}},
		Documents: [][]string{{"nearest", "middle", "farthest"}},
		Metadatas: [][]map[string]any{{
			{"doc_name": "Solar Drift", "doc_year": float64(2020)},
			{"doc_name": "Night Freight", "doc_year": float64(1998)},
			{"doc_name": "Glass Harbor", "doc_year": float64(2011)},
		}},
		Distances: [][]float64{{0.12, 0.34, 0.56}},
	}
}

func TestSearchPreservesStoreOrder(t *testing.T) {
	col := newFakeCollection()
	col.queryResult = presetQueryResult()
	svc := NewSearchService(&fakeEmbedder{}, col)

	resp, err := svc.Search(context.Background(), models.SearchRequest{Query: "space freight", TopK: 3})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Results))
	}

	wantTexts := []string{"nearest", "middle", "farthest"}
	for i, chunk := range resp.Results {
		if chunk.Text != wantTexts[i] {
			t.Errorf("result %d: got %q, want %q", i, chunk.Text, wantTexts[i])
		}
	}
	if resp.Results[0].Distance >= resp.Results[2].Distance {
		t.Error("nearest-first ordering lost in reshape")
	}
	if resp.Results[1].Metadata["doc_name"] != "Night Freight" {
		t.Errorf("metadata misaligned with documents: %v", resp.Results[1].Metadata)
	}
}

func TestSearchSmallerStoreReturnsFewer(t *testing.T) {
	col := newFakeCollection()
	col.queryResult = &chroma.QueryResult{
		IDs:       [][]string{{"only"}},
		Documents: [][]string{{"single chunk"}},
	}
	svc := NewSearchService(&fakeEmbedder{}, col)

	resp, err := svc.Search(context.Background(), models.SearchRequest{Query: "anything", TopK: 10})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result from a near-empty store, got %d", len(resp.Results))
	}
}

func TestSearchEmptyStore(t *testing.T) {
	svc := NewSearchService(&fakeEmbedder{}, newFakeCollection())
	resp, err := svc.Search(context.Background(), models.SearchRequest{Query: "anything", TopK: 3})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if resp.Results == nil {
		t.Fatal("empty store should yield an empty slice, not nil")
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected no results, got %d", len(resp.Results))
	}
}

func TestSearchValidationBeforeEmbedding(t *testing.T) {
	cases := []struct {
		name string
		req  models.SearchRequest
	}{
		{"empty query", models.SearchRequest{Query: "   ", TopK: 3}},
		{"query too long", models.SearchRequest{Query: strings.Repeat("q", MaxQueryLength+1), TopK: 3}},
		{"top_k too small", models.SearchRequest{Query: "ok", TopK: 0}},
		{"top_k too large", models.SearchRequest{Query: "ok", TopK: MaxTopK + 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			emb := &fakeEmbedder{}
			svc := NewSearchService(emb, newFakeCollection())
			_, err := svc.Search(context.Background(), tc.req)

			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if emb.batchCount() != 0 {
				t.Fatal("invalid request must not reach the embedder")
			}
		})
	}
}

func TestSearchModelFailure(t *testing.T) {
	svc := NewSearchService(&fakeEmbedder{fail: true}, newFakeCollection())
	_, err := svc.Search(context.Background(), models.SearchRequest{Query: "ok", TopK: 3})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestSearchStoreFailure(t *testing.T) {
	col := newFakeCollection()
	col.failQuery = true
	svc := NewSearchService(&fakeEmbedder{}, col)
	_, err := svc.Search(context.Background(), models.SearchRequest{Query: "ok", TopK: 3})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
