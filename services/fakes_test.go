package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"movie-search-platform/internal/chroma"
)

// fakeCollection is an in-memory VectorCollection recording every mutation.
type fakeCollection struct {
	mu      sync.Mutex
	records map[string]fakeRecord

	queryResult *chroma.QueryResult

	getCalls    int
	addCalls    int
	deleteCalls int
	queryCalls  int

	failGet    bool
	failAdd    bool
	failDelete bool
	failQuery  bool
}

type fakeRecord struct {
	document  string
	metadata  map[string]any
	embedding []float32
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{records: map[string]fakeRecord{}}
}

func (f *fakeCollection) Get(ctx context.Context, req chroma.GetRequest) (*chroma.GetResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.failGet {
		return nil, errors.New("get failed")
	}
	res := &chroma.GetResult{}
	for id, rec := range f.records {
		if matchesWhere(rec.metadata, req.Where) {
			res.IDs = append(res.IDs, id)
			res.Documents = append(res.Documents, rec.document)
			res.Metadatas = append(res.Metadatas, rec.metadata)
			if req.Limit > 0 && len(res.IDs) >= req.Limit {
				break
			}
		}
	}
	return res, nil
}

func (f *fakeCollection) Add(ctx context.Context, req chroma.AddRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if f.failAdd {
		return errors.New("add failed")
	}
	for i, id := range req.IDs {
		f.records[id] = fakeRecord{
			document:  req.Documents[i],
			metadata:  req.Metadatas[i],
			embedding: req.Embeddings[i],
		}
	}
	return nil
}

func (f *fakeCollection) Delete(ctx context.Context, where map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.failDelete {
		return errors.New("delete failed")
	}
	for id, rec := range f.records {
		if matchesWhere(rec.metadata, where) {
			delete(f.records, id)
		}
	}
	return nil
}

func (f *fakeCollection) Query(ctx context.Context, req chroma.QueryRequest) (*chroma.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if f.failQuery {
		return nil, errors.New("query failed")
	}
	if f.queryResult != nil {
		return f.queryResult, nil
	}
	return &chroma.QueryResult{}, nil
}

func (f *fakeCollection) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.records))
	for id := range f.records {
		out = append(out, id)
	}
	return out
}

func matchesWhere(meta, where map[string]any) bool {
	for key, want := range where {
		if fmt.Sprintf("%v", meta[key]) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

// fakeEmbedder produces deterministic vectors without a model call.
type fakeEmbedder struct {
	mu      sync.Mutex
	batches [][]string
	fail    bool
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail {
		return nil, errors.New("model offline")
	}
	e.batches = append(e.batches, texts)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), float32(i)}
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int { return 2 }

func (e *fakeEmbedder) batchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.batches)
}

// fakeCacheStore is a CacheStore with an injectable clock for TTL tests.
type fakeCacheStore struct {
	mu      sync.Mutex
	now     time.Time
	entries map[string]fakeCacheEntry
	failing bool
}

type fakeCacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{
		now:     time.Unix(1700000000, 0),
		entries: map[string]fakeCacheEntry{},
	}
}

func (s *fakeCacheStore) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *fakeCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, errors.New("store offline")
	}
	entry, ok := s.entries[key]
	if !ok || !s.now.Before(entry.expiresAt) {
		return nil, nil
	}
	return entry.value, nil
}

func (s *fakeCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("store offline")
	}
	s.entries[key] = fakeCacheEntry{value: value, expiresAt: s.now.Add(ttl)}
	return nil
}

// fakeCompleter records the last completion call.
type fakeCompleter struct {
	system string
	prompt string
	answer string
	fail   bool
}

func (c *fakeCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c.fail {
		return "", errors.New("completion offline")
	}
	c.system = system
	c.prompt = prompt
	return c.answer, nil
}
