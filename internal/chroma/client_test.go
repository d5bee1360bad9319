package chroma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	port, err := strconv.Atoi(parsed.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	return NewClient(Config{Host: parsed.Hostname(), Port: port}), server
}

func TestGetOrCreateCollection(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/collections" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "col-1", "name": "movies"})
	}))

	col, err := client.GetOrCreateCollection(context.Background(), "movies")
	if err != nil {
		t.Fatalf("get-or-create failed: %v", err)
	}
	if col.ID != "col-1" || col.Name != "movies" {
		t.Fatalf("unexpected collection: %+v", col)
	}
	if gotBody["get_or_create"] != true {
		t.Errorf("request must ask for get_or_create, got %v", gotBody)
	}
}

func TestCollectionQueryDecodesBatchedResult(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/collections/col-1/query") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.NResults != 2 {
			t.Errorf("n_results not forwarded, got %d", req.NResults)
		}
		json.NewEncoder(w).Encode(QueryResult{
			IDs:       [][]string{{"a", "b"}},
			Documents: [][]string{{"doc a", "doc b"}},
			Metadatas: [][]map[string]any{{{"doc_name": "A"}, {"doc_name": "B"}}},
			Distances: [][]float64{{0.1, 0.2}},
		})
	}))

	col := &Collection{ID: "col-1", Name: "movies", client: client}
	res, err := col.Query(context.Background(), QueryRequest{
		QueryEmbeddings: [][]float32{{1, 0}},
		NResults:        2,
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(res.Documents) != 1 || len(res.Documents[0]) != 2 {
		t.Fatalf("batched shape lost: %+v", res.Documents)
	}
	if res.Distances[0][0] >= res.Distances[0][1] {
		t.Error("nearest-first order lost in decode")
	}
}

func TestCollectionGetForwardsFilter(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Where["doc_uniq_key"] != "solar.json_2020_100" {
			t.Errorf("where filter not forwarded: %v", req.Where)
		}
		if req.Limit != 1 {
			t.Errorf("limit not forwarded: %d", req.Limit)
		}
		json.NewEncoder(w).Encode(GetResult{IDs: []string{"solar.json_2020_100_chunk_0"}})
	}))

	col := &Collection{ID: "col-1", client: client}
	res, err := col.Get(context.Background(), GetRequest{
		Where: map[string]any{"doc_uniq_key": "solar.json_2020_100"},
		Limit: 1,
	})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(res.IDs) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCollectionDeleteSendsWhere(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/collections/col-1/delete") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))

	col := &Collection{ID: "col-1", client: client}
	err := col.Delete(context.Background(), map[string]any{"doc_uniq_key": "k"})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	where, ok := gotBody["where"].(map[string]any)
	if !ok || where["doc_uniq_key"] != "k" {
		t.Fatalf("where filter not wrapped in request body: %v", gotBody)
	}
}

func TestServerErrorSurfacesStatusAndDetail(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))

	col := &Collection{ID: "missing", client: client}
	err := col.Add(context.Background(), AddRequest{IDs: []string{"x"}})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "collection not found") {
		t.Fatalf("error should carry status and server detail, got %v", err)
	}
}
