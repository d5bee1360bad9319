package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a minimal REST client to a ChromaDB server. The pipeline depends
// on five collection operations: get-or-create, query, get, add, delete.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds connection settings for the Chroma server.
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    fmt.Sprintf("http://%s:%d/api/v1", cfg.Host, cfg.Port),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Collection is a handle to a named chroma collection.
type Collection struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	client *Client
}

// GetOrCreateCollection returns the collection with the given name, creating
// it on the server if it does not exist yet.
func (c *Client) GetOrCreateCollection(ctx context.Context, name string) (*Collection, error) {
	body := map[string]any{
		"name":          name,
		"get_or_create": true,
	}
	var col Collection
	if err := c.postJSON(ctx, "/collections", body, &col); err != nil {
		return nil, err
	}
	col.client = c
	return &col, nil
}

// AddRequest carries one batch of vector records. All slices must have the
// same length.
type AddRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas"`
	Documents  []string         `json:"documents"`
}

// Add inserts vector records into the collection.
func (col *Collection) Add(ctx context.Context, req AddRequest) error {
	return col.client.postJSON(ctx, "/collections/"+col.ID+"/add", req, nil)
}

// GetRequest selects records by metadata filter.
type GetRequest struct {
	Where   map[string]any `json:"where,omitempty"`
	Limit   int            `json:"limit,omitempty"`
	Include []string       `json:"include,omitempty"`
}

// GetResult holds records matched by a Get.
type GetResult struct {
	IDs       []string         `json:"ids"`
	Documents []string         `json:"documents"`
	Metadatas []map[string]any `json:"metadatas"`
}

// Get fetches records whose metadata matches the filter.
func (col *Collection) Get(ctx context.Context, req GetRequest) (*GetResult, error) {
	var res GetResult
	if err := col.client.postJSON(ctx, "/collections/"+col.ID+"/get", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// QueryRequest is a nearest-neighbor search over the collection.
type QueryRequest struct {
	QueryEmbeddings [][]float32    `json:"query_embeddings"`
	NResults        int            `json:"n_results"`
	Where           map[string]any `json:"where,omitempty"`
	Include         []string       `json:"include,omitempty"`
}

// QueryResult is batched per query embedding: the outer slice index matches
// the query embedding index, inner slices are ordered nearest first.
type QueryResult struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

// Query runs a nearest-neighbor search and returns at most NResults matches
// per query embedding, fewer when the collection holds fewer records.
func (col *Collection) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	var res QueryResult
	if err := col.client.postJSON(ctx, "/collections/"+col.ID+"/query", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Delete removes all records whose metadata matches the filter.
func (col *Collection) Delete(ctx context.Context, where map[string]any) error {
	body := map[string]any{"where": where}
	return col.client.postJSON(ctx, "/collections/"+col.ID+"/delete", body, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("chroma: encode request for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("chroma: build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chroma: POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chroma: POST %s returned %s: %s", path, resp.Status, bytes.TrimSpace(detail))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("chroma: decode response from %s: %w", path, err)
		}
	}
	return nil
}
