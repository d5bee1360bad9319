package ai

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Embedder converts a batch of texts into fixed-dimension vectors. A batch
// either succeeds completely or fails completely; callers never receive a
// partially embedded batch.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// GeminiEmbedder embeds text through the Google Generative AI embedding
// models. The underlying client is created once on first use and reused for
// the process lifetime.
type GeminiEmbedder struct {
	apiKey     string
	modelName  string
	dimensions int

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiEmbedder(apiKey, modelName string, dimensions int) *GeminiEmbedder {
	return &GeminiEmbedder{
		apiKey:     apiKey,
		modelName:  modelName,
		dimensions: dimensions,
	}
}

func (e *GeminiEmbedder) ensureClient(ctx context.Context) (*genai.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return e.client, nil
	}
	if e.apiKey == "" {
		return nil, fmt.Errorf("missing API key for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(e.apiKey))
	if err != nil {
		return nil, err
	}
	e.client = client
	return client, nil
}

// EmbedBatch embeds all texts in a single batched model call and normalizes
// each vector to unit length for cosine distance.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	client, err := e.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	model := client.EmbeddingModel(e.modelName)
	batch := model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vectors[i] = normalize(emb.Values)
	}
	return vectors, nil
}

// Dimensions reports the configured model output dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Close releases the underlying client, if one was created.
func (e *GeminiEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

// normalize scales a vector to unit L2 length. Zero vectors pass through
// unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
