package services

import (
	"context"
	"fmt"
	"strings"

	"movie-search-platform/models"
)

// systemInstruction pins the completion model to the supplied context.
const systemInstruction = "You are a movie expert assistant. Answer strictly from the provided context. " +
	"If the context does not contain enough information to answer, say that you do not know."

// chunkSeparator joins per-chunk context blocks in the grounding prompt.
const chunkSeparator = "\n---\n"

// Completer is the completion service seen from the pipeline: one call, one
// text answer, no internal retries.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// AgentService retrieves chunks for a query and composes an answer grounded
// in them.
type AgentService struct {
	search    *SearchService
	completer Completer
}

func NewAgentService(search *SearchService, completer Completer) *AgentService {
	return &AgentService{search: search, completer: completer}
}

// Answer runs retrieval for the request and forwards the assembled context
// to the completion service.
func (a *AgentService) Answer(ctx context.Context, req models.SearchRequest) (*models.AgentResponse, error) {
	searchResp, err := a.search.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", BuildContext(searchResp.Results), req.Query)
	answer, err := a.completer.Complete(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletionService, err)
	}
	return &models.AgentResponse{Answer: answer}, nil
}

// BuildContext renders retrieved chunks into a single grounding string: one
// fixed template per chunk, in retrieval order.
func BuildContext(results []models.RetrievedChunk) string {
	blocks := make([]string, 0, len(results))
	for _, chunk := range results {
		block := fmt.Sprintf("Movie: %s (%s). Director: %s. Actors: %s.\nStoryline: %s",
			metaString(chunk.Metadata, "doc_name"),
			metaString(chunk.Metadata, "doc_year"),
			metaString(chunk.Metadata, "doc_director"),
			metaString(chunk.Metadata, "doc_actors"),
			chunk.Text,
		)
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, chunkSeparator)
}

// metaString renders a metadata value as text. Numeric metadata comes back
// from the store as JSON numbers.
func metaString(meta map[string]any, key string) string {
	v, ok := meta[key]
	if !ok || v == nil {
		return "unknown"
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
