package models

// SearchRequest is the body of both the search and agent endpoints.
type SearchRequest struct {
	Query string `json:"query" binding:"required,max=512"`
	TopK  int    `json:"top_k" binding:"required,min=1,max=10"`
}

// RetrievedChunk is one ranked result returned from the vector store.
type RetrievedChunk struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Distance float64        `json:"distance,omitempty"`
}

// SearchResponse holds retrieved chunks ordered nearest first.
type SearchResponse struct {
	Results []RetrievedChunk `json:"results"`
}

// AgentResponse is the composed answer produced from retrieved context.
type AgentResponse struct {
	Answer string `json:"answer"`
}
