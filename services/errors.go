package services

import "errors"

// Sentinel errors for transient infrastructure failures. Callers match them
// with errors.Is to decide between skipping a document, failing a request,
// or degrading to a cache miss.
var (
	// ErrModelUnavailable means the embedding backend could not be reached
	// or errored; no partial batch was produced.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrStoreUnavailable means the vector store rejected or never received
	// an operation.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrCompletionService means the completion endpoint failed.
	ErrCompletionService = errors.New("completion service unavailable")

	// ErrCacheUnavailable means the cache store failed. Requests degrade to
	// computing the response directly rather than failing.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
