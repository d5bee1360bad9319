package services

import "strings"

// Chunker splits document text into overlapping chunks bounded by maxSize.
// Cuts prefer natural boundaries (paragraph break, sentence end, space) and
// fall back to a hard cut when no separator occurs late enough in the window.
type Chunker struct {
	maxSize    int
	overlap    int
	separators []string
}

// NewChunker creates a chunker. Invalid sizes fall back to the defaults used
// for movie storylines (1000/200).
func NewChunker(maxSize, overlap int) *Chunker {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSize {
		overlap = maxSize / 5
	}
	return &Chunker{
		maxSize:    maxSize,
		overlap:    overlap,
		separators: []string{"\n\n", ". ", "! ", "? ", " "},
	}
}

// Chunk splits text into chunks of at most maxSize bytes where each chunk
// after the first starts exactly overlap bytes before the end of the previous
// one. Chunking is a pure function of its input: the same text always yields
// the same chunk sequence, and concatenating the first chunk with every later
// chunk minus its leading overlap reconstructs the text.
func (c *Chunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= c.maxSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.maxSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		end = start + c.cutPoint(text[start:end])
		chunks = append(chunks, text[start:end])
		start = end - c.overlap
	}
	return chunks
}

// cutPoint picks where to end the current chunk within the window. It scans
// separators in priority order and takes the last occurrence, provided the
// cut lands past the overlap region so the next chunk makes progress.
func (c *Chunker) cutPoint(window string) int {
	for _, sep := range c.separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := idx + len(sep)
		if cut > c.overlap {
			return cut
		}
	}
	return len(window)
}

// MaxSize reports the configured chunk size bound.
func (c *Chunker) MaxSize() int { return c.maxSize }

// Overlap reports the configured overlap between neighboring chunks.
func (c *Chunker) Overlap() int { return c.overlap }
