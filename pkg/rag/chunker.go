// Package rag implements the retrieval-augmented answering engine: document
// chunking, embedding ingestion, similarity retrieval, and grounded answer
// synthesis.
package rag

import (
	"fmt"
)

// ChunkerConfig holds the splitting constants. Size and Overlap must be
// identical between ingestion and query so vector spaces stay comparable.
type ChunkerConfig struct {
	Size    int // maximum chunk length in characters
	Overlap int // characters shared between consecutive chunks
}

// Validate checks the chunking constants.
func (c ChunkerConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("chunk overlap must be in [0, size), got %d", c.Overlap)
	}
	return nil
}

// Chunker splits document text into fixed-size overlapping chunks.
type Chunker struct {
	cfg ChunkerConfig
}

// NewChunker creates a chunker, validating its configuration.
func NewChunker(cfg ChunkerConfig) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// Split cuts text into ordered chunks of at most Size characters where each
// chunk after the first repeats the last Overlap characters of its
// predecessor. Dropping the first Overlap characters of every chunk after
// the first reconstructs the input exactly. Empty text yields no chunks.
//
// Size and Overlap count runes, not bytes, so multi-byte text never splits
// mid-character and every chunk is valid UTF-8.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= c.cfg.Size {
		return []string{text}
	}

	step := c.cfg.Size - c.cfg.Overlap
	var chunks []string
	for start := 0; ; start += step {
		end := start + c.cfg.Size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
