package service

import (
	"crypto/md5"
	"fmt"
	"log"
	"regexp"
	"strings"

	"compliance-assistant-backend/models"
)

// Chunker splits document text into overlapping, bounded-size segments for
// embedding. Chunking is pure: identical input and parameters always produce
// identical chunks (and therefore identical chunk ids).
type Chunker struct {
	targetSize int
	overlap    int
}

// NewChunker creates a chunker. overlap must be smaller than targetSize;
// out-of-range values fall back to the standard 1000/200 configuration.
func NewChunker(targetSize, overlap int) *Chunker {
	if targetSize <= 0 {
		targetSize = 1000
	}
	if overlap < 0 || overlap >= targetSize {
		overlap = targetSize / 5
	}
	return &Chunker{targetSize: targetSize, overlap: overlap}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// cleanText collapses whitespace runs so that chunk boundaries are not
// dominated by formatting artifacts from extracted PDFs.
func cleanText(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// ChunkDocument splits a document's text into chunk records with derived ids
// and per-chunk statistics. Empty or whitespace-only input yields no chunks;
// that is a skip condition, not an error.
func (c *Chunker) ChunkDocument(doc *models.Document) []models.Chunk {
	texts := c.Split(doc.TextContent)
	if len(texts) == 0 {
		log.Printf("Warning: No chunkable content in document %s, skipping", doc.ID)
		return nil
	}

	chunks := make([]models.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, models.Chunk{
			ID:         chunkID(doc.ID, i, text),
			DocumentID: doc.ID,
			Index:      i,
			Text:       text,
			CharCount:  len(text),
			WordCount:  len(strings.Fields(text)),
		})
	}
	return chunks
}

// Split slices text into overlapping segments of at most targetSize
// characters. Boundaries prefer sentence terminators, then whitespace, within
// the latter half of the window; only when neither is found does the window
// hard-cut. The window start advances by at least one character per
// iteration, so the sequence always terminates.
func (c *Chunker) Split(text string) []string {
	text = cleanText(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.targetSize {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + c.targetSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.findBoundary(text, start, end)
		}

		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(text) {
			break
		}

		next := end - c.overlap
		if next <= start {
			// The boundary search pulled end too close to start for the
			// overlap to leave forward progress; skip the overlap.
			next = end
		}
		start = next
	}

	return chunks
}

// findBoundary searches backward from end for a sentence terminator, then
// whitespace, accepting either only if it sits past the midpoint of the
// window (avoids degenerate short chunks). Falls back to the hard cut.
func (c *Chunker) findBoundary(text string, start, end int) int {
	window := text[start:end]
	midpoint := c.targetSize / 2

	sentenceEnd := -1
	for _, term := range []string{".", "!", "?"} {
		if idx := strings.LastIndex(window, term); idx > sentenceEnd {
			sentenceEnd = idx
		}
	}
	if sentenceEnd > midpoint {
		return start + sentenceEnd + 1
	}

	if wordEnd := strings.LastIndex(window, " "); wordEnd > midpoint {
		return start + wordEnd
	}

	return end
}

// chunkID derives the deterministic id for a chunk from its document, its
// position and a hash of its content.
func chunkID(documentID string, index int, text string) string {
	hash := fmt.Sprintf("%x", md5.Sum([]byte(text)))
	return fmt.Sprintf("%s_chunk_%03d_%s", documentID, index, hash[:8])
}
