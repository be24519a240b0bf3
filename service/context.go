package service

import (
	"fmt"
	"strings"

	"compliance-assistant-backend/models"
)

// noContextSentinel is what downstream prompts see when retrieval produced
// nothing usable; prompt builders treat it as regular context text.
const noContextSentinel = "No relevant compliance context found."

// AssembledContext is the prompt-ready rendering of a retrieval pass plus the
// source list used for citation in responses. Sources holds exactly the
// results whose text made it into Text, in the same order.
type AssembledContext struct {
	Text    string
	Sources []models.RetrievalResult
}

// AssembleContext formats ranked retrieval results into a single context
// block, keeping whole chunks until the character budget is exhausted. A
// chunk that does not fit is dropped entirely; later, smaller chunks are not
// promoted past it, preserving the ranking order in the rendered text.
func AssembleContext(results []models.RetrievalResult, maxChars int) AssembledContext {
	if maxChars <= 0 {
		maxChars = 6000
	}

	var sb strings.Builder
	sources := make([]models.RetrievalResult, 0, len(results))

	for _, r := range results {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		section := fmt.Sprintf("**Relevant Context %d** (relevance: %.2f)\nSource: %s\nContent: %s\n\n",
			len(sources)+1, r.Score, r.DocumentName, r.Text)
		if sb.Len()+len(section) > maxChars {
			break
		}
		sb.WriteString(section)
		sources = append(sources, r)
	}

	if len(sources) == 0 {
		return AssembledContext{Text: noContextSentinel, Sources: sources}
	}
	return AssembledContext{Text: strings.TrimRight(sb.String(), "\n"), Sources: sources}
}
