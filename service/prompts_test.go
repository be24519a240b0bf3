package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-assistant-backend/models"
)

func TestBuildAnalysisPromptTruncatesDocument(t *testing.T) {
	content := strings.Repeat("a", 9000)

	prompt := BuildAnalysisPrompt("policy.txt", content, "Some context")

	assert.Contains(t, prompt, "policy.txt")
	assert.Contains(t, prompt, "Some context")
	assert.Contains(t, prompt, strings.Repeat("a", 8000))
	assert.NotContains(t, prompt, strings.Repeat("a", 8001))
	// The schema block must survive truncation intact.
	assert.Contains(t, prompt, `"overall_summary"`)
	assert.Contains(t, prompt, `"priority": "High|Medium|Low"`)
	assert.Contains(t, prompt, `"priority_level": "High|Medium|Low"`)
}

func TestBuildGapReviewPromptCapsDocuments(t *testing.T) {
	var docs []*models.Document
	for i := 0; i < 12; i++ {
		docs = append(docs, &models.Document{
			Name:        fmt.Sprintf("policy-%d.txt", i),
			TextContent: strings.Repeat("b", 3000),
		})
	}

	prompt := BuildGapReviewPrompt(docs, "Regulatory context")

	// Only the first ten documents are embedded.
	assert.Contains(t, prompt, "policy-9.txt")
	assert.NotContains(t, prompt, "policy-10.txt")
	// Each embedded document is capped individually.
	assert.Contains(t, prompt, strings.Repeat("b", 2000))
	assert.NotContains(t, prompt, strings.Repeat("b", 2001))
	assert.Contains(t, prompt, "Regulatory context")
	assert.Contains(t, prompt, `"source_document_name"`)
}

func TestBuildChatPromptBoundsHistory(t *testing.T) {
	var history []models.ChatMessage
	for i := 0; i < 8; i++ {
		history = append(history, models.ChatMessage{
			Sender: "user",
			Text:   fmt.Sprintf("question %d", i),
		})
	}

	prompt := BuildChatPrompt("What are my record keeping duties?", history, "Context block")

	// Only the trailing five turns survive.
	assert.NotContains(t, prompt, "question 2")
	assert.Contains(t, prompt, "question 3")
	assert.Contains(t, prompt, "question 7")
	assert.Contains(t, prompt, "What are my record keeping duties?")
	assert.Contains(t, prompt, "Context block")
	assert.Contains(t, prompt, "cite your sources")
}

func TestBuildChatPromptEmptyHistory(t *testing.T) {
	prompt := BuildChatPrompt("Hello", nil, "No relevant compliance context found.")

	require.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "Hello")
	assert.Contains(t, prompt, "No relevant compliance context found.")
}

func TestBuildDraftPromptTruncatesDocument(t *testing.T) {
	doc := &models.Document{
		Name:        "policy.txt",
		TextContent: strings.Repeat("c", 5000),
	}
	change := models.SuggestedChange{
		DocumentSection:       "Section 3",
		CurrentStatusSummary:  "Lacks screening step",
		SuggestedModification: "Add sanctions screening",
	}

	prompt := BuildDraftPrompt(doc, change)

	assert.Contains(t, prompt, strings.Repeat("c", 4000))
	assert.NotContains(t, prompt, strings.Repeat("c", 4001))
	assert.Contains(t, prompt, "Section 3")
	assert.Contains(t, prompt, "Add sanctions screening")
}
