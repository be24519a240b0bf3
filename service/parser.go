package service

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"compliance-assistant-backend/models"
)

// fallbackExcerptChars bounds the raw model output embedded in a fallback
// summary for human inspection.
const fallbackExcerptChars = 500

// suggestedChangePayload and actionPlanPayload are tolerant decode targets
// for model output: every field optional, priorities as free-form strings.
type suggestedChangePayload struct {
	ID                    string `json:"id"`
	DocumentSection       string `json:"document_section"`
	CurrentStatusSummary  string `json:"current_status_summary"`
	AustracRelevance      string `json:"austrac_relevance"`
	SuggestedModification string `json:"suggested_modification"`
	Priority              string `json:"priority"`
	SourceDocumentName    string `json:"source_document_name"`
	BasisOfSuggestion     string `json:"basis_of_suggestion"`
}

type actionPlanPayload struct {
	ID          string `json:"id"`
	Task        string `json:"task"`
	Responsible string `json:"responsible"`
	Timeline    string `json:"timeline"`
	Priority    string `json:"priority_level"`
}

type analysisPayload struct {
	OverallSummary         string                   `json:"overall_summary"`
	KeyThemes              []string                 `json:"key_themes"`
	SuggestedChanges       []suggestedChangePayload `json:"suggested_changes"`
	ActionPlan             []actionPlanPayload      `json:"action_plan"`
	AdditionalObservations string                   `json:"additional_observations"`
}

// ParseAnalysisResponse extracts the structured analysis from free-form model
// output. It never fails: when no JSON object can be found or decoded, it
// returns the deterministic fallback result so every request still resolves
// to a schema-valid response.
func ParseAnalysisResponse(raw, documentName string) *models.AnalysisResult {
	jsonStr, ok := extractJSONObject(raw)
	if !ok {
		log.Printf("Warning: No JSON found in model response for %s, using fallback structure", documentName)
		return FallbackAnalysis(raw, documentName, "no JSON object in model output")
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		log.Printf("Warning: Failed to decode model response for %s: %v", documentName, err)
		return FallbackAnalysis(raw, documentName, fmt.Sprintf("JSON decode failed: %v", err))
	}

	return normalizeAnalysis(payload, documentName)
}

// extractJSONObject returns the greedy first-brace to last-brace span of the
// text, which tolerates prose and code fences around the JSON body.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// normalizeAnalysis fills required fields the model omitted: generated ids,
// default priorities and placeholder summaries.
func normalizeAnalysis(payload analysisPayload, documentName string) *models.AnalysisResult {
	result := &models.AnalysisResult{
		DocumentTitleAnalyzed:  documentName,
		OverallSummary:         payload.OverallSummary,
		KeyThemes:              payload.KeyThemes,
		AdditionalObservations: payload.AdditionalObservations,
		SuggestedChanges:       make([]models.SuggestedChange, 0, len(payload.SuggestedChanges)),
		ActionPlan:             make([]models.ActionPlanItem, 0, len(payload.ActionPlan)),
	}

	if result.OverallSummary == "" {
		result.OverallSummary = fmt.Sprintf("Analysis completed for %s", documentName)
	}
	if len(result.KeyThemes) == 0 {
		result.KeyThemes = []string{"General compliance review"}
	}

	for _, change := range payload.SuggestedChanges {
		normalized := models.SuggestedChange{
			ID:                    change.ID,
			DocumentSection:       change.DocumentSection,
			CurrentStatusSummary:  change.CurrentStatusSummary,
			AustracRelevance:      change.AustracRelevance,
			SuggestedModification: change.SuggestedModification,
			Priority:              models.NormalizePriority(change.Priority),
			SourceDocumentName:    change.SourceDocumentName,
			BasisOfSuggestion:     change.BasisOfSuggestion,
		}
		if normalized.ID == "" {
			normalized.ID = "ddsc-" + shortID()
		}
		if normalized.DocumentSection == "" {
			normalized.DocumentSection = "General"
		}
		if normalized.BasisOfSuggestion == "" {
			normalized.BasisOfSuggestion = "General Knowledge"
		}
		result.SuggestedChanges = append(result.SuggestedChanges, normalized)
	}

	for _, item := range payload.ActionPlan {
		normalized := models.ActionPlanItem{
			ID:          item.ID,
			Task:        item.Task,
			Responsible: item.Responsible,
			Timeline:    item.Timeline,
			Priority:    models.NormalizePriority(item.Priority),
		}
		if normalized.ID == "" {
			normalized.ID = "ddap-" + shortID()
		}
		result.ActionPlan = append(result.ActionPlan, normalized)
	}

	return result
}

// FallbackAnalysis is the deterministic degraded result used when model
// output cannot be parsed: one manual-review suggestion, one escalation
// action and a summary carrying an excerpt of the raw output.
func FallbackAnalysis(raw, documentName, reason string) *models.AnalysisResult {
	excerpt := strings.TrimSpace(raw)
	if len(excerpt) > fallbackExcerptChars {
		excerpt = excerpt[:fallbackExcerptChars] + "..."
	}

	return &models.AnalysisResult{
		DocumentTitleAnalyzed: documentName,
		OverallSummary: fmt.Sprintf("Analysis completed for %s with limited AI processing. Raw model output: %s",
			documentName, excerpt),
		KeyThemes: []string{"Document review required", "Compliance verification needed"},
		SuggestedChanges: []models.SuggestedChange{
			{
				ID:                    "fallback-" + shortID(),
				DocumentSection:       "General",
				CurrentStatusSummary:  "Manual review required",
				AustracRelevance:      "General compliance requirements apply",
				SuggestedModification: "Conduct detailed compliance review",
				Priority:              models.PriorityMedium,
				BasisOfSuggestion:     "Fallback recommendation",
			},
		},
		ActionPlan: []models.ActionPlanItem{
			{
				ID:          "fallback-action-" + shortID(),
				Task:        "Conduct manual compliance review",
				Responsible: "Compliance Team",
				Timeline:    "7 days",
				Priority:    models.PriorityHigh,
			},
		},
		AdditionalObservations: fmt.Sprintf("AI analysis encountered an issue: %s. Manual review recommended.", reason),
		Degraded:               true,
		DegradedReason:         reason,
	}
}

func shortID() string {
	return uuid.NewString()[:8]
}
