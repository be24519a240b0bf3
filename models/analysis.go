package models

import (
	"time"
)

// Priority is the three-valued urgency attached to suggestions and actions.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// NormalizePriority constrains an arbitrary string to the priority enum,
// defaulting to Medium when absent or unrecognized.
func NormalizePriority(p string) Priority {
	switch Priority(p) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(p)
	}
	return PriorityMedium
}

// SuggestedChange is a single compliance improvement recommendation.
type SuggestedChange struct {
	ID                    string   `json:"id"`
	DocumentSection       string   `json:"document_section"`
	CurrentStatusSummary  string   `json:"current_status_summary"`
	AustracRelevance      string   `json:"austrac_relevance"`
	SuggestedModification string   `json:"suggested_modification"`
	Priority              Priority `json:"priority"`
	SourceDocumentName    string   `json:"source_document_name,omitempty"`
	BasisOfSuggestion     string   `json:"basis_of_suggestion,omitempty"`
}

// ActionPlanItem is a concrete follow-up task derived from an analysis.
type ActionPlanItem struct {
	ID          string   `json:"id"`
	Task        string   `json:"task"`
	Responsible string   `json:"responsible"`
	Timeline    string   `json:"timeline"`
	Priority    Priority `json:"priority_level"`
}

// AnalysisType distinguishes the request families that share AnalysisResult.
type AnalysisType string

const (
	AnalysisTypeDeepDive  AnalysisType = "deepDive"
	AnalysisTypeGapReview AnalysisType = "gapReview"
)

// AnalysisResult is the structured outcome of a compliance analysis
// (deep dive or gap review). Every analysis request resolves to one of
// these, even when the AI backend is unavailable; Degraded marks results
// produced by the content-derived mock or the parse fallback.
type AnalysisResult struct {
	ID                     string            `json:"id"`
	Name                   string            `json:"name"`
	Type                   AnalysisType      `json:"type"`
	Timestamp              time.Time         `json:"timestamp"`
	DocumentTitleAnalyzed  string            `json:"document_title_analyzed,omitempty"`
	OverallSummary         string            `json:"overall_summary"`
	KeyThemes              []string          `json:"key_themes"`
	SuggestedChanges       []SuggestedChange `json:"suggested_changes"`
	ActionPlan             []ActionPlanItem  `json:"action_plan"`
	AdditionalObservations string            `json:"additional_observations,omitempty"`
	GroundingSources       []RetrievalResult `json:"grounding_sources"`
	Degraded               bool              `json:"degraded"`
	DegradedReason         string            `json:"degraded_reason,omitempty"`
}
