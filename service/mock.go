package service

import (
	"fmt"
	"strings"

	"compliance-assistant-backend/models"
)

// MockAnalysis produces a content-derived analysis when the generation
// provider is unavailable. Suggestions are keyed off keywords actually
// present in the document, so the degraded output still reflects the
// document under review rather than a canned response.
func MockAnalysis(doc *models.Document) *models.AnalysisResult {
	content := strings.ToLower(doc.TextContent)

	var suggestions []models.SuggestedChange
	var actions []models.ActionPlanItem

	if strings.Contains(content, "customer") && strings.Contains(content, "identification") {
		suggestions = append(suggestions, models.SuggestedChange{
			ID:                    "ddsc-" + shortID(),
			DocumentSection:       "Customer Identification Requirements",
			CurrentStatusSummary:  "Current policy requires basic identification documents",
			AustracRelevance:      "AUSTRAC requires enhanced customer due diligence for certain customer types",
			SuggestedModification: "Add requirements for enhanced due diligence procedures for high-risk customers, including PEP screening",
			Priority:              models.PriorityHigh,
			BasisOfSuggestion:     "Legislation",
		})
		actions = append(actions, models.ActionPlanItem{
			ID:          "ddap-" + shortID(),
			Task:        "Update customer identification procedures to include PEP screening",
			Responsible: "Compliance Team",
			Timeline:    "Next Quarter",
			Priority:    models.PriorityHigh,
		})
	}

	if strings.Contains(content, "risk") {
		suggestions = append(suggestions, models.SuggestedChange{
			ID:                    "ddsc-" + shortID(),
			DocumentSection:       "Risk Assessment Framework",
			CurrentStatusSummary:  "Document mentions risk assessment but lacks specific criteria",
			AustracRelevance:      "Risk-based approach is fundamental to AML/CTF compliance",
			SuggestedModification: "Define specific risk factors and scoring methodology for customer risk assessment",
			Priority:              models.PriorityMedium,
			BasisOfSuggestion:     "General Knowledge",
		})
	}

	if strings.Contains(content, "record") || strings.Contains(content, "documentation") {
		suggestions = append(suggestions, models.SuggestedChange{
			ID:                    "ddsc-" + shortID(),
			DocumentSection:       "Record Keeping Requirements",
			CurrentStatusSummary:  "Basic record keeping mentioned",
			AustracRelevance:      "AUSTRAC requires specific record retention periods and formats",
			SuggestedModification: "Specify 7-year retention period for transaction records and customer identification documents",
			Priority:              models.PriorityMedium,
			BasisOfSuggestion:     "Legislation",
		})
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions, models.SuggestedChange{
			ID:                    "ddsc-" + shortID(),
			DocumentSection:       "General Compliance Review",
			CurrentStatusSummary:  "Document reviewed for compliance gaps",
			AustracRelevance:      "All financial service policies should align with current regulatory requirements",
			SuggestedModification: "Conduct comprehensive review against latest AUSTRAC guidance and industry best practices",
			Priority:              models.PriorityMedium,
			BasisOfSuggestion:     "General Knowledge",
		})
	}

	if len(actions) == 0 {
		actions = append(actions, models.ActionPlanItem{
			ID:          "ddap-" + shortID(),
			Task:        "Schedule quarterly compliance review of this document",
			Responsible: "Compliance Officer",
			Timeline:    "Next Quarter",
			Priority:    models.PriorityMedium,
		})
	}

	return &models.AnalysisResult{
		DocumentTitleAnalyzed: doc.Name,
		OverallSummary: fmt.Sprintf("Enhanced analysis of %s identifies several areas for compliance improvement, particularly around customer identification and risk management procedures.",
			doc.Name),
		KeyThemes:        []string{"Customer Due Diligence", "Risk Assessment", "Record Keeping", "Regulatory Compliance"},
		SuggestedChanges: suggestions,
		ActionPlan:       actions,
		AdditionalObservations: "This analysis was generated using enhanced mock logic based on document content analysis. " +
			"For full AI-powered analysis, ensure the generation service is properly configured.",
		Degraded:       true,
		DegradedReason: "generation provider unavailable",
	}
}

// MockDraft frames the original text with the requested change when the
// generation provider is unavailable.
func MockDraft(doc *models.Document, change models.SuggestedChange) string {
	suggestion := change.SuggestedModification
	if suggestion == "" {
		suggestion = "No specific change provided"
	}
	section := change.DocumentSection
	if section == "" {
		section = "General"
	}

	return fmt.Sprintf(`--- UPDATED DRAFT (AI-Enhanced) ---

%s

--- IMPLEMENTED CHANGE FOR: %s ---
%s

--- END OF DRAFT ---

Note: This draft incorporates the suggested modification. Please review and adjust as needed before final implementation.`,
		doc.TextContent, section, suggestion)
}
