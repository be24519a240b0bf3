package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-assistant-backend/models"
)

func TestParseAnalysisResponseWellFormed(t *testing.T) {
	raw := `Here is the analysis you requested:
{
    "overall_summary": "The policy broadly satisfies AML/CTF obligations.",
    "key_themes": ["Customer Due Diligence", "Record Keeping"],
    "suggested_changes": [
        {
            "id": "sc-1",
            "document_section": "Section 4.2",
            "current_status_summary": "Verification limited to photo ID",
            "austrac_relevance": "Enhanced due diligence required for high-risk customers",
            "suggested_modification": "Add PEP screening step",
            "priority": "High",
            "basis_of_suggestion": "Legislation"
        }
    ],
    "action_plan": [
        {
            "id": "ap-1",
            "task": "Implement PEP screening",
            "responsible": "Compliance Team",
            "timeline": "Q3",
            "priority_level": "High"
        }
    ],
    "additional_observations": "None."
}
Let me know if you need more detail.`

	result := ParseAnalysisResponse(raw, "aml-policy.txt")

	assert.False(t, result.Degraded)
	assert.Equal(t, "The policy broadly satisfies AML/CTF obligations.", result.OverallSummary)
	assert.Equal(t, []string{"Customer Due Diligence", "Record Keeping"}, result.KeyThemes)
	require.Len(t, result.SuggestedChanges, 1)
	assert.Equal(t, "sc-1", result.SuggestedChanges[0].ID)
	assert.Equal(t, models.PriorityHigh, result.SuggestedChanges[0].Priority)
	require.Len(t, result.ActionPlan, 1)
	assert.Equal(t, models.PriorityHigh, result.ActionPlan[0].Priority)
}

func TestParseAnalysisResponseFillsMissingFields(t *testing.T) {
	raw := `{
    "suggested_changes": [{"suggested_modification": "Tighten retention policy"}],
    "action_plan": [{"task": "Review retention schedule"}]
}`

	result := ParseAnalysisResponse(raw, "records.txt")

	assert.False(t, result.Degraded)
	assert.Equal(t, "Analysis completed for records.txt", result.OverallSummary)
	assert.Equal(t, []string{"General compliance review"}, result.KeyThemes)

	require.Len(t, result.SuggestedChanges, 1)
	change := result.SuggestedChanges[0]
	assert.True(t, strings.HasPrefix(change.ID, "ddsc-"))
	assert.Equal(t, models.PriorityMedium, change.Priority)
	assert.Equal(t, "General", change.DocumentSection)
	assert.Equal(t, "General Knowledge", change.BasisOfSuggestion)

	require.Len(t, result.ActionPlan, 1)
	assert.True(t, strings.HasPrefix(result.ActionPlan[0].ID, "ddap-"))
	assert.Equal(t, models.PriorityMedium, result.ActionPlan[0].Priority)
}

func TestParseAnalysisResponseInvalidPriorityDefaultsToMedium(t *testing.T) {
	raw := `{"suggested_changes": [{"id": "sc-9", "priority": "Urgent"}]}`

	result := ParseAnalysisResponse(raw, "policy.txt")

	require.Len(t, result.SuggestedChanges, 1)
	assert.Equal(t, models.PriorityMedium, result.SuggestedChanges[0].Priority)
}

func TestParseAnalysisResponseNotJSON(t *testing.T) {
	result := ParseAnalysisResponse("not json at all", "policy.txt")

	assert.True(t, result.Degraded)
	require.Len(t, result.SuggestedChanges, 1)
	assert.True(t, strings.HasPrefix(result.SuggestedChanges[0].ID, "fallback-"))
	assert.Equal(t, "Manual review required", result.SuggestedChanges[0].CurrentStatusSummary)
	require.Len(t, result.ActionPlan, 1)
	assert.True(t, strings.HasPrefix(result.ActionPlan[0].ID, "fallback-action-"))
	assert.NotEmpty(t, result.OverallSummary)
	assert.Contains(t, result.OverallSummary, "not json at all")
}

func TestParseAnalysisResponseMalformedJSON(t *testing.T) {
	result := ParseAnalysisResponse(`{"overall_summary": "truncated`, "policy.txt")

	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.DegradedReason)
	require.Len(t, result.SuggestedChanges, 1)
	assert.True(t, strings.HasPrefix(result.SuggestedChanges[0].ID, "fallback-"))
}

func TestFallbackAnalysisTruncatesExcerpt(t *testing.T) {
	raw := strings.Repeat("q", 2000)

	result := FallbackAnalysis(raw, "policy.txt", "test reason")

	assert.Contains(t, result.OverallSummary, strings.Repeat("q", 500)+"...")
	assert.NotContains(t, result.OverallSummary, strings.Repeat("q", 501))
	assert.Equal(t, "test reason", result.DegradedReason)
}

func TestExtractJSONObjectGreedySpan(t *testing.T) {
	text := "prefix {\"a\": {\"b\": 1}} suffix {\"c\": 2} end"

	extracted, ok := extractJSONObject(text)

	require.True(t, ok)
	assert.Equal(t, "{\"a\": {\"b\": 1}} suffix {\"c\": 2}", extracted)
}
