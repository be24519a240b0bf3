package service

import (
	"fmt"
	"strings"

	"compliance-assistant-backend/models"
)

// Per-task caps on source content embedded in prompts. Truncation happens on
// input documents before the prompt is assembled, never inside the schema
// instructions.
const (
	analysisDocCap   = 8000
	gapReviewDocCap  = 2000
	gapReviewMaxDocs = 10
	draftDocCap      = 4000
	chatHistoryTail  = 5
)

func truncateDoc(text string, limit int) string {
	if len(text) > limit {
		return text[:limit]
	}
	return text
}

// BuildAnalysisPrompt constructs the deep-dive compliance analysis prompt for
// a single document, embedding the retrieval context and the JSON schema the
// parser expects.
func BuildAnalysisPrompt(documentName, documentContent, complianceContext string) string {
	return fmt.Sprintf(`You are a compliance expert analyzing a financial services document for regulatory compliance gaps and improvement opportunities.

**Document to Analyze:**
Name: %s
Content: %s

**Relevant Regulatory Context:**
%s

**Your Task:**
Analyze this document against regulatory requirements and provide a structured response in JSON format with the following structure:

{
    "overall_summary": "Brief summary of document's compliance status and main observations",
    "key_themes": ["list", "of", "main", "compliance", "themes", "found"],
    "suggested_changes": [
        {
            "id": "unique_id",
            "document_section": "specific section or clause",
            "current_status_summary": "what the document currently says",
            "austrac_relevance": "how this relates to regulatory requirements",
            "suggested_modification": "specific improvement recommendation",
            "priority": "High|Medium|Low",
            "basis_of_suggestion": "Legislation|Regulatory Guidance|General Knowledge"
        }
    ],
    "action_plan": [
        {
            "id": "unique_id",
            "task": "specific action to take",
            "responsible": "who should handle this",
            "timeline": "when to complete",
            "priority_level": "High|Medium|Low"
        }
    ],
    "additional_observations": "Any other relevant observations about the document"
}

**Analysis Guidelines:**
- Focus on practical, actionable improvements
- Prioritize High items for critical compliance gaps
- Be specific about document sections that need changes
- Consider Australian financial services regulations (AUSTRAC, ASIC, etc.)
- Suggest realistic timelines and responsible parties
- Provide clear rationale for each suggestion

Generate your analysis now:`,
		documentName, truncateDoc(documentContent, analysisDocCap), complianceContext)
}

// BuildGapReviewPrompt constructs the multi-document gap review prompt
// comparing company policy documents against retrieved regulatory context.
// At most gapReviewMaxDocs documents are embedded, each capped to keep the
// combined prompt inside provider limits.
func BuildGapReviewPrompt(companyDocs []*models.Document, regulatoryContext string) string {
	docs := companyDocs
	if len(docs) > gapReviewMaxDocs {
		docs = docs[:gapReviewMaxDocs]
	}

	var companyContext strings.Builder
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.Name)
		companyContext.WriteString(fmt.Sprintf("**Document: %s**\nContent: %s\n\n",
			doc.Name, truncateDoc(doc.TextContent, gapReviewDocCap)))
	}

	return fmt.Sprintf(`You are a compliance expert performing a regulatory gap analysis for a financial services organization.

**Your Task:**
Compare the company's current policies and procedures against regulatory requirements to identify compliance gaps and improvement opportunities.

**Company Documents to Analyze:**
%s

**Relevant Regulatory Requirements:**
%s

**Analysis Instructions:**
1. Compare each company document against the regulatory requirements
2. Identify specific gaps where current policies don't meet regulatory standards
3. Prioritize gaps based on regulatory importance and compliance risk
4. Provide actionable recommendations for each gap

**Required Response Format (JSON):**
{
    "overall_summary": "Executive summary of the gap analysis findings",
    "key_themes": ["list", "of", "major", "compliance", "gaps", "identified"],
    "suggested_changes": [
        {
            "id": "unique_identifier",
            "document_section": "specific section or policy area with gap",
            "current_status_summary": "what the current policy states or lacks",
            "austrac_relevance": "specific regulatory requirement not being met",
            "suggested_modification": "detailed recommendation to close the gap",
            "priority": "High|Medium|Low",
            "source_document_name": "name of company document with the gap",
            "basis_of_suggestion": "Legislation|Regulatory Guidance|Industry Best Practice"
        }
    ],
    "action_plan": [
        {
            "id": "unique_identifier",
            "task": "specific action required to implement changes",
            "responsible": "recommended responsible party or team",
            "timeline": "suggested timeframe for completion",
            "priority_level": "High|Medium|Low"
        }
    ],
    "additional_observations": "any other relevant observations about compliance posture"
}

**Analysis Guidelines:**
- Focus on Australian financial services regulations (AUSTRAC, ASIC, APRA where relevant)
- Prioritize High for critical compliance gaps that could result in regulatory action
- Be specific about document sections and regulatory requirements
- Provide actionable, practical recommendations
- Consider implementation complexity in timeline recommendations

**Company Documents Being Analyzed:** %s

**Perform the gap analysis:**`,
		companyContext.String(), regulatoryContext, strings.Join(names, ", "))
}

// BuildChatPrompt constructs the conversational prompt. Only the most recent
// messages of the history are embedded so long sessions stay inside provider
// limits.
func BuildChatPrompt(message string, history []models.ChatMessage, retrievedContext string) string {
	if len(history) > chatHistoryTail {
		history = history[len(history)-chatHistoryTail:]
	}

	var historyText strings.Builder
	for _, msg := range history {
		historyText.WriteString(fmt.Sprintf("%s: %s\n", msg.Sender, msg.Text))
	}

	return fmt.Sprintf(`You are a compliance assistant chatbot named Vera. Your purpose is to help answer questions based on the user's uploaded documents.

Use the following summary of retrieved document chunks to answer the user's question. If the context does not contain the answer, state that you could not find the information in the provided documents. Do not make up information. Always cite your sources using the format [number] from the summary.

**Retrieved Context Summary:**
%s

**Chat History:**
%s

**User's new question:** %s

**Your Answer:**`,
		retrievedContext, historyText.String(), message)
}

// BuildDraftPrompt constructs the rewrite prompt that applies one suggested
// change to its source document.
func BuildDraftPrompt(doc *models.Document, change models.SuggestedChange) string {
	return fmt.Sprintf(`You are a compliance document editor. Your task is to rewrite a section of a document based on a specific suggestion.

**Original Document:** %s
**Original Content:** %s

**Suggestion to Implement:**
- Section: %s
- Current Status: %s
- Suggested Change: %s

**Your Task:**
Rewrite the document incorporating the suggested change. Keep the same structure and tone but implement the specific modification suggested. Return the complete updated document text.

**Updated Document:**`,
		doc.Name, truncateDoc(doc.TextContent, draftDocCap),
		change.DocumentSection, change.CurrentStatusSummary, change.SuggestedModification)
}
