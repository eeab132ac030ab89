package prompt

import (
	"encoding/json"
	"fmt"

	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
)

// AnomalySystemPrompt gives the model strict directions and the schema for
// anomaly output. The response must be a bare JSON array.
func AnomalySystemPrompt() string {
	return `You are a financial compliance expert reviewing company data for anomalies. You must respond with one valid JSON array only (no markdown, no commentary, no code fences).

Requirements:
- Output must be a single JSON array; return [] when nothing is anomalous.
- Use lowercase severity values: critical, high, medium, low.
- confidence is a number between 0 and 1.
- Keep descriptions to one or two sentences.

Schema of each array element:
{
  "type": "<short_snake_case_tag>",
  "description": "<string>",
  "severity": "<critical|high|medium|low>",
  "confidence": 0.0
}`
}

// AnomalyUserPrompt embeds the snapshot as JSON for the model to review.
func AnomalyUserPrompt(snap domain.FinancialSnapshot) string {
	body, err := json.Marshal(snap)
	if err != nil {
		body = []byte("{}")
	}
	return fmt.Sprintf("Review this company's financial and reporting data for anomalies and respond with the JSON array per schema.\n\nData: %s", body)
}

// RecommendationSystemPrompt gives the model directions and the schema for
// remediation recommendations.
func RecommendationSystemPrompt() string {
	return `You are a compliance consultant advising a company on fixing its compliance violations. You must respond with one valid JSON array only (no markdown, no commentary, no code fences).

Requirements:
- Output must be a single JSON array of recommendation objects.
- Use lowercase priority values: urgent, high, medium, low.
- action is a short imperative sentence; description explains how; timeline is a rough duration like "1 week".

Schema of each array element:
{
  "priority": "<urgent|high|medium|low>",
  "action": "<string>",
  "description": "<string>",
  "timeline": "<string>"
}`
}

// RecommendationUserPrompt embeds the violations and score for the model.
func RecommendationUserPrompt(result domain.AnalysisResult) string {
	body, err := json.Marshal(map[string]any{
		"risk_score": result.RiskScore,
		"violations": result.Violations,
		"anomalies":  result.Anomalies,
	})
	if err != nil {
		body = []byte("{}")
	}
	return fmt.Sprintf("Generate remediation recommendations for these compliance findings and respond with the JSON array per schema.\n\nFindings: %s", body)
}
