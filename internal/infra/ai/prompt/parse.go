package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
)

// ExtractJSONArray pulls a JSON array out of model output. Models sometimes
// wrap the array in a markdown fence or lead with prose; take everything
// between the first '[' and the last ']'.
func ExtractJSONArray(content string) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("response contains no JSON array")
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("response is not a JSON array: %w", err)
	}
	return items, nil
}

// ParseAnomalies decodes and validates model output. Entries that fail shape
// validation are discarded individually rather than failing the batch.
func ParseAnomalies(content string) ([]domain.Anomaly, int, error) {
	items, err := ExtractJSONArray(content)
	if err != nil {
		return nil, 0, err
	}
	out := make([]domain.Anomaly, 0, len(items))
	dropped := 0
	for _, item := range items {
		var a domain.Anomaly
		if err := json.Unmarshal(item, &a); err != nil {
			dropped++
			continue
		}
		if a.Type == "" || !a.Severity.Valid() || a.Confidence < 0 || a.Confidence > 1 {
			dropped++
			continue
		}
		out = append(out, a)
	}
	return out, dropped, nil
}

// ParseRecommendations decodes and validates model output, discarding
// malformed entries.
func ParseRecommendations(content string) ([]domain.Recommendation, int, error) {
	items, err := ExtractJSONArray(content)
	if err != nil {
		return nil, 0, err
	}
	out := make([]domain.Recommendation, 0, len(items))
	dropped := 0
	for _, item := range items {
		var r domain.Recommendation
		if err := json.Unmarshal(item, &r); err != nil {
			dropped++
			continue
		}
		if r.Action == "" || !r.Priority.Valid() {
			dropped++
			continue
		}
		out = append(out, r)
	}
	return out, dropped, nil
}
