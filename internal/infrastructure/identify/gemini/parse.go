package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verdantlab/leafscan/internal/core/domain"
)

// parseResult decodes the model output into an identification result. The
// model is asked for bare JSON but occasionally wraps it in markdown fences,
// so those are stripped before decoding. Anything that still is not a JSON
// object is rejected rather than guessed at.
func parseResult(text string) (domain.IdentificationResult, error) {
	cleaned := stripCodeFences(text)
	if !strings.HasPrefix(cleaned, "{") {
		return domain.IdentificationResult{}, fmt.Errorf("gemini analyze: response is not a json object")
	}

	var result domain.IdentificationResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return domain.IdentificationResult{}, fmt.Errorf("gemini analyze: bad json: %w", err)
	}

	// A best match without a scientific name is noise, not an identification.
	if result.BestMatch != nil && strings.TrimSpace(result.BestMatch.ScientificName) == "" {
		result.BestMatch = nil
	}
	filtered := result.Alternatives[:0]
	for _, alternative := range result.Alternatives {
		if strings.TrimSpace(alternative.ScientificName) != "" {
			filtered = append(filtered, alternative)
		}
	}
	result.Alternatives = filtered

	return result, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
