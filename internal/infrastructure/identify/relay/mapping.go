package relay

import (
	"encoding/json"
	"fmt"

	"github.com/verdantlab/leafscan/internal/core/domain"
)

// Raw provider payload shapes. Decoding is deliberately lenient: unknown
// fields are ignored, missing ones leave zero values.
type speciesPayload struct {
	Error   string `json:"error"`
	Results []struct {
		Score   float64 `json:"score"`
		Species struct {
			ScientificNameWithoutAuthor string   `json:"scientificNameWithoutAuthor"`
			CommonNames                 []string `json:"commonNames"`
			Family                      struct {
				ScientificNameWithoutAuthor string `json:"scientificNameWithoutAuthor"`
			} `json:"family"`
		} `json:"species"`
	} `json:"results"`
}

type diseasePayload struct {
	Error   string `json:"error"`
	Results []struct {
		Name      string  `json:"name"`
		Score     float64 `json:"score"`
		Treatment string  `json:"treatment"`
	} `json:"results"`
}

func mapFindings(decoded identifyResponse) (domain.PrimaryFindings, error) {
	if len(decoded.Identify) == 0 || string(decoded.Identify) == "null" {
		return domain.PrimaryFindings{}, fmt.Errorf("relay identify: missing identify payload")
	}

	var species speciesPayload
	if err := json.Unmarshal(decoded.Identify, &species); err != nil {
		return domain.PrimaryFindings{}, fmt.Errorf("parse identify payload: %w", err)
	}
	if species.Error != "" {
		return domain.PrimaryFindings{}, domain.WrapError(domain.ErrProviderUnavailable, "relay identify",
			fmt.Errorf("provider: %s", species.Error))
	}

	findings := domain.PrimaryFindings{}
	for _, result := range species.Results {
		if result.Species.ScientificNameWithoutAuthor == "" {
			continue
		}
		candidate := domain.SpeciesCandidate{
			ScientificName: result.Species.ScientificNameWithoutAuthor,
			Family:         result.Species.Family.ScientificNameWithoutAuthor,
			Confidence:     result.Score,
		}
		if len(result.Species.CommonNames) > 0 {
			candidate.CommonName = result.Species.CommonNames[0]
		}
		findings.Candidates = append(findings.Candidates, candidate)
	}

	// A broken or errored disease payload degrades to "no disease data";
	// it must not sink the species result.
	if len(decoded.Diseases) > 0 && string(decoded.Diseases) != "null" {
		var diseases diseasePayload
		if err := json.Unmarshal(decoded.Diseases, &diseases); err == nil && diseases.Error == "" {
			for _, result := range diseases.Results {
				if result.Name == "" {
					continue
				}
				findings.Diseases = append(findings.Diseases, domain.HealthIssue{
					Name:              result.Name,
					Likelihood:        result.Score,
					RecommendedAction: result.Treatment,
				})
			}
		}
	}

	return findings, nil
}
