package domain

// BestMatch is the top species candidate of an identification.
type BestMatch struct {
	ScientificName string  `json:"scientific_name"`
	CommonName     string  `json:"common_name,omitempty"`
	Family         string  `json:"family,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// SpeciesCandidate is a ranked alternative to the best match.
type SpeciesCandidate struct {
	ScientificName string  `json:"scientific_name"`
	CommonName     string  `json:"common_name,omitempty"`
	Family         string  `json:"family,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

type HealthIssue struct {
	Name              string  `json:"name"`
	Likelihood        float64 `json:"likelihood,omitempty"`
	RecommendedAction string  `json:"recommended_action,omitempty"`
}

type HealthAssessment struct {
	Status string        `json:"status,omitempty"`
	Issues []HealthIssue `json:"issues,omitempty"`
}

// CareGuide holds free-text care advice fields.
type CareGuide struct {
	Watering    string `json:"watering,omitempty"`
	Sunlight    string `json:"sunlight,omitempty"`
	Soil        string `json:"soil,omitempty"`
	Temperature string `json:"temperature,omitempty"`
	Fertilizing string `json:"fertilizing,omitempty"`
}

// IdentificationResult is the unified output of the orchestrator. The zero
// value is the empty result: a valid outcome meaning "no determination
// possible", rendered distinctly from an absent result.
type IdentificationResult struct {
	BestMatch        *BestMatch         `json:"best_match,omitempty"`
	Alternatives     []SpeciesCandidate `json:"alternatives,omitempty"`
	HealthAssessment *HealthAssessment  `json:"health_assessment,omitempty"`
	CareGuide        *CareGuide         `json:"care_guide,omitempty"`
	FunFacts         []string           `json:"fun_facts,omitempty"`
}

// Empty reports whether no provider produced any usable data.
func (r IdentificationResult) Empty() bool {
	return r.BestMatch == nil &&
		len(r.Alternatives) == 0 &&
		r.HealthAssessment == nil &&
		r.CareGuide == nil &&
		len(r.FunFacts) == 0
}

// PrimaryFindings is what the structured provider contributes before merging:
// ranked species candidates plus optional disease candidates.
type PrimaryFindings struct {
	Candidates []SpeciesCandidate
	Diseases   []HealthIssue
}
