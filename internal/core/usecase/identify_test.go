package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/verdantlab/leafscan/internal/core/domain"
)

type primaryFake struct {
	calls    int
	organs   []string
	findings domain.PrimaryFindings
	err      error
}

func (f *primaryFake) Identify(_ context.Context, _ []domain.ImageBlob, organs []string, _ string, _ bool) (domain.PrimaryFindings, error) {
	f.calls++
	f.organs = organs
	if f.err != nil {
		return domain.PrimaryFindings{}, f.err
	}
	return f.findings, nil
}

type secondaryFake struct {
	calls      int
	credential string
	result     domain.IdentificationResult
	err        error
}

func (f *secondaryFake) Analyze(_ context.Context, credential string, _ []domain.ImageBlob, _ string) (domain.IdentificationResult, error) {
	f.calls++
	f.credential = credential
	if f.err != nil {
		return domain.IdentificationResult{}, f.err
	}
	return f.result, nil
}

type credentialFake struct {
	secret string
	found  bool
	err    error
}

func (f *credentialFake) Credential(context.Context) (string, bool, error) {
	return f.secret, f.found, f.err
}

func (f *credentialFake) SetCredential(context.Context, string) error { return nil }
func (f *credentialFake) DeleteCredential(context.Context) error      { return nil }

func testImages() []domain.ImageBlob {
	return []domain.ImageBlob{
		{MimeType: "image/jpeg", Data: []byte("a")},
		{MimeType: "image/jpeg", Data: []byte("b")},
		{MimeType: "image/jpeg", Data: []byte("c")},
	}
}

func TestIdentifyUsesPrimaryWhenNoCredentialStored(t *testing.T) {
	primary := &primaryFake{findings: domain.PrimaryFindings{
		Candidates: []domain.SpeciesCandidate{
			{ScientificName: "Monstera deliciosa", CommonName: "Swiss cheese plant", Confidence: 0.9},
		},
	}}
	secondary := &secondaryFake{}
	uc := NewIdentifyUseCase(primary, secondary, &credentialFake{}, "en", false, nil)

	result, err := uc.Identify(context.Background(), testImages())
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if result.BestMatch == nil || result.BestMatch.Confidence != 0.9 {
		t.Fatalf("expected primary confidence 0.9, got %+v", result.BestMatch)
	}
	if result.CareGuide != nil {
		t.Fatalf("primary-only result must not carry a care guide")
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary must be skipped without a stored credential")
	}
}

func TestIdentifySecondaryOverridesPrimary(t *testing.T) {
	primary := &primaryFake{findings: domain.PrimaryFindings{
		Candidates: []domain.SpeciesCandidate{{ScientificName: "Ficus elastica", Confidence: 0.99}},
	}}
	secondary := &secondaryFake{result: domain.IdentificationResult{
		BestMatch: &domain.BestMatch{ScientificName: "Ficus lyrata", Confidence: 0.4},
		CareGuide: &domain.CareGuide{Watering: "weekly"},
	}}
	uc := NewIdentifyUseCase(primary, secondary, &credentialFake{secret: "key", found: true}, "en", false, nil)

	result, err := uc.Identify(context.Background(), testImages())
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	// The generative source wins on availability, not on confidence.
	if result.BestMatch.ScientificName != "Ficus lyrata" {
		t.Fatalf("expected secondary to override primary, got %+v", result.BestMatch)
	}
	if secondary.credential != "key" {
		t.Fatalf("expected stored credential to be forwarded, got %q", secondary.credential)
	}
}

func TestIdentifyFallsBackToPreliminaryWhenSecondaryFails(t *testing.T) {
	primary := &primaryFake{findings: domain.PrimaryFindings{
		Candidates: []domain.SpeciesCandidate{{ScientificName: "Ficus elastica", Confidence: 0.7}},
	}}
	secondary := &secondaryFake{err: errors.New("unparseable response")}
	uc := NewIdentifyUseCase(primary, secondary, &credentialFake{secret: "key", found: true}, "en", false, nil)

	result, err := uc.Identify(context.Background(), testImages())
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if result.BestMatch == nil || result.BestMatch.ScientificName != "Ficus elastica" {
		t.Fatalf("expected fallback to the preliminary result, got %+v", result.BestMatch)
	}
}

func TestIdentifySecondaryOnlyWhenPrimaryFails(t *testing.T) {
	primary := &primaryFake{err: errors.New("network down")}
	secondary := &secondaryFake{result: domain.IdentificationResult{
		BestMatch: &domain.BestMatch{ScientificName: "Ficus"},
	}}
	uc := NewIdentifyUseCase(primary, secondary, &credentialFake{secret: "key", found: true}, "en", false, nil)

	result, err := uc.Identify(context.Background(), testImages())
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if result.BestMatch == nil || result.BestMatch.ScientificName != "Ficus" {
		t.Fatalf("expected secondary result, got %+v", result.BestMatch)
	}
}

func TestIdentifyReturnsEmptyResultWhenBothSourcesFail(t *testing.T) {
	primary := &primaryFake{err: errors.New("down")}
	secondary := &secondaryFake{err: errors.New("down too")}
	uc := NewIdentifyUseCase(primary, secondary, &credentialFake{secret: "key", found: true}, "en", false, nil)

	result, err := uc.Identify(context.Background(), testImages())
	if err != nil {
		t.Fatalf("total provider failure must not surface as an error, got %v", err)
	}
	if !result.Empty() {
		t.Fatalf("expected the distinct empty result, got %+v", result)
	}
}

func TestIdentifyCapsAlternativesAndMapsDiseases(t *testing.T) {
	candidates := make([]domain.SpeciesCandidate, 7)
	for i := range candidates {
		candidates[i] = domain.SpeciesCandidate{ScientificName: "Candidate", Confidence: 1 - float64(i)*0.1}
	}
	primary := &primaryFake{findings: domain.PrimaryFindings{
		Candidates: candidates,
		Diseases:   []domain.HealthIssue{{Name: "leaf spot", Likelihood: 0.6}},
	}}
	uc := NewIdentifyUseCase(primary, &secondaryFake{}, &credentialFake{}, "en", true, nil)

	result, err := uc.Identify(context.Background(), testImages())
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if len(result.Alternatives) != maxAlternatives {
		t.Fatalf("expected %d alternatives, got %d", maxAlternatives, len(result.Alternatives))
	}
	if result.HealthAssessment == nil || len(result.HealthAssessment.Issues) != 1 {
		t.Fatalf("expected disease candidates mapped to health issues, got %+v", result.HealthAssessment)
	}
}

func TestIdentifyRejectsWrongImageCount(t *testing.T) {
	uc := NewIdentifyUseCase(&primaryFake{}, &secondaryFake{}, &credentialFake{}, "en", false, nil)
	_, err := uc.Identify(context.Background(), testImages()[:2])
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input kind, got %v", err)
	}
}

func TestIdentifySendsPerStepOrganHints(t *testing.T) {
	primary := &primaryFake{}
	uc := NewIdentifyUseCase(primary, &secondaryFake{}, &credentialFake{}, "en", false, nil)
	if _, err := uc.Identify(context.Background(), testImages()); err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if len(primary.organs) != domain.CaptureSteps {
		t.Fatalf("expected one organ hint per image, got %v", primary.organs)
	}
}
