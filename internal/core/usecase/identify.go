package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/verdantlab/leafscan/internal/core/domain"
	"github.com/verdantlab/leafscan/internal/core/ports"
)

// maxAlternatives caps the ranked candidates carried besides the best match.
const maxAlternatives = 4

// IdentifyUseCase merges the two identification sources into one result.
// Ordering is deliberate: the structured provider runs first and builds a
// preliminary result, the generative provider overrides it whenever it
// returns a usable payload. Each source gets exactly one attempt; a source
// failure degrades to "unavailable" and never propagates.
type IdentifyUseCase struct {
	primary       ports.SpeciesIdentifier
	secondary     ports.VisionAnalyzer
	credentials   ports.CredentialAccess
	lang          string
	detectDisease bool
	logger        *slog.Logger
}

func NewIdentifyUseCase(
	primary ports.SpeciesIdentifier,
	secondary ports.VisionAnalyzer,
	credentials ports.CredentialAccess,
	lang string,
	detectDisease bool,
	logger *slog.Logger,
) *IdentifyUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentifyUseCase{
		primary:       primary,
		secondary:     secondary,
		credentials:   credentials,
		lang:          lang,
		detectDisease: detectDisease,
		logger:        logger,
	}
}

// Identify runs the merge algorithm over a completed capture triple. The
// returned result may be empty, which downstream renders as "could not
// identify"; an error is only returned for caller mistakes, never for
// provider outages.
func (uc *IdentifyUseCase) Identify(ctx context.Context, images []domain.ImageBlob) (domain.IdentificationResult, error) {
	if len(images) != domain.CaptureSteps {
		return domain.IdentificationResult{}, domain.WrapError(domain.ErrInvalidInput, "identify",
			fmt.Errorf("got %d images, want %d", len(images), domain.CaptureSteps))
	}

	var result domain.IdentificationResult

	findings, err := uc.primary.Identify(ctx, images, domain.OrganHints(), uc.lang, uc.detectDisease)
	if err != nil {
		uc.logger.Warn("primary_provider_unavailable", "error", err)
	} else {
		result = preliminaryResult(findings)
	}

	credential, found, err := uc.credentials.Credential(ctx)
	if err != nil {
		uc.logger.Warn("credential_read_failed", "error", err)
		found = false
	}
	if !found || credential == "" {
		return result, nil
	}

	enriched, err := uc.secondary.Analyze(ctx, credential, images, uc.lang)
	if err != nil {
		uc.logger.Warn("secondary_provider_unavailable", "error", err)
		return result, nil
	}
	return enriched, nil
}

// preliminaryResult maps structured provider findings into the unified shape:
// top candidate becomes the best match, the next few the alternatives, and
// disease candidates the health issues.
func preliminaryResult(findings domain.PrimaryFindings) domain.IdentificationResult {
	var result domain.IdentificationResult

	if len(findings.Candidates) > 0 {
		top := findings.Candidates[0]
		result.BestMatch = &domain.BestMatch{
			ScientificName: top.ScientificName,
			CommonName:     top.CommonName,
			Family:         top.Family,
			Confidence:     top.Confidence,
		}
		rest := findings.Candidates[1:]
		if len(rest) > maxAlternatives {
			rest = rest[:maxAlternatives]
		}
		if len(rest) > 0 {
			result.Alternatives = append([]domain.SpeciesCandidate(nil), rest...)
		}
	}

	if len(findings.Diseases) > 0 {
		result.HealthAssessment = &domain.HealthAssessment{
			Status: "issues detected",
			Issues: append([]domain.HealthIssue(nil), findings.Diseases...),
		}
	}

	return result
}
