package ports

import (
	"context"

	"github.com/verdantlab/leafscan/internal/core/domain"
)

// CaptureFlow is the inbound contract consumed by the presentation layer. All
// operations reject re-entrant calls with domain.ErrBusy while a previous
// transition is still in flight.
type CaptureFlow interface {
	// Resume reconstructs the session from durable storage on process start.
	// A restored session with a completed triple re-enters processing
	// automatically.
	Resume(ctx context.Context) error
	// Start discards any existing session and begins a fresh one.
	Start(ctx context.Context) error
	// CaptureRaw compresses a raw capture into the pending draft.
	CaptureRaw(ctx context.Context, raw []byte) error
	// Retake discards the pending draft.
	Retake() error
	// Confirm commits the draft; the third confirm triggers identification.
	Confirm(ctx context.Context) error

	Snapshot() domain.SessionSnapshot
}

// PlantIdentifier is the inbound contract of the identification orchestrator.
type PlantIdentifier interface {
	Identify(ctx context.Context, images []domain.ImageBlob) (domain.IdentificationResult, error)
}

// CredentialAccess is the read/write/delete contract of the stored secondary
// provider credential.
type CredentialAccess interface {
	Credential(ctx context.Context) (string, bool, error)
	SetCredential(ctx context.Context, secret string) error
	DeleteCredential(ctx context.Context) error
}
