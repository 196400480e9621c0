package ports

import (
	"context"

	"github.com/verdantlab/leafscan/internal/core/domain"
)

// Key-value namespaces and keys of the durable store. The two namespaces are
// independent: credential lifecycle is never tied to session lifecycle.
const (
	NamespaceSettings = "settings"
	NamespaceSession  = "session"

	KeyCredential     = "credential"
	KeyCurrentSession = "current"
)

// KeyValueStore is the durable, namespaced persistence contract. All
// operations suspend until acknowledged; a Put that returned nil has reached
// durable storage.
type KeyValueStore interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Put(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
}

// ImageCompressor bounds and re-encodes a raw capture. It must return an
// error, never panic, for undecodable input.
type ImageCompressor interface {
	Compress(ctx context.Context, raw []byte) (domain.ImageBlob, error)
}

// SpeciesIdentifier is the primary, structured identification source. One
// attempt per session; any failure is reported as an error and treated as
// "source unavailable" by the orchestrator.
type SpeciesIdentifier interface {
	Identify(ctx context.Context, images []domain.ImageBlob, organs []string, lang string, detectDisease bool) (domain.PrimaryFindings, error)
}

// VisionAnalyzer is the secondary, generative identification source. The
// credential is supplied per call because it belongs to the user, not the
// deployment.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, credential string, images []domain.ImageBlob, lang string) (domain.IdentificationResult, error)
}

// ScanEventPublisher emits per-scan audit events from the relay. Implementations
// must tolerate a broker outage without failing the scan.
type ScanEventPublisher interface {
	PublishScanObserved(ctx context.Context, event domain.ScanEvent) error
}
