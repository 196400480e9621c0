package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/verdantlab/leafscan/internal/core/domain"
	"github.com/verdantlab/leafscan/internal/core/ports"
)

// SessionManager owns the capture session state machine and its durable
// persistence. A single manager instance serves a single logical user; all
// transitions are single-flight, guarded by a busy flag so a second capture
// trigger is rejected while one is still resolving.
type SessionManager struct {
	store      ports.KeyValueStore
	compressor ports.ImageCompressor
	identifier ports.PlantIdentifier
	logger     *slog.Logger

	mu      sync.Mutex
	busy    bool
	phase   domain.Phase
	session *domain.CaptureSession
	result  *domain.IdentificationResult
}

func NewSessionManager(
	store ports.KeyValueStore,
	compressor ports.ImageCompressor,
	identifier ports.PlantIdentifier,
	logger *slog.Logger,
) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		store:      store,
		compressor: compressor,
		identifier: identifier,
		logger:     logger,
		phase:      domain.PhaseAwaitingCapture,
		session:    domain.NewCaptureSession(),
	}
}

// Resume reconstructs the state machine from the durable store on process
// start. An interrupted session with a completed triple re-enters processing
// immediately so a captured triple is never lost.
func (m *SessionManager) Resume(ctx context.Context) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()

	payload, found, err := m.store.Get(ctx, ports.NamespaceSession, ports.KeyCurrentSession)
	if err != nil {
		m.logger.Warn("session_restore_failed", "error", err)
		m.reset()
		return nil
	}
	if !found {
		m.reset()
		return nil
	}

	restored := domain.NewCaptureSession()
	if err := json.Unmarshal(payload, restored); err != nil {
		m.logger.Warn("session_restore_corrupt", "error", err)
		m.deletePersisted(ctx)
		m.reset()
		return nil
	}
	if len(restored.Images) != clampStep(restored.StepIndex) {
		m.logger.Warn("session_restore_inconsistent",
			"step_index", restored.StepIndex,
			"images", len(restored.Images),
		)
		m.deletePersisted(ctx)
		m.reset()
		return nil
	}

	m.setState(restored, domain.PhaseAwaitingCapture)
	if !restored.Complete() {
		m.logger.Info("session_resumed", "step_index", restored.StepIndex)
		return nil
	}

	// A triple was captured but identification never finished: re-enter
	// processing with the restored images instead of asking for re-capture.
	m.logger.Info("session_resumed_processing", "images", len(restored.Images))
	m.process(ctx)
	return nil
}

// Start discards any existing session, in memory and in the store, and begins
// a fresh capture flow. It is the only transition reachable from Completed.
func (m *SessionManager) Start(ctx context.Context) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()

	m.deletePersisted(ctx)
	m.reset()
	return nil
}

// CaptureRaw compresses a raw capture into the pending draft. On a decode
// failure the machine stays in AwaitingCapture so the user can retry.
func (m *SessionManager) CaptureRaw(ctx context.Context, raw []byte) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()

	if m.currentPhase() != domain.PhaseAwaitingCapture {
		return domain.WrapError(domain.ErrInvalidTransition, "capture", fmt.Errorf("phase %s", m.currentPhase()))
	}

	blob, err := m.compressor.Compress(ctx, raw)
	if err != nil {
		return domain.WrapError(domain.ErrUndecodableImage, "capture", err)
	}

	m.mu.Lock()
	m.session.Draft = &blob
	m.phase = domain.PhaseReviewingDraft
	m.mu.Unlock()
	return nil
}

// Retake discards the pending draft. The draft was never persisted, so this
// transition performs no store I/O.
func (m *SessionManager) Retake() error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != domain.PhaseReviewingDraft {
		return domain.WrapError(domain.ErrInvalidTransition, "retake", fmt.Errorf("phase %s", m.phase))
	}
	m.session.Draft = nil
	m.phase = domain.PhaseAwaitingCapture
	return nil
}

// Confirm commits the draft into the captured set, persists the session, and
// on the third confirm hands the completed triple to the orchestrator. The
// store write is awaited before the next phase is entered so persisted state
// never lags what the user has been shown.
func (m *SessionManager) Confirm(ctx context.Context) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()

	m.mu.Lock()
	if m.phase != domain.PhaseReviewingDraft || m.session.Draft == nil {
		phase := m.phase
		m.mu.Unlock()
		return domain.WrapError(domain.ErrInvalidTransition, "confirm", fmt.Errorf("phase %s", phase))
	}
	m.session.Images = append(m.session.Images, *m.session.Draft)
	m.session.Draft = nil
	m.session.StepIndex++
	m.mu.Unlock()

	m.persist(ctx)

	snap := m.snapshotSession()
	if !snap.Complete() {
		m.setPhase(domain.PhaseAwaitingCapture)
		return nil
	}

	m.setPhase(domain.PhaseReadyToProcess)
	m.process(ctx)
	return nil
}

// Snapshot returns a read-only view of the flow for rendering.
func (m *SessionManager) Snapshot() domain.SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.SessionSnapshot{
		Phase:      m.phase,
		StepIndex:  m.session.StepIndex,
		ImageCount: len(m.session.Images),
		HasDraft:   m.session.Draft != nil,
		Guide:      domain.GuideForStep(m.session.StepIndex),
		Result:     m.result,
	}
}

// process runs identification for the completed triple. Cleanup of the
// persisted entry and the move to Completed are unconditional: even an
// orchestrator failure leaves the UI on an actionable terminal screen.
func (m *SessionManager) process(ctx context.Context) {
	m.setPhase(domain.PhaseProcessing)
	defer func() {
		m.deletePersisted(ctx)
		m.mu.Lock()
		m.session.StepIndex = domain.StepCompleted
		m.phase = domain.PhaseCompleted
		m.mu.Unlock()
	}()

	result, err := m.identifier.Identify(ctx, m.snapshotSession().Images)
	if err != nil {
		m.logger.Error("identification_failed", "error", err)
		result = domain.IdentificationResult{}
	}

	m.mu.Lock()
	m.result = &result
	m.mu.Unlock()
}

// persist writes {step_index, images} to the session namespace. The write is
// awaited; a failure is logged and the flow continues in memory only.
func (m *SessionManager) persist(ctx context.Context) {
	payload, err := json.Marshal(m.snapshotSession())
	if err != nil {
		m.logger.Error("session_encode_failed", "error", err)
		return
	}
	if err := m.store.Put(ctx, ports.NamespaceSession, ports.KeyCurrentSession, payload); err != nil {
		m.logger.Warn("session_persist_failed", "error", err)
	}
}

func (m *SessionManager) deletePersisted(ctx context.Context) {
	if err := m.store.Delete(ctx, ports.NamespaceSession, ports.KeyCurrentSession); err != nil {
		m.logger.Warn("session_cleanup_failed", "error", err)
	}
}

func (m *SessionManager) acquire() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return domain.ErrBusy
	}
	m.busy = true
	return nil
}

func (m *SessionManager) release() {
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()
}

func (m *SessionManager) reset() {
	m.mu.Lock()
	m.session = domain.NewCaptureSession()
	m.phase = domain.PhaseAwaitingCapture
	m.result = nil
	m.mu.Unlock()
}

func (m *SessionManager) setState(session *domain.CaptureSession, phase domain.Phase) {
	m.mu.Lock()
	m.session = session
	m.phase = phase
	m.result = nil
	m.mu.Unlock()
}

func (m *SessionManager) setPhase(phase domain.Phase) {
	m.mu.Lock()
	m.phase = phase
	m.mu.Unlock()
}

func (m *SessionManager) currentPhase() domain.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// snapshotSession copies the session value for use outside the lock. Image
// payloads are shared, never mutated in place.
func (m *SessionManager) snapshotSession() domain.CaptureSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *m.session
	copied.Images = append([]domain.ImageBlob(nil), m.session.Images...)
	return copied
}

func clampStep(stepIndex int) int {
	if stepIndex > domain.CaptureSteps {
		return domain.CaptureSteps
	}
	if stepIndex < 0 {
		return 0
	}
	return stepIndex
}
