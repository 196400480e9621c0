package domain

// CaptureSteps is the number of photos a session collects. The flow is fixed
// at three: whole plant, leaf close-up, flower or fruit.
const CaptureSteps = 3

// StepCompleted marks a session whose identification finished and is awaiting
// an explicit reset by the user.
const StepCompleted = CaptureSteps + 1

type Phase string

const (
	PhaseAwaitingCapture Phase = "awaiting_capture"
	PhaseReviewingDraft  Phase = "reviewing_draft"
	PhaseReadyToProcess  Phase = "ready_to_process"
	PhaseProcessing      Phase = "processing"
	PhaseCompleted       Phase = "completed"
)

// ImageBlob is a self-describing captured image.
type ImageBlob struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// CaptureSession is the central entity of the capture flow. Draft holds the
// captured-but-unconfirmed image and is never persisted; only StepIndex and
// Images survive a restart.
type CaptureSession struct {
	StepIndex int         `json:"step_index"`
	Images    []ImageBlob `json:"images"`
	Draft     *ImageBlob  `json:"-"`
}

func NewCaptureSession() *CaptureSession {
	return &CaptureSession{
		StepIndex: 0,
		Images:    make([]ImageBlob, 0, CaptureSteps),
	}
}

// Complete reports whether all capture slots are filled.
func (s *CaptureSession) Complete() bool {
	return s.StepIndex >= CaptureSteps
}

// StepGuide tells the presentation layer what to ask the user to photograph
// and which organ hint to attach for the primary provider.
type StepGuide struct {
	Title       string
	Instruction string
	Organ       string
}

var stepGuides = [CaptureSteps]StepGuide{
	{
		Title:       "Whole plant",
		Instruction: "Step back and photograph the entire plant in its pot or bed.",
		Organ:       "auto",
	},
	{
		Title:       "Leaf close-up",
		Instruction: "Fill the frame with a single healthy leaf, top side up.",
		Organ:       "leaf",
	},
	{
		Title:       "Flower or fruit",
		Instruction: "Photograph a flower or fruit if present, otherwise the stem.",
		Organ:       "auto",
	},
}

// GuideForStep returns the capture guide for a slot index in [0, CaptureSteps).
func GuideForStep(step int) StepGuide {
	if step < 0 || step >= CaptureSteps {
		return StepGuide{Title: "Done", Organ: "auto"}
	}
	return stepGuides[step]
}

// OrganHints returns the per-slot organ hints sent alongside a completed triple.
func OrganHints() []string {
	hints := make([]string, CaptureSteps)
	for i := range hints {
		hints[i] = stepGuides[i].Organ
	}
	return hints
}
