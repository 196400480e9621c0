package domain

// SessionSnapshot is a read-only view of the capture flow handed to the
// presentation layer after every transition.
type SessionSnapshot struct {
	Phase      Phase
	StepIndex  int
	ImageCount int
	HasDraft   bool
	Guide      StepGuide

	// Result is nil until processing finished. A non-nil pointer to an empty
	// result means "could not identify" and is rendered distinctly.
	Result *IdentificationResult
}
