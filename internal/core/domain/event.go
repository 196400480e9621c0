package domain

import "time"

// ScanEvent is the audit record the relay publishes after serving an
// identification request. It carries no image data.
type ScanEvent struct {
	RequestID     string    `json:"request_id"`
	ImageCount    int       `json:"image_count"`
	Lang          string    `json:"lang,omitempty"`
	DetectDisease bool      `json:"detect_disease"`
	IdentifyOK    bool      `json:"identify_ok"`
	DiseasesOK    bool      `json:"diseases_ok"`
	ObservedAt    time.Time `json:"observed_at"`
}
