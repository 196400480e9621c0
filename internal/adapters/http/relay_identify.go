package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/verdantlab/leafscan/internal/core/domain"
)

type relayIdentifyRequest struct {
	Images        []string `json:"images"`
	Organs        []string `json:"organs"`
	DetectDisease bool     `json:"detect_disease"`
	Lang          string   `json:"lang"`
}

// relayIdentifyResponse embeds the upstream payloads verbatim. Diseases is
// null when disease detection was not requested, so the client can tell
// "not asked" from "asked and failed".
type relayIdentifyResponse struct {
	Identify json.RawMessage `json:"identify"`
	Diseases json.RawMessage `json:"diseases"`
}

func (rt *Router) identify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxBodyBytes)

	var req relayIdentifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			if rt.metrics != nil {
				rt.metrics.RecordRejected(rt.cfg.Service, "body_too_large")
			}
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	images, err := decodeImages(req.Images, rt.cfg.MaxImages)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	ctx := r.Context()
	response := relayIdentifyResponse{}

	identifyStart := time.Now()
	identifyRaw, identifyErr := rt.provider.IdentifySpecies(ctx, images, req.Organs, req.Lang)
	if rt.metrics != nil {
		rt.metrics.RecordProviderCall(rt.cfg.Service, "species", time.Since(identifyStart), identifyErr)
	}
	if identifyErr != nil {
		slog.Warn("relay_identify_failed",
			"request_id", requestIDFromContext(ctx),
			"error", identifyErr)
		response.Identify = errorPayload(identifyErr)
	} else {
		response.Identify = identifyRaw
	}

	diseasesOK := false
	if req.DetectDisease {
		diseaseStart := time.Now()
		diseaseRaw, diseaseErr := rt.provider.DiagnoseDiseases(ctx, images, req.Lang)
		if rt.metrics != nil {
			rt.metrics.RecordProviderCall(rt.cfg.Service, "disease", time.Since(diseaseStart), diseaseErr)
		}
		if diseaseErr != nil {
			slog.Warn("relay_diagnose_failed",
				"request_id", requestIDFromContext(ctx),
				"error", diseaseErr)
			response.Diseases = errorPayload(diseaseErr)
		} else {
			response.Diseases = diseaseRaw
			diseasesOK = true
		}
	}

	if rt.metrics != nil {
		rt.metrics.RecordScan(rt.cfg.Service, identifyErr == nil, req.DetectDisease, diseasesOK)
	}
	rt.publishScanEvent(r, req, len(images), identifyErr == nil, diseasesOK)

	writeJSON(w, http.StatusOK, response)
}

func (rt *Router) publishScanEvent(r *http.Request, req relayIdentifyRequest, imageCount int, identifyOK, diseasesOK bool) {
	if rt.publisher == nil {
		return
	}
	event := domain.ScanEvent{
		RequestID:     requestIDFromContext(r.Context()),
		ImageCount:    imageCount,
		Lang:          req.Lang,
		DetectDisease: req.DetectDisease,
		IdentifyOK:    identifyOK,
		DiseasesOK:    diseasesOK,
		ObservedAt:    time.Now().UTC(),
	}
	if err := rt.publisher.PublishScanObserved(r.Context(), event); err != nil {
		slog.Warn("scan_event_publish_failed",
			"request_id", event.RequestID,
			"error", err)
	}
}

func decodeImages(encoded []string, maxImages int) ([]domain.ImageBlob, error) {
	if len(encoded) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "relay identify", errors.New("images are required"))
	}
	if len(encoded) > maxImages {
		return nil, domain.WrapError(domain.ErrInvalidInput, "relay identify",
			fmt.Errorf("got %d images, at most %d allowed", len(encoded), maxImages))
	}

	images := make([]domain.ImageBlob, 0, len(encoded))
	for i, entry := range encoded {
		data, hintMime, err := decodeBase64MaybeDataURL(entry)
		if err != nil || len(data) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "relay identify",
				fmt.Errorf("image %d is not valid base64", i))
		}
		images = append(images, domain.ImageBlob{
			MimeType: pickMime(hintMime, data),
			Data:     data,
		})
	}
	return images, nil
}

func errorPayload(err error) json.RawMessage {
	payload, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return json.RawMessage(`{"error":"provider call failed"}`)
	}
	return payload
}
