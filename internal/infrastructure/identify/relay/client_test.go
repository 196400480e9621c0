package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/verdantlab/leafscan/internal/core/domain"
)

const identifyFixture = `{
	"identify": {
		"results": [
			{"score": 0.91, "species": {"scientificNameWithoutAuthor": "Ficus lyrata", "commonNames": ["Fiddle-leaf fig"], "family": {"scientificNameWithoutAuthor": "Moraceae"}}},
			{"score": 0.05, "species": {"scientificNameWithoutAuthor": "Ficus elastica", "commonNames": [], "family": {"scientificNameWithoutAuthor": "Moraceae"}}}
		]
	},
	"diseases": {
		"results": [
			{"name": "leaf spot", "score": 0.4, "treatment": "remove affected leaves"}
		]
	}
}`

func testImages() []domain.ImageBlob {
	return []domain.ImageBlob{
		{MimeType: "image/jpeg", Data: []byte("a")},
		{MimeType: "image/jpeg", Data: []byte("b")},
		{MimeType: "image/jpeg", Data: []byte("c")},
	}
}

func TestIdentifyPostsDataURIsAndMapsResults(t *testing.T) {
	var captured identifyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != identifyPath {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(identifyFixture))
	}))
	defer server.Close()

	client := New(server.URL)
	findings, err := client.Identify(context.Background(), testImages(), []string{"auto", "leaf", "auto"}, "en", true)
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}

	if len(captured.Images) != 3 || !strings.HasPrefix(captured.Images[0], "data:image/jpeg;base64,") {
		t.Fatalf("expected base64 data uris, got %v", captured.Images)
	}
	if !captured.DetectDisease || captured.Lang != "en" {
		t.Fatalf("request flags not forwarded: %+v", captured)
	}

	if len(findings.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(findings.Candidates))
	}
	top := findings.Candidates[0]
	if top.ScientificName != "Ficus lyrata" || top.CommonName != "Fiddle-leaf fig" || top.Family != "Moraceae" || top.Confidence != 0.91 {
		t.Fatalf("unexpected top candidate: %+v", top)
	}
	if findings.Candidates[1].CommonName != "" {
		t.Fatalf("candidate without common names must stay empty, got %+v", findings.Candidates[1])
	}
	if len(findings.Diseases) != 1 || findings.Diseases[0].Name != "leaf spot" || findings.Diseases[0].RecommendedAction != "remove affected leaves" {
		t.Fatalf("unexpected diseases: %+v", findings.Diseases)
	}
}

func TestIdentifyTreatsEmbeddedProviderErrorAsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"identify": {"error": "upstream timeout"}, "diseases": null}`))
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Identify(context.Background(), testImages(), nil, "en", false)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrProviderUnavailable) {
		t.Fatalf("embedded provider error must map to unavailable, got %v", err)
	}
}

func TestIdentifyIgnoresBrokenDiseasePayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"identify": {"results": [{"score": 0.8, "species": {"scientificNameWithoutAuthor": "Monstera deliciosa"}}]},
			"diseases": {"error": "disease service down"}
		}`))
	}))
	defer server.Close()

	client := New(server.URL)
	findings, err := client.Identify(context.Background(), testImages(), nil, "en", true)
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if len(findings.Candidates) != 1 || findings.Candidates[0].ScientificName != "Monstera deliciosa" {
		t.Fatalf("species result must survive a failed disease lookup: %+v", findings)
	}
	if len(findings.Diseases) != 0 {
		t.Fatalf("errored disease payload must yield no diseases, got %+v", findings.Diseases)
	}
}

func TestIdentifyMapsHTTPFailureToUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Identify(context.Background(), testImages(), nil, "en", false)
	if !domain.IsKind(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "relay overloaded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
