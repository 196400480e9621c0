package gemini

import (
	"context"
	"strings"
	"testing"

	"github.com/verdantlab/leafscan/internal/core/domain"
)

func TestParseResultAcceptsFencedJSON(t *testing.T) {
	text := "```json\n" + `{
		"best_match": {"scientific_name": "Monstera deliciosa", "common_name": "Swiss cheese plant", "confidence": 0.87},
		"care_guide": {"watering": "weekly", "sunlight": "bright indirect"},
		"fun_facts": ["Its fruit is edible when ripe."]
	}` + "\n```"

	result, err := parseResult(text)
	if err != nil {
		t.Fatalf("parseResult() error = %v", err)
	}
	if result.BestMatch == nil || result.BestMatch.ScientificName != "Monstera deliciosa" {
		t.Fatalf("unexpected best match: %+v", result.BestMatch)
	}
	if result.CareGuide == nil || result.CareGuide.Watering != "weekly" {
		t.Fatalf("unexpected care guide: %+v", result.CareGuide)
	}
	if len(result.FunFacts) != 1 {
		t.Fatalf("unexpected fun facts: %v", result.FunFacts)
	}
}

func TestParseResultEmptyObjectMeansNoDetermination(t *testing.T) {
	for _, text := range []string{"{}", "```\n{}\n```"} {
		result, err := parseResult(text)
		if err != nil {
			t.Fatalf("parseResult(%q) error = %v", text, err)
		}
		if !result.Empty() {
			t.Fatalf("expected empty result for %q, got %+v", text, result)
		}
	}
}

func TestParseResultRejectsProse(t *testing.T) {
	if _, err := parseResult("This looks like a fern to me."); err == nil {
		t.Fatalf("expected error for non-json response")
	}
	if _, err := parseResult("```json\nnot actually json\n```"); err == nil {
		t.Fatalf("expected error for fenced non-json response")
	}
}

func TestParseResultDropsNamelessCandidates(t *testing.T) {
	result, err := parseResult(`{
		"best_match": {"scientific_name": "  ", "confidence": 0.9},
		"alternatives": [
			{"scientific_name": "Ficus elastica", "confidence": 0.2},
			{"scientific_name": "", "confidence": 0.1}
		]
	}`)
	if err != nil {
		t.Fatalf("parseResult() error = %v", err)
	}
	if result.BestMatch != nil {
		t.Fatalf("blank best match must be dropped, got %+v", result.BestMatch)
	}
	if len(result.Alternatives) != 1 || result.Alternatives[0].ScientificName != "Ficus elastica" {
		t.Fatalf("unexpected alternatives: %+v", result.Alternatives)
	}
}

func TestAnalyzeRequiresCredential(t *testing.T) {
	analyzer := New("")
	_, err := analyzer.Analyze(context.Background(), "   ", []domain.ImageBlob{{MimeType: "image/jpeg", Data: []byte("x")}}, "en")
	if !domain.IsKind(err, domain.ErrNoCredential) {
		t.Fatalf("expected credential error, got %v", err)
	}
}

func TestSystemInstructionCarriesLocaleAndShape(t *testing.T) {
	instruction := systemInstruction("de")
	if !strings.Contains(instruction, `"de"`) {
		t.Fatalf("locale missing from instruction: %s", instruction)
	}
	if !strings.Contains(instruction, "scientific_name") || !strings.Contains(instruction, "care_guide") {
		t.Fatalf("result shape missing from instruction: %s", instruction)
	}
}
