package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/verdantlab/leafscan/internal/core/domain"
)

const DefaultModel = "gemini-2.0-flash"

// Analyzer implements ports.VisionAnalyzer on the Gemini API. The client is
// built per call because the credential belongs to the user and can change
// between scans.
type Analyzer struct {
	model string
}

func New(model string) *Analyzer {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &Analyzer{model: model}
}

func (a *Analyzer) Analyze(ctx context.Context, credential string, images []domain.ImageBlob, lang string) (domain.IdentificationResult, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.IdentificationResult{}, domain.WrapError(domain.ErrNoCredential, "gemini analyze", errors.New("credential is empty"))
	}
	if len(images) == 0 {
		return domain.IdentificationResult{}, fmt.Errorf("gemini analyze: no images")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(credential))
	if err != nil {
		return domain.IdentificationResult{}, fmt.Errorf("gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	if model == nil {
		return domain.IdentificationResult{}, fmt.Errorf("gemini: model is nil")
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction(lang))},
	}

	parts := make([]genai.Part, 0, len(images)+1)
	parts = append(parts, genai.Text(userInstruction(lang)))
	for _, image := range images {
		parts = append(parts, &genai.Blob{MIMEType: image.MimeType, Data: image.Data})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return domain.IdentificationResult{}, domain.WrapError(domain.ErrProviderUnavailable, "gemini analyze", err)
	}

	text := firstText(resp)
	if strings.TrimSpace(text) == "" {
		return domain.IdentificationResult{}, fmt.Errorf("gemini analyze: empty response")
	}
	return parseResult(text)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				return string(text)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
