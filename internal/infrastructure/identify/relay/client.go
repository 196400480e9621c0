package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/verdantlab/leafscan/internal/core/domain"
)

const identifyPath = "/v1/identify"

// Client implements ports.SpeciesIdentifier against the same-origin relay.
// Images travel as data URIs inside a JSON body; the relay holds the provider
// credential, so the client never sees an API key.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

type identifyRequest struct {
	Images        []string `json:"images"`
	Organs        []string `json:"organs,omitempty"`
	DetectDisease bool     `json:"detect_disease"`
	Lang          string   `json:"lang,omitempty"`
}

type identifyResponse struct {
	Identify json.RawMessage `json:"identify"`
	Diseases json.RawMessage `json:"diseases"`
}

func (c *Client) Identify(ctx context.Context, images []domain.ImageBlob, organs []string, lang string, detectDisease bool) (domain.PrimaryFindings, error) {
	if len(images) == 0 {
		return domain.PrimaryFindings{}, fmt.Errorf("relay identify: no images")
	}

	payload := identifyRequest{
		Images:        make([]string, 0, len(images)),
		Organs:        organs,
		DetectDisease: detectDisease,
		Lang:          lang,
	}
	for _, image := range images {
		payload.Images = append(payload.Images, encodeDataURI(image))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.PrimaryFindings{}, fmt.Errorf("marshal identify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+identifyPath, bytes.NewReader(body))
	if err != nil {
		return domain.PrimaryFindings{}, fmt.Errorf("create identify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PrimaryFindings{}, domain.WrapError(domain.ErrProviderUnavailable, "relay identify", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return domain.PrimaryFindings{}, domain.WrapError(domain.ErrProviderUnavailable, "relay identify",
			fmt.Errorf("status %s: %s", resp.Status, strings.TrimSpace(string(msg))))
	}

	var decoded identifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.PrimaryFindings{}, fmt.Errorf("decode identify response: %w", err)
	}
	return mapFindings(decoded)
}

func encodeDataURI(image domain.ImageBlob) string {
	mimeType := image.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
}
