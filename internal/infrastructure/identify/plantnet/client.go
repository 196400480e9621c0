package plantnet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/verdantlab/leafscan/internal/core/domain"
	"github.com/verdantlab/leafscan/internal/infrastructure/resilience"
)

const (
	speciesPath = "/v2/identify/all"
	diseasePath = "/v1/diagnosis"
)

// Client talks to the plant identification provider. Responses are passed
// through as raw JSON so the relay never has to chase the provider's schema.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

// IdentifySpecies submits the capture set against the species endpoint.
// Organs are paired positionally with images by the provider.
func (c *Client) IdentifySpecies(ctx context.Context, images []domain.ImageBlob, organs []string, lang string) (json.RawMessage, error) {
	fields := url.Values{}
	for _, organ := range organs {
		fields.Add("organs", organ)
	}
	return c.postImages(ctx, "identify_species", speciesPath, images, fields, lang)
}

// DiagnoseDiseases submits the capture set against the disease endpoint.
func (c *Client) DiagnoseDiseases(ctx context.Context, images []domain.ImageBlob, lang string) (json.RawMessage, error) {
	return c.postImages(ctx, "diagnose_diseases", diseasePath, images, url.Values{}, lang)
}

func (c *Client) postImages(
	ctx context.Context,
	operation string,
	path string,
	images []domain.ImageBlob,
	fields url.Values,
	lang string,
) (json.RawMessage, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("plantnet %s: no images", operation)
	}

	body, contentType, err := encodeMultipart(images, fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", operation, err)
	}

	query := url.Values{}
	query.Set("api-key", c.apiKey)
	if lang != "" {
		query.Set("lang", lang)
	}
	endpoint := c.baseURL + path + "?" + query.Encode()

	var raw json.RawMessage
	callErr := c.executor.Execute(ctx, "plantnet."+operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("plantnet %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return newHTTPStatusError(operation, resp)
		}

		payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read %s response: %w", operation, err)
		}
		if !json.Valid(payload) {
			return fmt.Errorf("plantnet %s: response is not valid json", operation)
		}
		raw = payload
		return nil
	}, classifyProviderError)
	if callErr != nil {
		return nil, wrapTemporaryIfNeeded(operation, callErr)
	}
	return raw, nil
}

const maxResponseBytes = 4 << 20

func encodeMultipart(images []domain.ImageBlob, fields url.Values) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for i, image := range images {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(
			`form-data; name="images"; filename="capture-%d%s"`, i, extensionForMime(image.MimeType)))
		header.Set("Content-Type", image.MimeType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, "", err
		}
	}

	for name, values := range fields {
		for _, value := range values {
			if err := writer.WriteField(name, value); err != nil {
				return nil, "", err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func extensionForMime(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
