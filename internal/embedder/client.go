// Package embedder talks to the face embedding sidecar. The sidecar runs
// the dlib detector and encoder and returns face boxes with 128-dim
// encodings for a submitted frame.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/kozaktomas/face-attend/internal/config"
	"github.com/kozaktomas/face-attend/internal/engine"
)

// Face is a single detected face returned by the sidecar.
type Face struct {
	Box       engine.Box `json:"box"`
	Embedding []float32  `json:"embedding"`
}

// DetectResponse is the sidecar's answer for one frame.
type DetectResponse struct {
	Faces []Face `json:"faces"`
	Model string `json:"model"`
}

// Client is an HTTP client for the embedding sidecar.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates a new sidecar client from config.
func NewClient(cfg *config.EmbedderConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("embedder URL is required")
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid embedder URL: %w", err)
	}

	return &Client{
		baseURL: parsed,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}, nil
}

// Detect submits a JPEG frame and returns the detected faces. The detector
// mode is forwarded so the sidecar picks the matching dlib model.
func (c *Client) Detect(ctx context.Context, frame []byte, mode engine.DetectorMode) ([]Face, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("frame", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(frame); err != nil {
		return nil, fmt.Errorf("could not write frame: %w", err)
	}
	if err := writer.WriteField("model", string(mode)); err != nil {
		return nil, fmt.Errorf("could not write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.JoinPath("detect").String(), &body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedder returned status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var result DetectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	return result.Faces, nil
}

// Healthy checks whether the sidecar answers its health endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.JoinPath("health").String(), nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach embedder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedder unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// readErrorBody reads the response body for error messages.
// Returns a placeholder if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}
