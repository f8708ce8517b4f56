package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// Remote invokes a model-serving endpoint over HTTP. The call is
// synchronous; the caller waits for the full response or the failure.
type Remote struct {
	endpoint string
	client   *http.Client
}

func NewRemote(endpoint string, client *http.Client) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{endpoint: endpoint, client: client}
}

type remoteResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

func (p *Remote) Predict(ctx context.Context, imagePath string) (string, float64, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return "", 0, fmt.Errorf("open image for prediction: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return "", 0, fmt.Errorf("build prediction request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", 0, fmt.Errorf("copy image into request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", 0, fmt.Errorf("finalize prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, &body)
	if err != nil {
		return "", 0, fmt.Errorf("create prediction request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("call model endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("model endpoint returned status %d", resp.StatusCode)
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, fmt.Errorf("decode model response: %w", err)
	}
	if parsed.Label == "" {
		return "", 0, fmt.Errorf("model response missing label")
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		return "", 0, fmt.Errorf("model confidence %f out of range", parsed.Confidence)
	}
	return parsed.Label, parsed.Confidence, nil
}

var _ Predictor = (*Remote)(nil)
