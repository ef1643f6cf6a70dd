package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/constants"
)

// HTTPClassifier calls a detection sidecar serving the trained model.
//
// POST {baseURL}/detect with the raw image as the body returns
// {"detections": [{"species": "crow", "confidence": 0.93}, ...]}.
// The sidecar answers 422 when it cannot decode the image.
type HTTPClassifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClassifier(baseURL string) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: constants.DetectorTimeout},
	}
}

type detectResponse struct {
	Detections []Detection `json:"detections"`
}

func (c *HTTPClassifier) Name() string {
	return "http:" + c.baseURL
}

func (c *HTTPClassifier) Classify(ctx context.Context, image []byte) ([]Detection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: detector rejected image: %s", asset.ErrDecode, readErrorBody(resp.Body))
	default:
		return nil, fmt.Errorf("detect request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	for i := range result.Detections {
		result.Detections[i].Species = strings.ToLower(strings.TrimSpace(result.Detections[i].Species))
	}
	return result.Detections, nil
}

// readErrorBody reads up to 1KB of a response body for error messages.
func readErrorBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 1024))
	if err != nil {
		return "(could not read body)"
	}
	return strings.TrimSpace(string(data))
}
