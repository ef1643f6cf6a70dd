package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed prompts/bird_detection.txt
var birdDetectionPrompt string

// Detection is a single detected bird instance.
type Detection struct {
	Species    string  `json:"species"`
	Confidence float64 `json:"confidence"`
}

// Classifier runs bird detection on a single image or video frame.
// Implementations return one Detection per detected instance.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, image []byte) ([]Detection, error)
}

// birdsResponse is the JSON shape the vision-model providers are asked to produce.
type birdsResponse struct {
	Birds []struct {
		Species    string  `json:"species"`
		Count      int     `json:"count"`
		Confidence float64 `json:"confidence"`
	} `json:"birds"`
}

// buildDetectionPrompt renders the detection prompt for the given species catalog.
func buildDetectionPrompt(species []string) string {
	var b strings.Builder
	for _, s := range species {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return fmt.Sprintf(birdDetectionPrompt, strings.TrimRight(b.String(), "\n"))
}

// parseBirdsResponse expands per-species counts into instance detections,
// dropping species outside the catalog.
func parseBirdsResponse(content string, species []string) ([]Detection, error) {
	var resp birdsResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(species))
	for _, s := range species {
		allowed[strings.ToLower(s)] = true
	}

	var detections []Detection
	for _, bird := range resp.Birds {
		name := strings.ToLower(strings.TrimSpace(bird.Species))
		if len(allowed) > 0 && !allowed[name] {
			continue
		}
		for range bird.Count {
			detections = append(detections, Detection{Species: name, Confidence: bird.Confidence})
		}
	}
	return detections, nil
}
