package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/bird-tagger/internal/media"
	"google.golang.org/genai"
)

const geminiModel = "gemini-2.5-flash"

// GeminiClassifier detects birds with a Gemini vision model.
type GeminiClassifier struct {
	client  *genai.Client
	species []string
}

func NewGeminiClassifier(ctx context.Context, apiKey string, species []string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClassifier{client: client, species: species}, nil
}

func (p *GeminiClassifier) Name() string {
	return geminiModel
}

func (p *GeminiClassifier) Classify(ctx context.Context, image []byte) ([]Detection, error) {
	const maxRetries = 3

	resizedData, err := media.Fit(image, 800)
	if err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildDetectionPrompt(p.species)},
				{InlineData: &genai.Blob{Data: resizedData, MIMEType: "image/jpeg"}},
			},
		},
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	var lastError error
	var lastResponse string

	for range maxRetries {
		result, err := p.client.Models.GenerateContent(ctx, geminiModel, contents, config)
		if err != nil {
			return nil, fmt.Errorf("gemini API error: %w", err)
		}

		content := result.Text()
		if content == "" {
			return nil, errors.New("no response from Gemini")
		}
		lastResponse = content

		detections, err := parseBirdsResponse(content, p.species)
		if err != nil {
			lastError = err
			contents = append(contents,
				&genai.Content{
					Role:  "model",
					Parts: []*genai.Part{{Text: content}},
				},
				&genai.Content{
					Role:  "user",
					Parts: []*genai.Part{{Text: fmt.Sprintf("JSON parse error: %v. Please fix the JSON and try again.", err)}},
				},
			)
			continue
		}
		return detections, nil
	}

	return nil, fmt.Errorf("failed to parse detection JSON after %d attempts: %w (last response: %s)", maxRetries, lastError, lastResponse)
}
