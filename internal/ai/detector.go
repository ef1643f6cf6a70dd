package ai

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/constants"
	"github.com/kozaktomas/bird-tagger/internal/media"
)

// Detector turns classifier output into per-species counts for images and videos.
type Detector struct {
	classifier Classifier
	frames     FrameSource
}

func NewDetector(classifier Classifier, frames FrameSource) *Detector {
	return &Detector{classifier: classifier, frames: frames}
}

// countDetections counts instances per canonical species. When minConfidence is
// positive only detections strictly above it are counted.
func countDetections(detections []Detection, minConfidence float64) asset.Annotations {
	counts := asset.Annotations{}
	for _, det := range detections {
		if minConfidence > 0 && det.Confidence <= minConfidence {
			continue
		}
		name := asset.CanonicalSpecies(det.Species)
		if name == "" {
			continue
		}
		counts[name]++
	}
	return counts
}

// CountImage runs the classifier once over an image. Undecodable data wraps
// asset.ErrDecode and the classifier is not called.
func (d *Detector) CountImage(ctx context.Context, data []byte, minConfidence float64) (asset.Annotations, error) {
	if _, _, err := media.CheckImage(data); err != nil {
		return nil, err
	}
	detections, err := d.classifier.Classify(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("classify image: %w", err)
	}
	return countDetections(detections, minConfidence), nil
}

// CountVideo classifies evenly sampled frames of a local video and keeps, per
// species, the highest count seen in any single frame. Frames that cannot be
// read are skipped. A file that cannot be opened wraps asset.ErrDecode.
func (d *Detector) CountVideo(ctx context.Context, path string, minConfidence float64) (asset.Annotations, error) {
	frameCount, err := d.frames.FrameCount(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: open video: %w", asset.ErrDecode, err)
	}

	peak := asset.Annotations{}
	for _, idx := range SampleIndices(frameCount, constants.VideoSampleFrames) {
		frame, err := d.frames.Frame(ctx, path, idx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			continue
		}

		detections, err := d.classifier.Classify(ctx, frame)
		if errors.Is(err, asset.ErrDecode) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("classify frame %d: %w", idx, err)
		}

		for species, count := range countDetections(detections, minConfidence) {
			peak[species] = max(peak[species], count)
		}
	}
	return peak, nil
}

// CountVideoData spools video bytes to a temporary file and runs CountVideo.
func (d *Detector) CountVideoData(ctx context.Context, data []byte, ext string, minConfidence float64) (asset.Annotations, error) {
	tmp, err := os.CreateTemp("", "bird-tagger-*."+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}
	return d.CountVideo(ctx, tmp.Name(), minConfidence)
}
