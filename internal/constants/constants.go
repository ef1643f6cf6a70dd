// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Pagination constants
const (
	// DefaultPageSize is the number of records fetched per page when scanning the store
	DefaultPageSize = 1000
)

// Detection constants
const (
	// VideoSampleFrames is the number of evenly spaced frames classified per video
	VideoSampleFrames = 10

	// DefaultContentSearchConfidence is the minimum detector confidence when
	// detecting species in a query file
	DefaultContentSearchConfidence = 0.5
)

// Thumbnail constants
const (
	// DefaultThumbnailWidth is the width of generated thumbnails; height keeps the aspect ratio
	DefaultThumbnailWidth = 256

	// ThumbnailJPEGQuality is the JPEG quality used for thumbnails
	ThumbnailJPEGQuality = 85

	// MaxDecodePixels caps width*height accepted by the image decoder
	MaxDecodePixels = 100_000_000
)

// Notification constants
const (
	// TopicPrefix and TopicSuffix wrap the lowercased species name in topic names
	TopicPrefix = "bird-"
	TopicSuffix = "-notifications"
)

// Timeout constants
const (
	// FFmpegTimeout bounds a single ffprobe/ffmpeg invocation
	FFmpegTimeout = 2 * time.Minute

	// DetectorTimeout bounds a single classifier request
	DetectorTimeout = 60 * time.Second
)
