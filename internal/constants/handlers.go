package constants

import "time"

// File upload constants
const (
	// MaxUploadSize is the maximum file upload size in bytes (50MB)
	MaxUploadSize = 50 << 20

	// MaxQueryFileSize is the maximum size of a file posted to content search (50MB)
	MaxQueryFileSize = 50 << 20

	// PresignExpiry is how long presigned upload forms stay valid
	PresignExpiry = 3600 * time.Second
)

// Request limits
const (
	// MaxBatchSize is the maximum number of URLs accepted by one mutation or deletion call
	MaxBatchSize = 1000

	// MaxJSONBodySize bounds JSON request bodies (1MB)
	MaxJSONBodySize = 1 << 20
)
