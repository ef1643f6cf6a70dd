// Package blobstore stores uploaded media and derived thumbnails in an S3 bucket.
package blobstore

import (
	"context"
	"path"
	"strings"
	"time"
)

// PresignedPost is a browser upload form: POST the fields plus the file to URL.
type PresignedPost struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// Store is the blob store contract. Deleting an absent key is not an error.
// Get returns asset.ErrNotFound for missing keys.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PresignPost(ctx context.Context, key, contentTypePrefix string, expiry time.Duration) (*PresignedPost, error)
}

// ContentTypeForKey guesses a MIME type from the key extension.
func ContentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}

// ContentTypePrefix returns the MIME family ("image/", "video/", ...) accepted
// for uploads into the given folder.
func ContentTypePrefix(folder string) string {
	switch strings.Trim(folder, "/") {
	case "images", "thumbnails":
		return "image/"
	case "video":
		return "video/"
	case "audio":
		return "audio/"
	}
	return ""
}
