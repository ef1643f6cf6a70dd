package tagging

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/blobstore"
	"github.com/kozaktomas/bird-tagger/internal/constants"
)

// UploadRequest is a file received from a client.
type UploadRequest struct {
	Filename    string
	ContentType string
	Data        []byte
	UploadedBy  string
}

// UploadResult describes a stored and ingested upload.
type UploadResult struct {
	Key              string        `json:"s3_key"`
	URL              string        `json:"s3_url"`
	Filename         string        `json:"filename"`
	OriginalFilename string        `json:"original_filename"`
	FileType         string        `json:"file_type"`
	FileSize         int           `json:"file_size"`
	Record           *asset.Record `json:"record"`
}

// SanitizeFilename reduces a client filename to a safe base name made of
// letters, digits, dots, dashes and underscores.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), "._")
}

// UploadKey returns <folder>/<uuidhex>_<name> for a sanitized filename.
func UploadKey(kind asset.Kind, name string) string {
	return asset.FolderForKind(kind) + strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + name
}

// Upload stores a client file under a unique key, creates the thumbnail for
// images and ingests the result.
func (p *Pipeline) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	name := SanitizeFilename(req.Filename)
	if name == "" {
		return nil, validation("filename is required")
	}
	kind, ok := asset.KindFromName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", asset.ErrValidation, asset.ErrUnsupportedKind, name)
	}
	if len(req.Data) == 0 {
		return nil, validation("file is empty")
	}
	if len(req.Data) > constants.MaxUploadSize {
		return nil, validation("file size too large (max %dMB)", constants.MaxUploadSize>>20)
	}

	key := UploadKey(kind, name)
	contentType := req.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = blobstore.ContentTypeForKey(key)
	}
	metadata := map[string]string{
		"original_filename": name,
		"uploaded_by":       req.UploadedBy,
		"upload_time":       time.Now().UTC().Format(time.RFC3339),
		"file_type":         strings.ToLower(string(kind)),
	}
	if err := p.blobs.Put(ctx, key, req.Data, contentType, metadata); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	rec, err := p.Ingest(ctx, IngestRequest{Key: key, Data: req.Data, GenerateThumbnail: true})
	if err != nil {
		p.log.Warn("uploaded file could not be ingested", "key", key, "error", err)
		return nil, err
	}

	return &UploadResult{
		Key:              key,
		URL:              p.locator.HTTPS(p.locator.StorageURI(key)),
		Filename:         path.Base(key),
		OriginalFilename: name,
		FileType:         strings.ToLower(string(kind)),
		FileSize:         len(req.Data),
		Record:           rec,
	}, nil
}

// PresignUpload returns a browser upload form for folder/filename. The form
// only accepts content types matching the folder and produces a public-read object.
func (p *Pipeline) PresignUpload(ctx context.Context, filename, folder string) (*blobstore.PresignedPost, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return nil, validation("filename is required")
	}
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		folder = "others"
	}
	key := folder + "/" + name

	post, err := p.blobs.PresignPost(ctx, key, blobstore.ContentTypePrefix(folder), constants.PresignExpiry)
	if err != nil {
		return nil, err
	}
	post.Fields["key"] = key
	post.Fields["bucket"] = p.locator.Bucket
	post.Fields["region"] = p.locator.Region
	return post, nil
}
