package asset

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Storage key prefixes, one namespace per kind plus derived thumbnails.
const (
	PrefixImages     = "images/"
	PrefixVideo      = "video/"
	PrefixAudio      = "audio/"
	PrefixThumbnails = "thumbnails/"
)

// FolderForKind returns the key prefix objects of kind are stored under.
func FolderForKind(k Kind) string {
	switch k {
	case KindImage:
		return PrefixImages
	case KindVideo:
		return PrefixVideo
	case KindAudio:
		return PrefixAudio
	}
	return ""
}

// ThumbnailKey returns the conventional thumbnail key for an asset key.
func ThumbnailKey(key string) string {
	return PrefixThumbnails + path.Base(key)
}

// IsThumbnailKey reports whether key lives in the thumbnail namespace.
func IsThumbnailKey(key string) bool {
	return strings.HasPrefix(key, PrefixThumbnails)
}

// OriginalKeyForThumbnail maps thumbnails/<name> to images/<name>.
func OriginalKeyForThumbnail(key string) (string, bool) {
	name, ok := strings.CutPrefix(key, PrefixThumbnails)
	if !ok || name == "" {
		return "", false
	}
	return PrefixImages + name, true
}

// Locator converts between storage keys, s3:// storage URIs and public HTTPS URLs
// for a single bucket.
type Locator struct {
	Bucket string
	Region string
}

// StorageURI returns s3://<bucket>/<key>.
func (l Locator) StorageURI(key string) string {
	return "s3://" + l.Bucket + "/" + key
}

func (l Locator) httpsBase() string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", l.Bucket, l.Region)
}

// HTTPS converts a storage URI into its fetchable HTTPS form. Locations outside
// the configured bucket are returned unchanged.
func (l Locator) HTTPS(location string) string {
	key, ok := strings.CutPrefix(location, "s3://"+l.Bucket+"/")
	if !ok {
		return location
	}
	return l.httpsBase() + key
}

// Key extracts the storage key from any location form the service hands out:
// s3://bucket/key, the regional HTTPS URL, or the global HTTPS URL.
func (l Locator) Key(location string) (string, bool) {
	location = strings.TrimSpace(location)
	if key, ok := strings.CutPrefix(location, "s3://"+l.Bucket+"/"); ok {
		return key, key != ""
	}

	u, err := url.Parse(location)
	if err != nil || u.Scheme != "https" {
		return "", false
	}
	switch u.Host {
	case l.Bucket + ".s3." + l.Region + ".amazonaws.com", l.Bucket + ".s3.amazonaws.com":
	default:
		return "", false
	}
	key := strings.TrimPrefix(u.Path, "/")
	return key, key != ""
}

// AssetID resolves a location to the ID of the asset it refers to. Thumbnail
// locations resolve to their original image.
func (l Locator) AssetID(location string) (string, bool) {
	key, ok := l.Key(location)
	if !ok {
		return "", false
	}
	if IsThumbnailKey(key) {
		return OriginalKeyForThumbnail(key)
	}
	return key, true
}

// DisplayURL returns the URL to list for a record: the thumbnail for images,
// the original otherwise. Images without a thumbnail are not listed and never
// fall back to the original.
func (l Locator) DisplayURL(rec Record) (string, bool) {
	switch rec.Kind {
	case KindImage:
		if rec.ThumbnailLocation == "" {
			return "", false
		}
		return l.HTTPS(rec.ThumbnailLocation), true
	case KindVideo, KindAudio:
		if rec.OriginalLocation == "" {
			return "", false
		}
		return l.HTTPS(rec.OriginalLocation), true
	}
	return "", false
}
