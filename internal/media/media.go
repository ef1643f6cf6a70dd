// Package media decodes, validates and resizes uploaded images.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/constants"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// CheckImage verifies that data is a decodable image of sane dimensions without
// decoding the pixel data. Failures wrap asset.ErrDecode.
func CheckImage(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %w", asset.ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > constants.MaxDecodePixels {
		return image.Config{}, "", fmt.Errorf("%w: unsupported dimensions %dx%d", asset.ErrDecode, cfg.Width, cfg.Height)
	}
	return cfg, format, nil
}

func decode(data []byte) (image.Image, error) {
	if _, _, err := CheckImage(data); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", asset.ErrDecode, err)
	}
	return img, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: constants.ThumbnailJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func scale(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// Fit resizes an image to fit within maxSize (width or height) while keeping
// aspect ratio, and re-encodes it as JPEG. Smaller images are only re-encoded.
func Fit(data []byte, maxSize int) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	if width <= maxSize && height <= maxSize {
		return encodeJPEG(img)
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
	} else {
		newHeight = maxSize
		newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
	}
	return encodeJPEG(scale(img, newWidth, newHeight))
}

// Thumbnail scales an image to the given width, keeping aspect ratio, and
// returns it as JPEG. Images narrower than width are not upscaled.
func Thumbnail(data []byte, width int) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= width {
		return encodeJPEG(img)
	}
	height := max(1, int(float64(h)*float64(width)/float64(w)))
	return encodeJPEG(scale(img, width, height))
}
