package media

import (
	"fmt"
	"image"
	"math"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"photo-catalog/internal/filesystem"
	"photo-catalog/internal/logging"
)

const (
	// MaxImageDimension is the largest width or height decoded at full size.
	MaxImageDimension = 4096

	// MaxImagePixels caps width*height; about 80MB as RGBA.
	MaxImagePixels = 20_000_000
)

// ImageDimensions holds image width and height.
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions reads only the image header.
func GetImageDimensions(path string) (ImageDimensions, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return ImageDimensions{}, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return ImageDimensions{}, err
	}
	return ImageDimensions{Width: config.Width, Height: config.Height}, nil
}

// constrain returns the size an image of w x h is reduced to so that it fits
// both limits, preserving aspect ratio. ok is false when no reduction is needed.
func constrain(w, h, maxDimension, maxPixels int) (tw, th int, ok bool) {
	if w <= maxDimension && h <= maxDimension && w*h <= maxPixels {
		return w, h, false
	}

	tw, th = w, h
	if w > maxDimension || h > maxDimension {
		if w > h {
			tw = maxDimension
			th = h * maxDimension / w
		} else {
			th = maxDimension
			tw = w * maxDimension / h
		}
	}

	if tw*th > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(tw*th))
		tw = int(float64(tw) * scale)
		th = int(float64(th) * scale)
	}
	return max(tw, 1), max(th, 1), true
}

// LoadImageConstrained decodes an image honoring EXIF orientation, and
// downscales it when it exceeds the given limits.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	b := img.Bounds()
	tw, th, ok := constrain(b.Dx(), b.Dy(), maxDimension, maxPixels)
	if !ok {
		return img, nil
	}

	logging.Info("Constraining large image %s from %dx%d to %dx%d", path, b.Dx(), b.Dy(), tw, th)
	return imaging.Resize(img, tw, th, imaging.Lanczos), nil
}
