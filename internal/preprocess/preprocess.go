// Package preprocess turns raw uploaded image bytes into the fixed
// 224x224 single-channel tensor the predictor expects.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const (
	targetWidth  = 224
	targetHeight = 224
)

var ErrDecodeFailed = errors.New("image decode failed")

// ImagePreprocessor decodes, grayscale-converts, resizes, and normalizes an
// image down to a flattened tensor of targetWidth*targetHeight float32s
// scaled to [0, 1].
type ImagePreprocessor struct{}

func NewImagePreprocessor() *ImagePreprocessor {
	return &ImagePreprocessor{}
}

func (p *ImagePreprocessor) Preprocess(imageBytes []byte) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	resized := resizeNearest(img, targetWidth, targetHeight)
	return normalize(resized), nil
}

// resizeNearest downsamples/upsamples src to w x h using nearest-neighbor
// sampling — no third-party resize library in scope, and nearest-neighbor
// is sufficient since the predictor only needs a stable, reproducible
// sampling, not photographic fidelity.
func resizeNearest(src image.Image, w, h int) *image.Gray {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		srcY := bounds.Min.Y + y*srcH/h
		for x := 0; x < w; x++ {
			srcX := bounds.Min.X + x*srcW/w
			dst.Set(x, y, src.At(srcX, srcY))
		}
	}
	return dst
}

// normalize flattens a grayscale image into row-major float32 values
// scaled from [0, 255] to [0, 1], matching the training-time input range.
func normalize(img *image.Gray) []float32 {
	out := make([]float32, targetWidth*targetHeight)
	for y := 0; y < targetHeight; y++ {
		for x := 0; x < targetWidth; x++ {
			out[y*targetWidth+x] = float32(img.GrayAt(x, y).Y) / 255.0
		}
	}
	return out
}
