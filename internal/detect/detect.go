// Package detect counts people in an image using a pluggable object detection model.
package detect

import (
	"context"
	"errors"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

const (
	// InputSize is the square side the model input is resized to.
	InputSize = 300
	// PersonClass is the person label of the MobileNet-SSD VOC label map.
	PersonClass = 15

	blobScale = 0.007843
	blobMean  = 127.5
)

// ErrModelUnavailable is returned when no inference runtime is loaded.
var ErrModelUnavailable = errors.New("detection model not loaded")

// Detection is a single model output.
type Detection struct {
	Class      int
	Confidence float64
}

// Model runs object detection on a prepared InputSize x InputSize image.
type Model interface {
	Forward(ctx context.Context, img *image.RGBA) ([]Detection, error)
}

// Unavailable is the Model used when no runtime is bundled.
type Unavailable struct{}

// Forward always fails with ErrModelUnavailable.
func (Unavailable) Forward(context.Context, *image.RGBA) ([]Detection, error) {
	return nil, ErrModelUnavailable
}

// Summary is the human detection outcome.
type Summary struct {
	HumanDetected bool    `json:"humanDetected"`
	HumanCount    int     `json:"humanCount"`
	Confidence    float64 `json:"confidence"`
}

// Analyze prepares img, runs the model and summarizes person detections
// whose confidence is strictly above threshold.
func Analyze(ctx context.Context, m Model, img image.Image, threshold float64) (Summary, error) {
	if threshold < 0 || threshold > 1 {
		return Summary{}, fmt.Errorf("threshold %v out of range [0, 1]", threshold)
	}

	dets, err := m.Forward(ctx, Prepare(img))
	if err != nil {
		return Summary{}, fmt.Errorf("forward: %w", err)
	}

	return Summarize(dets, threshold), nil
}

// Summarize counts person detections above threshold and keeps the highest confidence.
func Summarize(dets []Detection, threshold float64) Summary {
	var s Summary
	for _, d := range dets {
		if d.Class != PersonClass || d.Confidence <= threshold {
			continue
		}
		s.HumanCount++
		if d.Confidence > s.Confidence {
			s.Confidence = d.Confidence
		}
	}
	s.HumanDetected = s.HumanCount > 0
	return s
}

// Prepare scales img to the model input size, ignoring aspect ratio.
func Prepare(img image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// Blob converts a prepared image to a planar BGR float tensor normalized
// as (v - 127.5) * 0.007843.
func Blob(img *image.RGBA) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	out := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			r, g, bl := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
			p := y*w + x
			out[p] = normalize(bl)
			out[plane+p] = normalize(g)
			out[2*plane+p] = normalize(r)
		}
	}
	return out
}

func normalize(v uint8) float32 {
	return float32((float64(v) - blobMean) * blobScale)
}
