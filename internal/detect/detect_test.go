package detect

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	dets []Detection
	size image.Rectangle
}

func (f *fakeModel) Forward(_ context.Context, img *image.RGBA) ([]Detection, error) {
	f.size = img.Bounds()
	return f.dets, nil
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		dets      []Detection
		threshold float64
		expected  Summary
	}{
		{"none", nil, 0.5, Summary{}},
		{
			"people above threshold",
			[]Detection{{PersonClass, 0.91}, {PersonClass, 0.62}, {PersonClass, 0.3}},
			0.5,
			Summary{HumanDetected: true, HumanCount: 2, Confidence: 0.91},
		},
		{
			"other classes ignored",
			[]Detection{{7, 0.99}, {12, 0.8}, {PersonClass, 0.55}},
			0.5,
			Summary{HumanDetected: true, HumanCount: 1, Confidence: 0.55},
		},
		{
			"threshold is exclusive",
			[]Detection{{PersonClass, 0.5}},
			0.5,
			Summary{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Summarize(tc.dets, tc.threshold))
		})
	}
}

func TestAnalyze(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	m := &fakeModel{dets: []Detection{{PersonClass, 0.8}}}

	s, err := Analyze(context.Background(), m, img, 0.5)
	require.NoError(t, err)
	assert.Equal(t, Summary{HumanDetected: true, HumanCount: 1, Confidence: 0.8}, s)
	assert.Equal(t, image.Rect(0, 0, InputSize, InputSize), m.size)
}

func TestAnalyzeErrors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	_, err := Analyze(context.Background(), Unavailable{}, img, 0.5)
	assert.ErrorIs(t, err, ErrModelUnavailable)

	_, err = Analyze(context.Background(), &fakeModel{}, img, 1.5)
	assert.Error(t, err)
}

func TestBlob(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 0, B: 127, A: 255})
	img.Set(1, 0, color.RGBA{R: 0, G: 255, B: 255, A: 255})

	blob := Blob(img)
	require.Len(t, blob, 6)

	// planar BGR
	assert.InDelta(t, (127-127.5)*0.007843, blob[0], 1e-6)
	assert.InDelta(t, (255-127.5)*0.007843, blob[1], 1e-6)
	assert.InDelta(t, -127.5*0.007843, blob[2], 1e-6)
	assert.InDelta(t, (255-127.5)*0.007843, blob[3], 1e-6)
	assert.InDelta(t, (255-127.5)*0.007843, blob[4], 1e-6)
	assert.InDelta(t, -127.5*0.007843, blob[5], 1e-6)
}
