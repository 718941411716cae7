package background

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZacxDev/livegif/pkg/types"
)

func greenScreen(w, h int, subject image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.NRGBA{G: 255, A: 255}}, image.Point{}, draw.Src)
	draw.Draw(img, subject, &image.Uniform{C: color.NRGBA{R: 200, B: 80, A: 255}}, image.Point{}, draw.Src)
	return img
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"alpha", "chromakey"}, GetSupportedExtractors())

	e, err := Get("chromakey")
	require.NoError(t, err)
	assert.Equal(t, "chromakey", e.Name())

	_, err = Get("rembg")
	assert.True(t, errors.Is(err, types.ErrUnsupportedExtractor))
}

func TestChromaKeyForeground(t *testing.T) {
	subject := image.Rect(10, 20, 30, 35)
	src := greenScreen(64, 48, subject)

	masked, fg, err := Extract(context.Background(), &ChromaKey{}, src)
	require.NoError(t, err)
	assert.Equal(t, subject, fg)
	assert.Equal(t, uint8(0), masked.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(255), masked.NRGBAAt(15, 25).A)
	// source untouched
	assert.Equal(t, uint8(255), src.NRGBAAt(0, 0).A)
}

func TestChromaKeyUniformFrameFails(t *testing.T) {
	src := greenScreen(16, 16, image.Rectangle{})

	_, _, err := Extract(context.Background(), &ChromaKey{}, src)
	assert.True(t, errors.Is(err, ErrEmptyForeground))
}

func TestAlphaExtractor(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	src.Set(3, 4, color.NRGBA{R: 1, A: 255})
	src.Set(6, 7, color.NRGBA{R: 1, A: 10})

	_, fg, err := Extract(context.Background(), &Alpha{}, src)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(3, 4, 7, 8), fg)
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Extract(ctx, &Alpha{}, image.NewNRGBA(image.Rect(0, 0, 2, 2)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpaqueBoundsEmpty(t *testing.T) {
	assert.True(t, OpaqueBounds(image.NewNRGBA(image.Rect(0, 0, 5, 5))).Empty())
}
