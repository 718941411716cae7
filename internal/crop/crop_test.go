package crop

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZacxDev/livegif/internal/frame"
	"github.com/ZacxDev/livegif/pkg/types"
)

var bounds = image.Rect(0, 0, 100, 100)

func TestCommonRectUnion(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(10, 10, 40, 40),
		image.Rect(20, 5, 60, 30),
		image.Rect(15, 20, 35, 70),
	}

	got, err := CommonRect(rects, bounds, types.CropUnion)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 5, 60, 70), got)
	for _, r := range rects {
		assert.True(t, r.In(got))
	}
}

func TestCommonRectIntersection(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(10, 10, 40, 40),
		image.Rect(20, 5, 60, 30),
	}

	got, err := CommonRect(rects, bounds, types.CropIntersection)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(20, 10, 40, 30), got)
}

func TestCommonRectClamped(t *testing.T) {
	got, err := CommonRect([]image.Rectangle{image.Rect(-5, 90, 50, 120)}, bounds, types.CropUnion)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 90, 50, 100), got)
}

func TestCommonRectEmpty(t *testing.T) {
	_, err := CommonRect(nil, bounds, types.CropUnion)
	assert.True(t, errors.Is(err, types.ErrNoUsableFrames))

	disjoint := []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(50, 50, 60, 60)}
	_, err = CommonRect(disjoint, bounds, types.CropIntersection)
	assert.True(t, errors.Is(err, types.ErrNoUsableFrames))
}

func TestApply(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	img.Set(5, 6, color.NRGBA{R: 255, A: 255})
	small := image.NewNRGBA(image.Rect(0, 0, 8, 8))

	frames := []*frame.Masked{{Index: 1, Image: img}, {Index: 2, Image: small}}
	assert.Equal(t, image.Rect(0, 0, 20, 20), MaxBounds(frames))

	out := Apply(frames, image.Rect(5, 6, 15, 16))
	require.Len(t, out, 2)
	for _, o := range out {
		assert.Equal(t, image.Rect(0, 0, 10, 10), o.Bounds())
	}
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out[0].NRGBAAt(0, 0))
	assert.Equal(t, uint8(0), out[1].NRGBAAt(9, 9).A)
}
