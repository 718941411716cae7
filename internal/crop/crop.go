package crop

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"

	"github.com/ZacxDev/livegif/internal/frame"
	"github.com/ZacxDev/livegif/pkg/types"
)

// CommonRect combines the per-frame foreground rectangles into the single crop
// applied to every frame, so the subject does not jitter between frames.
func CommonRect(rects []image.Rectangle, maxBounds image.Rectangle, policy types.CropPolicy) (image.Rectangle, error) {
	if len(rects) == 0 {
		return image.Rectangle{}, errors.Wrap(types.ErrNoUsableFrames, "no foreground rectangles")
	}

	common := rects[0]
	for _, r := range rects[1:] {
		switch policy {
		case types.CropIntersection:
			common = common.Intersect(r)
		default:
			common = common.Union(r)
		}
	}

	common = common.Intersect(maxBounds)
	if common.Empty() {
		return image.Rectangle{}, errors.Wrapf(types.ErrNoUsableFrames, "empty %s crop", policy)
	}
	return common, nil
}

// MaxBounds returns the rectangle spanning the largest frame dimensions
func MaxBounds(frames []*frame.Masked) image.Rectangle {
	var w, h int
	for _, f := range frames {
		b := f.Image.Bounds()
		w = max(w, b.Max.X)
		h = max(h, b.Max.Y)
	}
	return image.Rect(0, 0, w, h)
}

// Apply crops every frame to rect. Each result is a fresh buffer of the rect
// size; pixels outside a smaller source frame stay transparent.
func Apply(frames []*frame.Masked, rect image.Rectangle) []*image.NRGBA {
	out := make([]*image.NRGBA, len(frames))
	for i, f := range frames {
		dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
		draw.Draw(dst, dst.Bounds(), f.Image, rect.Min, draw.Src)
		out[i] = dst
	}
	return out
}
