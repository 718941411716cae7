package gif

import (
	"image"

	"github.com/ZacxDev/livegif/internal/imaging"
	"github.com/ZacxDev/livegif/pkg/types"
)

// Orient returns img transformed so that it displays upright, following the
// EXIF orientation values. The result is anchored at the origin.
func Orient(img image.Image, o types.Orientation) *image.NRGBA {
	src := imaging.ToNRGBA(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	var dst *image.NRGBA
	var at func(x, y int) (int, int)

	switch o {
	case types.OrientationUpMirrored:
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
		at = func(x, y int) (int, int) { return w - 1 - x, y }
	case types.OrientationDown:
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
		at = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case types.OrientationDownMirrored:
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
		at = func(x, y int) (int, int) { return x, h - 1 - y }
	case types.OrientationLeftMirrored:
		dst = image.NewNRGBA(image.Rect(0, 0, h, w))
		at = func(x, y int) (int, int) { return y, x }
	case types.OrientationRight:
		dst = image.NewNRGBA(image.Rect(0, 0, h, w))
		at = func(x, y int) (int, int) { return y, h - 1 - x }
	case types.OrientationRightMirrored:
		dst = image.NewNRGBA(image.Rect(0, 0, h, w))
		at = func(x, y int) (int, int) { return w - 1 - y, h - 1 - x }
	case types.OrientationLeft:
		dst = image.NewNRGBA(image.Rect(0, 0, h, w))
		at = func(x, y int) (int, int) { return w - 1 - y, x }
	default:
		return src
	}

	db := dst.Bounds()
	for y := 0; y < db.Dy(); y++ {
		for x := 0; x < db.Dx(); x++ {
			sx, sy := at(x, y)
			si := src.PixOffset(sx, sy)
			di := dst.PixOffset(x, y)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}
