package imaging

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
)

// FitWithin caps the longer side of a width x height frame at maxResolution,
// preserving the aspect ratio. Landscape frames are limited by width,
// portrait and square frames by height.
func FitWithin(width, height int, maxResolution float64) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	if maxResolution <= 0 {
		return width, height
	}

	aspect := float64(width) / float64(height)
	if width > height {
		capped := math.Round(math.Min(maxResolution, float64(width)))
		return max(1, int(capped)), max(1, int(math.Round(capped/aspect)))
	}

	capped := math.Round(math.Min(maxResolution, float64(height)))
	return max(1, int(math.Round(capped*aspect))), max(1, int(capped))
}

// Resize scales img to exactly width x height with Catmull-Rom resampling
func Resize(img image.Image, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// ResizeToWidth scales img to the given width keeping its aspect ratio
func ResizeToWidth(img image.Image, width int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == 0 || width <= 0 || width == b.Dx() {
		return ToNRGBA(img)
	}
	height := max(1, int(math.Round(float64(width)*float64(b.Dy())/float64(b.Dx()))))
	return Resize(img, width, height)
}

// Limit downsizes img so it fits maxResolution. Images that already fit are
// converted without resampling.
func Limit(img image.Image, maxResolution float64) *image.NRGBA {
	b := img.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), maxResolution)
	if w == b.Dx() && h == b.Dy() {
		return ToNRGBA(img)
	}
	return Resize(img, w, h)
}

// ToNRGBA returns a fresh NRGBA copy of img anchored at the origin
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
