package background

import (
	"context"
	"image"
	"image/color"

	"github.com/ZacxDev/livegif/internal/imaging"
)

// DefaultTolerance is the per-channel distance under which a pixel counts as background
const DefaultTolerance = 32

// ChromaKey keys out the colour found in the frame corners
type ChromaKey struct {
	Tolerance int
}

func init() {
	Register(&ChromaKey{Tolerance: DefaultTolerance})
}

func (c *ChromaKey) Name() string {
	return "chromakey"
}

func (c *ChromaKey) RemoveBackground(ctx context.Context, img image.Image) (*image.NRGBA, error) {
	out := imaging.ToNRGBA(img)
	b := out.Bounds()
	if b.Empty() {
		return out, nil
	}

	key := cornerColor(out)
	tol := c.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		if y%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			i := out.PixOffset(x, y)
			px := out.Pix[i : i+4 : i+4]
			if near(px[0], key.R, tol) && near(px[1], key.G, tol) && near(px[2], key.B, tol) {
				px[3] = 0
			}
		}
	}
	return out, nil
}

// cornerColor averages the four corner pixels
func cornerColor(img *image.NRGBA) color.NRGBA {
	b := img.Bounds()
	corners := []image.Point{
		b.Min,
		{X: b.Max.X - 1, Y: b.Min.Y},
		{X: b.Min.X, Y: b.Max.Y - 1},
		{X: b.Max.X - 1, Y: b.Max.Y - 1},
	}

	var r, g, bl int
	for _, p := range corners {
		c := img.NRGBAAt(p.X, p.Y)
		r += int(c.R)
		g += int(c.G)
		bl += int(c.B)
	}
	n := len(corners)
	return color.NRGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(bl / n), A: 255}
}

func near(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d <= tol
}
