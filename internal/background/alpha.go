package background

import (
	"context"
	"image"

	"github.com/ZacxDev/livegif/internal/imaging"
)

// Alpha trusts the transparency already present in the frame, as produced by
// matting tools that export RGBA.
type Alpha struct{}

func init() {
	Register(&Alpha{})
}

func (a *Alpha) Name() string {
	return "alpha"
}

func (a *Alpha) RemoveBackground(ctx context.Context, img image.Image) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.ToNRGBA(img), nil
}
