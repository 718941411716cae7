package resample

import (
	"context"
	"image"
	"io"

	"github.com/ZacxDev/livegif/internal/frame"
	"github.com/pkg/errors"
)

// Source is the sequential, single-consumer side of a frame source
type Source interface {
	Next(ctx context.Context) (image.Image, error)
}

// Collect reads the source in order and pairs every retained frame with its
// delay. The source index and the delay index advance independently: the
// k-th retained frame always receives FrameDelays[k]. Reading stops when the
// source ends or the delay schedule is exhausted, whichever comes first.
func Collect(ctx context.Context, src Source, plan *Plan) ([]*frame.Raw, error) {
	frames := make([]*frame.Raw, 0, plan.Retained())

	sourceIndex := 0
	for len(frames) < plan.Retained() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read source frame %d", sourceIndex+1)
		}

		sourceIndex++
		if plan.Drops(sourceIndex) {
			continue
		}

		frames = append(frames, &frame.Raw{
			Index: sourceIndex,
			Image: img,
			Delay: plan.FrameDelays[len(frames)],
		})
	}

	return frames, nil
}
