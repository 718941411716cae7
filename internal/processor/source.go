package processor

import (
	"context"
	"image"
	"io"

	"github.com/ZacxDev/livegif/internal/resample"
	"github.com/ZacxDev/livegif/pkg/types"
)

// FrameSource is a sequential, single-consumer producer of decoded frames.
// Next returns io.EOF once the stream ends.
type FrameSource interface {
	resample.Source
	NominalFrameRate() float64
	EstimatedTotalFrames() int
	PreferredOrientation() types.Orientation
	Close() error
}

// SliceSource serves a fixed list of frames
type SliceSource struct {
	frames      []image.Image
	rate        float64
	orientation types.Orientation
	next        int
}

// NewSliceSource returns a source over frames at the given nominal rate.
// A rate of 0 leaves the choice to the generator.
func NewSliceSource(frames []image.Image, rate float64, orientation types.Orientation) *SliceSource {
	return &SliceSource{frames: frames, rate: rate, orientation: orientation}
}

func (s *SliceSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	img := s.frames[s.next]
	s.next++
	return img, nil
}

func (s *SliceSource) NominalFrameRate() float64 { return s.rate }

func (s *SliceSource) EstimatedTotalFrames() int { return len(s.frames) }

func (s *SliceSource) PreferredOrientation() types.Orientation { return s.orientation }

func (s *SliceSource) Close() error { return nil }
