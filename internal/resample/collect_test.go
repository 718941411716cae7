package resample

import (
	"context"
	"image"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	total int
	read  int
}

func (s *countingSource) Next(ctx context.Context) (image.Image, error) {
	if s.read >= s.total {
		return nil, io.EOF
	}
	s.read++
	return image.NewNRGBA(image.Rect(0, 0, s.read, 1)), nil
}

func TestCollectSkipsDroppedFrames(t *testing.T) {
	plan, err := NewPlan(20, 60, 120)
	require.NoError(t, err)

	src := &countingSource{total: 120}
	frames, err := Collect(context.Background(), src, plan)
	require.NoError(t, err)
	require.Len(t, frames, 40)

	for k, f := range frames {
		assert.False(t, plan.Drops(f.Index))
		assert.Equal(t, f.Index, f.Image.Bounds().Dx(), "image belongs to its source index")
		assert.Equal(t, plan.FrameDelays[k], f.Delay)
		if k > 0 {
			assert.Greater(t, f.Index, frames[k-1].Index)
		}
	}
	assert.Equal(t, []int{1, 4, 7}, []int{frames[0].Index, frames[1].Index, frames[2].Index})
}

func TestCollectStopsWhenDelaysExhausted(t *testing.T) {
	plan, err := NewPlan(30, 30, 10)
	require.NoError(t, err)

	src := &countingSource{total: 25}
	frames, err := Collect(context.Background(), src, plan)
	require.NoError(t, err)

	assert.Len(t, frames, 10)
	assert.Equal(t, 10, src.read)
}

func TestCollectShortSource(t *testing.T) {
	plan, err := NewPlan(30, 30, 10)
	require.NoError(t, err)

	frames, err := Collect(context.Background(), &countingSource{total: 4}, plan)
	require.NoError(t, err)
	assert.Len(t, frames, 4)
}

func TestCollectCancelled(t *testing.T) {
	plan, err := NewPlan(30, 30, 10)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Collect(ctx, &countingSource{total: 10}, plan)
	assert.ErrorIs(t, err, context.Canceled)
}
