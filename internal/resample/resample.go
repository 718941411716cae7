package resample

import (
	"math"
	"sort"

	"github.com/ZacxDev/livegif/pkg/types"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

const (
	// GIF delays are stored in hundredths of a second
	delayStep = 0.01

	// Rates this close to the source rate are treated as equal
	dropTolerance = 2.0
)

// Plan is the precomputed resampling schedule for one run
type Plan struct {
	// FramesToDrop holds 1-based source indices that are skipped
	FramesToDrop map[int]struct{}
	// FrameDelays holds one delay (seconds) per retained frame
	FrameDelays []float64
}

// NewPlan builds the drop set and delay schedule for converting a source
// with the given nominal rate and frame count to the desired rate.
func NewPlan(desired, nominal float64, total int) (*Plan, error) {
	if desired <= 0 || nominal <= 0 {
		return nil, errors.Wrapf(types.ErrInvalidFrameRate, "desired=%.2f nominal=%.2f", desired, nominal)
	}
	if total <= 0 {
		return nil, errors.WithStack(types.ErrEmptyInput)
	}

	drop := FramesToDrop(desired, nominal, total)
	return &Plan{
		FramesToDrop: drop,
		FrameDelays:  FrameDelays(desired, nominal, total-len(drop)),
	}, nil
}

// Retained returns the number of output frames the plan produces
func (p *Plan) Retained() int {
	return len(p.FrameDelays)
}

// Drops reports whether the 1-based source index is dropped
func (p *Plan) Drops(index int) bool {
	_, ok := p.FramesToDrop[index]
	return ok
}

// DroppedIndices returns the drop set in increasing order
func (p *Plan) DroppedIndices() []int {
	out := make([]int, 0, len(p.FramesToDrop))
	for i := range p.FramesToDrop {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// FramesToDrop returns the evenly spaced 1-based source indices to discard
// when lowering the frame rate from nominal to desired.
func FramesToDrop(desired, nominal float64, total int) map[int]struct{} {
	drop := make(map[int]struct{})
	if desired >= nominal-dropTolerance || total <= 0 {
		return drop
	}

	removalFraction := 1 - desired/nominal
	totalToRemove := int(math.Round(float64(total) * removalFraction))
	if totalToRemove <= 0 {
		return drop
	}

	interval := float64(total) / float64(totalToRemove)
	walk(interval, total, func(index int) {
		drop[index] = struct{}{}
	})
	return drop
}

// FrameDelays returns one delay per output frame, mixing the two adjacent
// hundredth-of-a-second values so the average matches 1/min(desired, nominal).
func FrameDelays(desired, nominal float64, totalFrames int) []float64 {
	if totalFrames <= 0 {
		return []float64{}
	}

	trueDelay := 1 / math.Min(desired, nominal)
	slowDelay := math.Floor(trueDelay*100) / 100
	fastDelay := slowDelay + delayStep

	fraction := clamp((trueDelay-slowDelay)/delayStep, 0, 1)
	slowFrameCount := int(math.Round(float64(totalFrames) * (1 - fraction)))

	delays := make([]float64, totalFrames)
	for i := range delays {
		delays[i] = fastDelay
	}
	if slowFrameCount == 0 {
		return delays
	}

	interval := float64(totalFrames) / float64(slowFrameCount)
	walk(interval, totalFrames, func(index int) {
		delays[index-1] = slowDelay
	})
	return delays
}

// walk advances a running sum by interval until it passes total, calling
// mark with each rounded sum that lands on a valid 1-based index.
func walk(interval float64, total int, mark func(index int)) {
	limit := float64(total)
	for sum := 0.0; sum <= limit; {
		sum += interval
		index := int(math.Round(sum))
		if index >= 1 && index <= total {
			mark(index)
		}
	}
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
