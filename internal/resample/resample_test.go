package resample

import (
	"math"
	"testing"

	"github.com/ZacxDev/livegif/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramesToDropNearEqualRates(t *testing.T) {
	tests := []struct {
		desired, nominal float64
	}{
		{30, 30},
		{28, 30},
		{60, 30},
		{58.5, 60},
	}

	for _, tt := range tests {
		drop := FramesToDrop(tt.desired, tt.nominal, 90)
		assert.Empty(t, drop, "desired=%v nominal=%v", tt.desired, tt.nominal)
	}
}

func TestFramesToDropSixtyToTwenty(t *testing.T) {
	plan, err := NewPlan(20, 60, 120)
	require.NoError(t, err)

	dropped := plan.DroppedIndices()
	assert.Len(t, dropped, 80)
	assert.Equal(t, 40, plan.Retained())
	assert.Equal(t, 120-len(dropped), len(plan.FrameDelays))

	for i := 1; i < len(dropped); i++ {
		assert.Greater(t, dropped[i], dropped[i-1])
	}
	assert.Equal(t, []int{2, 3, 5, 6, 8, 9}, dropped[:6])
}

func TestFramesToDropEvenlySpaced(t *testing.T) {
	for nominal := 24.0; nominal <= 60; nominal += 6 {
		for desired := 5.0; desired < nominal-dropTolerance; desired += 3 {
			for _, total := range []int{30, 77, 120, 181} {
				drop := FramesToDrop(desired, nominal, total)
				want := int(math.Round(float64(total) * (1 - desired/nominal)))
				assert.InDelta(t, want, len(drop), 1, "desired=%v nominal=%v total=%d", desired, nominal, total)

				plan := &Plan{FramesToDrop: drop}
				indices := plan.DroppedIndices()
				if len(indices) < 2 {
					continue
				}

				average := float64(total) / float64(want)
				for i := 1; i < len(indices); i++ {
					gap := float64(indices[i] - indices[i-1])
					assert.LessOrEqual(t, math.Abs(gap-average), 1.0,
						"desired=%v nominal=%v total=%d gap=%v", desired, nominal, total, gap)
				}
				assert.GreaterOrEqual(t, indices[0], 1)
				assert.LessOrEqual(t, indices[len(indices)-1], total)
			}
		}
	}
}

func TestFrameDelaysThirtyFPS(t *testing.T) {
	delays := FrameDelays(30, 30, 30)
	require.Len(t, delays, 30)

	slow, fast := 0, 0
	for _, d := range delays {
		switch {
		case math.Abs(d-0.03) < 1e-9:
			slow++
		case math.Abs(d-0.04) < 1e-9:
			fast++
		default:
			t.Fatalf("unexpected delay %v", d)
		}
	}
	assert.Equal(t, 20, slow)
	assert.Equal(t, 10, fast)
	assert.InDelta(t, 1.0/30, average(delays), 0.001)

	// slow frames are interleaved, not bunched at one end
	assert.InDelta(t, 0.04, delays[0], 1e-9)
	assert.InDelta(t, 0.03, delays[1], 1e-9)
	assert.InDelta(t, 0.03, delays[2], 1e-9)
	assert.InDelta(t, 0.04, delays[3], 1e-9)
}

func TestFrameDelaysProperties(t *testing.T) {
	rates := []float64{5, 7, 10, 12, 15, 20, 24, 25, 29.97, 30, 45, 50, 60}
	for _, desired := range rates {
		for _, nominal := range rates {
			for _, total := range []int{1, 2, 13, 40, 150} {
				delays := FrameDelays(desired, nominal, total)
				require.Len(t, delays, total)

				trueDelay := 1 / math.Min(desired, nominal)
				slow := math.Floor(trueDelay*100) / 100
				fast := slow + 0.01
				for _, d := range delays {
					ok := math.Abs(d-slow) < 1e-9 || math.Abs(d-fast) < 1e-9
					assert.True(t, ok, "delay %v not in {%v, %v}", d, slow, fast)
				}

				assert.InDelta(t, trueDelay, average(delays), 0.01+1e-9,
					"desired=%v nominal=%v total=%d", desired, nominal, total)
			}
		}
	}
}

func TestFrameDelaysAllFast(t *testing.T) {
	// 1/10.1 sits just below 0.1, so every frame rounds up to the fast delay
	delays := FrameDelays(10.1, 30, 3)
	require.Len(t, delays, 3)
	for _, d := range delays {
		assert.InDelta(t, 0.1, d, 1e-9)
	}
}

func TestFrameDelaysEmpty(t *testing.T) {
	assert.Empty(t, FrameDelays(30, 30, 0))
}

func TestNewPlanInvariant(t *testing.T) {
	plan, err := NewPlan(15, 30, 90)
	require.NoError(t, err)
	assert.Equal(t, 90-len(plan.FramesToDrop), len(plan.FrameDelays))
	assert.Equal(t, 45, plan.Retained())
}

func TestNewPlanErrors(t *testing.T) {
	_, err := NewPlan(0, 30, 10)
	assert.ErrorIs(t, err, types.ErrInvalidFrameRate)

	_, err = NewPlan(30, 30, 0)
	assert.ErrorIs(t, err, types.ErrEmptyInput)
}

func average(delays []float64) float64 {
	sum := 0.0
	for _, d := range delays {
		sum += d
	}
	return sum / float64(len(delays))
}
