package config

import (
	"testing"

	"github.com/ZacxDev/livegif/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30.0, cfg.OutputFrameRate)
	assert.Equal(t, 30.0, cfg.SourceFrameRate)
	assert.Zero(t, cfg.SourceFPS)
	assert.Equal(t, 500.0, cfg.MaxResolution)
	assert.Equal(t, "chromakey", cfg.Extractor)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LIVEGIF_FPS", "12.5")
	t.Setenv("LIVEGIF_CROP_POLICY", "intersection")
	t.Setenv("LIVEGIF_SOURCE_FPS", "15")

	cfg, err := Load()
	require.NoError(t, err)

	opts := cfg.DefaultOptions()
	assert.Equal(t, 12.5, opts.OutputFrameRate)
	assert.Equal(t, types.CropIntersection, opts.CropPolicy)
	assert.Equal(t, MaxFrames, opts.MaxFrames)
	assert.Equal(t, 15.0, opts.SourceFrameRateOverride)
	assert.Equal(t, 30.0, opts.SourceFrameRate)
}

func TestWithDefaults(t *testing.T) {
	opts := (&GifOptions{OutputFrameRate: 10}).WithDefaults()

	assert.Equal(t, 10.0, opts.OutputFrameRate)
	assert.Equal(t, 30.0, opts.SourceFrameRate)
	assert.Zero(t, opts.SourceFrameRateOverride)
	assert.Equal(t, 500.0, opts.MaxResolution)
	assert.Equal(t, types.CropUnion, opts.CropPolicy)
	assert.Positive(t, opts.Concurrency)
	assert.Equal(t, 150, opts.MaxFrames)
	assert.NotEmpty(t, opts.OutputDir)

	assert.Equal(t, -1, (&GifOptions{MaxFrames: -1}).WithDefaults().MaxFrames)
}
