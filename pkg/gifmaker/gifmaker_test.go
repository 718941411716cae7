package gifmaker

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZacxDev/livegif/internal/config"
	"github.com/ZacxDev/livegif/pkg/types"
)

func writePNG(t *testing.T, dir, name string, c color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 24, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestConvertImages(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	paths := []string{
		writePNG(t, in, "a.png", color.NRGBA{R: 255, A: 255}),
		writePNG(t, in, "b.png", color.NRGBA{G: 255, A: 255}),
	}

	res, err := ConvertImages(context.Background(), &ConvertOptions{
		InputPaths:  paths,
		OutputDir:   out,
		FPS:         10,
		Orientation: "right",
		Text:        "hi",
		TextSize:    8,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)

	assert.Equal(t, out, filepath.Dir(res.Location))
	assert.FileExists(t, res.Location)
	assert.Len(t, res.Frames, 2)
	require.Len(t, res.Delays, 2)
	for _, d := range res.Delays {
		assert.InDelta(t, 0.1, d, 1e-9)
	}
}

func TestConvertImagesErrors(t *testing.T) {
	_, err := ConvertImages(context.Background(), &ConvertOptions{})
	assert.True(t, errors.Is(err, types.ErrEmptyInput))

	_, err = ConvertImages(context.Background(), &ConvertOptions{InputPaths: []string{"/does/not/exist.png"}, Logger: zap.NewNop()})
	assert.True(t, errors.Is(err, types.ErrSourceUnreadable))

	in := t.TempDir()
	_, err = ConvertImages(context.Background(), &ConvertOptions{
		InputPaths:  []string{writePNG(t, in, "a.png", color.White)},
		Orientation: "sideways",
		Logger:      zap.NewNop(),
	})
	assert.Error(t, err)
}

func TestConvertVideoRequiresInput(t *testing.T) {
	_, err := ConvertVideo(context.Background(), &ConvertOptions{})
	assert.True(t, errors.Is(err, types.ErrEmptyInput))
}

func TestBuildOptions(t *testing.T) {
	cfg := &config.Config{
		OutputFrameRate: 30,
		SourceFrameRate: 30,
		MaxResolution:   500,
		Extractor:       "chromakey",
		CropPolicy:      "union",
		OutputDir:       "/tmp/livegif",
	}

	opts, err := buildOptions(cfg, &ConvertOptions{
		FPS:               12,
		SourceFPS:         24,
		MaxFrames:         -1,
		CropPolicy:        "intersection",
		RemoveBackground:  true,
		Text:              "hello",
		TextLocation:      "bottom-right",
		TextColor:         "#00ff00",
		WatermarkPath:     writePNG(t, t.TempDir(), "logo.png", color.Black),
		WatermarkLocation: "top-left",
		WatermarkWidth:    30,
	})
	require.NoError(t, err)

	assert.Equal(t, 12.0, opts.OutputFrameRate)
	assert.Equal(t, 30.0, opts.SourceFrameRate)
	assert.Equal(t, 24.0, opts.SourceFrameRateOverride)
	assert.Equal(t, types.CropIntersection, opts.CropPolicy)
	assert.Equal(t, "/tmp/livegif", opts.OutputDir)
	assert.Equal(t, -1, opts.MaxFrames)
	assert.True(t, opts.RemoveBackground)

	require.Len(t, opts.Overlays, 2)
	assert.Equal(t, types.OverlayText, opts.Overlays[0].Kind)
	assert.Equal(t, types.AnchorBottomRight, opts.Overlays[0].Anchor)
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, opts.Overlays[0].Color)
	assert.Equal(t, types.OverlayImage, opts.Overlays[1].Kind)
	assert.Equal(t, types.AnchorTopLeft, opts.Overlays[1].Anchor)
	assert.Equal(t, 30, opts.Overlays[1].Width)
}

func TestBuildOptionsRejectsUnknownValues(t *testing.T) {
	cfg := &config.Config{CropPolicy: "union"}

	_, err := buildOptions(cfg, &ConvertOptions{CropPolicy: "median"})
	assert.Error(t, err)

	_, err = buildOptions(cfg, &ConvertOptions{Text: "x", TextLocation: "middle"})
	assert.Error(t, err)

	_, err = buildOptions(cfg, &ConvertOptions{Text: "x", TextColor: "#zzzzzz"})
	assert.Error(t, err)
}

func TestGetSupportedExtractors(t *testing.T) {
	assert.Contains(t, GetSupportedExtractors(), "chromakey")
}
