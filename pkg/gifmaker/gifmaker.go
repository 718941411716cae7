package gifmaker

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ZacxDev/livegif/internal/background"
	"github.com/ZacxDev/livegif/internal/config"
	"github.com/ZacxDev/livegif/internal/decorator"
	"github.com/ZacxDev/livegif/internal/ffmpeg"
	"github.com/ZacxDev/livegif/internal/processor"
	"github.com/ZacxDev/livegif/internal/storage"
	"github.com/ZacxDev/livegif/pkg/logger"
	"github.com/ZacxDev/livegif/pkg/types"

	// still image decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ConvertOptions defines options for converting a video or a set of stills
type ConvertOptions struct {
	InputPaths           []string
	OutputDir            string
	FPS                  float64
	SourceFPS            float64 // replaces the rate the video reports, e.g. 30 for live photos
	MaxResolution        float64
	RemoveBackground     bool
	Extractor            string
	CropPolicy           string
	ReturnOriginalFrames bool
	Orientation          string // still images only, e.g. "right"
	Concurrency          int
	MaxFrames            int // frame ceiling for videos, -1 disables it

	Text           string
	TextLocation   string
	TextSize       float64
	TextColor      string
	TextBackground string

	WatermarkPath     string
	WatermarkLocation string
	WatermarkWidth    int

	Bucket string // upload the result when set
	Verbose bool
	Logger  *zap.Logger
}

// Result describes a committed GIF
type Result struct {
	Location  string
	RemoteKey string
	Frames    []image.Image
	Delays    []float64
}

// GetSupportedExtractors returns the background extractor names
func GetSupportedExtractors() []string {
	return background.GetSupportedExtractors()
}

// ConvertVideo converts the first input path, a video or live-photo movie
func ConvertVideo(ctx context.Context, opts *ConvertOptions) (*Result, error) {
	if len(opts.InputPaths) == 0 {
		return nil, errors.Wrap(types.ErrEmptyInput, "no input video")
	}

	gen, gifOpts, log, err := newGenerator(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer log.Sync()

	reader, err := ffmpeg.NewProcessor(opts.Verbose).Open(opts.InputPaths[0], gifOpts.MaxResolution, gifOpts.SourceFrameRate)
	if err != nil {
		return nil, err
	}
	desc := reader.Descriptor()
	width, height := reader.Size()
	log.Debug("video probed",
		zap.String("input", reader.Name()),
		zap.Float64("fps", desc.NominalFrameRate),
		zap.Int("frames", desc.NominalTotalFrames),
		zap.Int("width", width),
		zap.Int("height", height))

	res, err := gen.FromSource(ctx, reader)
	if err != nil {
		return nil, err
	}
	return toResult(res), nil
}

// ConvertImages converts the input stills, in order, into one GIF
func ConvertImages(ctx context.Context, opts *ConvertOptions) (*Result, error) {
	if len(opts.InputPaths) == 0 {
		return nil, errors.Wrap(types.ErrEmptyInput, "no input images")
	}

	orientation := types.OrientationUp
	if opts.Orientation != "" {
		o, ok := types.ParseOrientation(opts.Orientation)
		if !ok {
			return nil, fmt.Errorf("unsupported orientation: %s", opts.Orientation)
		}
		orientation = o
	}

	images := make([]image.Image, 0, len(opts.InputPaths))
	for _, path := range opts.InputPaths {
		img, err := LoadImage(path)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	gen, _, log, err := newGenerator(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer log.Sync()

	res, err := gen.FromImages(ctx, images, orientation)
	if err != nil {
		return nil, err
	}
	return toResult(res), nil
}

// LoadImage decodes a PNG, JPEG, GIF or WebP file
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(types.ErrSourceUnreadable, "open %s: %v", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(types.ErrSourceUnreadable, "decode %s: %v", path, err)
	}
	return img, nil
}

func newGenerator(ctx context.Context, opts *ConvertOptions) (*processor.Generator, *config.GifOptions, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to load config")
	}

	log := opts.Logger
	if log == nil {
		if log, err = logger.New(logger.Verbosity(opts.Verbose, cfg.LogLevel)); err != nil {
			return nil, nil, nil, err
		}
	}

	gifOpts, err := buildOptions(cfg, opts)
	if err != nil {
		return nil, nil, nil, err
	}

	var genOpts []processor.Option
	if opts.Bucket != "" {
		store, err := storage.NewStorage(storage.StorageConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    opts.Bucket,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, nil, nil, err
		}
		genOpts = append(genOpts, processor.WithPublisher(store))
	}

	gen, err := processor.NewGenerator(gifOpts, log, genOpts...)
	if err != nil {
		return nil, nil, nil, err
	}
	opt := gen.Options()
	return gen, &opt, log, nil
}

// buildOptions layers the explicit options over the environment defaults
func buildOptions(cfg *config.Config, opts *ConvertOptions) (*config.GifOptions, error) {
	gifOpts := cfg.DefaultOptions()
	if opts.OutputDir != "" {
		gifOpts.OutputDir = opts.OutputDir
	}
	if opts.FPS > 0 {
		gifOpts.OutputFrameRate = opts.FPS
	}
	if opts.SourceFPS > 0 {
		gifOpts.SourceFrameRateOverride = opts.SourceFPS
	}
	if opts.MaxResolution > 0 {
		gifOpts.MaxResolution = opts.MaxResolution
	}
	if opts.Extractor != "" {
		gifOpts.Extractor = opts.Extractor
	}
	if opts.CropPolicy != "" {
		gifOpts.CropPolicy = types.CropPolicy(opts.CropPolicy)
	}
	if opts.Concurrency > 0 {
		gifOpts.Concurrency = opts.Concurrency
	}
	if opts.MaxFrames != 0 {
		gifOpts.MaxFrames = opts.MaxFrames
	}
	gifOpts.RemoveBackground = opts.RemoveBackground
	gifOpts.ReturnOriginalFrames = opts.ReturnOriginalFrames

	switch gifOpts.CropPolicy {
	case types.CropUnion, types.CropIntersection:
	default:
		return nil, fmt.Errorf("unsupported crop policy: %s (supported: union, intersection)", gifOpts.CropPolicy)
	}

	overlays, err := buildOverlays(opts)
	if err != nil {
		return nil, err
	}
	gifOpts.Overlays = overlays
	return gifOpts, nil
}

func buildOverlays(opts *ConvertOptions) ([]decorator.Overlay, error) {
	var overlays []decorator.Overlay

	if opts.Text != "" {
		o := decorator.NewText(opts.Text)
		if err := setAnchor(&o, opts.TextLocation); err != nil {
			return nil, err
		}
		if opts.TextSize > 0 {
			o.FontSize = opts.TextSize
		}
		if opts.TextColor != "" {
			c, err := decorator.ParseColor(opts.TextColor)
			if err != nil {
				return nil, err
			}
			o.Color = c
		}
		if opts.TextBackground != "" {
			c, err := decorator.ParseColor(opts.TextBackground)
			if err != nil {
				return nil, err
			}
			o.Background = color.Color(c)
		}
		overlays = append(overlays, o)
	}

	if opts.WatermarkPath != "" {
		img, err := LoadImage(opts.WatermarkPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load watermark")
		}
		o := decorator.NewImage(img)
		if err := setAnchor(&o, opts.WatermarkLocation); err != nil {
			return nil, err
		}
		if opts.WatermarkWidth > 0 {
			o.Width = opts.WatermarkWidth
		}
		overlays = append(overlays, o)
	}

	return overlays, nil
}

func setAnchor(o *decorator.Overlay, location string) error {
	if location == "" {
		return nil
	}
	for _, a := range types.Anchors {
		if string(a) == location {
			o.Anchor = a
			return nil
		}
	}
	names := make([]string, len(types.Anchors))
	for i, a := range types.Anchors {
		names[i] = string(a)
	}
	return fmt.Errorf("unsupported location: %s (supported: %s)", location, strings.Join(names, ", "))
}

func toResult(res *processor.Result) *Result {
	return &Result{
		Location:  res.Location,
		RemoteKey: res.RemoteKey,
		Frames:    res.Frames,
		Delays:    res.Delays,
	}
}
