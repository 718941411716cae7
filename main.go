package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZacxDev/livegif/internal/config"
	"github.com/ZacxDev/livegif/internal/metrics"
	"github.com/ZacxDev/livegif/internal/tracing"
	"github.com/ZacxDev/livegif/pkg/gifmaker"
	"github.com/ZacxDev/livegif/pkg/logger"
	"github.com/ZacxDev/livegif/pkg/types"
)

var (
	rootCmd = &cobra.Command{
		Use:   "livegif",
		Short: "Turn live photos, videos and stills into animated GIFs",
		Long: `livegif converts a video, a live-photo movie or a sequence of still images into an animated GIF
with a target frame rate, optional background removal and text or image watermarks.

Examples:
  # Convert a live photo movie at 15 fps
  livegif video -i IMG_0042.MOV -o ./out --fps 15

  # Build a GIF from stills with a watermark in the bottom right corner
  livegif images -o ./out --watermark-image logo.png --image-location bottom-right a.png b.png c.png`,
		SilenceUsage: true,
	}

	videoCmd = &cobra.Command{
		Use:   "video",
		Short: "Convert a video or live-photo movie into a GIF",
		Long: fmt.Sprintf(`Convert a video file into a GIF, resampled to the requested frame rate.

Supported background extractors:
%s
Example:
  livegif video -i input.mov -o ./out --fps 20 --remove-bg --extractor chromakey`,
			formatSupportedExtractors()),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath, _ := cmd.Flags().GetString("input")
			if inputPath == "" {
				return fmt.Errorf("input path is required")
			}
			return run(cmd, []string{inputPath}, gifmaker.ConvertVideo)
		},
	}

	imagesCmd = &cobra.Command{
		Use:   "images [flags] image...",
		Short: "Convert a sequence of still images into a GIF",
		Long: `Convert still images (PNG, JPEG, GIF, WebP) into a GIF, one image per frame, in argument order.

Example:
  livegif images -o ./out --fps 10 --orientation right a.jpg b.jpg c.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, gifmaker.ConvertImages)
		},
	}
)

type convertFunc func(context.Context, *gifmaker.ConvertOptions) (*gifmaker.Result, error)

func run(cmd *cobra.Command, inputs []string, convert convertFunc) error {
	flags := cmd.Flags()
	opts := &gifmaker.ConvertOptions{InputPaths: inputs}

	opts.OutputDir, _ = flags.GetString("output")
	opts.FPS, _ = flags.GetFloat64("fps")
	opts.SourceFPS, _ = flags.GetFloat64("source-fps")
	opts.MaxResolution, _ = flags.GetFloat64("max-resolution")
	opts.RemoveBackground, _ = flags.GetBool("remove-bg")
	opts.Extractor, _ = flags.GetString("extractor")
	opts.CropPolicy, _ = flags.GetString("crop-policy")
	opts.ReturnOriginalFrames, _ = flags.GetBool("return-original-frames")
	opts.Orientation, _ = flags.GetString("orientation")
	opts.Concurrency, _ = flags.GetInt("concurrency")
	opts.MaxFrames, _ = flags.GetInt("max-frames")
	opts.Text, _ = flags.GetString("text")
	opts.TextLocation, _ = flags.GetString("text-location")
	opts.TextSize, _ = flags.GetFloat64("text-size")
	opts.TextColor, _ = flags.GetString("text-color")
	opts.TextBackground, _ = flags.GetString("text-background")
	opts.WatermarkPath, _ = flags.GetString("watermark-image")
	opts.WatermarkLocation, _ = flags.GetString("image-location")
	opts.WatermarkWidth, _ = flags.GetInt("image-width")
	opts.Bucket, _ = flags.GetString("bucket")
	opts.Verbose, _ = flags.GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, _ := flags.GetString("log-level")
	if level == "" {
		level = cfg.LogLevel
	}
	zl, err := logger.New(logger.Verbosity(opts.Verbose, level))
	if err != nil {
		return err
	}
	defer zl.Sync()
	opts.Logger = zl

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsPort, _ := flags.GetInt("metrics-port")
	if metricsPort == 0 {
		metricsPort = cfg.MetricsPort
	}
	if metricsPort > 0 {
		metrics.StartMetricsServer(ctx, metricsPort, zl)
	}

	endpoint, _ := flags.GetString("otlp-endpoint")
	if endpoint == "" {
		endpoint = cfg.OTLPEndpoint
	}
	if endpoint != "" {
		tp, err := tracing.InitTracer(ctx, endpoint)
		if err != nil {
			zl.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	res, err := convert(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Created gif with %d frames: %s\n", len(res.Frames), res.Location)
	if res.RemoteKey != "" {
		fmt.Printf("Uploaded to %s/%s\n", opts.Bucket, res.RemoteKey)
	}
	return nil
}

func formatSupportedExtractors() string {
	var sb strings.Builder
	for _, name := range gifmaker.GetSupportedExtractors() {
		sb.WriteString(fmt.Sprintf("- %s\n", name))
	}
	return sb.String()
}

func anchorNames() string {
	names := make([]string, len(types.Anchors))
	for i, a := range types.Anchors {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

func init() {
	for _, cmd := range []*cobra.Command{videoCmd, imagesCmd} {
		f := cmd.Flags()
		f.StringP("output", "o", "", "Output directory (default $LIVEGIF_OUTPUT_DIR)")
		f.Float64P("fps", "f", 0, "Output frame rate (default $LIVEGIF_FPS or 30)")
		f.Float64("max-resolution", 0, "Longest output side in pixels (default 500)")
		f.Bool("remove-bg", false, "Remove the background and crop every frame to the subject")
		f.String("extractor", "", fmt.Sprintf("Background extractor (%s)", strings.Join(gifmaker.GetSupportedExtractors(), ", ")))
		f.String("crop-policy", "", "How subject bounds are combined: union or intersection")
		f.Bool("return-original-frames", false, "Report frames before overlays were drawn")
		f.Int("concurrency", 0, "Parallel background extractions (default number of CPUs)")
		f.String("text", "", "Text watermark")
		f.String("text-location", "", fmt.Sprintf("Text position (%s)", anchorNames()))
		f.Float64("text-size", 0, "Text size in points (default 62)")
		f.String("text-color", "", "Text colour, name or #RRGGBB[AA] (default red)")
		f.String("text-background", "", "Box colour drawn behind the text")
		f.String("watermark-image", "", "Image watermark file")
		f.String("image-location", "", fmt.Sprintf("Image watermark position (%s)", anchorNames()))
		f.Int("image-width", 0, "Image watermark width in pixels (default 60)")
		f.String("bucket", "", "Upload the GIF to this MinIO bucket")
		f.Int("metrics-port", 0, "Serve Prometheus metrics on this port while running")
		f.String("otlp-endpoint", "", "OTLP/HTTP endpoint for traces")
		f.String("log-level", "", "Log level (debug, info, warn, error)")
		f.BoolP("verbose", "v", false, "Enable verbose logging")
	}

	videoCmd.Flags().StringP("input", "i", "", "Input video file")
	videoCmd.Flags().Float64("source-fps", 0, "Treat the video as captured at this frame rate instead of the rate it reports (e.g. 30 for live photos)")
	videoCmd.Flags().Int("max-frames", 0, "Refuse videos keeping more frames than this, -1 for no limit (default 150)")
	videoCmd.MarkFlagRequired("input")

	imagesCmd.Flags().String("orientation", "", "EXIF orientation applied to every frame (up, right, down, left, ...)")

	rootCmd.AddCommand(videoCmd)
	rootCmd.AddCommand(imagesCmd)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
