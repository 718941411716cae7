package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/ZacxDev/livegif/internal/decorator"
	"github.com/ZacxDev/livegif/pkg/types"
	"github.com/caarlos0/env/v11"
)

// GifOptions defines options for a single gif generation run
type GifOptions struct {
	OutputFrameRate         float64
	SourceFrameRate         float64 // used when the source reports no rate
	// SourceFrameRateOverride replaces the rate a stream source reports, e.g.
	// the live-photo capture rate. Zero leaves the reported rate in place.
	SourceFrameRateOverride float64
	Overlays                []decorator.Overlay
	MaxResolution           float64
	RemoveBackground        bool
	Extractor               string
	CropPolicy              types.CropPolicy
	ReturnOriginalFrames    bool
	OutputDir               string
	Concurrency             int
	MaxFrames               int
}

// Config holds process-wide defaults read from the environment
type Config struct {
	OutputFrameRate float64 `env:"LIVEGIF_FPS"            envDefault:"30"`
	SourceFrameRate float64 `env:"LIVEGIF_FALLBACK_FPS"   envDefault:"30"`
	SourceFPS       float64 `env:"LIVEGIF_SOURCE_FPS"`
	MaxResolution   float64 `env:"LIVEGIF_MAX_RESOLUTION" envDefault:"500"`
	Extractor       string  `env:"LIVEGIF_EXTRACTOR"      envDefault:"chromakey"`
	CropPolicy      string  `env:"LIVEGIF_CROP_POLICY"    envDefault:"union"`
	OutputDir       string  `env:"LIVEGIF_OUTPUT_DIR"     envDefault:"/tmp/livegif"`
	Concurrency     int     `env:"LIVEGIF_CONCURRENCY"    envDefault:"0"`

	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
	MetricsPort  int    `env:"METRICS_PORT"  envDefault:"0"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT" envDefault:""`

	MinIOEndpoint  string `env:"MINIO_ENDPOINT"   envDefault:"localhost:9000"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL"    envDefault:"false"`
	MinIOBucket    string `env:"MINIO_BUCKET"     envDefault:""`
}

const (
	DefaultFrameRate     = 30
	DefaultMaxResolution = 500

	// Hard ceiling on retained frames for stream sources
	MaxFrames = 150

	// Output file settings
	OutputExtension = ".gif"
	OutputDirPerm   = 0755
)

// Load parses the environment into a Config
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultOptions returns GifOptions seeded from cfg
func (c *Config) DefaultOptions() *GifOptions {
	return &GifOptions{
		OutputFrameRate:         c.OutputFrameRate,
		SourceFrameRate:         c.SourceFrameRate,
		SourceFrameRateOverride: c.SourceFPS,
		MaxResolution:           c.MaxResolution,
		Extractor:               c.Extractor,
		CropPolicy:              types.CropPolicy(c.CropPolicy),
		OutputDir:               c.OutputDir,
		Concurrency:             c.Concurrency,
		MaxFrames:               MaxFrames,
	}
}

// WithDefaults fills zero values with the documented defaults
func (o *GifOptions) WithDefaults() *GifOptions {
	out := *o
	if out.OutputFrameRate <= 0 {
		out.OutputFrameRate = DefaultFrameRate
	}
	if out.SourceFrameRate <= 0 {
		out.SourceFrameRate = DefaultFrameRate
	}
	out.SourceFrameRateOverride = max(out.SourceFrameRateOverride, 0)
	if out.MaxResolution <= 0 {
		out.MaxResolution = DefaultMaxResolution
	}
	if out.Extractor == "" {
		out.Extractor = "chromakey"
	}
	if out.CropPolicy == "" {
		out.CropPolicy = types.CropUnion
	}
	if out.OutputDir == "" {
		out.OutputDir = filepath.Join(os.TempDir(), "livegif")
	}
	if out.Concurrency <= 0 {
		out.Concurrency = runtime.NumCPU()
	}
	if out.MaxFrames == 0 {
		out.MaxFrames = MaxFrames
	}
	return &out
}
