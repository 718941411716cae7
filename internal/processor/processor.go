package processor

import (
	"fmt"
	"image"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ZacxDev/livegif/internal/background"
	"github.com/ZacxDev/livegif/internal/config"
	"github.com/ZacxDev/livegif/internal/ffmpeg"
	"github.com/ZacxDev/livegif/internal/gif"
	"github.com/ZacxDev/livegif/internal/storage"
	"github.com/ZacxDev/livegif/internal/tracing"
)

// State is a stage of a generation run
type State int

const (
	StateIdle State = iota
	StatePlanning
	StateExtracting
	StateReconciling
	StateCompositing
	StateEncoding
	StateDone
	StateFailed
)

var stateNames = [...]string{"idle", "planning", "extracting", "reconciling", "compositing", "encoding", "done", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Result is produced once per successful run
type Result struct {
	// Location is the committed GIF path
	Location string
	// RemoteKey is set when a publisher uploaded the GIF
	RemoteKey string
	// Frames are in output order; see GifOptions.ReturnOriginalFrames
	Frames []image.Image
	Delays []float64
}

// Generator turns a frame source or a still sequence into a GIF. A Generator
// runs one conversion at a time.
type Generator struct {
	opts          *config.GifOptions
	logger        *zap.Logger
	extractor     background.Extractor
	newSink       gif.Factory
	publisher     storage.Publisher
	tracer        trace.Tracer
	onStateChange func(from, to State)

	mu      sync.Mutex
	state   State
	running bool
}

// Option customizes a Generator
type Option func(*Generator)

// WithExtractor overrides the extractor selected by name in the options
func WithExtractor(e background.Extractor) Option {
	return func(g *Generator) { g.extractor = e }
}

// WithSinkFactory replaces the file sink
func WithSinkFactory(f gif.Factory) Option {
	return func(g *Generator) { g.newSink = f }
}

// WithPublisher uploads every committed GIF
func WithPublisher(p storage.Publisher) Option {
	return func(g *Generator) { g.publisher = p }
}

// WithTracer sets the tracer used for stage spans
func WithTracer(t trace.Tracer) Option {
	return func(g *Generator) { g.tracer = t }
}

// OnStateChange registers a hook called on every stage transition
func OnStateChange(fn func(from, to State)) Option {
	return func(g *Generator) { g.onStateChange = fn }
}

// NewGenerator creates a new generator
func NewGenerator(opts *config.GifOptions, logger *zap.Logger, options ...Option) (*Generator, error) {
	if opts == nil {
		opts = &config.GifOptions{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Generator{
		opts:    opts.WithDefaults(),
		logger:  logger,
		newSink: gif.NewFileSink,
	}
	for _, o := range options {
		o(g)
	}

	if g.opts.RemoveBackground && g.extractor == nil {
		e, err := background.Get(g.opts.Extractor)
		if err != nil {
			return nil, err
		}
		g.extractor = e
	}
	if g.tracer == nil {
		g.tracer = tracing.Tracer()
	}
	return g, nil
}

// Options returns the effective options after defaults were applied
func (g *Generator) Options() config.GifOptions {
	return *g.opts
}

// State returns the current stage
func (g *Generator) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Generator) transition(to State) {
	g.mu.Lock()
	from := g.state
	g.state = to
	g.mu.Unlock()

	g.logger.Debug("state change", zap.Stringer("from", from), zap.Stringer("to", to))
	if g.onStateChange != nil {
		g.onStateChange(from, to)
	}
}

// begin claims the generator for a run
func (g *Generator) begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return errors.New("generator is already running")
	}
	g.running = true
	return nil
}

func (g *Generator) finish() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.running = false
}

// outputPath returns a unique gif path in the output directory derived from name
func (g *Generator) outputPath(name string) string {
	base := sanitizeFilename(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	file := uuid.NewString()
	if base != "" {
		file += "_" + base
	}
	return filepath.Join(g.opts.OutputDir, ffmpeg.EnsureExtension(file, config.OutputExtension))
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9-_.]`)
	underscores = regexp.MustCompile(`_+`)
)

func sanitizeFilename(filename string) string {
	sanitized := unsafeChars.ReplaceAllString(filename, "_")
	sanitized = underscores.ReplaceAllString(sanitized, "_")
	return strings.Trim(sanitized, "_.")
}
