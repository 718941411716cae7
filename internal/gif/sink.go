package gif

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	imggif "image/gif"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/ZacxDev/livegif/internal/config"
	"github.com/ZacxDev/livegif/pkg/types"
)

// GlobalProperties apply to the whole animation
type GlobalProperties struct {
	// LoopCount is the number of repeats; 0 loops forever
	LoopCount int
}

// FrameProperties apply to a single frame
type FrameProperties struct {
	// Delay is the display time in seconds
	Delay       float64
	Orientation types.Orientation
}

// Sink receives frames in display order and commits them as one GIF
type Sink interface {
	SetGlobalProperties(props GlobalProperties)
	AddFrame(img image.Image, props FrameProperties) error
	// Finalize is the single commit point. Nothing exists at the destination
	// until it returns nil.
	Finalize() error
	// Abort discards everything written so far
	Abort() error
}

// Factory opens a sink for destination. frameCountHint sizes internal buffers.
type Factory func(destination string, frameCountHint int) (Sink, error)

// NewFileSink is the Factory for FileSink
func NewFileSink(destination string, frameCountHint int) (Sink, error) {
	return Create(destination, frameCountHint)
}

// transparentPalette leaves room for the transparent entry at index 0
var transparentPalette = append(color.Palette{color.Transparent}, palette.WebSafe...)

// FileSink stages frames in memory and encodes them into a temporary file
// next to the destination, renaming it into place on Finalize.
type FileSink struct {
	mu          sync.Mutex
	destination string
	staging     *os.File
	anim        *imggif.GIF
	closed      bool
}

// Create opens a staging file in the destination directory
func Create(destination string, frameCountHint int) (*FileSink, error) {
	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, config.OutputDirPerm); err != nil {
		return nil, errors.Wrapf(types.ErrSinkCreation, "create directory %s: %v", dir, err)
	}

	staging, err := os.CreateTemp(dir, ".livegif-*.tmp")
	if err != nil {
		return nil, errors.Wrapf(types.ErrSinkCreation, "create staging file in %s: %v", dir, err)
	}

	frameCountHint = max(frameCountHint, 0)
	return &FileSink{
		destination: destination,
		staging:     staging,
		anim: &imggif.GIF{
			Image:    make([]*image.Paletted, 0, frameCountHint),
			Delay:    make([]int, 0, frameCountHint),
			Disposal: make([]byte, 0, frameCountHint),
		},
	}, nil
}

func (s *FileSink) SetGlobalProperties(props GlobalProperties) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anim.LoopCount = props.LoopCount
}

func (s *FileSink) AddFrame(img image.Image, props FrameProperties) error {
	oriented := Orient(img, props.Orientation)
	paletted, transparent := quantize(oriented)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("sink already closed")
	}

	disposal := byte(imggif.DisposalNone)
	if transparent {
		disposal = imggif.DisposalBackground
	}
	s.anim.Image = append(s.anim.Image, paletted)
	s.anim.Delay = append(s.anim.Delay, int(math.Round(props.Delay*100)))
	s.anim.Disposal = append(s.anim.Disposal, disposal)
	return nil
}

func (s *FileSink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.Wrap(types.ErrEncodingFinalization, "sink already closed")
	}
	s.closed = true

	if err := s.commit(); err != nil {
		s.staging.Close()
		os.Remove(s.staging.Name())
		return err
	}
	return nil
}

func (s *FileSink) commit() error {
	if len(s.anim.Image) == 0 {
		return errors.Wrap(types.ErrEncodingFinalization, "no frames")
	}

	var width, height int
	for _, p := range s.anim.Image {
		width = max(width, p.Bounds().Max.X)
		height = max(height, p.Bounds().Max.Y)
	}
	s.anim.Config = image.Config{Width: width, Height: height}

	// A frame smaller than the canvas would leave earlier pixels visible around it
	for _, p := range s.anim.Image {
		if p.Bounds().Dx() < width || p.Bounds().Dy() < height {
			for i := range s.anim.Disposal {
				s.anim.Disposal[i] = imggif.DisposalBackground
			}
			break
		}
	}

	if err := imggif.EncodeAll(s.staging, s.anim); err != nil {
		return errors.Wrapf(types.ErrEncodingFinalization, "encode: %v", err)
	}
	if err := s.staging.Sync(); err != nil {
		return errors.Wrapf(types.ErrEncodingFinalization, "sync: %v", err)
	}
	if err := s.staging.Close(); err != nil {
		return errors.Wrapf(types.ErrEncodingFinalization, "close: %v", err)
	}
	if err := os.Rename(s.staging.Name(), s.destination); err != nil {
		return errors.Wrapf(types.ErrEncodingFinalization, "rename: %v", err)
	}
	return nil
}

func (s *FileSink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.anim = &imggif.GIF{}

	s.staging.Close()
	if err := os.Remove(s.staging.Name()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove staging file")
	}
	return nil
}

// quantize maps img onto a palette with Floyd-Steinberg dithering. Frames with
// any transparency use a palette carrying a transparent entry.
func quantize(img image.Image) (*image.Paletted, bool) {
	b := img.Bounds()
	bounds := image.Rect(0, 0, b.Dx(), b.Dy())

	transparent := hasTransparency(img)
	pal := color.Palette(palette.Plan9)
	if transparent {
		pal = transparentPalette
	}

	dst := image.NewPaletted(bounds, pal)
	draw.FloydSteinberg.Draw(dst, bounds, img, b.Min)
	return dst, transparent
}

func hasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}
