package background

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/ZacxDev/livegif/pkg/types"
)

// Extractor removes the background of a single frame
type Extractor interface {
	// Name returns the registry name of the extractor
	Name() string

	// RemoveBackground returns a copy of img whose background pixels are fully
	// transparent. Implementations must be safe for concurrent use.
	RemoveBackground(ctx context.Context, img image.Image) (*image.NRGBA, error)
}

var (
	mu         sync.RWMutex
	extractors = make(map[string]Extractor)
)

// Register adds an extractor to the registry
func Register(e Extractor) {
	mu.Lock()
	defer mu.Unlock()
	extractors[e.Name()] = e
}

// Get returns an extractor by name
func Get(name string) (Extractor, error) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := extractors[name]
	if !ok {
		return nil, errors.Wrapf(types.ErrUnsupportedExtractor, "extractor %q", name)
	}
	return e, nil
}

// GetSupportedExtractors returns the registered extractor names in sorted order
func GetSupportedExtractors() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(extractors))
	for name := range extractors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ErrEmptyForeground is returned when nothing of the frame survives extraction
var ErrEmptyForeground = errors.New("no foreground pixels")

// Extract runs e on img and returns the masked image together with its
// foreground rectangle.
func Extract(ctx context.Context, e Extractor, img image.Image) (*image.NRGBA, image.Rectangle, error) {
	if err := ctx.Err(); err != nil {
		return nil, image.Rectangle{}, err
	}

	masked, err := e.RemoveBackground(ctx, img)
	if err != nil {
		return nil, image.Rectangle{}, errors.Wrapf(err, "%s extractor", e.Name())
	}

	fg := OpaqueBounds(masked)
	if fg.Empty() {
		return nil, image.Rectangle{}, errors.WithStack(ErrEmptyForeground)
	}
	return masked, fg, nil
}

// OpaqueBounds returns the tightest rectangle containing every pixel with a
// non-zero alpha. It is empty when the image is fully transparent.
func OpaqueBounds(img *image.NRGBA) image.Rectangle {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x+1)
			maxY = max(maxY, y+1)
		}
	}

	if minX >= maxX || minY >= maxY {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX, maxY)
}
