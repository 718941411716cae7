package decorator

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"

	"github.com/ZacxDev/livegif/internal/imaging"
	"github.com/ZacxDev/livegif/pkg/types"
)

// Overlay defaults
const (
	DefaultOffset     = 8
	DefaultFontSize   = 62
	DefaultImageWidth = 60
)

// DefaultTextColor is used when a text overlay has no colour
var DefaultTextColor color.Color = color.NRGBA{R: 255, A: 255}

// Span is one styled run of attributed text
type Span struct {
	Text     string
	FontSize float64
	Color    color.Color
	Bold     bool
}

// Overlay describes a text, attributed-text or image decoration. Origin, when
// set, overrides Anchor and Offset.
type Overlay struct {
	Kind       types.OverlayKind
	Anchor     types.Anchor
	Offset     image.Point
	Origin     *image.Point
	Text       string
	FontSize   float64
	Bold       bool
	Color      color.Color
	Background color.Color
	Spans      []Span
	Image      image.Image
	Width      int
}

// NewText returns a text overlay with the default placement and style
func NewText(text string) Overlay {
	return Overlay{
		Kind:     types.OverlayText,
		Anchor:   types.AnchorCenter,
		Offset:   image.Pt(DefaultOffset, DefaultOffset),
		Text:     text,
		FontSize: DefaultFontSize,
		Bold:     true,
		Color:    DefaultTextColor,
	}
}

// NewAttributedText returns an overlay drawing spans on a shared baseline
func NewAttributedText(spans ...Span) Overlay {
	return Overlay{
		Kind:   types.OverlayAttributedText,
		Anchor: types.AnchorCenter,
		Offset: image.Pt(DefaultOffset, DefaultOffset),
		Spans:  spans,
	}
}

// NewImage returns an image overlay scaled to the default width
func NewImage(img image.Image) Overlay {
	return Overlay{
		Kind:   types.OverlayImage,
		Anchor: types.AnchorCenter,
		Offset: image.Pt(DefaultOffset, DefaultOffset),
		Image:  img,
		Width:  DefaultImageWidth,
	}
}

// Resolve returns the top-left point at which an overlay of overlaySize is
// drawn inside a frame of frameSize.
func Resolve(frameSize, overlaySize image.Point, anchor types.Anchor, offset image.Point, origin *image.Point) image.Point {
	if origin != nil {
		return *origin
	}

	switch anchor {
	case types.AnchorTopLeft:
		return offset
	case types.AnchorTopRight:
		return image.Pt(frameSize.X-overlaySize.X-offset.X, offset.Y)
	case types.AnchorBottomLeft:
		return image.Pt(offset.X, frameSize.Y-overlaySize.Y-offset.Y)
	case types.AnchorBottomRight:
		return image.Pt(frameSize.X-overlaySize.X-offset.X, frameSize.Y-overlaySize.Y-offset.Y)
	default:
		return frameSize.Sub(overlaySize).Div(2).Add(offset)
	}
}

// Render rasterizes the overlay content without placing it
func Render(o Overlay) (*image.NRGBA, error) {
	switch o.Kind {
	case types.OverlayText:
		return renderSpans([]Span{{Text: o.Text, FontSize: o.FontSize, Color: o.Color, Bold: o.Bold}}, o.Background)
	case types.OverlayAttributedText:
		return renderSpans(o.Spans, o.Background)
	case types.OverlayImage:
		if o.Image == nil {
			return nil, errors.New("image overlay without image")
		}
		width := o.Width
		if width <= 0 {
			width = DefaultImageWidth
		}
		return imaging.ResizeToWidth(o.Image, width), nil
	default:
		return nil, errors.Errorf("unknown overlay kind: %q", o.Kind)
	}
}

// Compose draws o onto a copy of dst and returns the copy
func Compose(dst image.Image, o Overlay) (*image.NRGBA, error) {
	out := imaging.ToNRGBA(dst)
	if err := composeInto(out, o); err != nil {
		return nil, err
	}
	return out, nil
}

// ComposeAll applies overlays in order, each drawn over the previous result
func ComposeAll(dst image.Image, overlays []Overlay) (*image.NRGBA, error) {
	out := imaging.ToNRGBA(dst)
	for i, o := range overlays {
		if err := composeInto(out, o); err != nil {
			return nil, errors.Wrapf(err, "overlay %d", i)
		}
	}
	return out, nil
}

func composeInto(dst *image.NRGBA, o Overlay) error {
	rendered, err := Render(o)
	if err != nil {
		return err
	}

	size := rendered.Bounds().Size()
	at := Resolve(dst.Bounds().Size(), size, o.Anchor, o.Offset, o.Origin)
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(size)}, rendered, image.Point{}, draw.Over)
	return nil
}
