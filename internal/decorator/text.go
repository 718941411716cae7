package decorator

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontsOnce sync.Once
	regular   *opentype.Font
	bold      *opentype.Font
	fontsErr  error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regular, fontsErr = opentype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		bold, fontsErr = opentype.Parse(gobold.TTF)
	})
	return errors.Wrap(fontsErr, "failed to parse font")
}

// Faces hold glyph caches and are not safe for concurrent use, so each
// render builds its own.
func newFace(size float64, isBold bool) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultFontSize
	}
	f := regular
	if isBold {
		f = bold
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create font face")
	}
	return face, nil
}

type run struct {
	span  Span
	face  font.Face
	width fixed.Int26_6
}

func renderSpans(spans []Span, background color.Color) (*image.NRGBA, error) {
	runs := make([]run, 0, len(spans))
	defer func() {
		for _, r := range runs {
			r.face.Close()
		}
	}()

	var width, ascent, descent fixed.Int26_6
	for _, s := range spans {
		face, err := newFace(s.FontSize, s.Bold)
		if err != nil {
			return nil, err
		}
		w := font.MeasureString(face, s.Text)
		runs = append(runs, run{span: s, face: face, width: w})

		m := face.Metrics()
		width += w
		ascent = max(ascent, m.Ascent)
		descent = max(descent, m.Descent)
	}

	bounds := image.Rect(0, 0, width.Ceil(), (ascent + descent).Ceil())
	if bounds.Empty() {
		return nil, errors.New("empty text overlay")
	}

	img := image.NewNRGBA(bounds)
	if background != nil {
		draw.Draw(img, bounds, image.NewUniform(background), image.Point{}, draw.Src)
	}

	dot := fixed.Point26_6{Y: ascent}
	for _, r := range runs {
		c := r.span.Color
		if c == nil {
			c = DefaultTextColor
		}
		d := font.Drawer{Dst: img, Src: image.NewUniform(c), Face: r.face, Dot: dot}
		d.DrawString(r.span.Text)
		dot.X += r.width
	}
	return img, nil
}
