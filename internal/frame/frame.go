package frame

import "image"

// Raw is a decoded frame together with its 1-based source index and the
// display delay (seconds) it was paired with by the resampler.
//
// A Raw frame is owned by whichever stage currently holds it; stages hand
// frames off and never mutate an image another stage still references.
type Raw struct {
	Index int
	Image image.Image
	Delay float64
}

// Masked is a frame that carries an alpha channel and the tight bounds of
// its non-transparent pixels.
type Masked struct {
	Index      int
	Image      *image.NRGBA
	Foreground image.Rectangle
	Delay      float64
}
