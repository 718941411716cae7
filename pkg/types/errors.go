package types

import "github.com/pkg/errors"

var (
	ErrEmptyInput           = errors.New("no frames supplied")
	ErrSourceUnreadable     = errors.New("frame source cannot be read")
	ErrTooManyFrames        = errors.New("too many frames for a gif")
	ErrSinkCreation         = errors.New("unable to create gif output")
	ErrEncodingFinalization = errors.New("unable to finalize gif output")
	ErrNoUsableFrames       = errors.New("no usable frames after background removal")
	ErrCancelled            = errors.New("gif generation cancelled")

	ErrInvalidFrameRate     = errors.New("frame rate must be positive")
	ErrUnsupportedExtractor = errors.New("unsupported background extractor")
)
