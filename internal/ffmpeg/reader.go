package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ZacxDev/livegif/internal/imaging"
	"github.com/ZacxDev/livegif/pkg/types"
)

// FrameReader decodes a video into RGBA frames one at a time by piping
// rawvideo out of an ffmpeg process. It is a single-consumer source.
type FrameReader struct {
	path       string
	width      int
	height     int
	descriptor types.StreamDescriptor
	verbose    bool

	mu      sync.Mutex
	cmd     *exec.Cmd
	pipe    *io.PipeReader
	stderr  bytes.Buffer
	done    bool
	buf     []byte
	decoded int
}

// Open probes inputPath and prepares a reader that scales frames to fit
// maxResolution. Decoding starts on the first call to Next.
func (p *Processor) Open(inputPath string, maxResolution, fallbackRate float64) (*FrameReader, error) {
	metadata, err := p.GetVideoMetadata(inputPath)
	if err != nil {
		return nil, err
	}

	w, h := metadata.DisplaySize()
	w, h = imaging.FitWithin(w, h, maxResolution)

	return &FrameReader{
		path:       inputPath,
		width:      w,
		height:     h,
		descriptor: metadata.Descriptor(fallbackRate),
		verbose:    p.verbose,
		buf:        make([]byte, w*h*4),
	}, nil
}

// Descriptor returns the stream descriptor computed when the reader was opened
func (r *FrameReader) Descriptor() types.StreamDescriptor {
	return r.descriptor
}

// Name returns the base name of the decoded file
func (r *FrameReader) Name() string {
	return filepath.Base(r.path)
}

func (r *FrameReader) NominalFrameRate() float64 {
	return r.descriptor.NominalFrameRate
}

func (r *FrameReader) EstimatedTotalFrames() int {
	return r.descriptor.NominalTotalFrames
}

func (r *FrameReader) PreferredOrientation() types.Orientation {
	return r.descriptor.Orientation
}

// Size returns the decoded frame size
func (r *FrameReader) Size() (int, int) {
	return r.width, r.height
}

func (r *FrameReader) start(ctx context.Context) error {
	compiled := ffmpeg.Input(r.path).
		Output("pipe:", ffmpeg.KwArgs{
			"format":  "rawvideo",
			"pix_fmt": "rgba",
			"s":       fmt.Sprintf("%dx%d", r.width, r.height),
			"vsync":   "passthrough",
			"threads": GetOptimalThreadCount(),
		}).
		Compile()

	cmd := exec.CommandContext(ctx, compiled.Path, compiled.Args[1:]...)
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = &r.stderr

	if r.verbose {
		log.Printf("Decoding %s: %s\n", r.path, strings.Join(cmd.Args, " "))
	}

	if err := cmd.Start(); err != nil {
		pw.Close()
		return errors.Wrapf(types.ErrSourceUnreadable, "start ffmpeg: %v", err)
	}

	go func() {
		pw.CloseWithError(cmd.Wait())
	}()

	r.cmd = cmd
	r.pipe = pr
	return nil
}

// Next returns the next decoded frame, or io.EOF once the stream ends
func (r *FrameReader) Next(ctx context.Context) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.cmd == nil {
		if err := r.start(ctx); err != nil {
			return nil, err
		}
	}

	_, err := io.ReadFull(r.pipe, r.buf)
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		r.done = true
		return nil, io.EOF
	case err != nil:
		r.done = true
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrapf(types.ErrSourceUnreadable, "decode frame %d: %v: %s",
			r.decoded+1, err, strings.TrimSpace(r.stderr.String()))
	}

	r.decoded++
	img := image.NewNRGBA(image.Rect(0, 0, r.width, r.height))
	copy(img.Pix, r.buf)
	return img, nil
}

// Close stops the decoder process
func (r *FrameReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.done = true
	if r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	r.pipe.Close()
	// Kill fails harmlessly once the process has exited
	r.cmd.Process.Kill()
	return nil
}
