package processor

import (
	"context"
	"image"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ZacxDev/livegif/internal/background"
	"github.com/ZacxDev/livegif/internal/crop"
	"github.com/ZacxDev/livegif/internal/decorator"
	"github.com/ZacxDev/livegif/internal/frame"
	"github.com/ZacxDev/livegif/internal/gif"
	"github.com/ZacxDev/livegif/internal/imaging"
	"github.com/ZacxDev/livegif/internal/metrics"
	"github.com/ZacxDev/livegif/internal/resample"
	"github.com/ZacxDev/livegif/pkg/types"
)

// FromSource converts a video or live-photo stream. A non-zero
// SourceFrameRateOverride replaces the rate the source reports, and sources
// reporting no rate are treated as SourceFrameRate. The run fails with
// ErrTooManyFrames before any frame is decoded when the retained frame count
// exceeds MaxFrames. The source is closed when the run ends.
func (g *Generator) FromSource(ctx context.Context, src FrameSource) (*Result, error) {
	name := "live"
	if n, ok := src.(interface{ Name() string }); ok {
		name = n.Name()
	}
	return g.run(ctx, "source", name, src, true)
}

// FromImages converts a fixed list of stills. Every image is kept and shown
// for one output frame interval.
func (g *Generator) FromImages(ctx context.Context, images []image.Image, orientation types.Orientation) (*Result, error) {
	src := NewSliceSource(images, g.opts.OutputFrameRate, orientation)
	return g.run(ctx, "images", "images", src, false)
}

func (g *Generator) run(ctx context.Context, flow, name string, src FrameSource, stream bool) (res *Result, err error) {
	defer src.Close()
	if err := g.begin(); err != nil {
		return nil, err
	}
	defer g.finish()

	started := time.Now()
	ctx, span := g.tracer.Start(ctx, "Generator."+flow)
	defer span.End()
	log := g.logger.With(zap.String("flow", flow), zap.String("name", name))

	defer func() {
		status := "success"
		if err != nil {
			err = asCancelled(err)
			status = "failed"
			if errors.Is(err, types.ErrCancelled) {
				status = "cancelled"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("gif generation failed", zap.Error(err))
			g.transition(StateFailed)
		}
		metrics.RunsTotal.WithLabelValues(flow, status).Inc()
	}()

	plan, orientation, err := g.plan(ctx, src, stream)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("frames.retained", plan.Retained()),
		attribute.Int("frames.dropped", len(plan.FramesToDrop)),
	)

	masked, err := g.extracting(ctx, src, plan)
	if err != nil {
		return nil, err
	}

	images, err := g.reconcile(ctx, masked)
	if err != nil {
		return nil, err
	}

	composed, err := g.composite(ctx, images)
	if err != nil {
		return nil, err
	}

	delays := make([]float64, len(masked))
	for i, m := range masked {
		delays[i] = m.Delay
	}

	location, err := g.encode(ctx, name, composed, delays, orientation)
	if err != nil {
		return nil, err
	}

	res = &Result{
		Location:  location,
		RemoteKey: g.publish(ctx, location),
		Frames:    composed,
		Delays:    delays,
	}
	if g.opts.ReturnOriginalFrames {
		res.Frames = images
	}

	g.transition(StateDone)
	log.Info("gif created",
		zap.String("location", location),
		zap.Int("frames", len(composed)),
		zap.Duration("elapsed", time.Since(started)))
	return res, nil
}

// stage enters s and returns the context for its work and a function ending it
func (g *Generator) stage(ctx context.Context, s State) (context.Context, func()) {
	g.transition(s)
	ctx, span := g.tracer.Start(ctx, s.String())
	started := time.Now()
	return ctx, func() {
		elapsed := time.Since(started)
		metrics.StageDuration.WithLabelValues(s.String()).Observe(elapsed.Seconds())
		g.logger.Debug("stage finished", zap.Stringer("stage", s), zap.Duration("elapsed", elapsed))
		span.End()
	}
}

// plan builds the resample plan. The rate override and the frame ceiling only
// apply to stream sources.
func (g *Generator) plan(ctx context.Context, src FrameSource, stream bool) (*resample.Plan, types.Orientation, error) {
	_, end := g.stage(ctx, StatePlanning)
	defer end()

	desc := types.StreamDescriptor{
		NominalFrameRate:   src.NominalFrameRate(),
		NominalTotalFrames: src.EstimatedTotalFrames(),
		Orientation:        src.PreferredOrientation(),
	}
	switch {
	case stream && g.opts.SourceFrameRateOverride > 0:
		desc.NominalFrameRate = g.opts.SourceFrameRateOverride
	case desc.NominalFrameRate <= 0:
		desc.NominalFrameRate = g.opts.SourceFrameRate
	}
	if !desc.Orientation.Valid() {
		desc.Orientation = types.OrientationUp
	}

	plan, err := resample.NewPlan(g.opts.OutputFrameRate, desc.NominalFrameRate, desc.NominalTotalFrames)
	if err != nil {
		return nil, 0, err
	}

	g.logger.Debug("resample plan",
		zap.Float64("nominal_fps", desc.NominalFrameRate),
		zap.Float64("output_fps", g.opts.OutputFrameRate),
		zap.Int("nominal_frames", desc.NominalTotalFrames),
		zap.Int("dropped", len(plan.FramesToDrop)),
		zap.Int("retained", plan.Retained()))

	if stream && g.opts.MaxFrames > 0 && plan.Retained() > g.opts.MaxFrames {
		return nil, 0, errors.Wrapf(types.ErrTooManyFrames, "%d frames exceed the limit of %d", plan.Retained(), g.opts.MaxFrames)
	}
	return plan, desc.Orientation, nil
}

// extracting decodes the retained frames in order, then extracts them
func (g *Generator) extracting(ctx context.Context, src FrameSource, plan *resample.Plan) ([]*frame.Masked, error) {
	ctx, end := g.stage(ctx, StateExtracting)
	defer end()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raws, err := g.decode(ctx, src, plan)
	if err != nil {
		return nil, err
	}
	return g.extract(ctx, raws)
}

func (g *Generator) decode(ctx context.Context, src FrameSource, plan *resample.Plan) ([]*frame.Raw, error) {
	raws, err := resample.Collect(ctx, src, plan)
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, errors.Wrap(types.ErrEmptyInput, "source produced no frames")
	}

	last := raws[len(raws)-1].Index
	metrics.FramesDecodedTotal.Add(float64(last))
	metrics.FramesDroppedTotal.WithLabelValues("resample").Add(float64(last - len(raws)))
	return raws, nil
}

// extract runs background extraction on every frame in parallel. Results keep
// the source order; frames whose extraction fails are left out with their delay.
func (g *Generator) extract(ctx context.Context, raws []*frame.Raw) ([]*frame.Masked, error) {
	results := make([]*frame.Masked, len(raws))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i, raw := range raws {
		if egCtx.Err() != nil {
			break
		}
		i, raw := i, raw
		eg.Go(func() error {
			m, err := g.extractOne(egCtx, raw)
			if err != nil {
				if ctxErr := egCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				g.logger.Warn("frame extraction failed", zap.Int("frame", raw.Index), zap.Error(err))
				metrics.ExtractionFailuresTotal.WithLabelValues(g.extractor.Name()).Inc()
				metrics.FramesDroppedTotal.WithLabelValues("extraction").Inc()
				return nil
			}
			results[i] = m
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	survivors := make([]*frame.Masked, 0, len(results))
	for _, m := range results {
		if m != nil {
			survivors = append(survivors, m)
		}
	}
	if len(survivors) == 0 {
		return nil, errors.Wrapf(types.ErrNoUsableFrames, "extraction failed for all %d frames", len(raws))
	}
	return survivors, nil
}

func (g *Generator) extractOne(ctx context.Context, raw *frame.Raw) (*frame.Masked, error) {
	img := imaging.Limit(raw.Image, g.opts.MaxResolution)
	if !g.opts.RemoveBackground {
		return &frame.Masked{Index: raw.Index, Image: img, Foreground: img.Bounds(), Delay: raw.Delay}, nil
	}

	metrics.ActiveExtractions.Inc()
	defer metrics.ActiveExtractions.Dec()

	masked, fg, err := background.Extract(ctx, g.extractor, img)
	if err != nil {
		return nil, err
	}
	return &frame.Masked{Index: raw.Index, Image: masked, Foreground: fg, Delay: raw.Delay}, nil
}

// reconcile crops every frame to one common rectangle so the subject keeps its
// position across frames. Without background removal frames pass through.
func (g *Generator) reconcile(ctx context.Context, masked []*frame.Masked) ([]image.Image, error) {
	_, end := g.stage(ctx, StateReconciling)
	defer end()

	images := make([]image.Image, len(masked))
	if !g.opts.RemoveBackground {
		for i, m := range masked {
			images[i] = m.Image
		}
		return images, nil
	}

	rects := make([]image.Rectangle, len(masked))
	for i, m := range masked {
		rects[i] = m.Foreground
	}
	rect, err := crop.CommonRect(rects, crop.MaxBounds(masked), g.opts.CropPolicy)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("common crop", zap.Stringer("rect", rect), zap.String("policy", string(g.opts.CropPolicy)))

	for i, c := range crop.Apply(masked, rect) {
		images[i] = c
	}
	return images, nil
}

func (g *Generator) composite(ctx context.Context, images []image.Image) ([]image.Image, error) {
	ctx, end := g.stage(ctx, StateCompositing)
	defer end()

	if len(g.opts.Overlays) == 0 {
		return images, nil
	}

	out := make([]image.Image, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		composed, err := decorator.ComposeAll(img, g.opts.Overlays)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", i+1)
		}
		out[i] = composed
	}
	return out, nil
}

// encode writes the frames to a new sink. Cancellation aborts the sink so no
// partial file is committed.
func (g *Generator) encode(ctx context.Context, name string, images []image.Image, delays []float64, orientation types.Orientation) (string, error) {
	ctx, end := g.stage(ctx, StateEncoding)
	defer end()

	destination := g.outputPath(name)
	sink, err := g.newSink(destination, len(images))
	if err != nil {
		if !errors.Is(err, types.ErrSinkCreation) {
			err = errors.Wrap(types.ErrSinkCreation, err.Error())
		}
		return "", err
	}

	sink.SetGlobalProperties(gif.GlobalProperties{LoopCount: 0})
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			g.abort(sink)
			return "", err
		}
		props := gif.FrameProperties{Delay: delays[i], Orientation: orientation}
		if err := sink.AddFrame(img, props); err != nil {
			g.abort(sink)
			return "", errors.Wrapf(types.ErrEncodingFinalization, "frame %d: %v", i+1, err)
		}
		metrics.FramesEncodedTotal.Inc()
	}

	if err := ctx.Err(); err != nil {
		g.abort(sink)
		return "", err
	}
	if err := sink.Finalize(); err != nil {
		if !errors.Is(err, types.ErrEncodingFinalization) {
			err = errors.Wrap(types.ErrEncodingFinalization, err.Error())
		}
		return "", err
	}
	return destination, nil
}

func (g *Generator) abort(sink gif.Sink) {
	if err := sink.Abort(); err != nil {
		g.logger.Warn("failed to abort gif sink", zap.Error(err))
	}
}

// publish uploads the committed gif. Upload failures leave the local result intact.
func (g *Generator) publish(ctx context.Context, location string) string {
	if g.publisher == nil {
		return ""
	}
	key, err := g.publisher.Publish(ctx, location)
	if err != nil {
		g.logger.Warn("failed to publish gif", zap.String("location", filepath.Base(location)), zap.Error(err))
		return ""
	}
	return key
}

func asCancelled(err error) error {
	if errors.Is(err, types.ErrCancelled) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(types.ErrCancelled, err.Error())
	}
	return err
}
