package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livegif_runs_total",
		Help: "Total number of gif generation runs, by entry flow and outcome",
	}, []string{"flow", "status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "livegif_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"stage"})

	FramesDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livegif_frames_decoded_total",
		Help: "Total number of source frames decoded, including dropped ones",
	})

	FramesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livegif_frames_dropped_total",
		Help: "Source frames left out of the output, by reason",
	}, []string{"reason"})

	FramesEncodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livegif_frames_encoded_total",
		Help: "Total number of frames written to gif sinks",
	})

	ExtractionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livegif_extraction_failures_total",
		Help: "Frames discarded because background extraction failed",
	}, []string{"extractor"})

	ActiveExtractions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "livegif_active_extractions",
		Help: "Number of background extractions currently running",
	})
)
