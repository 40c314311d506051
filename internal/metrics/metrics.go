// Package metrics exposes Prometheus collectors for capture, playback and
// macro file operations.
package metrics

import (
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	capturedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inputmacro_capture_events_total",
		Help: "Input events emitted by the capture engine grouped by type",
	}, []string{"type"})

	suppressedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inputmacro_capture_suppressed_total",
		Help: "Input occurrences ignored by the capture engine grouped by reason",
	}, []string{"reason"})

	droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inputmacro_capture_dropped_total",
		Help: "Captured events dropped because the recording queue was full",
	})

	playbackEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inputmacro_playback_events_total",
		Help: "Events executed against the input simulator grouped by type",
	}, []string{"type"})

	playbackPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inputmacro_playback_passes_total",
		Help: "Full passes over a macro completed by the playback engine",
	})

	playbackRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inputmacro_playback_runs_total",
		Help: "Playback runs grouped by outcome",
	}, []string{"outcome"})

	playbackDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inputmacro_playback_duration_seconds",
		Help:    "Wall-clock duration of playback runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900, 3600},
	})

	fileOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inputmacro_macrofile_operations_total",
		Help: "Macro file loads and saves grouped by operation and status",
	}, []string{"op", "status"})
)

// Suppression reasons.
const (
	ReasonInjected  = "injected"
	ReasonDebounced = "debounced"
)

// CaptureEmitted counts one emitted record.
func CaptureEmitted(eventType string) {
	capturedEvents.WithLabelValues(eventType).Inc()
}

// CaptureSuppressed counts one ignored input occurrence.
func CaptureSuppressed(reason string) {
	suppressedEvents.WithLabelValues(reason).Inc()
}

// CaptureDropped counts one record lost to a full queue.
func CaptureDropped() {
	droppedEvents.Inc()
}

// PlaybackExecuted counts one simulated event.
func PlaybackExecuted(eventType string) {
	playbackEvents.WithLabelValues(eventType).Inc()
}

// PlaybackPassCompleted counts one full pass.
func PlaybackPassCompleted() {
	playbackPasses.Inc()
}

// ObservePlaybackRun records the outcome and duration of a finished run.
func ObservePlaybackRun(cancelled bool, elapsed time.Duration) {
	outcome := "completed"
	if cancelled {
		outcome = "cancelled"
	}
	playbackRuns.WithLabelValues(outcome).Inc()
	playbackDuration.Observe(elapsed.Seconds())
}

// ObserveFileOp records a load or save outcome.
func ObserveFileOp(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	fileOps.WithLabelValues(op, status).Inc()
}

// Sample is one flattened counter value.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Snapshot gathers every inputmacro counter from the default registry.
func Snapshot() ([]Sample, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, "inputmacro_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			samples = append(samples, Sample{Name: name, Labels: labels, Value: value})
		}
	}

	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Name < samples[j].Name })
	return samples, nil
}
