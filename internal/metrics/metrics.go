// Package metrics exports Prometheus metrics derived from capture machine
// events.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smazurov/shutterdeck/internal/events"
)

const namespace = "shutterdeck"

// Collector turns bus events into metrics. It owns its registry so several
// collectors can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	shutterPresses  *prometheus.CounterVec
	captures        *prometheus.CounterVec
	captureBytes    *prometheus.CounterVec
	captureErrors   *prometheus.CounterVec
	countdowns      *prometheus.CounterVec
	countdownActive prometheus.Gauge
	recording       prometheus.Gauge
	zoomLevel       prometheus.Gauge
	zoomFailures    prometheus.Counter
	cameraChanges   *prometheus.CounterVec
	cameraErrors    *prometheus.CounterVec
	swipes          prometheus.Counter

	mu     sync.Mutex
	unsubs []func()
}

// NewCollector creates a collector with Go and process metrics registered
// next to the capture metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		shutterPresses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shutter_presses_total",
			Help:      "Shutter presses by resolved action",
		}, []string{"action"}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Completed captures by kind",
		}, []string{"kind"}),
		captureBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_bytes_total",
			Help:      "Bytes of completed captures by kind",
		}, []string{"kind"}),
		captureErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_errors_total",
			Help:      "Failed captures by kind",
		}, []string{"kind"}),
		countdowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "countdown",
			Name:      "finished_total",
			Help:      "Finished countdowns by reason",
		}, []string{"reason"}),
		countdownActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "countdown",
			Name:      "active",
			Help:      "1 while an overlay countdown runs",
		}),
		recording: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recording",
			Help:      "1 while recording, 0.5 while finalizing",
		}),
		zoomLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "zoom",
			Name:      "level",
			Help:      "Current zoom level",
		}),
		zoomFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zoom",
			Name:      "failures_total",
			Help:      "Zoom requests rejected by the camera",
		}),
		cameraChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "camera",
			Name:      "acquisitions_total",
			Help:      "Successful camera acquisitions by facing",
		}, []string{"facing"}),
		cameraErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "camera",
			Name:      "errors_total",
			Help:      "Failed camera acquisitions by error kind",
		}, []string{"kind"}),
		swipes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gesture",
			Name:      "swipe_down_total",
			Help:      "Downward swipes recognised",
		}),
	}

	c.zoomLevel.Set(1)
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.shutterPresses,
		c.captures,
		c.captureBytes,
		c.captureErrors,
		c.countdowns,
		c.countdownActive,
		c.recording,
		c.zoomLevel,
		c.zoomFailures,
		c.cameraChanges,
		c.cameraErrors,
		c.swipes,
	)
	return c
}

// Registry returns the registry backing Handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Attach subscribes the collector to bus. Detach undoes it.
func (c *Collector) Attach(bus *events.Bus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unsubs = append(c.unsubs,
		bus.Subscribe(func(e events.ShutterPressedEvent) {
			c.shutterPresses.WithLabelValues(e.Action).Inc()
		}),
		bus.Subscribe(func(e events.CaptureCompletedEvent) {
			c.captures.WithLabelValues(e.Kind).Inc()
			c.captureBytes.WithLabelValues(e.Kind).Add(float64(e.Size))
		}),
		bus.Subscribe(func(e events.CaptureErrorEvent) {
			c.captureErrors.WithLabelValues(e.Kind).Inc()
		}),
		bus.Subscribe(func(events.CountdownProgressEvent) {
			c.countdownActive.Set(1)
		}),
		bus.Subscribe(func(e events.CountdownClearedEvent) {
			c.countdownActive.Set(0)
			c.countdowns.WithLabelValues(e.Reason).Inc()
		}),
		bus.Subscribe(func(e events.RecordingStateEvent) {
			switch {
			case e.Recording:
				c.recording.Set(1)
			case e.Finalizing:
				c.recording.Set(0.5)
			default:
				c.recording.Set(0)
			}
		}),
		bus.Subscribe(func(e events.ZoomChangedEvent) {
			c.zoomLevel.Set(e.Zoom)
		}),
		bus.Subscribe(func(events.ZoomFailedEvent) {
			c.zoomFailures.Inc()
		}),
		bus.Subscribe(func(e events.CameraChangedEvent) {
			c.cameraChanges.WithLabelValues(e.Facing).Inc()
			c.zoomLevel.Set(e.Zoom)
		}),
		bus.Subscribe(func(e events.CameraErrorEvent) {
			c.cameraErrors.WithLabelValues(e.Kind).Inc()
		}),
		bus.Subscribe(func(events.SwipeDownEvent) {
			c.swipes.Inc()
		}),
	)
}

// Detach removes every bus subscription.
func (c *Collector) Detach() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}
