// Package metrics exports capture statistics to Prometheus.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mooglejp/atomcam_tools/camsnap/internal/camera"
)

// Capture results used as the "result" label
const (
	ResultOK              = "ok"
	ResultCaptureError    = "capture_error"
	ResultInvalidResponse = "invalid_response"
	ResultNotFound        = "not_found"
	ResultError           = "error"
)

// Collector records capture events. It implements camera.CaptureObserver.
type Collector struct {
	registry *prometheus.Registry
	captures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	size     *prometheus.GaugeVec
}

var _ camera.CaptureObserver = (*Collector)(nil)

// NewCollector creates a collector with its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camsnap_captures_total",
			Help: "Snapshot captures by camera and result.",
		}, []string{"camera", "brand", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "camsnap_capture_duration_seconds",
			Help:    "Time taken to capture a snapshot.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"camera"}),
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "camsnap_capture_bytes",
			Help: "Size of the last captured snapshot.",
		}, []string{"camera"}),
	}

	c.registry.MustRegister(c.captures, c.duration, c.size)
	return c
}

// ObserveCapture implements camera.CaptureObserver
func (c *Collector) ObserveCapture(ev camera.CaptureEvent) {
	result := Result(ev.Err)
	c.captures.WithLabelValues(ev.CameraID, ev.Brand, result).Inc()

	// Unknown ids would grow the label set without bound
	if result == ResultNotFound {
		return
	}
	c.duration.WithLabelValues(ev.CameraID).Observe(ev.Elapsed.Seconds())
	if result == ResultOK {
		c.size.WithLabelValues(ev.CameraID).Set(float64(ev.Bytes))
	}
}

// Handler returns the /metrics handler
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Result classifies a capture error into a result label
func Result(err error) string {
	var (
		notFound *camera.NotFoundError
		capErr   *camera.CaptureError
		invErr   *camera.InvalidResponseError
	)
	switch {
	case err == nil:
		return ResultOK
	case errors.As(err, &notFound):
		return ResultNotFound
	case errors.As(err, &capErr):
		return ResultCaptureError
	case errors.As(err, &invErr):
		return ResultInvalidResponse
	default:
		return ResultError
	}
}
