package pdftoolkit

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels reported to an Observer.
const (
	OpMerge        = "merge"
	OpReorder      = "reorder"
	OpExtract      = "extract"
	OpSplit        = "split"
	OpImages       = "images"
	OpPresentation = "presentation"
	OpThumbnail    = "thumbnail"
	OpPrint        = "print"
)

// Observer receives timing and volume of toolkit operations.
type Observer interface {
	ObserveOperation(op string, d time.Duration, err error)
	PagesProcessed(op string, n int)
}

var (
	_ Observer = nopObserver{}
	_ Observer = (*PrometheusObserver)(nil)
)

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, time.Duration, error) {}
func (nopObserver) PagesProcessed(string, int)                    {}

// PrometheusObserver exports operation metrics to Prometheus. A nil
// observer records nothing.
type PrometheusObserver struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	canceled *prometheus.CounterVec
	pages    *prometheus.CounterVec
}

// NewPrometheusObserver registers the toolkit metrics with reg (nil selects
// the default registerer). Registering twice reuses the existing
// collectors.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "pdftoolkit"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of toolkit operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of failed toolkit operations.",
		}, []string{"operation"}),
		canceled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_canceled_total",
			Help:      "Count of toolkit operations canceled before completion.",
		}, []string{"operation"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_processed_total",
			Help:      "Pages written by toolkit operations.",
		}, []string{"operation"}),
	}

	var err error
	if o.duration, err = register(reg, o.duration); err != nil {
		return nil, fmt.Errorf("register duration histogram: %w", err)
	}
	if o.errors, err = register(reg, o.errors); err != nil {
		return nil, fmt.Errorf("register error counter: %w", err)
	}
	if o.canceled, err = register(reg, o.canceled); err != nil {
		return nil, fmt.Errorf("register cancel counter: %w", err)
	}
	if o.pages, err = register(reg, o.pages); err != nil {
		return nil, fmt.Errorf("register page counter: %w", err)
	}
	return o, nil
}

// register adds c to reg, returning the collector already registered
// under the same descriptor when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

// ObserveOperation records the duration of op and whether it failed.
// Cancellation is counted apart from failure.
func (o *PrometheusObserver) ObserveOperation(op string, d time.Duration, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues(op).Observe(d.Seconds())
	switch {
	case err == nil:
	case errors.Is(err, ErrCanceled):
		o.canceled.WithLabelValues(op).Inc()
	default:
		o.errors.WithLabelValues(op).Inc()
	}
}

// PagesProcessed adds n pages to op's counter.
func (o *PrometheusObserver) PagesProcessed(op string, n int) {
	if o == nil || n <= 0 {
		return
	}
	o.pages.WithLabelValues(op).Add(float64(n))
}

// WriteMetricsFile writes every metric of g to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteMetricsFile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("%w: metrics: %v", ErrWriteOutput, err)
	}
	return nil
}
