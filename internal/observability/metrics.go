package observability

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danmuck/biffrec/internal/record"
)

const namespace = "biffrec"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"server", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "method", "path", "status"},
	)
	codecFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "frames_total",
			Help:      "Physical frames read or written.",
		},
		[]string{"direction", "type"},
	)
	codecRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "records_total",
			Help:      "Logical records decoded or encoded, by kind.",
		},
		[]string{"direction", "kind"},
	)
	codecRecordFrames = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "record_frames",
			Help:      "Physical frames per logical record.",
			Buckets:   []float64{1, 2, 3, 5, 10, 25, 100},
		},
		[]string{"direction"},
	)
	codecRawFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "raw_fallback_total",
			Help:      "Records decoded as raw payloads because no kind was registered.",
		},
	)
	codecFormatErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "format_errors_total",
			Help:      "Record streams rejected, by reason.",
		},
		[]string{"reason"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			codecFrames, codecRecords, codecRecordFrames, codecRawFallbacks, codecFormatErrors,
		)
	})
}

func RecordHTTPRequest(server, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(server, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(server, method, path, statusLabel).Observe(duration.Seconds())
}

// CodecMetrics feeds decoder and encoder events into the codec collectors.
type CodecMetrics struct {
	format   record.Format
	registry *record.Registry
}

var _ record.Observer = (*CodecMetrics)(nil)

// NewCodecMetrics registers the collectors. registry names kinds on the encode
// path and may be nil.
func NewCodecMetrics(format record.Format, registry *record.Registry) *CodecMetrics {
	RegisterMetrics()
	if format == (record.Format{}) {
		format = record.DefaultFormat()
	}
	return &CodecMetrics{format: format, registry: registry}
}

func (m *CodecMetrics) FrameRead(tag uint16, _ int) {
	codecFrames.WithLabelValues("read", m.frameType(tag)).Inc()
}

func (m *CodecMetrics) RecordDecoded(_ uint16, name string, frames int, raw bool) {
	codecRecords.WithLabelValues("read", name).Inc()
	codecRecordFrames.WithLabelValues("read").Observe(float64(frames))
	if raw {
		codecRawFallbacks.Inc()
	}
}

func (m *CodecMetrics) RecordEncoded(tag uint16, frames int) {
	codecFrames.WithLabelValues("write", "head").Inc()
	if frames > 1 {
		codecFrames.WithLabelValues("write", "continue").Add(float64(frames - 1))
	}
	codecRecords.WithLabelValues("write", m.registry.Name(tag)).Inc()
	codecRecordFrames.WithLabelValues("write").Observe(float64(frames))
}

func (m *CodecMetrics) FormatFailure(err *record.FormatError) {
	codecFormatErrors.WithLabelValues(FormatReason(err)).Inc()
}

func (m *CodecMetrics) frameType(tag uint16) string {
	if m.format.IsContinue(tag) {
		return "continue"
	}
	return "head"
}

var formatReasons = []struct {
	err    error
	reason string
}{
	{record.ErrTruncatedHeader, "truncated_header"},
	{record.ErrTruncatedPayload, "truncated_payload"},
	{record.ErrLengthExceedsAvailable, "length_exceeds_available"},
	{record.ErrFrameTooLarge, "frame_too_large"},
	{record.ErrNegativeAvailable, "negative_available"},
	{record.ErrOrphanContinuation, "orphan_continuation"},
	{record.ErrIllegalContinuation, "illegal_continuation"},
	{record.ErrNotContinuation, "not_continuation"},
	{record.ErrDecode, "decode"},
}

// FormatReason maps a format error to a short label value.
func FormatReason(err error) string {
	for _, r := range formatReasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "other"
}
