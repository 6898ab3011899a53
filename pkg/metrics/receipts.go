package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReceiptMetrics records receipt scanning, confirmation and learning activity.
// A nil *ReceiptMetrics is a valid no-op recorder.
type ReceiptMetrics struct {
	scanDuration *prometheus.HistogramVec
	confirms     *prometheus.CounterVec
	items        *prometheus.CounterVec
	corrections  *prometheus.CounterVec
}

// NewReceiptMetrics registers the receipt metrics on the provided registerer.
func NewReceiptMetrics(reg prometheus.Registerer) *ReceiptMetrics {
	if reg == nil {
		return &ReceiptMetrics{}
	}
	scanDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "receipt_scan_duration_seconds",
		Help:    "Duration of receipt parser calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	confirms := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "receipt_confirmations_total",
		Help: "Receipt confirmations by outcome.",
	}, []string{"outcome"})
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "receipt_items_total",
		Help: "Receipt line items by outcome.",
	}, []string{"outcome"})
	corrections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "format_corrections_total",
		Help: "Format corrections learned or applied.",
	}, []string{"action"})
	reg.MustRegister(scanDuration, confirms, items, corrections)
	return &ReceiptMetrics{
		scanDuration: scanDuration,
		confirms:     confirms,
		items:        items,
		corrections:  corrections,
	}
}

func (m *ReceiptMetrics) ObserveScan(outcome string, duration time.Duration) {
	if m == nil || m.scanDuration == nil {
		return
	}
	m.scanDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

func (m *ReceiptMetrics) IncConfirmation(outcome string) {
	if m == nil || m.confirms == nil {
		return
	}
	m.confirms.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddItems counts created or skipped line items.
func (m *ReceiptMetrics) AddItems(outcome string, n int) {
	if m == nil || m.items == nil || n <= 0 {
		return
	}
	m.items.WithLabelValues(normalizeLabel(outcome)).Add(float64(n))
}

func (m *ReceiptMetrics) IncCorrection(action string) {
	if m == nil || m.corrections == nil {
		return
	}
	m.corrections.WithLabelValues(normalizeLabel(action)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
