// Package metrics provides Prometheus metrics for the screening service
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rshade/klimatmodell/internal/climate"
)

// Outcome labels for calculations.
const (
	OutcomeOK               = "ok"
	OutcomeInvalidParameter = "invalid_parameter"
	OutcomeUnknownEnum      = "unknown_enum"
	OutcomeUnknownBoundary  = "unknown_boundary"
	OutcomeError            = "error"
)

var (
	// HTTP metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klimatmodell_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "klimatmodell_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"route"},
	)

	// Calculation metrics
	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klimatmodell_calculations_total",
			Help: "Total number of emissions calculations by boundary and outcome",
		},
		[]string{"boundary", "outcome"},
	)

	TotalKgPerM2 = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "klimatmodell_total_kg_per_m2",
			Help:    "Distribution of computed A1-A5 totals in kg CO2e per m² BTA",
			Buckets: []float64{150, 200, 250, 300, 350, 375, 400, 450, 500, 600},
		},
		[]string{"boundary"},
	)
)

// Outcome classifies a calculation error into an outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, climate.ErrInvalidParameter):
		return OutcomeInvalidParameter
	case errors.Is(err, climate.ErrUnknownBoundary):
		return OutcomeUnknownBoundary
	case errors.Is(err, climate.ErrUnknownEnumValue):
		return OutcomeUnknownEnum
	default:
		return OutcomeError
	}
}

// RecordCalculation records the outcome of one emissions calculation.
// The total is only observed for successful calculations.
func RecordCalculation(boundary climate.SystemBoundary, totalKgPerM2 float64, err error) {
	label := string(boundary)
	if !boundary.Valid() {
		label = "unknown"
	}
	CalculationsTotal.WithLabelValues(label, Outcome(err)).Inc()
	if err == nil {
		TotalKgPerM2.WithLabelValues(label).Observe(totalKgPerM2)
	}
}

// RecordRequest records one served HTTP request.
func RecordRequest(route, method, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(route, method, status).Inc()
	RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// Timer is a helper for measuring duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
