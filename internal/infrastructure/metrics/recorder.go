// Package metrics expone contadores de negocio y de HTTP en formato Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/lotes-remision/internal/application/ports"
)

var _ ports.Metrics = (*Recorder)(nil)

// Recorder registro propio (no el global) con las métricas de la API.
type Recorder struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	allocations        *prometheus.CounterVec
	shipments          prometheus.Counter
	shipmentLines      prometheus.Histogram
	countFinalizations prometheus.Counter
	discrepancies      prometheus.Histogram
	countLots          *prometheus.CounterVec
}

// NewRecorder registra las métricas con el prefijo dado (ej. "lotes").
func NewRecorder(prefix string) *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		allocations: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_allocations_total",
			Help: "Lot allocations by outcome",
		}, []string{"outcome"}),
		shipments: f.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_shipments_confirmed_total",
			Help: "Shipments confirmed from the cart",
		}),
		shipmentLines: f.NewHistogram(prometheus.HistogramOpts{
			Name:    prefix + "_shipment_lines",
			Help:    "Lines per confirmed shipment",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		}),
		countFinalizations: f.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_count_finalizations_total",
			Help: "Scan count sessions finalized",
		}),
		discrepancies: f.NewHistogram(prometheus.HistogramOpts{
			Name:    prefix + "_count_discrepancies",
			Help:    "Discrepancies per finalized count",
			Buckets: []float64{0, 1, 5, 10, 25, 100},
		}),
		countLots: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_count_applied_lots_total",
			Help: "Lots touched when applying a count, by result",
		}, []string{"result"}),
	}
}

// ObserveAllocation complete=false cuando faltó stock.
func (r *Recorder) ObserveAllocation(complete bool) {
	outcome := "complete"
	if !complete {
		outcome = "shortfall"
	}
	r.allocations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ShipmentConfirmed(lines int) {
	r.shipments.Inc()
	r.shipmentLines.Observe(float64(lines))
}

func (r *Recorder) CountFinalized(discrepancies int) {
	r.countFinalizations.Inc()
	r.discrepancies.Observe(float64(discrepancies))
}

func (r *Recorder) CountApplied(updated, created, skipped int) {
	r.countLots.WithLabelValues("updated").Add(float64(updated))
	r.countLots.WithLabelValues("created").Add(float64(created))
	r.countLots.WithLabelValues("skipped").Add(float64(skipped))
}

// Middleware cuenta y mide cada request por ruta registrada (no por URL cruda).
func (r *Recorder) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		labels := []string{c.Method(), path, strconv.Itoa(status)}
		r.httpRequests.WithLabelValues(labels...).Inc()
		r.httpDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler expone el registro para GET /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
