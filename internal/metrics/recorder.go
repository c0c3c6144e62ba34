package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReloadResult labels the outcome of a settings reload.
type ReloadResult string

const (
	ReloadApplied   ReloadResult = "applied"
	ReloadUnchanged ReloadResult = "unchanged"
	ReloadFailed    ReloadResult = "failed"
)

// Recorder records settings server metrics on its own registry. A nil
// *Recorder discards everything.
type Recorder struct {
	reg          *prom.Registry
	reloads      *prom.CounterVec
	loadDuration prom.Histogram
	clients      prom.Gauge
	broadcasts   *prom.CounterVec
}

// NewRecorder constructs and registers the metrics. A nil reg gets a fresh
// registry.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		reg: reg,
		reloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "lanterns",
			Name:      "settings_reloads_total",
			Help:      "Settings reloads by result",
		}, []string{"result"}),
		loadDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "lanterns",
			Name:      "settings_load_duration_seconds",
			Help:      "Time spent loading and validating settings files",
			Buckets:   prom.DefBuckets,
		}),
		clients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "lanterns",
			Name:      "livereload_clients",
			Help:      "Connected live-reload websocket clients",
		}),
		broadcasts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "lanterns",
			Name:      "livereload_broadcasts_total",
			Help:      "Live-reload messages sent, by cause",
		}, []string{"cause"}),
	}
	reg.MustRegister(r.reloads, r.loadDuration, r.clients, r.broadcasts)
	return r
}

func (r *Recorder) IncReload(result ReloadResult) {
	if r == nil {
		return
	}
	r.reloads.WithLabelValues(string(result)).Inc()
}

func (r *Recorder) ObserveLoadDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.loadDuration.Observe(d.Seconds())
}

func (r *Recorder) SetClients(n int) {
	if r == nil {
		return
	}
	r.clients.Set(float64(n))
}

func (r *Recorder) IncBroadcast(cause string) {
	if r == nil {
		return
	}
	r.broadcasts.WithLabelValues(cause).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prom.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// Handler serves the recorder's metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
