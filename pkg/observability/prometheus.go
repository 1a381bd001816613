package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements every hook interface on top of Prometheus
// collectors.
type Prometheus struct {
	StageTotal    *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	JobsTotal     *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec

	CacheTotal *prometheus.CounterVec
	CacheBytes *prometheus.CounterVec

	PersistTotal    *prometheus.CounterVec
	PersistDuration prometheus.Histogram

	ExportTotal    *prometheus.CounterVec
	ExportDuration *prometheus.HistogramVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrorsTotal     *prometheus.CounterVec
}

var stageBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// NewPrometheus creates and registers the collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		StageTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trazo_pipeline_stage_total",
				Help: "Pipeline stages run, by stage and status",
			},
			[]string{"stage", "status"},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trazo_pipeline_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: stageBuckets,
			},
			[]string{"stage"},
		),
		JobsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trazo_pipeline_jobs_total",
				Help: "Generation jobs by terminal stage",
			},
			[]string{"stage"}, // done, failed, cancelled
		),
		JobDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trazo_pipeline_job_duration_seconds",
				Help:    "Duration of generation jobs in seconds",
				Buckets: stageBuckets,
			},
			[]string{"stage"},
		),
		CacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trazo_cache_operations_total",
				Help: "Cache operations by key type and result",
			},
			[]string{"key_type", "result"}, // hit, miss, set
		),
		CacheBytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trazo_cache_written_bytes_total",
				Help: "Bytes written to the cache",
			},
			[]string{"key_type"},
		),
		PersistTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trazo_store_persist_total",
				Help: "Diagram blob writes by status",
			},
			[]string{"status"},
		),
		PersistDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trazo_store_persist_duration_seconds",
				Help:    "Duration of diagram blob writes in seconds",
				Buckets: stageBuckets,
			},
		),
		ExportTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trazo_export_total",
				Help: "Exports by format and status",
			},
			[]string{"format", "status"},
		),
		ExportDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trazo_export_duration_seconds",
				Help:    "Duration of exports in seconds",
				Buckets: stageBuckets,
			},
			[]string{"format"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trazo_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trazo_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trazo_http_errors_total",
				Help: "Handler errors by route",
			},
			[]string{"method", "route"},
		),
	}
}

// Install registers p as the global hooks of every category.
func (p *Prometheus) Install() {
	SetPipelineHooks(p)
	SetCacheHooks(p)
	SetStoreHooks(p)
	SetExportHooks(p)
	SetHTTPHooks(p)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) stage(stage string, d time.Duration, err error) {
	p.StageTotal.WithLabelValues(stage, status(err)).Inc()
	p.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *Prometheus) OnAnalyzeStart(context.Context, string, int) {}

func (p *Prometheus) OnAnalyzeComplete(_ context.Context, _ string, _ int, cached bool, d time.Duration, err error) {
	if cached {
		p.StageTotal.WithLabelValues("analyzing", "cached").Inc()
		return
	}
	p.stage("analyzing", d, err)
}

func (p *Prometheus) OnLayoutStart(context.Context, string, int) {}

func (p *Prometheus) OnLayoutComplete(_ context.Context, _ string, d time.Duration, err error) {
	p.stage("laying_out", d, err)
}

func (p *Prometheus) OnRenderStart(context.Context, string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	p.stage("rendering", d, err)
}

func (p *Prometheus) OnJobComplete(_ context.Context, stage string, d time.Duration) {
	p.JobsTotal.WithLabelValues(stage).Inc()
	p.JobDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.CacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheTotal.WithLabelValues(keyType, "set").Inc()
	p.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *Prometheus) OnPersist(_ context.Context, _ string, _ int, d time.Duration, err error) {
	p.PersistTotal.WithLabelValues(status(err)).Inc()
	p.PersistDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnExport(_ context.Context, format string, _ int, d time.Duration, err error) {
	p.ExportTotal.WithLabelValues(format, status(err)).Inc()
	p.ExportDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (p *Prometheus) OnRequest(context.Context, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	p.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, method, route string, _ error) {
	p.HTTPErrorsTotal.WithLabelValues(method, route).Inc()
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ StoreHooks    = (*Prometheus)(nil)
	_ ExportHooks   = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
