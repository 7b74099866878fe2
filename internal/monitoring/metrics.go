package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标集合。
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 会话指标
	SessionsCreated     prometheus.Counter
	FallbackGenerations prometheus.Counter
	SessionsPurged      prometheus.Counter

	// 摄取指标
	MessagesIngested  prometheus.Counter
	DuplicatesSkipped prometheus.Counter

	// 网关指标
	GatewayErrors *prometheus.CounterVec

	// 错误指标
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标（promauto 自动注册到默认 registry）。
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailpanel_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailpanel_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailpanel_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		FallbackGenerations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailpanel_fallback_generations_total",
			Help: "Total number of locally synthesized fallback addresses",
		}),
		SessionsPurged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailpanel_sessions_purged_total",
			Help: "Total number of sessions removed by inactive purge",
		}),
		MessagesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailpanel_messages_ingested_total",
			Help: "Total number of messages inserted by ingestion",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailpanel_duplicates_skipped_total",
			Help: "Total number of raw messages deduplicated during ingestion",
		}),
		GatewayErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailpanel_gateway_errors_total",
				Help: "Total number of external gateway failures",
			},
			[]string{"operation"},
		),
		PanicsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailpanel_panics_total",
			Help: "Total number of recovered panics",
		}),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求。
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSessionCreated 记录一次会话创建。
func (m *Metrics) RecordSessionCreated(usedFallback bool) {
	m.SessionsCreated.Inc()
	if usedFallback {
		m.FallbackGenerations.Inc()
	}
}

// RecordIngestion 记录一次摄取批次的插入与去重数量。
func (m *Metrics) RecordIngestion(raw, inserted int) {
	m.MessagesIngested.Add(float64(inserted))
	if skipped := raw - inserted; skipped > 0 {
		m.DuplicatesSkipped.Add(float64(skipped))
	}
}

// RecordGatewayError 记录一次外部网关失败。
func (m *Metrics) RecordGatewayError(operation string) {
	m.GatewayErrors.WithLabelValues(operation).Inc()
}

// RecordSessionsPurged 记录清退数量。
func (m *Metrics) RecordSessionsPurged(count int) {
	m.SessionsPurged.Add(float64(count))
}

// RecordPanic 记录一次被恢复的 panic。
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// HTTPHandler 返回 /metrics 端点处理器。
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
