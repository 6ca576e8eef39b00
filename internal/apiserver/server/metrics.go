// Package server Prometheus 指标导出
package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 包含所有仪表盘服务指标
//
// 每个实例持有独立的 Registry，测试中可以安全地重复创建。
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求指标
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// WebSocket 指标
	WSConnectionsActive prometheus.Gauge
	WSBroadcastsTotal   *prometheus.CounterVec

	// 文件监听指标
	WatcherEventsTotal *prometheus.CounterVec

	// 特性指标
	FeaturesTotal *prometheus.GaugeVec
}

// NewMetrics 创建指标实例
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		WSConnectionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_connections_active",
				Help:      "Active WebSocket connections",
			},
		),
		WSBroadcastsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "websocket_broadcasts_total",
				Help:      "Total WebSocket broadcasts by message type",
			},
			[]string{"type"},
		),
		WatcherEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "watcher_events_total",
				Help:      "Total dispatched file watcher events by kind",
			},
			[]string{"kind"},
		),
		FeaturesTotal: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "features_total",
				Help:      "Total features by overall status",
			},
			[]string{"status"},
		),
	}
}

// Handler 返回本实例的 Prometheus HTTP Handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MetricsMiddleware 创建 HTTP 指标中间件
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// 包装 ResponseWriter 以捕获状态码
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter 包装 http.ResponseWriter 以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath 规范化路径，将 ID 替换为占位符，避免高基数
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/features/"):
		rest := path[len("/api/features/"):]
		if i := strings.Index(rest, "/"); i >= 0 {
			return "/api/features/{id}" + normalizeFeatureSubpath(rest[i:])
		}
		return "/api/features/{id}"
	case strings.HasPrefix(path, "/api/sessions/"):
		return "/api/sessions/{id}"
	case strings.HasPrefix(path, "/api/git/commits/"):
		rest := path[len("/api/git/commits/"):]
		if i := strings.Index(rest, "/"); i >= 0 {
			return "/api/git/commits/{hash}" + rest[i:]
		}
		return "/api/git/commits/{hash}"
	default:
		return path
	}
}

func normalizeFeatureSubpath(sub string) string {
	if strings.HasPrefix(sub, "/artifact/") {
		return "/artifact/{filename}"
	}
	return sub
}

// RecordBroadcast 记录一次广播
func (m *Metrics) RecordBroadcast(msgType string) {
	m.WSBroadcastsTotal.WithLabelValues(msgType).Inc()
}

// RecordWatcherEvent 记录一次文件事件派发
func (m *Metrics) RecordWatcherEvent(kind string) {
	m.WatcherEventsTotal.WithLabelValues(kind).Inc()
}

// SetFeaturesCount 设置特性数量
func (m *Metrics) SetFeaturesCount(status string, count int) {
	m.FeaturesTotal.WithLabelValues(status).Set(float64(count))
}

// WSConnectionOpened WebSocket 连接打开
func (m *Metrics) WSConnectionOpened() {
	m.WSConnectionsActive.Inc()
}

// WSConnectionClosed WebSocket 连接关闭
func (m *Metrics) WSConnectionClosed() {
	m.WSConnectionsActive.Dec()
}
