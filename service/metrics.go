package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 按操作维度的延迟/计数指标
// 每个实例持有独立 registry，测试里可以并存多个服务实例
type Metrics struct {
	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewMetrics 创建并注册指标
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relationship_operation_duration_seconds",
			Help:    "Latency of relationship operations.",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}, []string{"operation"}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relationship_operations_total",
			Help: "Count of relationship operations by outcome.",
		}, []string{"operation", "outcome"}),
	}
	m.registry.MustRegister(m.duration, m.total)
	return m
}

// Track 记录一次操作的耗时和结果（defer 调用，errp 指向命名返回值）
func (m *Metrics) Track(operation string, start time.Time, errp *error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	outcome := "success"
	if errp != nil && *errp != nil {
		outcome = "error"
	}
	m.total.WithLabelValues(operation, outcome).Inc()
}

// Handler /metrics 端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
