// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 操作結果のラベル値
const (
	ResultSuccess  = "success"
	ResultInvalid  = "invalid"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層、プレゼンストラッカー、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordEventOperation(operation, result string)
	RecordStoreLatency(operation string, duration time.Duration)
	SetActiveSessions(count int)
	RecordSessionsEvicted(count int)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	eventOps        *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec
	activeSessions  prometheus.Gauge
	sessionsEvicted prometheus.Counter
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		eventOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guildcal_event_operations_total",
			Help: "イベント操作の結果別の合計数",
		}, []string{"operation", "result"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guildcal_store_latency_seconds",
			Help:    "イベントストア呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "guildcal_presence_active_sessions",
			Help: "現在アクティブなプレゼンスセッション数",
		}),
		sessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guildcal_presence_evicted_total",
			Help: "タイムアウトで削除されたプレゼンスセッションの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guildcal_http_requests_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.eventOps,
		c.storeLatency,
		c.activeSessions,
		c.sessionsEvicted,
		c.httpStatus,
	)

	return c
}

// RecordEventOperation はイベント操作の結果を記録する。
func (c *Collector) RecordEventOperation(operation, result string) {
	c.eventOps.WithLabelValues(operation, result).Inc()
}

// RecordStoreLatency はストア呼び出しのレイテンシを記録する。
func (c *Collector) RecordStoreLatency(operation string, duration time.Duration) {
	c.storeLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetActiveSessions はアクティブセッション数を設定する。
func (c *Collector) SetActiveSessions(count int) {
	c.activeSessions.Set(float64(count))
}

// RecordSessionsEvicted は削除されたセッション数を加算する。
func (c *Collector) RecordSessionsEvicted(count int) {
	if count <= 0 {
		return
	}
	c.sessionsEvicted.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Nop は何も記録しないMetricsCollector。
type Nop struct{}

func (Nop) RecordEventOperation(string, string)      {}
func (Nop) RecordStoreLatency(string, time.Duration) {}
func (Nop) SetActiveSessions(int)                    {}
func (Nop) RecordSessionsEvicted(int)                {}
func (Nop) RecordHTTPStatus(int)                     {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
