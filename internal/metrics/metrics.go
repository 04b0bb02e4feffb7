// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	bookingCreated  prometheus.Counter
	bookingConflict prometheus.Counter
	validationFail  *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		bookingCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yoyaku_booking_created_total",
			Help: "作成された予約の合計数",
		}),
		bookingConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yoyaku_booking_conflict_total",
			Help: "スロット競合で拒否された予約操作の合計数",
		}),
		validationFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yoyaku_validation_fail_total",
			Help: "エラーコード別のバリデーション失敗数",
		}, []string{"code"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yoyaku_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "yoyaku_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.bookingCreated,
		c.bookingConflict,
		c.validationFail,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordBookingCreated は予約作成を記録する。
func (c *Collector) RecordBookingCreated() {
	c.bookingCreated.Inc()
}

// RecordBookingConflict はスロット競合を記録する。
func (c *Collector) RecordBookingConflict() {
	c.bookingConflict.Inc()
}

// RecordValidationFailure はバリデーション失敗をエラーコード別に記録する。
func (c *Collector) RecordValidationFailure(code string) {
	c.validationFail.WithLabelValues(code).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
