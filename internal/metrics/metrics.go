// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordWeatherFetch(success bool)
	RecordWeatherCache(hit bool)
	RecordWeatherLatency(duration time.Duration)
	RecordEventMutation(op string)
	ObserveHTTPStatus(method, path string, status int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	weatherFetchSuccess prometheus.Counter
	weatherFetchFail    prometheus.Counter
	weatherCacheHit     prometheus.Counter
	weatherCacheMiss    prometheus.Counter
	weatherLatency      prometheus.Histogram
	eventMutations      *prometheus.CounterVec
	httpStatus          *prometheus.CounterVec
}

// インターフェース実装の確認
var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		weatherFetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dayboard_weather_fetch_success_total",
			Help: "天気プロバイダー取得成功の合計数",
		}),
		weatherFetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dayboard_weather_fetch_fail_total",
			Help: "天気プロバイダー取得失敗の合計数",
		}),
		weatherCacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dayboard_weather_cache_hit_total",
			Help: "天気キャッシュヒットの合計数",
		}),
		weatherCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dayboard_weather_cache_miss_total",
			Help: "天気キャッシュミスの合計数",
		}),
		weatherLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dayboard_weather_fetch_latency_seconds",
			Help:    "天気プロバイダー取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		eventMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dayboard_event_mutations_total",
			Help: "D-Dayイベント変更操作の合計数（操作種別ラベル付き）",
		}, []string{"op"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dayboard_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"method", "status_code"}),
	}

	reg.MustRegister(
		c.weatherFetchSuccess,
		c.weatherFetchFail,
		c.weatherCacheHit,
		c.weatherCacheMiss,
		c.weatherLatency,
		c.eventMutations,
		c.httpStatus,
	)

	return c
}

// RecordWeatherFetch は天気プロバイダー取得の成否を記録する。
func (c *Collector) RecordWeatherFetch(success bool) {
	if success {
		c.weatherFetchSuccess.Inc()
	} else {
		c.weatherFetchFail.Inc()
	}
}

// RecordWeatherCache は天気キャッシュのヒット・ミスを記録する。
func (c *Collector) RecordWeatherCache(hit bool) {
	if hit {
		c.weatherCacheHit.Inc()
	} else {
		c.weatherCacheMiss.Inc()
	}
}

// RecordWeatherLatency は天気取得のレイテンシを記録する。
func (c *Collector) RecordWeatherLatency(duration time.Duration) {
	c.weatherLatency.Observe(duration.Seconds())
}

// RecordEventMutation はD-Dayイベントの変更操作（add/update/delete）を記録する。
func (c *Collector) RecordEventMutation(op string) {
	c.eventMutations.WithLabelValues(op).Inc()
}

// ObserveHTTPStatus はHTTPレスポンスのステータスコードを記録する。
// pathはカーディナリティ抑制のためラベルに含めない。
func (c *Collector) ObserveHTTPStatus(method, path string, status int) {
	c.httpStatus.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
