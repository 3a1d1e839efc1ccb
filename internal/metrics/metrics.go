// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する。
// 認証、プロフィールブートストラップ、ソーシャルフェッチ、HTTP応答の
// 各カウンタとレイテンシヒストグラムを保持する。
type Collector struct {
	authSuccess          prometheus.Counter
	authFail             prometheus.Counter
	profileInserted      prometheus.Counter
	profileConflict      prometheus.Counter
	profileInsertFailure prometheus.Counter
	socialFetchSuccess   prometheus.Counter
	socialFetchFail      prometheus.Counter
	httpStatus           *prometheus.CounterVec
	requestLatency       prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brandlink_auth_success_total",
			Help: "認証成功の合計数",
		}),
		authFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brandlink_auth_fail_total",
			Help: "認証失敗の合計数",
		}),
		profileInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brandlink_profile_bootstrap_inserted_total",
			Help: "ブートストラップで作成されたデフォルトプロフィールの合計数",
		}),
		profileConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brandlink_profile_bootstrap_conflict_total",
			Help: "ブートストラップの挿入が既存行との競合でスキップされた合計数",
		}),
		profileInsertFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brandlink_profile_bootstrap_failure_total",
			Help: "ブートストラップのプロフィール作成失敗の合計数",
		}),
		socialFetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brandlink_social_fetch_success_total",
			Help: "ソーシャル投稿フェッチ成功の合計数",
		}),
		socialFetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brandlink_social_fetch_fail_total",
			Help: "ソーシャル投稿フェッチ失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brandlink_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "brandlink_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.authSuccess,
		c.authFail,
		c.profileInserted,
		c.profileConflict,
		c.profileInsertFailure,
		c.socialFetchSuccess,
		c.socialFetchFail,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// IncAuthSuccess は認証成功を記録する。
func (c *Collector) IncAuthSuccess() {
	c.authSuccess.Inc()
}

// IncAuthFailure は認証失敗を記録する。
func (c *Collector) IncAuthFailure() {
	c.authFail.Inc()
}

// IncProfileInserted はデフォルトプロフィールの作成を記録する。
func (c *Collector) IncProfileInserted() {
	c.profileInserted.Inc()
}

// IncProfileConflict はブートストラップ挿入の競合スキップを記録する。
func (c *Collector) IncProfileConflict() {
	c.profileConflict.Inc()
}

// IncProfileInsertFailure はプロフィール作成失敗を記録する。
func (c *Collector) IncProfileInsertFailure() {
	c.profileInsertFailure.Inc()
}

// IncSocialFetchSuccess はソーシャルフェッチ成功を記録する。
func (c *Collector) IncSocialFetchSuccess() {
	c.socialFetchSuccess.Inc()
}

// IncSocialFetchFailure はソーシャルフェッチ失敗を記録する。
func (c *Collector) IncSocialFetchFailure() {
	c.socialFetchFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
