// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/hitoshi/gymdesk/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、サービス層、ワーカーから利用する。
type MetricsCollector interface {
	RecordRouteDecision(class, action string)
	RecordMutation(action, outcome string)
	RecordChatLatency(duration time.Duration)
	RecordChatFailure()
	RecordSignupOrphan()
	RecordOutboxReconciled(outcome string)
}

// 更新アクションの結果ラベル
const (
	OutcomeSuccess  = "success"
	OutcomeDenied   = "denied"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// OutcomeOf は更新アクションのエラーを結果ラベルに変換する。
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case model.IsNotFound(err):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	routeDecisions   *prometheus.CounterVec
	mutations        *prometheus.CounterVec
	chatLatency      prometheus.Histogram
	chatFailures     prometheus.Counter
	signupOrphans    prometheus.Counter
	outboxReconciled *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		routeDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gymdesk_route_decisions_total",
			Help: "ディスパッチャーの判定数（分類・結果別）",
		}, []string{"class", "action"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gymdesk_mutations_total",
			Help: "更新アクションの実行数（アクション・結果別）",
		}, []string{"action", "outcome"}),
		chatLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gymdesk_chat_latency_seconds",
			Help:    "チャット生成APIのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		chatFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gymdesk_chat_failures_total",
			Help: "チャット生成API呼び出し失敗の合計数",
		}),
		signupOrphans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gymdesk_signup_orphans_total",
			Help: "ロール別プロフィール作成に失敗したサインアップの合計数",
		}),
		outboxReconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gymdesk_outbox_reconciled_total",
			Help: "サインアップアウトボックスの再処理数（結果別）",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.routeDecisions,
		c.mutations,
		c.chatLatency,
		c.chatFailures,
		c.signupOrphans,
		c.outboxReconciled,
	)

	return c
}

// RecordRouteDecision はディスパッチャーの判定を記録する。actionはpassまたはredirect。
func (c *Collector) RecordRouteDecision(class, action string) {
	c.routeDecisions.WithLabelValues(class, action).Inc()
}

// RecordMutation は更新アクションの結果を記録する。
func (c *Collector) RecordMutation(action, outcome string) {
	c.mutations.WithLabelValues(action, outcome).Inc()
}

// RecordChatLatency はチャット生成のレイテンシを記録する。
func (c *Collector) RecordChatLatency(duration time.Duration) {
	c.chatLatency.Observe(duration.Seconds())
}

// RecordChatFailure はチャット生成の失敗を記録する。
func (c *Collector) RecordChatFailure() {
	c.chatFailures.Inc()
}

// RecordSignupOrphan はベースプロフィールのみ残ったサインアップを記録する。
func (c *Collector) RecordSignupOrphan() {
	c.signupOrphans.Inc()
}

// RecordOutboxReconciled はアウトボックス行の再処理結果を記録する。
func (c *Collector) RecordOutboxReconciled(outcome string) {
	c.outboxReconciled.WithLabelValues(outcome).Inc()
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス不要の構成で使う。
type Nop struct{}

func (Nop) RecordRouteDecision(string, string) {}
func (Nop) RecordMutation(string, string) {}
func (Nop) RecordChatLatency(time.Duration) {}
func (Nop) RecordChatFailure() {}
func (Nop) RecordSignupOrphan() {}
func (Nop) RecordOutboxReconciled(string) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
