// Package billing は会員の支払いとトレーナー給与の記録を扱う。
package billing

import (
	"context"
	"fmt"

	"github.com/hitoshi/gymdesk/internal/metrics"
	"github.com/hitoshi/gymdesk/internal/model"
	"github.com/hitoshi/gymdesk/internal/repository"
)

// 支払い登録後に無効化するページ。管理者トップは直近の売上を表示する。
const (
	PaymentsPath = "/dashboard/admin/payments"
	AdminPath    = "/dashboard/admin"
)

// Invalidator はキャッシュ済みページを無効化する。
type Invalidator interface {
	Invalidate(prefixes ...string)
}

// PaymentsView は支払い一覧ページの表示データ。Totalは取得した行の合計。
type PaymentsView struct {
	Payments []model.Payment `json:"payments"`
	Total    float64         `json:"total"`
}

// Service は支払い・給与のサービス層。
type Service struct {
	payments     repository.PaymentRepository
	salaries     repository.SalaryRepository
	cache        Invalidator
	collector    metrics.MetricsCollector
	recentWindow int
}

// NewService はServiceを生成する。recentWindowは直近売上の集計に使う件数。
func NewService(
	payments repository.PaymentRepository,
	salaries repository.SalaryRepository,
	cache Invalidator,
	collector metrics.MetricsCollector,
	recentWindow int,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if recentWindow <= 0 {
		recentWindow = 10
	}
	return &Service{
		payments:     payments,
		salaries:     salaries,
		cache:        cache,
		collector:    collector,
		recentWindow: recentWindow,
	}
}

// RecordPayment は支払いをstatus=completedで登録する。
func (s *Service) RecordPayment(ctx context.Context, in model.PaymentInput) (err error) {
	defer func() { s.collector.RecordMutation("record_payment", metrics.OutcomeOf(err)) }()

	if err := s.payments.Create(ctx, in); err != nil {
		return err
	}
	s.cache.Invalidate(AdminPath)
	return nil
}

// ListPayments は支払い一覧を返す。clientIDが空でなければその会員の支払いに絞り込む。
func (s *Service) ListPayments(ctx context.Context, clientID string) ([]model.Payment, error) {
	payments, err := s.payments.List(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	return payments, nil
}

// PaymentsPage は全支払いと取得分の合計を返す。
func (s *Service) PaymentsPage(ctx context.Context) (*PaymentsView, error) {
	payments, err := s.ListPayments(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("支払い一覧の取得に失敗しました: %w", err)
	}
	return &PaymentsView{Payments: payments, Total: model.SumPaymentAmounts(payments)}, nil
}

// RecentRevenue は直近recentWindow件の支払い合計を返す。
// 全期間の売上ではなく、取得したウィンドウ内の合計である。
func (s *Service) RecentRevenue(ctx context.Context) (float64, error) {
	recent, err := s.payments.ListRecent(ctx, s.recentWindow)
	if err != nil {
		return 0, fmt.Errorf("直近の支払いの取得に失敗しました: %w", err)
	}
	return model.SumPaymentAmounts(recent), nil
}

// RecordSalary は給与記録をstatus=pendingで登録する。
func (s *Service) RecordSalary(ctx context.Context, in model.SalaryInput) (err error) {
	defer func() { s.collector.RecordMutation("record_salary", metrics.OutcomeOf(err)) }()

	return s.salaries.Create(ctx, in)
}

// ListSalaries は給与記録を返す。trainerIDが空でなければ絞り込む。
func (s *Service) ListSalaries(ctx context.Context, trainerID string) ([]model.SalaryRecord, error) {
	records, err := s.salaries.List(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.SalaryRecord{}
	}
	return records, nil
}
