package model

import "time"

// 支払い・給与のステータス
const (
	PaymentStatusCompleted = "completed"
	SalaryStatusPending    = "pending"
)

// Payment は会員の支払い記録を表す。
type Payment struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"client_id"`
	ClientName    string     `json:"client_name,omitempty"`
	ClientEmail   string     `json:"client_email,omitempty"`
	Amount        *float64   `json:"amount"`
	PaymentType   string     `json:"payment_type"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	Description   string     `json:"description"`
	PaidAt        *time.Time `json:"paid_at"`
}

// PaymentInput は支払い記録の登録入力。
type PaymentInput struct {
	ClientID      string   `json:"client_id"`
	Amount        *float64 `json:"amount"`
	PaymentType   string   `json:"payment_type"`
	PaymentMethod string   `json:"payment_method"`
	Description   string   `json:"description"`
}

// SumPaymentAmounts は取得済みの支払い行の金額を合計する。
// サーバー側の集計ではなく、取得したウィンドウ内の合計でしかない点に注意。
// 金額がNULLの行は0として扱う。
func SumPaymentAmounts(payments []Payment) float64 {
	var total float64
	for _, p := range payments {
		if p.Amount != nil {
			total += *p.Amount
		}
	}
	return total
}

// SalaryRecord はトレーナーへの給与支払い記録を表す。
type SalaryRecord struct {
	ID                 string     `json:"id"`
	TrainerID          string     `json:"trainer_id"`
	Amount             *float64   `json:"amount"`
	PaymentPeriodStart *time.Time `json:"payment_period_start"`
	PaymentPeriodEnd   *time.Time `json:"payment_period_end"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
}

// SalaryInput は給与記録の登録入力。
// 期間は日付文字列のままプロバイダーに渡し、形式の検証はプロバイダーに委ねる。
type SalaryInput struct {
	TrainerID          string   `json:"trainer_id"`
	Amount             *float64 `json:"amount"`
	PaymentPeriodStart *string  `json:"payment_period_start"`
	PaymentPeriodEnd   *string  `json:"payment_period_end"`
}
