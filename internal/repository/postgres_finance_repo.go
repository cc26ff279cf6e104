package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/gymdesk/internal/model"
)

// PostgresPaymentRepo はPostgreSQLを使用した支払いリポジトリ。
type PostgresPaymentRepo struct {
	db *sql.DB
}

// NewPostgresPaymentRepo はPostgresPaymentRepoを生成する。
func NewPostgresPaymentRepo(db *sql.DB) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{db: db}
}

const paymentSelect = `SELECT p.id, p.client_id, COALESCE(u.full_name, ''), COALESCE(u.email, ''), p.amount,
	p.payment_type, p.payment_method, p.status, p.description, p.paid_at
	FROM payments p
	LEFT JOIN clients c ON c.id = p.client_id
	LEFT JOIN users u ON u.id = c.user_id`

// Create はstatus=completedで支払いを登録する。
func (r *PostgresPaymentRepo) Create(ctx context.Context, in model.PaymentInput) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, client_id, amount, payment_type, payment_method, status, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), in.ClientID, in.Amount, in.PaymentType, in.PaymentMethod,
		model.PaymentStatusCompleted, in.Description,
	)
	if err != nil {
		return wrapDBError("failed to create payment", err)
	}
	return nil
}

// List は支払いを会員の氏名・メール付きでpaid_at降順に返す。clientIDが空でなければ絞り込む。
func (r *PostgresPaymentRepo) List(ctx context.Context, clientID string) ([]model.Payment, error) {
	if clientID == "" {
		return r.queryPayments(ctx, paymentSelect+` ORDER BY p.paid_at DESC NULLS LAST`)
	}
	return r.queryPayments(ctx, paymentSelect+` WHERE p.client_id = $1 ORDER BY p.paid_at DESC NULLS LAST`, clientID)
}

// ListRecent は直近limit件の支払いを返す。
func (r *PostgresPaymentRepo) ListRecent(ctx context.Context, limit int) ([]model.Payment, error) {
	return r.queryPayments(ctx, paymentSelect+` ORDER BY p.paid_at DESC NULLS LAST LIMIT $1`, limit)
}

func (r *PostgresPaymentRepo) queryPayments(ctx context.Context, query string, args ...any) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("failed to list payments", err)
	}
	defer rows.Close()

	payments := []model.Payment{}
	for rows.Next() {
		var p model.Payment
		var paymentType, paymentMethod, description sql.NullString
		if err := rows.Scan(&p.ID, &p.ClientID, &p.ClientName, &p.ClientEmail, &p.Amount,
			&paymentType, &paymentMethod, &p.Status, &description, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.PaymentType = paymentType.String
		p.PaymentMethod = paymentMethod.String
		p.Description = description.String
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// compile-time interface check
var _ PaymentRepository = (*PostgresPaymentRepo)(nil)

// PostgresSalaryRepo はPostgreSQLを使用した給与記録リポジトリ。
type PostgresSalaryRepo struct {
	db *sql.DB
}

// NewPostgresSalaryRepo はPostgresSalaryRepoを生成する。
func NewPostgresSalaryRepo(db *sql.DB) *PostgresSalaryRepo {
	return &PostgresSalaryRepo{db: db}
}

// Create はstatus=pendingで給与記録を登録する。
// 期間の日付文字列はPostgreSQL側でdateに変換され、不正な形式はProviderErrorになる。
func (r *PostgresSalaryRepo) Create(ctx context.Context, in model.SalaryInput) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO salary_records (id, trainer_id, amount, payment_period_start, payment_period_end, status)
		 VALUES ($1, $2, $3, $4::date, $5::date, $6)`,
		uuid.New().String(), in.TrainerID, in.Amount, in.PaymentPeriodStart, in.PaymentPeriodEnd,
		model.SalaryStatusPending,
	)
	if err != nil {
		return wrapDBError("failed to create salary record", err)
	}
	return nil
}

// List は給与記録をcreated_at降順に返す。trainerIDが空でなければ絞り込む。
func (r *PostgresSalaryRepo) List(ctx context.Context, trainerID string) ([]model.SalaryRecord, error) {
	const base = `SELECT id, trainer_id, amount, payment_period_start, payment_period_end, status, created_at
		FROM salary_records`

	var rows *sql.Rows
	var err error
	if trainerID == "" {
		rows, err = r.db.QueryContext(ctx, base+` ORDER BY created_at DESC`)
	} else {
		rows, err = r.db.QueryContext(ctx, base+` WHERE trainer_id = $1 ORDER BY created_at DESC`, trainerID)
	}
	if err != nil {
		return nil, wrapDBError("failed to list salary records", err)
	}
	defer rows.Close()

	records := []model.SalaryRecord{}
	for rows.Next() {
		var s model.SalaryRecord
		if err := rows.Scan(&s.ID, &s.TrainerID, &s.Amount, &s.PaymentPeriodStart, &s.PaymentPeriodEnd,
			&s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan salary record: %w", err)
		}
		records = append(records, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate salary records: %w", err)
	}
	return records, nil
}

// compile-time interface check
var _ SalaryRepository = (*PostgresSalaryRepo)(nil)
