package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gymdesk/internal/model"
)

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresTrainerRepo はPostgreSQLを使用したトレーナーリポジトリ。
type PostgresTrainerRepo struct {
	db *sql.DB
}

// NewPostgresTrainerRepo はPostgresTrainerRepoを生成する。
func NewPostgresTrainerRepo(db *sql.DB) *PostgresTrainerRepo {
	return &PostgresTrainerRepo{db: db}
}

const trainerColumns = `t.id, t.user_id, u.full_name, u.email, u.phone, t.specialization,
	t.hourly_rate, t.salary, t.is_active, t.created_at`

func scanTrainer(s rowScanner) (*model.TrainerProfile, error) {
	t := &model.TrainerProfile{}
	var phone, specialization sql.NullString
	if err := s.Scan(&t.ID, &t.UserID, &t.FullName, &t.Email, &phone, &specialization,
		&t.HourlyRate, &t.Salary, &t.IsActive, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Phone = phone.String
	t.Specialization = specialization.String
	return t, nil
}

// FindByUserID はユーザーIDでトレーナープロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresTrainerRepo) FindByUserID(ctx context.Context, userID string) (*model.TrainerProfile, error) {
	t, err := scanTrainer(r.db.QueryRowContext(ctx,
		`SELECT `+trainerColumns+`
		 FROM trainers t JOIN users u ON u.id = t.user_id
		 WHERE t.user_id = $1`,
		userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find trainer by user ID: %w", err)
	}
	return t, nil
}

// FindByID はトレーナーIDでプロフィールを連絡先付きで取得する。見つからない場合はnilを返す。
func (r *PostgresTrainerRepo) FindByID(ctx context.Context, id string) (*model.TrainerProfile, error) {
	t, err := scanTrainer(r.db.QueryRowContext(ctx,
		`SELECT `+trainerColumns+`
		 FROM trainers t JOIN users u ON u.id = t.user_id
		 WHERE t.id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find trainer: %w", err)
	}
	return t, nil
}

// List は全トレーナーを連絡先付きで作成日時降順に返す。
func (r *PostgresTrainerRepo) List(ctx context.Context) ([]model.TrainerProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+trainerColumns+`
		 FROM trainers t JOIN users u ON u.id = t.user_id
		 ORDER BY t.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainers: %w", err)
	}
	defer rows.Close()

	trainers := []model.TrainerProfile{}
	for rows.Next() {
		t, err := scanTrainer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trainer: %w", err)
		}
		trainers = append(trainers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trainers: %w", err)
	}
	return trainers, nil
}

// Count はトレーナー数を返す。
func (r *PostgresTrainerRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM trainers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count trainers: %w", err)
	}
	return n, nil
}

// Delete は指定IDのトレーナーを削除する。担当会員のassigned_trainer_idはNULLになる。
func (r *PostgresTrainerRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trainers WHERE id = $1`, id)
	if err != nil {
		return false, wrapDBError("failed to delete trainer", err)
	}
	return rowsAffected("failed to delete trainer", result)
}

// compile-time interface check
var _ TrainerRepository = (*PostgresTrainerRepo)(nil)

// PostgresClientRepo はPostgreSQLを使用した会員リポジトリ。
type PostgresClientRepo struct {
	db *sql.DB
}

// NewPostgresClientRepo はPostgresClientRepoを生成する。
func NewPostgresClientRepo(db *sql.DB) *PostgresClientRepo {
	return &PostgresClientRepo{db: db}
}

const clientColumns = `c.id, c.user_id, u.full_name, u.email, u.phone, c.assigned_trainer_id,
	c.age, c.height, c.weight, c.fitness_goal, c.membership_status, c.join_date`

func scanClient(s rowScanner) (*model.ClientProfile, error) {
	c := &model.ClientProfile{}
	var phone, fitnessGoal sql.NullString
	if err := s.Scan(&c.ID, &c.UserID, &c.FullName, &c.Email, &phone, &c.AssignedTrainerID,
		&c.Age, &c.Height, &c.Weight, &fitnessGoal, &c.MembershipStatus, &c.JoinDate); err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.FitnessGoal = fitnessGoal.String
	return c, nil
}

func (r *PostgresClientRepo) queryClients(ctx context.Context, query string, args ...any) ([]model.ClientProfile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []model.ClientProfile{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return clients, nil
}

// FindByUserID はユーザーIDで会員プロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresClientRepo) FindByUserID(ctx context.Context, userID string) (*model.ClientProfile, error) {
	c, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+`
		 FROM clients c JOIN users u ON u.id = c.user_id
		 WHERE c.user_id = $1`,
		userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find client by user ID: %w", err)
	}
	return c, nil
}

// List は全会員を連絡先付きで入会日降順に返す。
func (r *PostgresClientRepo) List(ctx context.Context) ([]model.ClientProfile, error) {
	return r.queryClients(ctx,
		`SELECT `+clientColumns+`
		 FROM clients c JOIN users u ON u.id = c.user_id
		 ORDER BY c.join_date DESC`,
	)
}

// ListByTrainer は指定トレーナーが担当する会員を返す。
func (r *PostgresClientRepo) ListByTrainer(ctx context.Context, trainerID string) ([]model.ClientProfile, error) {
	return r.queryClients(ctx,
		`SELECT `+clientColumns+`
		 FROM clients c JOIN users u ON u.id = c.user_id
		 WHERE c.assigned_trainer_id = $1
		 ORDER BY c.join_date DESC`,
		trainerID,
	)
}

// Count は会員数を返す。
func (r *PostgresClientRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM clients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count clients: %w", err)
	}
	return n, nil
}

// AssignTrainer は会員の担当トレーナーを設定する。trainerIDが空の場合は担当を外す。
func (r *PostgresClientRepo) AssignTrainer(ctx context.Context, clientID, trainerID string) (bool, error) {
	var trainer any
	if trainerID != "" {
		trainer = trainerID
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE clients SET assigned_trainer_id = $2 WHERE id = $1`,
		clientID, trainer,
	)
	if err != nil {
		return false, wrapDBError("failed to assign trainer", err)
	}
	return rowsAffected("failed to assign trainer", result)
}

// Delete は指定IDの会員を削除する。
func (r *PostgresClientRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return false, wrapDBError("failed to delete client", err)
	}
	return rowsAffected("failed to delete client", result)
}

// compile-time interface check
var _ ClientRepository = (*PostgresClientRepo)(nil)
