package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gymdesk/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したユーザープロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByID はid, email, full_name, roleのみを取得する。見つからない場合はnilを返す。
// 未知のロール文字列はRoleNoneとして扱う。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.UserProfile, error) {
	profile := &model.UserProfile{}
	var role sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role FROM users WHERE id = $1`,
		id,
	).Scan(&profile.ID, &profile.Email, &profile.FullName, &role)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user profile: %w", err)
	}

	profile.Role, _ = model.ParseRole(role.String)
	return profile, nil
}

// CreateWithOutbox はベースプロフィールとサインアップアウトボックス行を同一トランザクションで作成する。
func (r *PostgresProfileRepo) CreateWithOutbox(ctx context.Context, profile *model.UserProfile, entry *model.SignupOutboxEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, role)
		 VALUES ($1, $2, $3, $4)`,
		profile.ID, profile.Email, profile.FullName, profile.Role.String(),
	)
	if err != nil {
		return wrapDBError("failed to insert user profile", err)
	}

	if entry != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO signup_outbox (id, user_id, role, status, attempts, next_attempt_at, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			entry.ID, entry.UserID, entry.Role.String(), entry.Status, entry.Attempts, entry.NextAttemptAt, entry.CreatedAt,
		)
		if err != nil {
			return wrapDBError("failed to insert signup outbox entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CreateRoleProfile はロールに対応するtrainers/clients行を作成する。
// user_idの一意制約により、再実行しても重複行は作られない。
func (r *PostgresProfileRepo) CreateRoleProfile(ctx context.Context, userID string, role model.Role) error {
	var query string
	var args []any
	switch role {
	case model.RoleTrainer:
		query = `INSERT INTO trainers (user_id, is_active) VALUES ($1, true)
			 ON CONFLICT (user_id) DO NOTHING`
		args = []any{userID}
	case model.RoleClient:
		query = `INSERT INTO clients (user_id, membership_status) VALUES ($1, $2)
			 ON CONFLICT (user_id) DO NOTHING`
		args = []any{userID, model.MembershipStatusActive}
	case model.RoleAdmin, model.RoleNone:
		return nil
	default:
		return nil
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrapDBError("failed to insert role profile", err)
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
