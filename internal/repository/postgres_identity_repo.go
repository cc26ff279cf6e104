package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gymdesk/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用した認証アカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// Create はアカウントを作成する。
// メールアドレスの一意制約違反はProviderErrorとして返す。
func (r *PostgresAccountRepo) Create(ctx context.Context, account *model.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_accounts (id, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		account.ID, account.Email, account.PasswordHash, account.CreatedAt,
	)
	if err != nil {
		return wrapDBError("failed to create account", err)
	}
	return nil
}

// FindByEmail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	account := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at
		 FROM auth_accounts
		 WHERE email = $1`,
		email,
	).Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	return account, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
