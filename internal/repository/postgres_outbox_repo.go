package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gymdesk/internal/model"
)

// PostgresOutboxRepo はPostgreSQLを使用したサインアップアウトボックスリポジトリ。
type PostgresOutboxRepo struct {
	db *sql.DB
}

// NewPostgresOutboxRepo はPostgresOutboxRepoを生成する。
func NewPostgresOutboxRepo(db *sql.DB) *PostgresOutboxRepo {
	return &PostgresOutboxRepo{db: db}
}

// ListDue はnext_attempt_atを過ぎたpending行を古い順に最大limit件取得する。
func (r *PostgresOutboxRepo) ListDue(ctx context.Context, limit int) ([]*model.SignupOutboxEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, role, status, attempts, last_error, next_attempt_at, created_at
		 FROM signup_outbox
		 WHERE status = $1 AND next_attempt_at <= now()
		 ORDER BY next_attempt_at ASC
		 LIMIT $2`,
		model.OutboxStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.SignupOutboxEntry
	for rows.Next() {
		e := &model.SignupOutboxEntry{}
		var role string
		var lastError sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &role, &e.Status, &e.Attempts, &lastError, &e.NextAttemptAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		e.Role, _ = model.ParseRole(role)
		e.LastError = lastError.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox entries: %w", err)
	}

	return entries, nil
}

// Delete は指定IDのアウトボックス行を削除する。
func (r *PostgresOutboxRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM signup_outbox WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete outbox entry: %w", err)
	}
	return nil
}

// RecordFailure は失敗回数、最終エラー、次回試行日時、ステータスを更新する。
func (r *PostgresOutboxRepo) RecordFailure(ctx context.Context, entry *model.SignupOutboxEntry) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE signup_outbox
		 SET attempts = $2, last_error = $3, next_attempt_at = $4, status = $5
		 WHERE id = $1`,
		entry.ID, entry.Attempts, entry.LastError, entry.NextAttemptAt, entry.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to record outbox failure: %w", err)
	}
	return nil
}

// compile-time interface check
var _ OutboxRepository = (*PostgresOutboxRepo)(nil)
