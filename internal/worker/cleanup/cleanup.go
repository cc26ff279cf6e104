// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// 失効済みトークンの検証はセッション行の有無で行うため、
// 期限を過ぎた行は検証に影響せず、削除は容量の回収だけを目的とする。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredSessionDeleter は期限切れセッションを削除するインターフェース。
// repository.SessionRepositoryが実装する。
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionCleanupJob は期限切れセッションの削除ジョブ。
// 冪等であり、削除対象がない場合でもエラーにならない。
type SessionCleanupJob struct {
	sessions ExpiredSessionDeleter
	logger   *slog.Logger
}

// NewSessionCleanupJob は新しいSessionCleanupJobを生成する。
func NewSessionCleanupJob(sessions ExpiredSessionDeleter, logger *slog.Logger) *SessionCleanupJob {
	return &SessionCleanupJob{sessions: sessions, logger: logger}
}

// Run は期限切れセッションを削除する。
func (j *SessionCleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("session cleanup failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("session cleanup: %w", err)
	}

	j.logger.Info("session cleanup completed",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start はinterval間隔でRunを実行する。コンテキストがキャンセルされるまで継続する。
// 個々の実行の失敗はログに残して次の周期を待つ。
func (j *SessionCleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("session cleanup started", slog.Duration("interval", interval))
	j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("session cleanup stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}
