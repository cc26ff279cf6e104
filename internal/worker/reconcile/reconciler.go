// Package reconcile はサインアップで作成されなかったロール別プロフィールを
// アウトボックスから再作成するバックグラウンドジョブを提供する。
package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/gymdesk/internal/metrics"
	"github.com/hitoshi/gymdesk/internal/model"
	"github.com/hitoshi/gymdesk/internal/repository"
)

// 再処理結果のメトリクスラベル
const (
	OutcomeReconciled = "reconciled"
	OutcomeRetry      = "retry"
	OutcomeAbandoned  = "abandoned"
	OutcomeError      = "error"
)

// RoleProfileCreator はロール別プロフィールを冪等に作成するインターフェース。
type RoleProfileCreator interface {
	CreateRoleProfile(ctx context.Context, userID string, role model.Role) error
}

// Config はReconcilerの設定。
type Config struct {
	MaxAttempts    int // 試行回数の上限。到達した行はabandonedになる
	BatchSize      int // 1サイクルで処理する最大行数
	MaxConcurrency int
}

// Reconciler はpendingのアウトボックス行を処理する。
// 取得した行ごとにロール別プロフィールの作成を試み、成功すれば行を削除し、
// 失敗すれば指数バックオフで次回試行日時を更新する。
type Reconciler struct {
	outbox    repository.OutboxRepository
	profiles  RoleProfileCreator
	collector metrics.MetricsCollector
	logger    *slog.Logger
	config    Config
	now       func() time.Time
}

// NewReconciler はReconcilerを生成する。
// 0以下の設定値はMaxAttempts=5、BatchSize=100、MaxConcurrency=4に置き換える。
func NewReconciler(
	outbox repository.OutboxRepository,
	profiles RoleProfileCreator,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	config Config,
) *Reconciler {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Reconciler{
		outbox:    outbox,
		profiles:  profiles,
		collector: collector,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Start はinterval間隔でRunOnceを実行する。コンテキストがキャンセルされるまで継続する。
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("outbox reconciler started",
		slog.Duration("interval", interval),
		slog.Int("max_attempts", r.config.MaxAttempts),
	)

	// 起動直後に1回実行
	if err := r.RunOnce(ctx); err != nil {
		r.logger.Error("outbox reconcile cycle failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox reconciler stopped")
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("outbox reconcile cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce は期限の来たアウトボックス行を1回取得し、並列で処理する。
func (r *Reconciler) RunOnce(ctx context.Context) error {
	start := time.Now()

	entries, err := r.outbox.ListDue(ctx, r.config.BatchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	r.logger.Info("outbox reconcile cycle started", slog.Int("entry_count", len(entries)))

	sem := make(chan struct{}, r.config.MaxConcurrency)
	var wg sync.WaitGroup

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}

		go func(e *model.SignupOutboxEntry) {
			defer wg.Done()
			defer func() { <-sem }()

			r.collector.RecordOutboxReconciled(r.reconcile(ctx, e))
		}(entry)
	}

	wg.Wait()

	r.logger.Info("outbox reconcile cycle completed",
		slog.Int("entry_count", len(entries)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// reconcile は1行を処理し、結果のラベルを返す。
func (r *Reconciler) reconcile(ctx context.Context, entry *model.SignupOutboxEntry) string {
	err := r.profiles.CreateRoleProfile(ctx, entry.UserID, entry.Role)
	if err == nil {
		if err := r.outbox.Delete(ctx, entry.ID); err != nil {
			// プロフィールは作成済み。次回の試行はON CONFLICTで何もしない
			r.logger.Error("failed to delete reconciled outbox entry",
				slog.String("entry_id", entry.ID),
				slog.String("error", err.Error()),
			)
			return OutcomeError
		}
		r.logger.Info("role profile reconciled",
			slog.String("user_id", entry.UserID),
			slog.String("role", entry.Role.String()),
			slog.Int("attempts", entry.Attempts+1),
		)
		return OutcomeReconciled
	}

	abandoned := ApplyFailure(entry, err.Error(), r.now(), r.config.MaxAttempts)
	if recErr := r.outbox.RecordFailure(ctx, entry); recErr != nil {
		r.logger.Error("failed to record outbox failure",
			slog.String("entry_id", entry.ID),
			slog.String("error", recErr.Error()),
		)
		return OutcomeError
	}

	if abandoned {
		r.logger.Error("role profile reconcile abandoned",
			slog.String("user_id", entry.UserID),
			slog.String("role", entry.Role.String()),
			slog.Int("attempts", entry.Attempts),
			slog.String("error", err.Error()),
		)
		return OutcomeAbandoned
	}

	r.logger.Warn("role profile reconcile failed, will retry",
		slog.String("user_id", entry.UserID),
		slog.Int("attempts", entry.Attempts),
		slog.Time("next_attempt_at", entry.NextAttemptAt),
		slog.String("error", err.Error()),
	)
	return OutcomeRetry
}
