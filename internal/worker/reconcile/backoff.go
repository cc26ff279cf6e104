package reconcile

import (
	"time"

	"github.com/hitoshi/gymdesk/internal/model"
)

const (
	// initialBackoff は指数バックオフの初回遅延（30秒）。
	initialBackoff = 30 * time.Second
	// maxBackoff は指数バックオフの最大遅延（1時間）。
	maxBackoff = time.Hour
)

// CalculateBackoff は失敗回数に基づいて指数バックオフ遅延を計算する。
// 初回30秒、2倍ずつ増加、最大1時間。
func CalculateBackoff(failures int) time.Duration {
	delay := initialBackoff
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// ApplyFailure はロール別プロフィール作成の失敗をアウトボックス行に反映する。
// 試行回数がmaxAttemptsに達した行はabandonedとし、以降は再試行しない。
// abandonedになった場合はtrueを返す。
func ApplyFailure(entry *model.SignupOutboxEntry, reason string, now time.Time, maxAttempts int) bool {
	entry.Attempts++
	entry.LastError = reason
	entry.NextAttemptAt = now.Add(CalculateBackoff(entry.Attempts - 1))

	if maxAttempts > 0 && entry.Attempts >= maxAttempts {
		entry.Status = model.OutboxStatusAbandoned
		return true
	}
	entry.Status = model.OutboxStatusPending
	return false
}
