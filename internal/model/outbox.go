package model

import "time"

// サインアップ補償アウトボックスのステータス
const (
	OutboxStatusPending   = "pending"
	OutboxStatusAbandoned = "abandoned"
)

// SignupOutboxEntry はロール別プロフィール（trainers/clients）の作成待ちを表す。
// ベースプロフィールと同一トランザクションで作成され、ロール別プロフィールの
// 作成に成功した時点で削除される。残っている行は孤立したベースプロフィールを意味する。
type SignupOutboxEntry struct {
	ID            string
	UserID        string
	Role          Role
	Status        string
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
	CreatedAt     time.Time
}
