package session

import (
	"context"
	"sync"

	"github.com/hitoshi/gymdesk/internal/model"
)

type scopeKey struct{}

type authEntry struct {
	subject string
	ok      bool
}

// memo は1リクエスト内の解決結果を保持する。リクエストをまたいで共有しない。
type memo struct {
	mu       sync.Mutex
	auth     map[string]authEntry
	profiles map[string]*model.UserProfile
}

// WithRequestScope はリクエストスコープのメモをコンテキストに設定する。
// 同じコンテキストで繰り返し解決しても、トークン検証とプロフィール取得は1回で済む。
// 既に設定済みの場合はそのまま返す。
func WithRequestScope(ctx context.Context) context.Context {
	if memoFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, &memo{
		auth:     map[string]authEntry{},
		profiles: map[string]*model.UserProfile{},
	})
}

func memoFrom(ctx context.Context) *memo {
	m, _ := ctx.Value(scopeKey{}).(*memo)
	return m
}
