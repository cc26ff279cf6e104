package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/gymdesk/internal/gate"
	"github.com/hitoshi/gymdesk/internal/identity"
	"github.com/hitoshi/gymdesk/internal/metrics"
	"github.com/hitoshi/gymdesk/internal/session"
)

// Authenticator はトークンの検証のみを行うインターフェース。
// session.Resolverが実装する。プロフィールやロールは読まない。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (subjectID string, ok bool, err error)
}

// NewDispatcherMiddleware はパスを分類し、セッション有無に応じてリダイレクトするミドルウェアを返す。
// ページの処理より前に必ず完了し、ロール単位のクエリは発行しない。
// 全リクエストにリクエストスコープのメモを設定するため、後続のガードは同じ解決結果を再利用する。
func NewDispatcherMiddleware(auth Authenticator, collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := session.WithRequestScope(r.Context())
			class := gate.Classify(r.URL.Path)

			if class == gate.Public {
				collector.RecordRouteDecision(class.String(), "pass")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			subject, ok, err := auth.Authenticate(ctx, identity.TokenFromRequest(r))
			if err != nil {
				slog.Error("failed to authenticate request",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if ok {
				ctx = ContextWithUserID(ctx, subject)
				setLoggedUserID(ctx, subject)
			}

			decision := gate.Decide(class, ok)
			if !decision.Allowed() {
				collector.RecordRouteDecision(class.String(), "redirect")
				slog.Info("route_redirect",
					slog.String("path", r.URL.Path),
					slog.String("target", decision.Redirect),
					slog.String("reason", decision.Reason),
				)
				http.Redirect(w, r, decision.Redirect, http.StatusTemporaryRedirect)
				return
			}

			collector.RecordRouteDecision(class.String(), "pass")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
