// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/gymdesk/internal/account"
	"github.com/hitoshi/gymdesk/internal/gate"
	"github.com/hitoshi/gymdesk/internal/identity"
	"github.com/hitoshi/gymdesk/internal/model"
)

// AccountServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	SignUp(ctx context.Context, in account.SignUpInput) (*model.UserProfile, error)
	SignIn(ctx context.Context, email, password string) (*account.SignInResult, error)
	SignOut(ctx context.Context, token string)
}

// AuthHandler はサインアップ・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service AccountServiceInterface
	cookie  identity.CookieConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AccountServiceInterface, cookie identity.CookieConfig) *AuthHandler {
	return &AuthHandler{service: service, cookie: cookie}
}

// LoginPage はログインページを返す。
// GET /auth/login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pageDocument{Page: "login"})
}

// SignupPage はサインアップページを返す。
// GET /auth/signup
func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pageDocument{Page: "signup"})
}

// Signup はアカウントとプロフィールを作成し、ログインページへ遷移させる。
// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	_, err := h.service.SignUp(r.Context(), account.SignUpInput{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		FullName: r.FormValue("full_name"),
		Role:     r.FormValue("role"),
	})
	if err != nil {
		handlePageError(w, r, err)
		return
	}

	http.Redirect(w, r, gate.LoginPath, http.StatusSeeOther)
}

// Login はアクセストークンCookieを設定し、ロール別ダッシュボードへ遷移させる。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SignIn(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		handlePageError(w, r, err)
		return
	}

	identity.SetCookie(w, result.Credential.Token, h.cookie)

	target := gate.DashboardPath
	if result.Role != model.RoleNone {
		target = result.Role.DashboardPath()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Signout はセッションを失効させ、Cookieを削除してログインページへ遷移させる。
// 失効に失敗してもCookieは必ず削除する。
// POST /signout
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	if token := identity.TokenFromRequest(r); token != "" {
		h.service.SignOut(r.Context(), token)
	}
	identity.ClearCookie(w, h.cookie)
	http.Redirect(w, r, gate.LoginPath, http.StatusSeeOther)
}
