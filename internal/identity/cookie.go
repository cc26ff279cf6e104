package identity

import (
	"net/http"
)

// CookieConfig はアクセストークンCookieの属性。
type CookieConfig struct {
	Domain string
	Secure bool
	MaxAge int // 秒
}

// SetCookie はアクセストークンをHTTP Only Cookieとして設定する。
func SetCookie(w http.ResponseWriter, token string, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie はアクセストークンCookieを削除する。
func ClearCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest はリクエストのCookieからアクセストークンを取り出す。
// Cookieがない場合は空文字を返す。
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
