package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/gymdesk/internal/account"
	"github.com/hitoshi/gymdesk/internal/identity"
	"github.com/hitoshi/gymdesk/internal/model"
)

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Signup_RedirectsToLogin(t *testing.T) {
	var got account.SignUpInput
	svc := &mockAccountService{
		signUpFn: func(_ context.Context, in account.SignUpInput) (*model.UserProfile, error) {
			got = in
			return &model.UserProfile{ID: "u1", Role: model.RoleClient}, nil
		},
	}
	h := NewAuthHandler(svc, identity.CookieConfig{})

	req := formRequest(http.MethodPost, "/auth/signup", url.Values{
		"email":     {"new@example.com"},
		"password":  {"secret"},
		"full_name": {"New Member"},
		"role":      {"client"},
	})
	w := httptest.NewRecorder()
	h.Signup(w, req)

	assertRedirect(t, w, http.StatusSeeOther, "/auth/login")
	if got.Email != "new@example.com" || got.FullName != "New Member" || got.Role != "client" {
		t.Errorf("SignUp input = %+v", got)
	}
}

func TestAuthHandler_Signup_ProviderErrorPassedThrough(t *testing.T) {
	svc := &mockAccountService{
		signUpFn: func(context.Context, account.SignUpInput) (*model.UserProfile, error) {
			return nil, &model.ProviderError{Message: "User already registered"}
		},
	}
	h := NewAuthHandler(svc, identity.CookieConfig{})

	w := httptest.NewRecorder()
	h.Signup(w, formRequest(http.MethodPost, "/auth/signup", url.Values{"email": {"dup@example.com"}}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	body := decodeMap(t, w)
	if body["message"] != "User already registered" {
		t.Errorf("message = %v, want provider message verbatim", body["message"])
	}
	if body["code"] != model.ErrCodeProviderError {
		t.Errorf("code = %v, want %s", body["code"], model.ErrCodeProviderError)
	}
}

func TestAuthHandler_Signup_InvalidRole_Returns400(t *testing.T) {
	svc := &mockAccountService{
		signUpFn: func(_ context.Context, in account.SignUpInput) (*model.UserProfile, error) {
			return nil, model.NewInvalidRoleError(in.Role)
		},
	}
	h := NewAuthHandler(svc, identity.CookieConfig{})

	w := httptest.NewRecorder()
	h.Signup(w, formRequest(http.MethodPost, "/auth/signup", url.Values{"role": {"owner"}}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthHandler_Login_SetsCookieAndRedirectsByRole(t *testing.T) {
	tests := []struct {
		role model.Role
		want string
	}{
		{model.RoleAdmin, "/dashboard/admin"},
		{model.RoleTrainer, "/dashboard/trainer"},
		{model.RoleClient, "/dashboard/client"},
		{model.RoleNone, "/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			svc := &mockAccountService{
				signInFn: func(context.Context, string, string) (*account.SignInResult, error) {
					return &account.SignInResult{
						Credential: &identity.Credential{Token: "tok-123"},
						Role:       tt.role,
					}, nil
				},
			}
			h := NewAuthHandler(svc, identity.CookieConfig{MaxAge: 60})

			w := httptest.NewRecorder()
			h.Login(w, formRequest(http.MethodPost, "/auth/login", url.Values{
				"email":    {"a@example.com"},
				"password": {"pw"},
			}))

			assertRedirect(t, w, http.StatusSeeOther, tt.want)
			c := findCookie(w, identity.CookieName)
			if c == nil || c.Value != "tok-123" {
				t.Fatalf("access token cookie = %+v", c)
			}
			if !c.HttpOnly {
				t.Error("cookie should be HttpOnly")
			}
		})
	}
}

func TestAuthHandler_Login_InvalidCredentials_Returns401WithoutCookie(t *testing.T) {
	h := NewAuthHandler(&mockAccountService{}, identity.CookieConfig{})

	w := httptest.NewRecorder()
	h.Login(w, formRequest(http.MethodPost, "/auth/login", url.Values{"email": {"x@example.com"}}))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if c := findCookie(w, identity.CookieName); c != nil {
		t.Errorf("unexpected cookie %+v", c)
	}
}

func TestAuthHandler_Signout_RevokesAndClearsCookie(t *testing.T) {
	var revoked string
	svc := &mockAccountService{
		signOutFn: func(_ context.Context, token string) { revoked = token },
	}
	h := NewAuthHandler(svc, identity.CookieConfig{})

	req := asUser(httptest.NewRequest(http.MethodPost, "/signout", nil), "tok-abc")
	w := httptest.NewRecorder()
	h.Signout(w, req)

	assertRedirect(t, w, http.StatusSeeOther, "/auth/login")
	if revoked != "tok-abc" {
		t.Errorf("revoked token = %q, want tok-abc", revoked)
	}
	c := findCookie(w, identity.CookieName)
	if c == nil || c.MaxAge >= 0 {
		t.Errorf("cookie should be cleared, got %+v", c)
	}
}

func TestAuthHandler_Signout_WithoutCookie_StillClears(t *testing.T) {
	called := false
	svc := &mockAccountService{
		signOutFn: func(context.Context, string) { called = true },
	}
	h := NewAuthHandler(svc, identity.CookieConfig{})

	w := httptest.NewRecorder()
	h.Signout(w, httptest.NewRequest(http.MethodPost, "/signout", nil))

	assertRedirect(t, w, http.StatusSeeOther, "/auth/login")
	if called {
		t.Error("SignOut should not be called without a token")
	}
	if findCookie(w, identity.CookieName) == nil {
		t.Error("cookie should be cleared")
	}
}

func TestAuthHandler_Pages(t *testing.T) {
	h := NewAuthHandler(&mockAccountService{}, identity.CookieConfig{})

	w := httptest.NewRecorder()
	h.LoginPage(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	if got := decodeMap(t, w)["page"]; got != "login" {
		t.Errorf("page = %v, want login", got)
	}

	w = httptest.NewRecorder()
	h.SignupPage(w, httptest.NewRequest(http.MethodGet, "/auth/signup", nil))
	if got := decodeMap(t, w)["page"]; got != "signup" {
		t.Errorf("page = %v, want signup", got)
	}
}
