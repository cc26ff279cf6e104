package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/gymdesk/internal/access"
	"github.com/hitoshi/gymdesk/internal/gate"
	"github.com/hitoshi/gymdesk/internal/middleware"
	"github.com/hitoshi/gymdesk/internal/model"
)

// pageDocument はダッシュボードページのレスポンス。画面レイアウトはフロントエンドが担う。
type pageDocument struct {
	Page string             `json:"page"`
	User *model.UserProfile `json:"user,omitempty"`
	Data any                `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// redirectToLogin はロール不一致・未認証時にログインページへリダイレクトする。
// フォーム送信後はGETで遷移させるため303、それ以外は307を使う。
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectAfter(w, r, gate.LoginPath)
}

func redirectAfter(w http.ResponseWriter, r *http.Request, target string) {
	status := http.StatusTemporaryRedirect
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		status = http.StatusSeeOther
	}
	http.Redirect(w, r, target, status)
}

// handlePageError はダッシュボード配下のエラーを処理する。
// アクセス拒否はログインページへのリダイレクト、プロバイダーエラーはメッセージをそのまま返す。
func handlePageError(w http.ResponseWriter, r *http.Request, err error) {
	if denial, ok := access.AsDenial(err); ok {
		slog.Info("access denied",
			slog.String("path", r.URL.Path),
			slog.String("reason", denial.Reason.String()),
		)
		redirectToLogin(w, r)
		return
	}

	var perr *model.ProviderError
	if errors.As(err, &perr) {
		middleware.WriteProviderError(w, perr)
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// handleAPIError は/api配下のエラーを{"error": message}形式で返す。
func handleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	if _, ok := access.AsDenial(err); ok {
		middleware.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var perr *model.ProviderError
	if errors.As(err, &perr) {
		middleware.WriteJSONError(w, http.StatusBadRequest, perr.Message)
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteJSONError(w, mapAPIErrorToHTTPStatus(apiErr), apiErr.Message)
		return
	}

	slog.Error("internal server error",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidRole, model.ErrCodeMessageRequired:
		return http.StatusBadRequest
	case model.ErrCodePlanNotFound, model.ErrCodeMemberNotFound, model.ErrCodeTrainerNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// --- 入力の型変換 ---
// 変換できない数値はNULLとして扱い、そのまま保存する。

func formFloat(r *http.Request, key string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue(key)), 64)
	if err != nil {
		return nil
	}
	return &f
}

func formInt(r *http.Request, key string) *int {
	i, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	if err != nil {
		return nil
	}
	return &i
}

// formOptionalString は空文字列をnilとして返す。
func formOptionalString(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil
	}
	return &v
}

// jsonFloat はJSONの数値または数値文字列を受け付ける。それ以外はNULL。
func jsonFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func jsonInt(v any) *int {
	f := jsonFloat(v)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

func jsonString(v any) string {
	s, _ := v.(string)
	return s
}

func jsonOptionalString(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}
