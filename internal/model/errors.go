package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, gym, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidRole        = "INVALID_ROLE"
	ErrCodePlanNotFound       = "PLAN_NOT_FOUND"
	ErrCodeMemberNotFound     = "MEMBER_NOT_FOUND"
	ErrCodeTrainerNotFound    = "TRAINER_NOT_FOUND"
	ErrCodeMessageRequired    = "MESSAGE_REQUIRED"
	ErrCodeChatNotConfigured  = "CHAT_NOT_CONFIGURED"
	ErrCodeProviderError      = "PROVIDER_ERROR"
)

// ProviderError は永続化プロバイダー（PostgreSQL）が報告したエラーを表す。
// メッセージは加工せずそのまま呼び出し元に返す。
type ProviderError struct {
	Code    string // SQLSTATE
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *ProviderError) Error() string {
	return e.Message
}

// NewUnauthorizedError は未認証・ロール不一致エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError はメールアドレスまたはパスワードの不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid login credentials",
		Category: "auth",
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewInvalidRoleError はサインアップ時の不正なロール指定エラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "ロールには admin、trainer、client のいずれかを指定してください。",
	}
}

// NewPlanNotFoundError はプランが存在しないか、呼び出し元のトレーナーが所有していない場合のエラーを生成する。
func NewPlanNotFoundError(planID string) *APIError {
	return &APIError{
		Code:     ErrCodePlanNotFound,
		Message:  fmt.Sprintf("指定されたプランが見つかりません: %s", planID),
		Category: "gym",
		Action:   "プランIDを確認してください。",
	}
}

// NewMemberNotFoundError は会員が見つからない場合のエラーを生成する。
func NewMemberNotFoundError(memberID string) *APIError {
	return &APIError{
		Code:     ErrCodeMemberNotFound,
		Message:  fmt.Sprintf("指定された会員が見つかりません: %s", memberID),
		Category: "gym",
		Action:   "会員IDを確認してください。",
	}
}

// NewTrainerNotFoundError はトレーナーが見つからない場合のエラーを生成する。
func NewTrainerNotFoundError(trainerID string) *APIError {
	return &APIError{
		Code:     ErrCodeTrainerNotFound,
		Message:  fmt.Sprintf("指定されたトレーナーが見つかりません: %s", trainerID),
		Category: "gym",
		Action:   "トレーナーIDを確認してください。",
	}
}

// NewMessageRequiredError はチャットボットへのメッセージが空の場合のエラーを生成する。
func NewMessageRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeMessageRequired,
		Message:  "Message is required",
		Category: "validation",
		Action:   "メッセージを入力してください。",
	}
}

// NewChatNotConfiguredError はチャットAPIキー未設定エラーを生成する。
func NewChatNotConfiguredError() *APIError {
	return &APIError{
		Code:     ErrCodeChatNotConfigured,
		Message:  "Gemini API key not configured",
		Category: "system",
		Action:   "管理者に連絡してください。",
	}
}

// IsNotFound は対象行が存在しない（または所有者条件に一致しない）ことを表すエラーかを返す。
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case ErrCodePlanNotFound, ErrCodeMemberNotFound, ErrCodeTrainerNotFound:
		return true
	}
	return false
}
