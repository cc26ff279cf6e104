// Package gate はリクエストパスの分類と、セッション有無によるリダイレクト判定を提供する。
// ロールは見ない。ロール単位の判定はaccessパッケージで各ページが行う。
package gate

import "strings"

// Class はリクエストパスの分類。
type Class int

const (
	// Public は認証状態に関わらず通過する。
	Public Class = iota
	// Protected はセッションが必要。
	Protected
	// AuthOnly はセッションがない場合のみ表示する（ログイン・サインアップ画面）。
	AuthOnly
)

// String はメトリクスラベル用の名前を返す。
func (c Class) String() string {
	switch c {
	case Protected:
		return "protected"
	case AuthOnly:
		return "auth-only"
	case Public:
		return "public"
	}
	return "public"
}

// リダイレクト先
const (
	LoginPath     = "/auth/login"
	DashboardPath = "/dashboard"
)

// Classify はパスを分類する。1つのパスは必ず1つの分類に属する。
func Classify(path string) Class {
	switch {
	case path == "/dashboard" || strings.HasPrefix(path, "/dashboard/"):
		return Protected
	case strings.HasPrefix(path, "/auth/"):
		return AuthOnly
	default:
		return Public
	}
}

// Decision は判定結果。Redirectが空でなければリダイレクトする。
type Decision struct {
	Redirect string
	Reason   string
}

// Allowed は通過させるかを返す。
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Decide は分類とセッション有無から判定する。
// AuthOnlyでセッションがある場合、ロールは再確認せずダッシュボードのルートへ送る。
func Decide(class Class, sessionPresent bool) Decision {
	switch class {
	case Protected:
		if !sessionPresent {
			return Decision{Redirect: LoginPath, Reason: "unauthenticated"}
		}
	case AuthOnly:
		if sessionPresent {
			return Decision{Redirect: DashboardPath, Reason: "already_authenticated"}
		}
	case Public:
	}
	return Decision{}
}
