package model

import "encoding/json"

// Role はユーザーの権限ロールを表す。
// 文字列比較ではなく閉じた列挙型として扱い、ロールごとの分岐はswitchで網羅する。
type Role int

const (
	// RoleNone はプロフィール未作成、または不明なロール文字列を表す。
	RoleNone Role = iota
	// RoleAdmin はジム管理者。
	RoleAdmin
	// RoleTrainer はトレーナー。
	RoleTrainer
	// RoleClient は会員。
	RoleClient
)

// ParseRole はDBやフォームのロール文字列をRoleに変換する。
// 未知の文字列や空文字列はRoleNoneとfalseを返す。
func ParseRole(s string) (Role, bool) {
	switch s {
	case "admin":
		return RoleAdmin, true
	case "trainer":
		return RoleTrainer, true
	case "client":
		return RoleClient, true
	default:
		return RoleNone, false
	}
}

// String はDBに保存するロール文字列を返す。RoleNoneは空文字列。
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTrainer:
		return "trainer"
	case RoleClient:
		return "client"
	case RoleNone:
		return ""
	default:
		return ""
	}
}

// DashboardPath はロール別ダッシュボードのパスを返す。
// RoleNoneはダッシュボードを持たないためログインページを返す。
func (r Role) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return "/dashboard/admin"
	case RoleTrainer:
		return "/dashboard/trainer"
	case RoleClient:
		return "/dashboard/client"
	case RoleNone:
		return "/auth/login"
	default:
		return "/auth/login"
	}
}

// MarshalJSON はロールを文字列として出力する。RoleNoneはnull。
func (r Role) MarshalJSON() ([]byte, error) {
	if r == RoleNone {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}
