// Package model はドメインモデルを定義する。
package model

import "time"

// Account は認証プロバイダーが所有するログインアカウントを表す。
// パスワードハッシュはプロバイダー内部でのみ扱い、アプリケーション側には公開しない。
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session は発行済みアクセストークンに対応するサーバー側の失効管理レコード。
// IDはトークンのjtiと一致する。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserProfile はusersテーブルのプロフィール行を表す。
// 認証済みだがプロフィール行が存在しない場合はRoleNoneとなる。
type UserProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// HasProfile はプロフィール行が存在し、有効なロールを持つかを返す。
func (p *UserProfile) HasProfile() bool {
	return p != nil && p.Role != RoleNone
}

// TrainerProfile はtrainersテーブルの行を表す。
// 一覧表示時はusersテーブルのFullName/Email/PhoneをJOINして埋める。
type TrainerProfile struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	FullName       string    `json:"full_name,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Specialization string    `json:"specialization"`
	HourlyRate     *float64  `json:"hourly_rate"`
	Salary         *float64  `json:"salary"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// ClientProfile はclientsテーブルの行（ジム会員）を表す。
type ClientProfile struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	FullName          string    `json:"full_name,omitempty"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	AssignedTrainerID *string   `json:"assigned_trainer_id"`
	Age               *int      `json:"age"`
	Height            *float64  `json:"height"`
	Weight            *float64  `json:"weight"`
	FitnessGoal       string    `json:"fitness_goal"`
	MembershipStatus  string    `json:"membership_status"`
	JoinDate          time.Time `json:"join_date"`
}

// 会員ステータス
const (
	MembershipStatusActive = "active"
)
