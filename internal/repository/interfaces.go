// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/gymdesk/internal/model"
)

// AccountRepository は認証プロバイダーのログインアカウントの永続化インターフェース。
type AccountRepository interface {
	// Create はアカウントを作成する。メールアドレスが重複している場合はProviderErrorを返す。
	Create(ctx context.Context, account *model.Account) error

	// FindByEmail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
}

// SessionRepository はアクセストークンに対応するセッションの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// ProfileRepository はusersテーブル（ベースプロフィール）とロール別プロフィールの永続化インターフェース。
type ProfileRepository interface {
	// FindByID はid, email, full_name, roleのみを取得する。行が存在しない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.UserProfile, error)

	// CreateWithOutbox はベースプロフィールとサインアップアウトボックス行を同一トランザクションで作成する。
	// entryがnilの場合（ロール別プロフィールが不要なadmin）はプロフィールのみ作成する。
	CreateWithOutbox(ctx context.Context, profile *model.UserProfile, entry *model.SignupOutboxEntry) error

	// CreateRoleProfile はロールに対応するtrainers/clients行を作成する。
	// 既に存在する場合は何もしない。adminは何もしない。
	CreateRoleProfile(ctx context.Context, userID string, role model.Role) error
}

// OutboxRepository はサインアップアウトボックスの永続化インターフェース。
type OutboxRepository interface {
	// ListDue はnext_attempt_atを過ぎたpending行を古い順に最大limit件取得する。
	ListDue(ctx context.Context, limit int) ([]*model.SignupOutboxEntry, error)

	// Delete は指定IDのアウトボックス行を削除する。
	Delete(ctx context.Context, id string) error

	// RecordFailure は失敗回数、最終エラー、次回試行日時、ステータスを更新する。
	RecordFailure(ctx context.Context, entry *model.SignupOutboxEntry) error
}

// TrainerRepository はトレーナーの永続化インターフェース。
type TrainerRepository interface {
	// FindByUserID はユーザーIDでトレーナープロフィールを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.TrainerProfile, error)

	// FindByID はトレーナーIDでプロフィールを連絡先付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.TrainerProfile, error)

	// List は全トレーナーを連絡先付きで作成日時降順に返す。
	List(ctx context.Context) ([]model.TrainerProfile, error)

	// Count はトレーナー数を返す。
	Count(ctx context.Context) (int, error)

	// Delete は指定IDのトレーナーを削除する。対象行が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// ClientRepository は会員の永続化インターフェース。
type ClientRepository interface {
	// FindByUserID はユーザーIDで会員プロフィールを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.ClientProfile, error)

	// List は全会員を連絡先付きで入会日降順に返す。
	List(ctx context.Context) ([]model.ClientProfile, error)

	// ListByTrainer は指定トレーナーが担当する会員を返す。
	ListByTrainer(ctx context.Context, trainerID string) ([]model.ClientProfile, error)

	// Count は会員数を返す。
	Count(ctx context.Context) (int, error)

	// AssignTrainer は会員の担当トレーナーを設定する。trainerIDが空の場合は担当を外す。
	// 対象行が存在しない場合はfalseを返す。
	AssignTrainer(ctx context.Context, clientID, trainerID string) (bool, error)

	// Delete は指定IDの会員を削除する。対象行が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// WorkoutPlanRepository はワークアウトプランと種目の永続化インターフェース。
// 更新系は全てtrainer_idによる所有者条件付きで実行する。
type WorkoutPlanRepository interface {
	ListByTrainer(ctx context.Context, trainerID string) ([]model.WorkoutPlan, error)
	// ListByClient は会員のプランを種目付きで返す。
	ListByClient(ctx context.Context, clientID string) ([]model.WorkoutPlan, error)
	CountByTrainer(ctx context.Context, trainerID string) (int, error)
	CountByClient(ctx context.Context, clientID string) (int, error)

	Create(ctx context.Context, trainerID string, in model.WorkoutPlanInput) (*model.WorkoutPlan, error)
	// Update はid一致かつtrainer_id一致の行のみ更新する。一致しない場合はfalseを返す。
	Update(ctx context.Context, trainerID, planID string, in model.WorkoutPlanInput) (bool, error)
	// Delete はid一致かつtrainer_id一致の行のみ削除する。一致しない場合はfalseを返す。
	Delete(ctx context.Context, trainerID, planID string) (bool, error)

	// AddExercise はプランがtrainerIDの所有である場合のみ種目を追加する。所有していない場合はfalseを返す。
	AddExercise(ctx context.Context, trainerID string, exercise *model.WorkoutExercise) (bool, error)
	// ListExercises はプランの種目を曜日順に返す。planIDが空の場合は全種目を返す。
	ListExercises(ctx context.Context, planID string) ([]model.WorkoutExercise, error)
}

// DietPlanRepository は食事プランと食事の永続化インターフェース。
type DietPlanRepository interface {
	ListByTrainer(ctx context.Context, trainerID string) ([]model.DietPlan, error)
	// ListByClient は会員のプランを食事付きで返す。
	ListByClient(ctx context.Context, clientID string) ([]model.DietPlan, error)
	CountByTrainer(ctx context.Context, trainerID string) (int, error)
	CountByClient(ctx context.Context, clientID string) (int, error)

	Create(ctx context.Context, trainerID string, in model.DietPlanInput) (*model.DietPlan, error)
	Update(ctx context.Context, trainerID, planID string, in model.DietPlanInput) (bool, error)
	Delete(ctx context.Context, trainerID, planID string) (bool, error)

	AddMeal(ctx context.Context, trainerID string, meal *model.DietMeal) (bool, error)
	// ListMeals はプランの食事を食事区分順に返す。planIDが空の場合は全食事を返す。
	ListMeals(ctx context.Context, planID string) ([]model.DietMeal, error)

	// ListMembershipPlans は食事プランに紐付け可能な会員プランを返す。
	ListMembershipPlans(ctx context.Context) ([]model.MembershipPlan, error)
}

// PaymentRepository は支払い記録の永続化インターフェース。
type PaymentRepository interface {
	// Create はstatus=completedで支払いを登録する。
	Create(ctx context.Context, in model.PaymentInput) error
	// List は支払いを会員の氏名・メール付きでpaid_at降順に返す。clientIDが空でなければ絞り込む。
	List(ctx context.Context, clientID string) ([]model.Payment, error)
	// ListRecent は直近limit件の支払いを返す。
	ListRecent(ctx context.Context, limit int) ([]model.Payment, error)
}

// SalaryRepository はトレーナー給与記録の永続化インターフェース。
type SalaryRepository interface {
	// Create はstatus=pendingで給与記録を登録する。
	Create(ctx context.Context, in model.SalaryInput) error
	// List は給与記録をcreated_at降順に返す。trainerIDが空でなければ絞り込む。
	List(ctx context.Context, trainerID string) ([]model.SalaryRecord, error)
}

// ProgressRepository は会員の進捗記録の永続化インターフェース。
type ProgressRepository interface {
	Create(ctx context.Context, clientID string, in model.ProgressInput) error
	// ListByClient は記録日時降順で返す。
	ListByClient(ctx context.Context, clientID string) ([]model.ProgressRecord, error)
	// Latest は最新の記録を返す。記録がない場合はnilを返す。
	Latest(ctx context.Context, clientID string) (*model.ProgressRecord, error)
}
