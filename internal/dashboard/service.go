// Package dashboard はロール別ダッシュボードトップの集計を提供する。
// 件数や売上は取得した範囲での単純な集計であり、サーバー側の集計値ではない。
package dashboard

import (
	"context"
	"fmt"

	"github.com/hitoshi/gymdesk/internal/access"
	"github.com/hitoshi/gymdesk/internal/model"
	"github.com/hitoshi/gymdesk/internal/repository"
)

// RevenueSource は直近の売上合計を返す。
type RevenueSource interface {
	RecentRevenue(ctx context.Context) (float64, error)
}

// AdminOverview は管理者トップの表示データ。
type AdminOverview struct {
	MembersCount  int     `json:"members_count"`
	TrainersCount int     `json:"trainers_count"`
	RecentRevenue float64 `json:"recent_revenue"`
}

// TrainerOverview はトレーナートップの表示データ。
type TrainerOverview struct {
	Trainer           *model.TrainerProfile `json:"trainer"`
	ClientsCount      int                   `json:"clients_count"`
	WorkoutPlansCount int                   `json:"workout_plans_count"`
	DietPlansCount    int                   `json:"diet_plans_count"`
	HourlyRate        *float64              `json:"hourly_rate"`
}

// TrainerContact は会員トップに表示する担当トレーナーの連絡先。
type TrainerContact struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// ClientOverview は会員トップの表示データ。
type ClientOverview struct {
	Client            *model.ClientProfile  `json:"client"`
	LatestProgress    *model.ProgressRecord `json:"latest_progress"`
	WorkoutPlansCount int                   `json:"workout_plans_count"`
	DietPlansCount    int                   `json:"diet_plans_count"`
	Trainer           *TrainerContact       `json:"trainer"`
	MembershipStatus  string                `json:"membership_status"`
}

// Service はダッシュボード集計のサービス層。
type Service struct {
	clients  repository.ClientRepository
	trainers repository.TrainerRepository
	workouts repository.WorkoutPlanRepository
	diets    repository.DietPlanRepository
	progress repository.ProgressRepository
	revenue  RevenueSource
}

// NewService はServiceを生成する。
func NewService(
	clients repository.ClientRepository,
	trainers repository.TrainerRepository,
	workouts repository.WorkoutPlanRepository,
	diets repository.DietPlanRepository,
	progress repository.ProgressRepository,
	revenue RevenueSource,
) *Service {
	return &Service{
		clients:  clients,
		trainers: trainers,
		workouts: workouts,
		diets:    diets,
		progress: progress,
		revenue:  revenue,
	}
}

// Admin は会員数、トレーナー数、直近の売上を返す。
func (s *Service) Admin(ctx context.Context) (*AdminOverview, error) {
	members, err := s.clients.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("会員数の取得に失敗しました: %w", err)
	}
	trainers, err := s.trainers.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("トレーナー数の取得に失敗しました: %w", err)
	}
	revenue, err := s.revenue.RecentRevenue(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminOverview{MembersCount: members, TrainersCount: trainers, RecentRevenue: revenue}, nil
}

// Trainer は担当会員数とプラン数を返す。
func (s *Service) Trainer(ctx context.Context, scope *access.TrainerScope) (*TrainerOverview, error) {
	clients, err := s.clients.ListByTrainer(ctx, scope.TrainerID)
	if err != nil {
		return nil, fmt.Errorf("担当会員の取得に失敗しました: %w", err)
	}
	workouts, err := s.workouts.CountByTrainer(ctx, scope.TrainerID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウトプラン数の取得に失敗しました: %w", err)
	}
	diets, err := s.diets.CountByTrainer(ctx, scope.TrainerID)
	if err != nil {
		return nil, fmt.Errorf("食事プラン数の取得に失敗しました: %w", err)
	}
	return &TrainerOverview{
		Trainer:           scope.Trainer,
		ClientsCount:      len(clients),
		WorkoutPlansCount: workouts,
		DietPlansCount:    diets,
		HourlyRate:        scope.Trainer.HourlyRate,
	}, nil
}

// Client は最新の進捗、プラン数、担当トレーナーの連絡先を返す。
func (s *Service) Client(ctx context.Context, scope *access.ClientScope) (*ClientOverview, error) {
	overview := &ClientOverview{
		Client:           scope.Client,
		MembershipStatus: scope.Client.MembershipStatus,
	}

	if scope.AssignedTrainerID != "" {
		trainer, err := s.trainers.FindByID(ctx, scope.AssignedTrainerID)
		if err != nil {
			return nil, fmt.Errorf("担当トレーナーの取得に失敗しました: %w", err)
		}
		if trainer != nil {
			overview.Trainer = &TrainerContact{FullName: trainer.FullName, Email: trainer.Email, Phone: trainer.Phone}
		}
	}

	var err error
	if overview.WorkoutPlansCount, err = s.workouts.CountByClient(ctx, scope.ClientID); err != nil {
		return nil, fmt.Errorf("ワークアウトプラン数の取得に失敗しました: %w", err)
	}
	if overview.DietPlansCount, err = s.diets.CountByClient(ctx, scope.ClientID); err != nil {
		return nil, fmt.Errorf("食事プラン数の取得に失敗しました: %w", err)
	}
	if overview.LatestProgress, err = s.progress.Latest(ctx, scope.ClientID); err != nil {
		return nil, fmt.Errorf("最新の進捗の取得に失敗しました: %w", err)
	}
	return overview, nil
}
