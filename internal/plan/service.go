// Package plan はトレーナーが管理するワークアウトプラン・食事プランのユースケースを提供する。
//
// 更新系は全て呼び出し元トレーナーのIDを所有者条件として渡す。
// 他のトレーナーのプランIDを指定した場合は存在しないプランと同じくPLAN_NOT_FOUNDとなる。
package plan

import (
	"context"
	"fmt"

	"github.com/hitoshi/gymdesk/internal/metrics"
	"github.com/hitoshi/gymdesk/internal/model"
	"github.com/hitoshi/gymdesk/internal/repository"
)

// 更新後に無効化するページ
const (
	WorkoutPlansPath       = "/dashboard/trainer/workout-plans"
	DietPlansPath          = "/dashboard/trainer/diet-plans"
	ClientWorkoutPlansPath = "/dashboard/client/workout-plans"
	ClientDietPlansPath    = "/dashboard/client/diet-plans"

	// 両ロールの概要ページはプラン件数を表示する
	TrainerOverviewPath = "/dashboard/trainer"
	ClientOverviewPath  = "/dashboard/client"
)

// Invalidator はキャッシュ済みページを無効化する。
type Invalidator interface {
	Invalidate(prefixes ...string)
}

// TrainerPlans はトレーナーのプラン管理ページの表示データ。
type TrainerPlans[T any] struct {
	Plans           []T                    `json:"plans"`
	Clients         []model.ClientProfile  `json:"clients"`
	MembershipPlans []model.MembershipPlan `json:"membership_plans,omitempty"`
}

// Service はプラン管理のサービス層。
type Service struct {
	workouts  repository.WorkoutPlanRepository
	diets     repository.DietPlanRepository
	clients   repository.ClientRepository
	cache     Invalidator
	collector metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(
	workouts repository.WorkoutPlanRepository,
	diets repository.DietPlanRepository,
	clients repository.ClientRepository,
	cache Invalidator,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		workouts:  workouts,
		diets:     diets,
		clients:   clients,
		cache:     cache,
		collector: collector,
	}
}

func (s *Service) record(action string, err error) {
	s.collector.RecordMutation(action, metrics.OutcomeOf(err))
}

// --- ワークアウトプラン ---

// CreateWorkoutPlan は呼び出し元トレーナーを所有者としてプランを作成する。
func (s *Service) CreateWorkoutPlan(ctx context.Context, trainerID string, in model.WorkoutPlanInput) (p *model.WorkoutPlan, err error) {
	defer func() { s.record("create_workout_plan", err) }()

	p, err = s.workouts.Create(ctx, trainerID, in)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(WorkoutPlansPath, ClientWorkoutPlansPath, TrainerOverviewPath, ClientOverviewPath)
	return p, nil
}

// UpdateWorkoutPlan はトレーナーが所有するプランを更新する。
func (s *Service) UpdateWorkoutPlan(ctx context.Context, trainerID, planID string, in model.WorkoutPlanInput) (err error) {
	defer func() { s.record("update_workout_plan", err) }()

	ok, err := s.workouts.Update(ctx, trainerID, planID, in)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewPlanNotFoundError(planID)
	}
	s.cache.Invalidate(WorkoutPlansPath, ClientWorkoutPlansPath, TrainerOverviewPath, ClientOverviewPath)
	return nil
}

// DeleteWorkoutPlan はトレーナーが所有するプランを削除する。
func (s *Service) DeleteWorkoutPlan(ctx context.Context, trainerID, planID string) (err error) {
	defer func() { s.record("delete_workout_plan", err) }()

	ok, err := s.workouts.Delete(ctx, trainerID, planID)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewPlanNotFoundError(planID)
	}
	s.cache.Invalidate(WorkoutPlansPath, ClientWorkoutPlansPath, TrainerOverviewPath, ClientOverviewPath)
	return nil
}

// AddExercise はトレーナーが所有するプランに種目を追加する。
func (s *Service) AddExercise(ctx context.Context, trainerID string, ex *model.WorkoutExercise) (err error) {
	defer func() { s.record("add_workout_exercise", err) }()

	ok, err := s.workouts.AddExercise(ctx, trainerID, ex)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewPlanNotFoundError(ex.WorkoutPlanID)
	}
	s.cache.Invalidate(WorkoutPlansPath, ClientWorkoutPlansPath, TrainerOverviewPath, ClientOverviewPath)
	return nil
}

// ListExercises はプランの種目を返す。planIDが空の場合は全種目を返す。
func (s *Service) ListExercises(ctx context.Context, planID string) ([]model.WorkoutExercise, error) {
	exercises, err := s.workouts.ListExercises(ctx, planID)
	if err != nil {
		return nil, err
	}
	return nonNil(exercises), nil
}

// TrainerWorkoutPlans はトレーナーのプラン一覧と担当会員を返す。
func (s *Service) TrainerWorkoutPlans(ctx context.Context, trainerID string) (*TrainerPlans[model.WorkoutPlan], error) {
	plans, err := s.workouts.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウトプランの取得に失敗しました: %w", err)
	}
	clients, err := s.clients.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("担当会員の取得に失敗しました: %w", err)
	}
	return &TrainerPlans[model.WorkoutPlan]{Plans: nonNil(plans), Clients: nonNil(clients)}, nil
}

// ClientWorkoutPlans は会員のプランを種目付きで返す。
func (s *Service) ClientWorkoutPlans(ctx context.Context, clientID string) ([]model.WorkoutPlan, error) {
	plans, err := s.workouts.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウトプランの取得に失敗しました: %w", err)
	}
	return nonNil(plans), nil
}

// --- 食事プラン ---

// CreateDietPlan は呼び出し元トレーナーを所有者として食事プランを作成する。
func (s *Service) CreateDietPlan(ctx context.Context, trainerID string, in model.DietPlanInput) (p *model.DietPlan, err error) {
	defer func() { s.record("create_diet_plan", err) }()

	p, err = s.diets.Create(ctx, trainerID, in)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(DietPlansPath, ClientDietPlansPath, TrainerOverviewPath, ClientOverviewPath)
	return p, nil
}

// UpdateDietPlan はトレーナーが所有する食事プランを更新する。担当会員と会員プランの付け替えも含む。
func (s *Service) UpdateDietPlan(ctx context.Context, trainerID, planID string, in model.DietPlanInput) (err error) {
	defer func() { s.record("update_diet_plan", err) }()

	ok, err := s.diets.Update(ctx, trainerID, planID, in)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewPlanNotFoundError(planID)
	}
	s.cache.Invalidate(DietPlansPath, ClientDietPlansPath, TrainerOverviewPath, ClientOverviewPath)
	return nil
}

// DeleteDietPlan はトレーナーが所有する食事プランを削除する。
func (s *Service) DeleteDietPlan(ctx context.Context, trainerID, planID string) (err error) {
	defer func() { s.record("delete_diet_plan", err) }()

	ok, err := s.diets.Delete(ctx, trainerID, planID)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewPlanNotFoundError(planID)
	}
	s.cache.Invalidate(DietPlansPath, ClientDietPlansPath, TrainerOverviewPath, ClientOverviewPath)
	return nil
}

// AddMeal はトレーナーが所有する食事プランに食事を追加する。
func (s *Service) AddMeal(ctx context.Context, trainerID string, meal *model.DietMeal) (err error) {
	defer func() { s.record("add_diet_meal", err) }()

	ok, err := s.diets.AddMeal(ctx, trainerID, meal)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewPlanNotFoundError(meal.DietPlanID)
	}
	s.cache.Invalidate(DietPlansPath, ClientDietPlansPath, TrainerOverviewPath, ClientOverviewPath)
	return nil
}

// ListMeals は食事プランの食事を返す。planIDが空の場合は全食事を返す。
func (s *Service) ListMeals(ctx context.Context, planID string) ([]model.DietMeal, error) {
	meals, err := s.diets.ListMeals(ctx, planID)
	if err != nil {
		return nil, err
	}
	return nonNil(meals), nil
}

// TrainerDietPlans はトレーナーの食事プラン一覧、担当会員、会員プランを返す。
func (s *Service) TrainerDietPlans(ctx context.Context, trainerID string) (*TrainerPlans[model.DietPlan], error) {
	plans, err := s.diets.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("食事プランの取得に失敗しました: %w", err)
	}
	clients, err := s.clients.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("担当会員の取得に失敗しました: %w", err)
	}
	memberships, err := s.diets.ListMembershipPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("会員プランの取得に失敗しました: %w", err)
	}
	return &TrainerPlans[model.DietPlan]{
		Plans:           nonNil(plans),
		Clients:         nonNil(clients),
		MembershipPlans: nonNil(memberships),
	}, nil
}

// ClientDietPlans は会員の食事プランを食事付きで返す。
func (s *Service) ClientDietPlans(ctx context.Context, clientID string) ([]model.DietPlan, error) {
	plans, err := s.diets.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("食事プランの取得に失敗しました: %w", err)
	}
	return nonNil(plans), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
