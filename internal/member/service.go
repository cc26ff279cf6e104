// Package member は管理者による会員・トレーナー管理のユースケースを提供する。
package member

import (
	"context"
	"fmt"

	"github.com/hitoshi/gymdesk/internal/metrics"
	"github.com/hitoshi/gymdesk/internal/model"
	"github.com/hitoshi/gymdesk/internal/repository"
)

// 更新後に無効化する一覧ページ
const (
	MembersPath  = "/dashboard/admin/members"
	TrainersPath = "/dashboard/admin/trainers"

	AdminOverviewPath   = "/dashboard/admin"
	TrainerOverviewPath = "/dashboard/trainer"
	ClientOverviewPath  = "/dashboard/client"
)

// Invalidator はキャッシュ済みページを無効化する。
type Invalidator interface {
	Invalidate(prefixes ...string)
}

// MembersView は会員一覧ページの表示データ。担当トレーナーの選択肢を含む。
type MembersView struct {
	Members  []model.ClientProfile  `json:"members"`
	Trainers []model.TrainerProfile `json:"trainers"`
}

// Service は会員・トレーナー管理のサービス層。
type Service struct {
	clients   repository.ClientRepository
	trainers  repository.TrainerRepository
	cache     Invalidator
	collector metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(
	clients repository.ClientRepository,
	trainers repository.TrainerRepository,
	cache Invalidator,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		clients:   clients,
		trainers:  trainers,
		cache:     cache,
		collector: collector,
	}
}

// AssignTrainer は会員の担当トレーナーを設定する。trainerIDが空の場合は担当を外す。
func (s *Service) AssignTrainer(ctx context.Context, clientID, trainerID string) (err error) {
	defer func() { s.collector.RecordMutation("assign_trainer", metrics.OutcomeOf(err)) }()

	ok, err := s.clients.AssignTrainer(ctx, clientID, trainerID)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewMemberNotFoundError(clientID)
	}
	// トレーナー側の担当人数と会員側の担当トレーナー表示が変わる
	s.cache.Invalidate(MembersPath, TrainerOverviewPath, ClientOverviewPath)
	return nil
}

// DeleteMember は会員を削除する。
func (s *Service) DeleteMember(ctx context.Context, clientID string) (err error) {
	defer func() { s.collector.RecordMutation("delete_member", metrics.OutcomeOf(err)) }()

	ok, err := s.clients.Delete(ctx, clientID)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewMemberNotFoundError(clientID)
	}
	s.cache.Invalidate(MembersPath, AdminOverviewPath, TrainerOverviewPath)
	return nil
}

// DeleteTrainer はトレーナーを削除する。
func (s *Service) DeleteTrainer(ctx context.Context, trainerID string) (err error) {
	defer func() { s.collector.RecordMutation("delete_trainer", metrics.OutcomeOf(err)) }()

	ok, err := s.trainers.Delete(ctx, trainerID)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewTrainerNotFoundError(trainerID)
	}
	// 担当会員の表示も変わるため会員一覧と会員の概要も無効化する
	s.cache.Invalidate(TrainersPath, MembersPath, AdminOverviewPath, TrainerOverviewPath, ClientOverviewPath)
	return nil
}

// ListMembers は会員一覧と担当トレーナーの選択肢を返す。
func (s *Service) ListMembers(ctx context.Context) (*MembersView, error) {
	members, err := s.clients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("会員一覧の取得に失敗しました: %w", err)
	}
	trainers, err := s.trainers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("トレーナー一覧の取得に失敗しました: %w", err)
	}
	return &MembersView{Members: nonNil(members), Trainers: nonNil(trainers)}, nil
}

// ListTrainers はトレーナー一覧を返す。
func (s *Service) ListTrainers(ctx context.Context) ([]model.TrainerProfile, error) {
	trainers, err := s.trainers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("トレーナー一覧の取得に失敗しました: %w", err)
	}
	return nonNil(trainers), nil
}

// ListAssignedClients はトレーナーが担当する会員を返す。
func (s *Service) ListAssignedClients(ctx context.Context, trainerID string) ([]model.ClientProfile, error) {
	clients, err := s.clients.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("担当会員の取得に失敗しました: %w", err)
	}
	return nonNil(clients), nil
}

// nonNil はJSONで空配列として出力されるようにnilスライスを空スライスに変換する。
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
