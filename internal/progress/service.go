// Package progress は会員の進捗記録のユースケースを提供する。
package progress

import (
	"context"
	"fmt"

	"github.com/hitoshi/gymdesk/internal/metrics"
	"github.com/hitoshi/gymdesk/internal/model"
	"github.com/hitoshi/gymdesk/internal/repository"
	"github.com/hitoshi/gymdesk/internal/security"
)

// 記録後に無効化するページ
const (
	ProgressPath       = "/dashboard/client/progress"
	ClientOverviewPath = "/dashboard/client"
)

// Invalidator はキャッシュ済みページを無効化する。
type Invalidator interface {
	Invalidate(prefixes ...string)
}

// History は進捗ページの表示データ。Recordsは新しい順、Chartは古い順。
type History struct {
	Records []model.ProgressRecord `json:"records"`
	Chart   []model.ProgressPoint  `json:"chart"`
}

// Service は進捗記録のサービス層。
type Service struct {
	repo      repository.ProgressRepository
	sanitizer security.ContentSanitizer
	cache     Invalidator
	collector metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(
	repo repository.ProgressRepository,
	sanitizer security.ContentSanitizer,
	cache Invalidator,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{repo: repo, sanitizer: sanitizer, cache: cache, collector: collector}
}

// Record は呼び出し元会員の進捗を記録する。メモはタグを除去して保存する。
func (s *Service) Record(ctx context.Context, clientID string, in model.ProgressInput) (err error) {
	defer func() { s.collector.RecordMutation("record_progress", metrics.OutcomeOf(err)) }()

	in.Notes = s.sanitizer.SanitizeText(in.Notes)
	if err := s.repo.Create(ctx, clientID, in); err != nil {
		return err
	}
	// 概要ページの最新体重も変わる
	s.cache.Invalidate(ProgressPath, ClientOverviewPath)
	return nil
}

// History は会員の進捗記録とグラフ系列を返す。
func (s *Service) History(ctx context.Context, clientID string) (*History, error) {
	records, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("進捗記録の取得に失敗しました: %w", err)
	}
	if records == nil {
		records = []model.ProgressRecord{}
	}
	return &History{Records: records, Chart: model.BuildProgressChart(records)}, nil
}
