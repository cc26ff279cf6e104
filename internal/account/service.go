// Package account はサインアップ・ログイン・ログアウトのユースケースを提供する。
// 認証プロバイダー（identity）とプロフィールの永続化を組み合わせる。
package account

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/gymdesk/internal/identity"
	"github.com/hitoshi/gymdesk/internal/metrics"
	"github.com/hitoshi/gymdesk/internal/model"
	"github.com/hitoshi/gymdesk/internal/repository"
)

// InitialRetryDelay はロール別プロフィール作成に失敗した行を最初に再試行するまでの待ち時間。
const InitialRetryDelay = 30 * time.Second

// IdentityProvider は認証プロバイダーの操作を定義する。
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*model.Account, error)
	SignIn(ctx context.Context, email, password string) (*identity.Credential, error)
	SignOut(ctx context.Context, token string) error
}

// SignUpInput はサインアップフォームの入力。
type SignUpInput struct {
	Email    string
	Password string
	FullName string
	Role     string
}

// SignInResult はログイン結果。Roleはリダイレクト先の決定に使う。
type SignInResult struct {
	Credential *identity.Credential
	Role       model.Role
}

// Service はアカウント関連のユースケースを提供する。
type Service struct {
	identity  IdentityProvider
	profiles  repository.ProfileRepository
	outbox    repository.OutboxRepository
	collector metrics.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	idp IdentityProvider,
	profiles repository.ProfileRepository,
	outbox repository.OutboxRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		identity:  idp,
		profiles:  profiles,
		outbox:    outbox,
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// SignUp はアカウント、ベースプロフィール、ロール別プロフィールを順に作成する。
//
// ベースプロフィールとアウトボックス行は同一トランザクションで作成する。
// ロール別プロフィールの作成に失敗してもサインアップ自体は成功として扱い、
// ベースプロフィールのみが残る。残ったアウトボックス行はワーカーが再処理する。
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*model.UserProfile, error) {
	role, ok := model.ParseRole(in.Role)
	if !ok {
		return nil, model.NewInvalidRoleError(in.Role)
	}

	account, err := s.identity.SignUp(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	profile := &model.UserProfile{
		ID:       account.ID,
		Email:    account.Email,
		FullName: strings.TrimSpace(in.FullName),
		Role:     role,
	}

	var entry *model.SignupOutboxEntry
	if role != model.RoleAdmin {
		now := s.now()
		entry = &model.SignupOutboxEntry{
			ID:            uuid.New().String(),
			UserID:        account.ID,
			Role:          role,
			Status:        model.OutboxStatusPending,
			NextAttemptAt: now.Add(InitialRetryDelay),
			CreatedAt:     now,
		}
	}

	if err := s.profiles.CreateWithOutbox(ctx, profile, entry); err != nil {
		return nil, err
	}

	if entry == nil {
		return profile, nil
	}

	if err := s.profiles.CreateRoleProfile(ctx, account.ID, role); err != nil {
		s.collector.RecordSignupOrphan()
		s.logger.Warn("role profile creation failed, base profile left without role profile",
			slog.String("user_id", account.ID),
			slog.String("role", role.String()),
			slog.String("outbox_id", entry.ID),
			slog.String("error", err.Error()),
		)
		return profile, nil
	}

	if err := s.outbox.Delete(ctx, entry.ID); err != nil {
		// 行が残ってもワーカーの再処理はON CONFLICTで冪等になる
		s.logger.Warn("failed to delete signup outbox entry",
			slog.String("outbox_id", entry.ID),
			slog.String("error", err.Error()),
		)
	}

	return profile, nil
}

// SignIn は認証情報を検証してアクセストークンを発行し、ロールを先読みする。
// プロフィールの取得に失敗した場合はRoleNoneとして扱う。
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	cred, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	result := &SignInResult{Credential: cred, Role: model.RoleNone}

	profile, err := s.profiles.FindByID(ctx, cred.UserID)
	if err != nil {
		s.logger.Warn("failed to prefetch user role",
			slog.String("user_id", cred.UserID),
			slog.String("error", err.Error()),
		)
		return result, nil
	}
	if profile != nil {
		result.Role = profile.Role
	}
	return result, nil
}

// SignOut はセッションを失効させる。失敗はログに記録するのみで、呼び出し元はCookieを必ず削除する。
func (s *Service) SignOut(ctx context.Context, token string) {
	if err := s.identity.SignOut(ctx, token); err != nil {
		s.logger.Error("sign out error",
			slog.String("error", err.Error()),
		)
	}
}
