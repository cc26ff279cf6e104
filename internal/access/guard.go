// Package access は読み取りビューと更新アクションが共通で使うロール検証を提供する。
// ディスパッチャーの判定結果には依存せず、呼び出しのたびに呼び出し元を解決し直す。
package access

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hitoshi/gymdesk/internal/identity"
	"github.com/hitoshi/gymdesk/internal/model"
)

// Reason は拒否理由。
type Reason int

const (
	// Unauthenticated は有効なトークンがない。
	Unauthenticated Reason = iota + 1
	// WrongRole は認証済みだが要求ロールを満たさない、またはロール別プロフィールがない。
	WrongRole
)

// String はログ用の名前を返す。
func (r Reason) String() string {
	switch r {
	case Unauthenticated:
		return "unauthenticated"
	case WrongRole:
		return "wrong_role"
	}
	return "unknown"
}

// Denial はガードが拒否したことを表す。
type Denial struct {
	Reason   Reason
	Required model.Role
}

// Error はerrorインターフェースを実装する。
func (d *Denial) Error() string {
	if d.Required == model.RoleNone {
		return fmt.Sprintf("access denied: %s", d.Reason)
	}
	return fmt.Sprintf("access denied: %s (requires %s)", d.Reason, d.Required)
}

// AsDenial はerrがDenialであればそれを返す。
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// ProfileResolver はトークンからプロフィールを解決するインターフェース。
type ProfileResolver interface {
	Resolve(ctx context.Context, token string) (*model.UserProfile, error)
}

// TrainerFinder はユーザーIDからトレーナープロフィールを取得するインターフェース。
type TrainerFinder interface {
	FindByUserID(ctx context.Context, userID string) (*model.TrainerProfile, error)
}

// ClientFinder はユーザーIDから会員プロフィールを取得するインターフェース。
type ClientFinder interface {
	FindByUserID(ctx context.Context, userID string) (*model.ClientProfile, error)
}

// TrainerScope はトレーナー限定操作の検証結果。
// TrainerIDは所有者条件（trainer_id = TrainerID）に使う。
type TrainerScope struct {
	Profile   *model.UserProfile
	Trainer   *model.TrainerProfile
	TrainerID string
}

// ClientScope は会員限定操作の検証結果。
type ClientScope struct {
	Profile           *model.UserProfile
	Client            *model.ClientProfile
	ClientID          string
	AssignedTrainerID string
}

// Guard はロール検証を行う。
type Guard struct {
	resolver ProfileResolver
	trainers TrainerFinder
	clients  ClientFinder
}

// NewGuard はGuardを生成する。
func NewGuard(resolver ProfileResolver, trainers TrainerFinder, clients ClientFinder) *Guard {
	return &Guard{resolver: resolver, trainers: trainers, clients: clients}
}

// RequireAny はロールを問わず、プロフィールを持つ認証済みユーザーを要求する。
func (g *Guard) RequireAny(r *http.Request) (*model.UserProfile, error) {
	profile, err := g.resolver.Resolve(r.Context(), identity.TokenFromRequest(r))
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &Denial{Reason: Unauthenticated}
	}
	if !profile.HasProfile() {
		return nil, &Denial{Reason: WrongRole}
	}
	return profile, nil
}

// RequireRole は指定ロールの認証済みユーザーを要求する。
func (g *Guard) RequireRole(r *http.Request, role model.Role) (*model.UserProfile, error) {
	profile, err := g.resolver.Resolve(r.Context(), identity.TokenFromRequest(r))
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &Denial{Reason: Unauthenticated, Required: role}
	}
	if profile.Role != role {
		return nil, &Denial{Reason: WrongRole, Required: role}
	}
	return profile, nil
}

// RequireAdmin は管理者を要求する。
func (g *Guard) RequireAdmin(r *http.Request) (*model.UserProfile, error) {
	return g.RequireRole(r, model.RoleAdmin)
}

// RequireTrainer はトレーナーを要求し、呼び出し元のトレーナープロフィールを返す。
// trainers行がない場合（サインアップの部分失敗）はWrongRoleとする。
func (g *Guard) RequireTrainer(r *http.Request) (*TrainerScope, error) {
	profile, err := g.RequireRole(r, model.RoleTrainer)
	if err != nil {
		return nil, err
	}

	trainer, err := g.trainers.FindByUserID(r.Context(), profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find trainer profile: %w", err)
	}
	if trainer == nil {
		return nil, &Denial{Reason: WrongRole, Required: model.RoleTrainer}
	}

	return &TrainerScope{Profile: profile, Trainer: trainer, TrainerID: trainer.ID}, nil
}

// RequireClient は会員を要求し、呼び出し元の会員プロフィールを返す。
func (g *Guard) RequireClient(r *http.Request) (*ClientScope, error) {
	profile, err := g.RequireRole(r, model.RoleClient)
	if err != nil {
		return nil, err
	}

	client, err := g.clients.FindByUserID(r.Context(), profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find client profile: %w", err)
	}
	if client == nil {
		return nil, &Denial{Reason: WrongRole, Required: model.RoleClient}
	}

	scope := &ClientScope{Profile: profile, Client: client, ClientID: client.ID}
	if client.AssignedTrainerID != nil {
		scope.AssignedTrainerID = *client.AssignedTrainerID
	}
	return scope, nil
}
