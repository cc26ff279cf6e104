// Package session はリクエストのアクセストークンから呼び出し元のプロフィールを解決する。
package session

import (
	"context"
	"fmt"

	"github.com/hitoshi/gymdesk/internal/model"
)

// CredentialValidator はアクセストークンを検証するインターフェース。
// identity.Serviceが実装する。
type CredentialValidator interface {
	ValidateCredential(ctx context.Context, token string) (subjectID string, ok bool, err error)
}

// ProfileFinder はプロフィールの取得に必要なインターフェース。
// repository.ProfileRepositoryの部分集合として定義する。
type ProfileFinder interface {
	FindByID(ctx context.Context, id string) (*model.UserProfile, error)
}

// Resolver はトークンの検証とプロフィールの取得を行う。
type Resolver struct {
	validator CredentialValidator
	profiles  ProfileFinder
}

// NewResolver はResolverを生成する。
func NewResolver(validator CredentialValidator, profiles ProfileFinder) *Resolver {
	return &Resolver{validator: validator, profiles: profiles}
}

// Authenticate はトークンを検証し、サブジェクトIDを返す。プロフィールは読まない。
// トークンがない・無効な場合は("", false, nil)を返す。
func (r *Resolver) Authenticate(ctx context.Context, token string) (string, bool, error) {
	m := memoFrom(ctx)
	if m != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		if e, ok := m.auth[token]; ok {
			return e.subject, e.ok, nil
		}
	}

	if token == "" {
		return "", false, nil
	}
	subject, ok, err := r.validator.ValidateCredential(ctx, token)
	if err != nil {
		return "", false, fmt.Errorf("failed to validate credential: %w", err)
	}

	if m != nil {
		m.auth[token] = authEntry{subject: subject, ok: ok}
	}
	return subject, ok, nil
}

// Resolve はトークンを検証し、id, email, full_name, roleのみのプロフィールを返す。
// 未認証の場合はnilを返す。認証済みでプロフィール行がない場合はRoleNoneのプロフィールを返す。
func (r *Resolver) Resolve(ctx context.Context, token string) (*model.UserProfile, error) {
	subject, ok, err := r.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	m := memoFrom(ctx)
	if m != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		if p, ok := m.profiles[subject]; ok {
			return p, nil
		}
	}

	profile, err := r.profiles.FindByID(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		profile = &model.UserProfile{ID: subject, Role: model.RoleNone}
	}

	if m != nil {
		m.profiles[subject] = profile
	}
	return profile, nil
}
