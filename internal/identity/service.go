// Package identity はログインアカウント、アクセストークン、セッション失効管理を提供する。
// 外部の認証サービスに相当し、アプリケーションの他の部分とはValidateCredentialでのみ接する。
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/gymdesk/internal/model"
	"github.com/hitoshi/gymdesk/internal/repository"
)

// CookieName はアクセストークンを格納するCookie名。
const CookieName = "gym_access_token"

// 一意制約違反のSQLSTATE
const uniqueViolation = "23505"

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	Secret        []byte
	SessionMaxAge int // トークン・セッションの有効期間（秒）
}

// Credential はサインイン時に発行されるアクセストークンを表す。
type Credential struct {
	Token     string
	SessionID string
	UserID    string
	ExpiresAt time.Time
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	config   ServiceConfig
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		accounts: accounts,
		sessions: sessions,
		config:   config,
		now:      time.Now,
	}
}

// SignUp はアカウントを作成する。
// メールアドレスが登録済みの場合は"User already registered"のProviderErrorを返す。
func (s *Service) SignUp(ctx context.Context, email, password string) (*model.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, &model.ProviderError{Message: "Password should be at most 72 bytes"}
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		var perr *model.ProviderError
		if errors.As(err, &perr) && perr.Code == uniqueViolation {
			return nil, &model.ProviderError{Code: perr.Code, Message: "User already registered"}
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("account created", slog.String("user_id", account.ID))
	return account, nil
}

// SignIn はメールアドレスとパスワードを検証し、アクセストークンを発行する。
// 不一致の場合はメールアドレスとパスワードを区別せずINVALID_CREDENTIALSを返す。
func (s *Service) SignIn(ctx context.Context, email, password string) (*Credential, error) {
	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	now := s.now()
	session := &model.Session{
		ID:        uuid.New().String(),
		UserID:    account.ID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	token, err := s.issueToken(session)
	if err != nil {
		return nil, err
	}

	slog.Info("user signed in", slog.String("user_id", account.ID))
	return &Credential{
		Token:     token,
		SessionID: session.ID,
		UserID:    account.ID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// ValidateCredential はアクセストークンを検証し、サブジェクト（ユーザーID）を返す。
// 署名・期限・失効のいずれかで無効な場合はok=falseを返し、エラーにはしない。
// セッションストアへの問い合わせ失敗のみエラーとして返す。
func (s *Service) ValidateCredential(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}

	claims, err := s.parseToken(token)
	if err != nil {
		return "", false, nil
	}

	session, err := s.sessions.FindByID(ctx, claims.ID)
	if err != nil {
		return "", false, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || session.UserID != claims.Subject {
		return "", false, nil
	}

	return claims.Subject, true, nil
}

// SignOut はトークンに対応するセッションを削除して失効させる。
// 検証できないトークンは既に無効なので何もしない。
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}

	if err := s.sessions.DeleteByID(ctx, claims.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user signed out", slog.String("user_id", claims.Subject))
	return nil
}

func (s *Service) issueToken(session *model.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   session.UserID,
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// parseToken はHS256で署名されたトークンのみ受け付ける。
func (s *Service) parseToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
