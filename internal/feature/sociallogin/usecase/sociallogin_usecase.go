// Package usecase はソーシャルログインのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	authdomain "flowchart_backend/internal/feature/auth/domain"
	"flowchart_backend/internal/feature/auth/domain/entity"
	"flowchart_backend/internal/feature/sociallogin/domain"
)

// ProfileProvider は外部IDプロバイダーとのやり取りを抽象化します。
type ProfileProvider interface {
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (*domain.Profile, error)
}

// UserRepository はソーシャルログインが必要とするユーザー永続化操作です。
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
}

// TokenGenerator はセッショントークン生成のインターフェースを定義します。
type TokenGenerator interface {
	GenerateToken(userID uuid.UUID, name, email string) (string, error)
}

type socialLoginUsecase struct {
	provider ProfileProvider
	users    UserRepository
	tokens   TokenGenerator
}

// NewSocialLoginUsecase はsocialLoginUsecaseの新しいインスタンスを生成します。
func NewSocialLoginUsecase(provider ProfileProvider, users UserRepository, tokens TokenGenerator) *socialLoginUsecase {
	return &socialLoginUsecase{provider: provider, users: users, tokens: tokens}
}

// AuthCodeURL はプロバイダーの同意画面URLを返します。
func (u *socialLoginUsecase) AuthCodeURL(state string) string {
	return u.provider.AuthCodeURL(state)
}

// Callback は認可コードをプロフィールに交換し、ユーザーを解決してセッショントークンを発行します。
// メールアドレスが未登録の場合はパスワードなしのユーザーを作成します。
func (u *socialLoginUsecase) Callback(ctx context.Context, code string) (*entity.User, string, error) {
	if strings.TrimSpace(code) == "" {
		return nil, "", domain.ErrMissingCode
	}

	profile, err := u.provider.FetchProfile(ctx, code)
	if err != nil {
		return nil, "", err
	}

	user, err := u.resolveUser(ctx, profile)
	if err != nil {
		return nil, "", err
	}

	token, err := u.tokens.GenerateToken(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

func (u *socialLoginUsecase) resolveUser(ctx context.Context, p *domain.Profile) (*entity.User, error) {
	email := authdomain.NormalizeEmail(p.Email)

	user, err := u.users.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, authdomain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user = &entity.User{
		Name:      p.DisplayName(),
		FirstName: p.GivenName,
		LastName:  p.FamilyName,
		Email:     email,
		Avatar:    p.Picture,
	}
	if err := u.users.Create(ctx, user); err != nil {
		// 同時ログインで先に作成された場合は既存ユーザーを使う
		if errors.Is(err, authdomain.ErrUserAlreadyExists) {
			return u.users.FindByEmail(ctx, email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	slog.Info("user provisioned from social login", "user_id", user.ID)
	return user, nil
}
