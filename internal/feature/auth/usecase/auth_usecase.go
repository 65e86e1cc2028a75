// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"flowchart_backend/internal/feature/auth/domain"
	"flowchart_backend/internal/feature/auth/domain/entity"
	"flowchart_backend/internal/platform/password"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーを永続化します。重複時は domain.ErrUserAlreadyExists を返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail はユーザーが存在しない場合 domain.ErrUserNotFound を返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID はユーザーが存在しない場合 domain.ErrUserNotFound を返します。
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	ExistsByEmailOrPhone(ctx context.Context, email string, phone *string) (bool, error)
}

// TokenGenerator はセッショントークン生成のインターフェースを定義します。
type TokenGenerator interface {
	GenerateToken(userID uuid.UUID, name, email string) (string, error)
}

// RegisterInput は新規登録の入力です。
type RegisterInput struct {
	Name        string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	Email       string
	Phone       *string
	Password    string
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users  UserRepository
	tokens TokenGenerator
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, tokens TokenGenerator) *authUsecase {
	return &authUsecase{users: users, tokens: tokens}
}

// Register はハッシュ化されたパスワードで新規ユーザーを登録します。
// メールアドレスまたは電話番号が既に使われている場合は domain.ErrUserAlreadyExists を返します。
func (u *authUsecase) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	email := domain.NormalizeEmail(in.Email)
	phone := normalizePhone(in.Phone)

	exists, err := u.users.ExistsByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	hashed, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:        in.Name,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		DateOfBirth: in.DateOfBirth,
		Email:       email,
		Phone:       phone,
		Password:    hashed,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login はユーザーを認証し、成功時にユーザーとセッショントークンを返します。
// 未登録のメールアドレスは domain.ErrUserNotFound、パスワード不一致は domain.ErrInvalidPassword です。
func (u *authUsecase) Login(ctx context.Context, email, plaintext string) (*entity.User, string, error) {
	user, err := u.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, "", err
	}

	// ソーシャルログイン専用アカウントはパスワードを持たない
	if !user.HasPassword() || !password.Verify(user.Password, plaintext) {
		return nil, "", domain.ErrInvalidPassword
	}

	token, err := u.tokens.GenerateToken(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// Me は認証済みユーザーのプロフィールを返します。
func (u *authUsecase) Me(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return u.users.FindByID(ctx, id)
}

func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	p := strings.TrimSpace(*phone)
	if p == "" {
		return nil
	}
	return &p
}
