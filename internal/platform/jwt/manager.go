// Package jwtmw はセッショントークンの発行・検証と、それを用いた認証ミドルウェアを提供します。
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"flowchart_backend/internal/shared/apperr"
)

var (
	ErrMissingToken = apperr.New(apperr.KindAuth, "missing session token")
	ErrInvalidToken = apperr.New(apperr.KindAuth, "invalid session token")
)

// Claims はセッショントークンのペイロードです。sub にはユーザーのUUIDが入ります。
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID は sub クレームをUUIDとして返します。
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Generator defines the interface for session token generation.
type Generator interface {
	GenerateToken(userID uuid.UUID, name, email string) (string, error)
}

// Verifier defines the interface for session token verification.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// Manager issues and verifies HS256 session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var (
	_ Generator = (*Manager)(nil)
	_ Verifier  = (*Manager)(nil)
)

// NewManager は署名鍵と有効期間からManagerを生成します。
// ttl が0以下の場合、exp クレームを付与しません（署名が有効な限り有効）。
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken creates a signed token for the given user.
func (m *Manager) GenerateToken(userID uuid.UUID, name, email string) (string, error) {
	now := m.now()
	claims := Claims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify は署名・アルゴリズム・有効期限を検証し、クレームを返します。
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		// HMAC以外は拒否（alg=none 等）
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, errOrInvalid(err))
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return claims, nil
}

func errOrInvalid(err error) error {
	if err != nil {
		return err
	}
	return errors.New("token is not valid")
}
