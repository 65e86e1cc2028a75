package jwtmw

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"flowchart_backend/internal/api"
)

const (
	ContextUserID = "userID"
	ContextClaims = "claims"
)

// AuthRequired returns a Gin middleware that validates the session token
// and restricts access to authenticated users only.
// セッションCookie、次に Authorization: Bearer ヘッダーのトークンを順に検証し、
// Cookie が古い場合でも有効な Bearer トークンがあれば受け付けます。
func AuthRequired(v Verifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifyRequest(v, c, cookieName)
		if err != nil {
			api.WriteError(c, err)
			return
		}

		// Verify で検証済み
		userID, _ := claims.UserID()
		c.Set(ContextUserID, userID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

func verifyRequest(v Verifier, c *gin.Context, cookieName string) (*Claims, error) {
	candidates := tokensFromRequest(c, cookieName)
	if len(candidates) == 0 {
		return v.Verify("")
	}

	var lastErr error
	for _, token := range candidates {
		claims, err := v.Verify(token)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func tokensFromRequest(c *gin.Context, cookieName string) []string {
	var out []string
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			out = append(out, v)
		}
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			out = append(out, token)
		}
	}
	return out
}

// UserID は AuthRequired が設定した認証済みユーザーIDを返します。
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
