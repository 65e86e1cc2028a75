// Package handler はソーシャルログインのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"flowchart_backend/internal/api"
	"flowchart_backend/internal/feature/auth/domain/entity"
	"flowchart_backend/internal/feature/sociallogin/domain"
	jwtmw "flowchart_backend/internal/platform/jwt"
)

// StateCookieName は CSRF 対策の state を保持する Cookie 名です。
const StateCookieName = "oauth_state"

const stateTTLSeconds = 600

// SocialLoginUsecase はソーシャルログインのユースケースを定義します。
type SocialLoginUsecase interface {
	AuthCodeURL(state string) string
	Callback(ctx context.Context, code string) (*entity.User, string, error)
}

// LinkedInHandler はLinkedInログインのHTTPリクエストを処理します。
type LinkedInHandler struct {
	uc          SocialLoginUsecase
	cookie      jwtmw.CookieConfig
	frontendURL string
}

// NewLinkedInHandler はLinkedInHandlerの新しいインスタンスを生成します。
func NewLinkedInHandler(uc SocialLoginUsecase, cookie jwtmw.CookieConfig, frontendURL string) *LinkedInHandler {
	return &LinkedInHandler{
		uc:          uc,
		cookie:      cookie,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Login はランダムな state を Cookie に保存してプロバイダーへリダイレクトします。
func (h *LinkedInHandler) Login(c *gin.Context) {
	state, err := newState()
	if err != nil {
		api.WriteError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(StateCookieName, state, stateTTLSeconds, "/", "", h.cookie.Secure, true)
	c.Redirect(http.StatusTemporaryRedirect, h.uc.AuthCodeURL(state))
}

// Callback は認可コードを受け取り、セッションを発行してフロントエンドへリダイレクトします。
// - code が無い、または state が一致しない場合は400
// - プロバイダーの失敗は500
func (h *LinkedInHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		api.WriteError(c, domain.ErrMissingCode)
		return
	}

	// Login を経由した場合のみ state を照合する
	if expected, err := c.Cookie(StateCookieName); err == nil {
		c.SetCookie(StateCookieName, "", -1, "/", "", h.cookie.Secure, true)
		if expected == "" || c.Query("state") != expected {
			slog.Warn("oauth state mismatch", "remote_addr", c.ClientIP())
			api.WriteError(c, domain.ErrStateMismatch)
			return
		}
	}

	user, token, err := h.uc.Callback(c.Request.Context(), code)
	if err != nil {
		slog.Error("social login failed", "error", err, "remote_addr", c.ClientIP())
		api.WriteError(c, err)
		return
	}

	jwtmw.SetSessionCookie(c, h.cookie, token)
	slog.Info("social login succeeded", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/dashboard?token="+url.QueryEscape(token))
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
