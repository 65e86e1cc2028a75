package jwtmw

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieConfig はセッションCookieの属性です。
type CookieConfig struct {
	Name   string
	Secure bool
	// TTL が0の場合はブラウザセッション限りのCookieになります。
	TTL time.Duration
}

// SetSessionCookie はセッショントークンを HttpOnly Cookie として設定します。
func SetSessionCookie(c *gin.Context, cfg CookieConfig, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, token, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
}
