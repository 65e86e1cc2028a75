package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"flowchart_backend/internal/api"
	authhandler "flowchart_backend/internal/feature/auth/transport/handler"
	flowcharthandler "flowchart_backend/internal/feature/flowchart/transport/handler"
	socialhandler "flowchart_backend/internal/feature/sociallogin/transport/handler"
	"flowchart_backend/internal/platform/http/handler"
	jwtmw "flowchart_backend/internal/platform/jwt"
)

// Handlers はルーターに登録するハンドラーの集合です。
type Handlers struct {
	Auth      *authhandler.AuthHandler
	LinkedIn  *socialhandler.LinkedInHandler
	FlowChart *flowcharthandler.FlowChartHandler
}

// Options はルーター全体の設定です。
type Options struct {
	AllowedOrigins []string
	CookieName     string
	Verifier       jwtmw.Verifier
}

// NewRouter はミドルウェアと全ルートを登録したエンジンを返します。
func NewRouter(opts Options, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// ブラウザのダッシュボードから Cookie 付きで呼ばれる
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", api.HeaderAIKey},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 認証不要
	// 導通確認用
	r.Match([]string{http.MethodGet, http.MethodHead}, "/healthz", handler.Health)
	// 新規ユーザー登録
	r.POST("/register", h.Auth.Register)
	// ログイン（JWT 発行）
	r.POST("/login", h.Auth.Login)
	// LinkedIn ログイン
	r.GET("/linkedin/login", h.LinkedIn.Login)
	r.GET("/linkedin/callback", h.LinkedIn.Callback)

	// 認証必須のルート
	// → Cookie または Authorization ヘッダーに JWT が必要になる
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(opts.Verifier, opts.CookieName))
	{
		auth.GET("/me", h.Auth.Me)
		auth.POST("/flowchart", h.FlowChart.Create)
		auth.GET("/flowcharts", h.FlowChart.List)
		auth.GET("/flowchart/:id", h.FlowChart.Get)
		auth.PUT("/flowchart/:id", h.FlowChart.Update)
		auth.DELETE("/flowchart/:id", h.FlowChart.Delete)
	}

	return r
}
