// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"flowchart_backend/internal/api"
	"flowchart_backend/internal/feature/auth/domain/entity"
	"flowchart_backend/internal/feature/auth/usecase"
	jwtmw "flowchart_backend/internal/platform/jwt"
	"flowchart_backend/internal/shared/apperr"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	Me(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth   AuthUsecase
	cookie jwtmw.CookieConfig
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase, cookie jwtmw.CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

var errInvalidRequest = apperr.New(apperr.KindClient, "invalid request")

// Register はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー・重複時は400
// - 成功時は201とユーザー情報
func (h *AuthHandler) Register(c *gin.Context) {
	var req api.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		api.WriteError(c, apperr.Wrap(apperr.KindClient, "invalid request", err))
		return
	}

	in := usecase.RegisterInput{
		Name:      req.Name,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     string(req.Email),
		Phone:     req.Phone,
		Password:  req.Password,
	}
	if req.DateOfBirth != nil {
		dob := req.DateOfBirth.Time
		in.DateOfBirth = &dob
	}

	user, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		slog.Warn("register failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		api.WriteError(c, err)
		return
	}
	slog.Info("user registered", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, api.OK("user registered", toUserResponse(user)))
}

// Login はユーザーログインAPIエンドポイントを処理します。
// トークンはレスポンスボディとセッションCookieの両方で返します。
func (h *AuthHandler) Login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		api.WriteError(c, errInvalidRequest)
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), string(req.Email), req.Password)
	if err != nil {
		slog.Warn("login failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		api.WriteError(c, err)
		return
	}

	jwtmw.SetSessionCookie(c, h.cookie, token)
	slog.Info("user login successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.OK("login successful", api.LoginResponse{
		User:  toUserResponse(user),
		Token: token,
	}))
}

// Me は認証済みユーザーのプロフィールを返します。
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		api.WriteError(c, jwtmw.ErrMissingToken)
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK("user profile", toUserResponse(user)))
}

func toUserResponse(u *entity.User) api.UserResponse {
	resp := api.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     openapi_types.Email(u.Email),
		Phone:     u.Phone,
		Avatar:    u.Avatar,
	}
	if u.DateOfBirth != nil {
		resp.DateOfBirth = &openapi_types.Date{Time: u.DateOfBirth.In(time.UTC)}
	}
	return resp
}
