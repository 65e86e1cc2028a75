// Package api はHTTPエンドポイントのリクエスト・レスポンス型を定義します。
package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"flowchart_backend/internal/shared/apperr"
)

// HeaderAIKey は外部AIサービスの認証情報を運ぶリクエストヘッダーです。
const HeaderAIKey = "X-Api-Key"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// DataResponse defines model for DataResponse.
type DataResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK は成功レスポンスの封筒を生成します。
func OK(message string, data any) DataResponse {
	return DataResponse{Status: StatusSuccess, Message: message, Data: data}
}

// WriteError はエラーを分類に応じたHTTPステータスとJSONで書き込み、処理を中断します。
// 外部サービスのエラーはそのメッセージを error フィールドに含めます。
func WriteError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	resp := ErrorResponse{
		Status:  StatusError,
		Message: apperr.Message(err),
	}

	var ae *apperr.Error
	switch {
	case errors.As(err, &ae) && ae.Kind == apperr.KindUpstream:
		resp.Error = err.Error()
	case errors.As(err, &ae):
		resp.Error = ae.Message
	default:
		resp.Error = "internal server error"
	}

	if status >= 500 {
		slog.Error("request failed",
			"path", c.FullPath(),
			"kind", apperr.KindOf(err).String(),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(status, resp)
}

// RegisterRequest defines model for RegisterRequest.
type RegisterRequest struct {
	Name        string              `json:"name"`
	FirstName   string              `json:"firstName"`
	LastName    string              `json:"lastName"`
	DateOfBirth *openapi_types.Date `json:"dateOfBirth,omitempty"`
	Email       openapi_types.Email `json:"email" binding:"required"`
	Phone       *string             `json:"phone,omitempty"`
	Password    string              `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest defines model for LoginRequest.
type LoginRequest struct {
	Email    openapi_types.Email `json:"email" binding:"required"`
	Password string              `json:"password" binding:"required"`
}

// UserResponse はユーザーの公開用射影です。パスワードは含みません。
type UserResponse struct {
	ID          openapi_types.UUID  `json:"id"`
	Name        string              `json:"name"`
	FirstName   string              `json:"firstName"`
	LastName    string              `json:"lastName"`
	DateOfBirth *openapi_types.Date `json:"dateOfBirth,omitempty"`
	Email       openapi_types.Email `json:"email"`
	Phone       *string             `json:"phone,omitempty"`
	Avatar      string              `json:"avatar,omitempty"`
}

// LoginResponse defines model for LoginResponse.
type LoginResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// CreateFlowChartRequest は JSON と multipart の両方から bind されます。
// multipart の場合、ファイルは "file" フィールドで別途受け取ります。
type CreateFlowChartRequest struct {
	SelectInputMethod string `json:"selectInputMethod" form:"selectInputMethod"`
	AIModel           string `json:"aiModel" form:"aiModel" binding:"required"`
	TextOrMermaid     string `json:"textOrMermaid" form:"textOrMermaid"`
}

// UpdateFlowChartRequest defines model for UpdateFlowChartRequest.
type UpdateFlowChartRequest struct {
	MermaidString string `json:"mermaidString" binding:"required"`
}

// FlowChartResponse defines model for FlowChartResponse.
type FlowChartResponse struct {
	ID                openapi_types.UUID `json:"id"`
	UserID            openapi_types.UUID `json:"user_id"`
	SelectInputMethod string             `json:"selectInputMethod,omitempty"`
	AIModel           string             `json:"aiModel"`
	TextOrMermaid     string             `json:"textOrMermaid,omitempty"`
	SourceFileKey     string             `json:"sourceFileKey,omitempty"`
	MermaidString     string             `json:"mermaidString"`
	CreatedAt         time.Time          `json:"createdAt"`
}
