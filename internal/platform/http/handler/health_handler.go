// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flowchart_backend/internal/api"
)

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// 依存サービス（DB・Redis・AI）には問い合わせず、プロセスの生存のみを返します。
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, api.OK("ok", nil))
	}
}
