// Package handler はflowchartフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"flowchart_backend/internal/api"
	"flowchart_backend/internal/feature/flowchart/domain"
	"flowchart_backend/internal/feature/flowchart/domain/entity"
	"flowchart_backend/internal/feature/flowchart/usecase"
	jwtmw "flowchart_backend/internal/platform/jwt"
	"flowchart_backend/internal/shared/apperr"
)

// FlowChartUsecase はフローチャート操作のユースケースを定義します。
type FlowChartUsecase interface {
	Create(ctx context.Context, in usecase.CreateInput) (*entity.FlowChart, error)
	List(ctx context.Context, owner uuid.UUID) ([]entity.FlowChart, error)
	Get(ctx context.Context, owner, id uuid.UUID) (*entity.FlowChart, error)
	UpdateDiagram(ctx context.Context, owner, id uuid.UUID, diagram string) (*entity.FlowChart, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

// FlowChartHandler はフローチャートのHTTPリクエストを処理します。
type FlowChartHandler struct {
	uc             FlowChartUsecase
	maxUploadBytes int64
}

// NewFlowChartHandler はFlowChartHandlerの新しいインスタンスを生成します。
func NewFlowChartHandler(uc FlowChartUsecase, maxUploadBytes int64) *FlowChartHandler {
	return &FlowChartHandler{uc: uc, maxUploadBytes: maxUploadBytes}
}

var errInvalidRequest = apperr.New(apperr.KindClient, "invalid request")

// Create はフローチャートを生成して保存します。
//
// エンドポイント: POST /flowchart
// Content-Type: application/json または multipart/form-data（フィールド: file）
// ヘッダー: X-Api-Key（外部AIサービスのAPIキー）
func (h *FlowChartHandler) Create(c *gin.Context) {
	owner, ok := jwtmw.UserID(c)
	if !ok {
		api.WriteError(c, jwtmw.ErrMissingToken)
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	var req api.CreateFlowChartRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.Warn("create flowchart validation failed", "error", err, "remote_addr", c.ClientIP())
		api.WriteError(c, bindError(err))
		return
	}
	if c.Request.MultipartForm != nil {
		defer func() {
			if err := c.Request.MultipartForm.RemoveAll(); err != nil {
				slog.Warn("failed to remove multipart temp files", "error", err)
			}
		}()
	}

	in := usecase.CreateInput{
		Owner:       owner,
		Credential:  c.GetHeader(api.HeaderAIKey),
		InputMethod: req.SelectInputMethod,
		AIModel:     req.AIModel,
		Text:        req.TextOrMermaid,
	}

	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		file, err := readUpload(c.Request.MultipartForm)
		if err != nil {
			slog.Warn("failed to read upload", "error", err, "remote_addr", c.ClientIP())
			api.WriteError(c, err)
			return
		}
		in.File = file
	}

	f, err := h.uc.Create(c.Request.Context(), in)
	if err != nil {
		slog.Warn("create flowchart failed", "error", err, "user_id", owner, "remote_addr", c.ClientIP())
		api.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.OK("FlowChart created successfully", toResponse(f)))
}

// List は認証済みユーザーのフローチャートを新しい順に返します。
func (h *FlowChartHandler) List(c *gin.Context) {
	owner, ok := jwtmw.UserID(c)
	if !ok {
		api.WriteError(c, jwtmw.ErrMissingToken)
		return
	}

	charts, err := h.uc.List(c.Request.Context(), owner)
	if err != nil {
		api.WriteError(c, err)
		return
	}

	out := make([]api.FlowChartResponse, 0, len(charts))
	for i := range charts {
		out = append(out, toResponse(&charts[i]))
	}
	c.JSON(http.StatusOK, api.OK("FlowCharts fetched successfully", out))
}

// Get はIDでフローチャートを返します。
func (h *FlowChartHandler) Get(c *gin.Context) {
	owner, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	f, err := h.uc.Get(c.Request.Context(), owner, id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK("FlowChart fetched successfully", toResponse(f)))
}

// Update はダイアグラム文字列を置き換えます。
func (h *FlowChartHandler) Update(c *gin.Context) {
	owner, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	var req api.UpdateFlowChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("update flowchart validation failed", "error", err, "remote_addr", c.ClientIP())
		api.WriteError(c, domain.ErrMissingDiagram)
		return
	}

	f, err := h.uc.UpdateDiagram(c.Request.Context(), owner, id, req.MermaidString)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK("FlowChart updated successfully", toResponse(f)))
}

// Delete はフローチャートを削除します。
func (h *FlowChartHandler) Delete(c *gin.Context) {
	owner, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	if err := h.uc.Delete(c.Request.Context(), owner, id); err != nil {
		api.WriteError(c, err)
		return
	}
	slog.Info("flowchart deleted", "id", id, "user_id", owner)
	c.JSON(http.StatusOK, api.OK("FlowChart deleted successfully", nil))
}

// ownerAndID は認証済みユーザーIDとパスの :id を取り出します。
// 不正な形式のIDは存在しないレコードとして 404 を返します。
func (h *FlowChartHandler) ownerAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	owner, ok := jwtmw.UserID(c)
	if !ok {
		api.WriteError(c, jwtmw.ErrMissingToken)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.WriteError(c, domain.ErrFlowChartNotFound)
		return uuid.Nil, uuid.Nil, false
	}
	return owner, id, true
}

// readUpload は multipart の file フィールドを読み込みます。ファイルがなければ nil を返します。
func readUpload(form *multipart.Form) (*usecase.SourceFile, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File["file"]
	switch len(files) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, domain.ErrTooManyFiles
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close upload", "error", err)
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return &usecase.SourceFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.ErrUploadTooLarge
	}
	return apperr.Wrap(apperr.KindClient, errInvalidRequest.Message, err)
}

func toResponse(f *entity.FlowChart) api.FlowChartResponse {
	return api.FlowChartResponse{
		ID:                f.ID,
		UserID:            f.UserID,
		SelectInputMethod: f.InputMethod,
		AIModel:           f.AIModel,
		TextOrMermaid:     f.InputText,
		SourceFileKey:     f.SourceFileKey,
		MermaidString:     f.MermaidString,
		CreatedAt:         f.CreatedAt,
	}
}
