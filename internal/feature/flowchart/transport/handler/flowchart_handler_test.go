package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowchart_backend/internal/feature/flowchart/domain"
	"flowchart_backend/internal/feature/flowchart/domain/entity"
	"flowchart_backend/internal/feature/flowchart/usecase"
	gendomain "flowchart_backend/internal/feature/generation/domain"
	jwtmw "flowchart_backend/internal/platform/jwt"
	"flowchart_backend/internal/shared/apperr"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockFlowChartUsecase is a mock implementation of FlowChartUsecase.
type mockFlowChartUsecase struct {
	CreateFunc        func(ctx context.Context, in usecase.CreateInput) (*entity.FlowChart, error)
	ListFunc          func(ctx context.Context, owner uuid.UUID) ([]entity.FlowChart, error)
	GetFunc           func(ctx context.Context, owner, id uuid.UUID) (*entity.FlowChart, error)
	UpdateDiagramFunc func(ctx context.Context, owner, id uuid.UUID, diagram string) (*entity.FlowChart, error)
	DeleteFunc        func(ctx context.Context, owner, id uuid.UUID) error
}

func (m *mockFlowChartUsecase) Create(ctx context.Context, in usecase.CreateInput) (*entity.FlowChart, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, in)
	}
	return &entity.FlowChart{ID: uuid.New(), UserID: in.Owner, AIModel: in.AIModel, MermaidString: "graph TD"}, nil
}

func (m *mockFlowChartUsecase) List(ctx context.Context, owner uuid.UUID) ([]entity.FlowChart, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, owner)
	}
	return nil, nil
}

func (m *mockFlowChartUsecase) Get(ctx context.Context, owner, id uuid.UUID) (*entity.FlowChart, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, owner, id)
	}
	return nil, domain.ErrFlowChartNotFound
}

func (m *mockFlowChartUsecase) UpdateDiagram(ctx context.Context, owner, id uuid.UUID, diagram string) (*entity.FlowChart, error) {
	if m.UpdateDiagramFunc != nil {
		return m.UpdateDiagramFunc(ctx, owner, id, diagram)
	}
	return nil, domain.ErrFlowChartNotFound
}

func (m *mockFlowChartUsecase) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, owner, id)
	}
	return domain.ErrFlowChartNotFound
}

var testOwner = uuid.MustParse("0b8f3c36-4a43-4bb4-9d6c-9f2a4b5b1e01")

// setupRouter は認証済みユーザーを固定したルーターを生成します。
func setupRouter(uc FlowChartUsecase, maxUpload int64) *gin.Engine {
	h := NewFlowChartHandler(uc, maxUpload)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(jwtmw.ContextUserID, testOwner)
		c.Next()
	})
	r.POST("/flowchart", h.Create)
	r.GET("/flowcharts", h.List)
	r.GET("/flowchart/:id", h.Get)
	r.PUT("/flowchart/:id", h.Update)
	r.DELETE("/flowchart/:id", h.Delete)
	return r
}

type part struct {
	field, filename, contentType, content string
}

func multipartBody(t *testing.T, fields map[string]string, files ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, p := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestFlowChartHandler_Create_JSON(t *testing.T) {
	t.Parallel()

	var got usecase.CreateInput
	uc := &mockFlowChartUsecase{CreateFunc: func(ctx context.Context, in usecase.CreateInput) (*entity.FlowChart, error) {
		got = in
		return &entity.FlowChart{
			ID: uuid.New(), UserID: in.Owner, AIModel: in.AIModel, InputMethod: in.InputMethod,
			InputText: in.Text, MermaidString: "graph TD; A-->B", CreatedAt: time.Now(),
		}, nil
	}}
	r := setupRouter(uc, 1<<20)

	body := `{"selectInputMethod":"Text/README","aiModel":"Gemini","textOrMermaid":"login flow","user_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/flowchart", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", "gm-key")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, testOwner, got.Owner, "owner comes from the session, never the body")
	assert.Equal(t, "gm-key", got.Credential)
	assert.Equal(t, "login flow", got.Text)
	assert.Nil(t, got.File)

	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "graph TD; A-->B", data["mermaidString"])
	assert.Equal(t, testOwner.String(), data["user_id"])
	assert.Equal(t, "Text/README", data["selectInputMethod"])
}

func TestFlowChartHandler_Create_Multipart(t *testing.T) {
	t.Parallel()

	var got usecase.CreateInput
	uc := &mockFlowChartUsecase{CreateFunc: func(ctx context.Context, in usecase.CreateInput) (*entity.FlowChart, error) {
		got = in
		return &entity.FlowChart{ID: uuid.New(), UserID: in.Owner, AIModel: in.AIModel, MermaidString: "graph TD"}, nil
	}}
	r := setupRouter(uc, 1<<20)

	buf, ct := multipartBody(t,
		map[string]string{"selectInputMethod": "Upload Audio", "aiModel": "HuggingFace"},
		part{"file", "memo.wav", "audio/wav", "RIFFdata"},
	)
	req := httptest.NewRequest(http.MethodPost, "/flowchart", buf)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Api-Key", "hf-key")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, got.File)
	assert.Equal(t, "memo.wav", got.File.Name)
	assert.Equal(t, "audio/wav", got.File.ContentType)
	assert.Equal(t, []byte("RIFFdata"), got.File.Data)
	assert.Equal(t, "Upload Audio", got.InputMethod)
	assert.Equal(t, "HuggingFace", got.AIModel)
}

func TestFlowChartHandler_Create_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		build      func(t *testing.T) *http.Request
		createErr  error
		maxUpload  int64
		wantStatus int
		wantCalled bool
	}{
		{
			name: "missing aiModel",
			build: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/flowchart", strings.NewReader(`{"textOrMermaid":"x"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "two files",
			build: func(t *testing.T) *http.Request {
				buf, ct := multipartBody(t, map[string]string{"aiModel": "Gemini"},
					part{"file", "a.txt", "text/plain", "a"}, part{"file", "b.txt", "text/plain", "b"})
				req := httptest.NewRequest(http.MethodPost, "/flowchart", buf)
				req.Header.Set("Content-Type", ct)
				return req
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "upload too large",
			build: func(t *testing.T) *http.Request {
				buf, ct := multipartBody(t, map[string]string{"aiModel": "Gemini"},
					part{"file", "a.txt", "text/plain", strings.Repeat("x", 4096)})
				req := httptest.NewRequest(http.MethodPost, "/flowchart", buf)
				req.Header.Set("Content-Type", ct)
				return req
			},
			maxUpload:  512,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing credential from usecase",
			build: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/flowchart", strings.NewReader(`{"aiModel":"Gemini","textOrMermaid":"x"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			createErr:  gendomain.ErrMissingCredential,
			wantStatus: http.StatusBadRequest,
			wantCalled: true,
		},
		{
			name: "upstream failure",
			build: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/flowchart", strings.NewReader(`{"aiModel":"Gemini","textOrMermaid":"x"}`))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("X-Api-Key", "k")
				return req
			},
			createErr:  apperr.Upstream(http.StatusUnauthorized, "gemini generation failed", gendomain.ErrGenerationFailed),
			wantStatus: http.StatusInternalServerError,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			uc := &mockFlowChartUsecase{CreateFunc: func(ctx context.Context, in usecase.CreateInput) (*entity.FlowChart, error) {
				called = true
				return nil, tt.createErr
			}}
			maxUpload := tt.maxUpload
			if maxUpload == 0 {
				maxUpload = 1 << 20
			}
			r := setupRouter(uc, maxUpload)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.build(t))

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, "error", decodeBody(t, w)["status"])
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

// TestFlowChartHandler_Create_UploadLimits はファイル数とボディサイズの上限を検証します。
func TestFlowChartHandler_Create_UploadLimits(t *testing.T) {
	t.Parallel()

	const limit = 1024

	tests := []struct {
		name        string
		build       func(t *testing.T) *http.Request
		wantStatus  int
		wantMessage string
	}{
		{
			name: "more than one file",
			build: func(t *testing.T) *http.Request {
				buf, ct := multipartBody(t, map[string]string{"aiModel": "Gemini"},
					part{"file", "a.wav", "audio/wav", "RIFFa"}, part{"file", "b.wav", "audio/wav", "RIFFb"})
				req := httptest.NewRequest(http.MethodPost, "/flowchart", buf)
				req.Header.Set("Content-Type", ct)
				return req
			},
			wantStatus:  http.StatusBadRequest,
			wantMessage: domain.ErrTooManyFiles.Message,
		},
		{
			name: "multipart body over the limit",
			build: func(t *testing.T) *http.Request {
				buf, ct := multipartBody(t, map[string]string{"aiModel": "Gemini"},
					part{"file", "big.txt", "text/plain", strings.Repeat("x", 4*limit)})
				req := httptest.NewRequest(http.MethodPost, "/flowchart", buf)
				req.Header.Set("Content-Type", ct)
				return req
			},
			wantStatus:  http.StatusBadRequest,
			wantMessage: domain.ErrUploadTooLarge.Message,
		},
		{
			name: "json body over the limit",
			build: func(t *testing.T) *http.Request {
				body := `{"aiModel":"Gemini","textOrMermaid":"` + strings.Repeat("x", 4*limit) + `"}`
				req := httptest.NewRequest(http.MethodPost, "/flowchart", strings.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			wantStatus:  http.StatusBadRequest,
			wantMessage: domain.ErrUploadTooLarge.Message,
		},
		{
			name: "single file under the limit",
			build: func(t *testing.T) *http.Request {
				buf, ct := multipartBody(t, map[string]string{"aiModel": "Gemini"},
					part{"file", "small.txt", "text/plain", "login flow"})
				req := httptest.NewRequest(http.MethodPost, "/flowchart", buf)
				req.Header.Set("Content-Type", ct)
				return req
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			uc := &mockFlowChartUsecase{CreateFunc: func(ctx context.Context, in usecase.CreateInput) (*entity.FlowChart, error) {
				called = true
				return &entity.FlowChart{ID: uuid.New(), UserID: in.Owner, AIModel: in.AIModel, MermaidString: "graph TD"}, nil
			}}
			r := setupRouter(uc, limit)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.build(t))

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			body := decodeBody(t, w)
			if tt.wantMessage != "" {
				assert.Equal(t, "error", body["status"])
				assert.Equal(t, tt.wantMessage, body["message"])
				assert.Equal(t, tt.wantMessage, body["error"])
				assert.False(t, called, "usecase should not be called")
				return
			}
			assert.True(t, called)
		})
	}
}

func TestFlowChartHandler_List(t *testing.T) {
	t.Parallel()

	uc := &mockFlowChartUsecase{ListFunc: func(ctx context.Context, owner uuid.UUID) ([]entity.FlowChart, error) {
		assert.Equal(t, testOwner, owner)
		return []entity.FlowChart{
			{ID: uuid.New(), UserID: owner, MermaidString: "newest"},
			{ID: uuid.New(), UserID: owner, MermaidString: "oldest"},
		}, nil
	}}
	r := setupRouter(uc, 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/flowcharts", nil))

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].([]any)
	require.Len(t, data, 2)
	assert.Equal(t, "newest", data[0].(map[string]any)["mermaidString"])
}

func TestFlowChartHandler_List_Empty(t *testing.T) {
	t.Parallel()

	r := setupRouter(&mockFlowChartUsecase{}, 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/flowcharts", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","message":"FlowCharts fetched successfully","data":[]}`, w.Body.String())
}

func TestFlowChartHandler_GetUpdateDelete(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	uc := &mockFlowChartUsecase{
		GetFunc: func(ctx context.Context, owner, got uuid.UUID) (*entity.FlowChart, error) {
			if got != id {
				return nil, domain.ErrFlowChartNotFound
			}
			return &entity.FlowChart{ID: id, UserID: owner, MermaidString: "graph TD"}, nil
		},
		UpdateDiagramFunc: func(ctx context.Context, owner, got uuid.UUID, diagram string) (*entity.FlowChart, error) {
			if got != id {
				return nil, domain.ErrFlowChartNotFound
			}
			return &entity.FlowChart{ID: id, UserID: owner, MermaidString: diagram}, nil
		},
		DeleteFunc: func(ctx context.Context, owner, got uuid.UUID) error {
			if got != id {
				return domain.ErrFlowChartNotFound
			}
			return nil
		},
	}
	r := setupRouter(uc, 0)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"get", http.MethodGet, "/flowchart/" + id.String(), "", http.StatusOK},
		{"get unknown", http.MethodGet, "/flowchart/" + uuid.NewString(), "", http.StatusNotFound},
		{"get malformed id", http.MethodGet, "/flowchart/not-a-uuid", "", http.StatusNotFound},
		{"update", http.MethodPut, "/flowchart/" + id.String(), `{"mermaidString":"graph LR"}`, http.StatusOK},
		{"update missing diagram", http.MethodPut, "/flowchart/" + id.String(), `{}`, http.StatusBadRequest},
		{"update unknown", http.MethodPut, "/flowchart/" + uuid.NewString(), `{"mermaidString":"graph LR"}`, http.StatusNotFound},
		{"delete", http.MethodDelete, "/flowchart/" + id.String(), "", http.StatusOK},
		{"delete unknown", http.MethodDelete, "/flowchart/" + uuid.NewString(), "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}
