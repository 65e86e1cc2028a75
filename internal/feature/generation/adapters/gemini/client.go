// Package gemini はGoogle Gemini APIを使用したダイアグラム生成クライアントを提供します。
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"flowchart_backend/internal/feature/generation/domain"
	"flowchart_backend/internal/feature/generation/usecase"
	"flowchart_backend/internal/shared/apperr"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
)

// Generator はリクエストごとに呼び出し元のAPIキーでGeminiクライアントを生成します。
type Generator struct {
	httpClient *http.Client
	model      string
	baseURL    string
}

var _ usecase.TextGenerator = (*Generator)(nil)

// NewGenerator は Generator を生成します。baseURL が空の場合はSDKの既定エンドポイントを使用します。
func NewGenerator(httpClient *http.Client, model, baseURL string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{httpClient: httpClient, model: model, baseURL: baseURL}
}

// Generate はプロンプトを送信し、最初の候補のテキストを返します。
func (g *Generator) Generate(ctx context.Context, credential, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      credential,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  g.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: g.baseURL},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", apperr.Upstream(apiErr.Code, "gemini generation failed",
				fmt.Errorf("%w: %s", domain.ErrGenerationFailed, apiErr.Message))
		}
		return "", apperr.Upstream(0, "gemini generation failed",
			fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err))
	}

	return resp.Text(), nil
}
