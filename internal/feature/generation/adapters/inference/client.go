// Package inference はホスト型推論API（文字起こし・テキスト生成）のHTTPクライアントを提供します。
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"flowchart_backend/internal/feature/generation/domain"
	"flowchart_backend/internal/feature/generation/usecase"
	"flowchart_backend/internal/shared/apperr"
)

// maxErrorBody はエラーメッセージとして読み取るレスポンスボディの上限です。
const maxErrorBody = 4 << 10

// Config holds endpoints of the hosted inference API.
type Config struct {
	TranscriptionURL  string
	TextGenerationURL string
}

// Client は Transcriber と TextGenerator の両方を実装します。
type Client struct {
	cfg    Config
	client *http.Client
}

var (
	_ usecase.Transcriber   = (*Client)(nil)
	_ usecase.TextGenerator = (*Client)(nil)
)

// NewClient は指定された設定とHTTPクライアントでClientを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

type generationRequest struct {
	Inputs string `json:"inputs"`
}

type generationResponse []struct {
	GeneratedText string `json:"generated_text"`
}

// Transcribe は音声データをそのままボディとして送信し、文字起こし結果を返します。
// JSON の text フィールドがなければボディ全体をプレーンテキストとして扱います。
func (c *Client) Transcribe(ctx context.Context, credential, contentType string, audio []byte) (string, error) {
	body, status, err := c.post(ctx, c.cfg.TranscriptionURL, credential, contentType, audio)
	if err != nil {
		return "", apperr.Upstream(0, "transcription failed", fmt.Errorf("%w: %w", domain.ErrTranscriptionFailed, err))
	}
	if status < 200 || status >= 300 {
		return "", apperr.Upstream(status, "transcription failed",
			fmt.Errorf("%w: http %d: %s", domain.ErrTranscriptionFailed, status, errorMessage(body)))
	}

	var res transcriptionResponse
	if err := json.Unmarshal(body, &res); err == nil && res.Text != "" {
		return strings.TrimSpace(res.Text), nil
	}
	return strings.TrimSpace(string(body)), nil
}

// Generate はプロンプトを送信し、最初の候補の generated_text を返します。
func (c *Client) Generate(ctx context.Context, credential, prompt string) (string, error) {
	payload, err := json.Marshal(generationRequest{Inputs: prompt})
	if err != nil {
		return "", err
	}

	body, status, err := c.post(ctx, c.cfg.TextGenerationURL, credential, "application/json", payload)
	if err != nil {
		return "", apperr.Upstream(0, "text generation failed", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err))
	}
	if status < 200 || status >= 300 {
		return "", apperr.Upstream(status, "text generation failed",
			fmt.Errorf("%w: http %d: %s", domain.ErrGenerationFailed, status, errorMessage(body)))
	}

	var res generationResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", apperr.Upstream(status, "text generation failed",
			fmt.Errorf("%w: decode response: %w", domain.ErrGenerationFailed, err))
	}
	if len(res) == 0 {
		return "", nil
	}
	return res[0].GeneratedText, nil
}

func (c *Client) post(ctx context.Context, url, credential, contentType string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, err
	}
	return b, res.StatusCode, nil
}

// errorMessage は {"error": "..."} 形式ならその値を、そうでなければボディの先頭を返します。
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}
