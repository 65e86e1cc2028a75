// Package usecase は入力のモダリティに応じて外部の文字起こし・生成サービスを呼び分けます。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"flowchart_backend/internal/feature/generation/domain"
)

// ImagePrompt は画像入力時に使用する固定の指示文です。画像の内容自体は解析しません。
const ImagePrompt = "Analyze the uploaded image and describe the process it shows as a flowchart."

// promptTemplate は生成サービスに渡す固定のプロンプトです。%s に入力内容が入ります。
const promptTemplate = "Convert the following content into a flowchart. " +
	"Respond with only a valid MermaidJS diagram inside a ```mermaid fenced code block " +
	"and no extra commentary or explanation.\n\n%s"

// Transcriber は音声データを文字起こしします。
type Transcriber interface {
	Transcribe(ctx context.Context, credential, contentType string, audio []byte) (string, error)
}

// TextGenerator はプロンプトからテキストを生成します。
type TextGenerator interface {
	Generate(ctx context.Context, credential, prompt string) (string, error)
}

// Gateway はモダリティのルーティングとモデルごとの生成器の呼び出しを担います。
type Gateway struct {
	transcriber Transcriber
	generators  map[domain.Model]TextGenerator
}

// NewGateway は Gateway を生成します。generators のキーがサポートするモデルIDになります。
func NewGateway(transcriber Transcriber, generators map[domain.Model]TextGenerator) *Gateway {
	return &Gateway{transcriber: transcriber, generators: generators}
}

// Supports はモデルIDに対応する生成器が登録されているかを返します。
func (g *Gateway) Supports(model string) bool {
	_, ok := g.generators[domain.Model(model)]
	return ok
}

// ResolveSubject はアップロードされたデータをプロンプトの主題テキストに変換します。
// 宣言された Content-Type が空または application/octet-stream の場合は内容から判定します。
func (g *Gateway) ResolveSubject(ctx context.Context, credential, contentType string, data []byte) (string, error) {
	if credential == "" {
		return "", domain.ErrMissingCredential
	}

	mediaType := DetectMediaType(contentType, data)
	switch ModalityOf(mediaType) {
	case domain.ModalityAudio:
		text, err := g.transcriber.Transcribe(ctx, credential, mediaType, data)
		if err != nil {
			return "", err
		}
		slog.Debug("audio transcribed", "media_type", mediaType, "chars", len(text))
		return text, nil
	case domain.ModalityText:
		if !utf8.Valid(data) {
			return "", domain.ErrInvalidTextEncoding
		}
		return string(data), nil
	case domain.ModalityImage:
		return ImagePrompt, nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedInputType, mediaType)
	}
}

// Generate はモデルIDに対応する生成器でダイアグラムを生成し、生の出力を返します。
func (g *Gateway) Generate(ctx context.Context, credential, model, subject string) (string, error) {
	if credential == "" {
		return "", domain.ErrMissingCredential
	}
	gen, ok := g.generators[domain.Model(model)]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownModel, model)
	}
	return gen.Generate(ctx, credential, BuildPrompt(subject))
}

// BuildPrompt は固定テンプレートに主題を埋め込みます。
func BuildPrompt(subject string) string {
	return fmt.Sprintf(promptTemplate, subject)
}

// DetectMediaType はパラメータを除いたメディアタイプを返します。
func DetectMediaType(declared string, data []byte) string {
	mediaType := ""
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			mediaType = strings.ToLower(mt)
		}
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		detected := mimetype.Detect(data).String()
		if mt, _, err := mime.ParseMediaType(detected); err == nil {
			mediaType = mt
		}
	}
	return mediaType
}

// ModalityOf はメディアタイプのトップレベル型からモダリティを返します。
func ModalityOf(mediaType string) domain.Modality {
	top, _, _ := strings.Cut(mediaType, "/")
	switch top {
	case "audio":
		return domain.ModalityAudio
	case "text":
		return domain.ModalityText
	case "image":
		return domain.ModalityImage
	default:
		return ""
	}
}
