// Package domain はgenerationフィーチャーのモデルIDとエラーを定義します。
package domain

import (
	"errors"

	"flowchart_backend/internal/shared/apperr"
)

// Model は生成に使用するAIモデルの識別子です。
type Model string

const (
	ModelGemini      Model = "Gemini"
	ModelHuggingFace Model = "HuggingFace"
)

// Modality は入力ペイロードの種類です。
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityAudio Modality = "audio"
	ModalityImage Modality = "image"
)

var (
	ErrMissingCredential    = apperr.New(apperr.KindClient, "missing AI service API key")
	ErrUnsupportedInputType = apperr.New(apperr.KindClient, "unsupported input type")
	ErrInvalidTextEncoding  = apperr.New(apperr.KindClient, "text input is not valid UTF-8")
	ErrUnknownModel         = apperr.New(apperr.KindClient, "unknown AI model")

	// 外部サービスの失敗は apperr.Upstream でステータスを付けて包みます。
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrGenerationFailed    = errors.New("generation failed")
)
