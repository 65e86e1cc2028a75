// Package domain はflowchartフィーチャーのドメインエラーと入力方法を定義します。
package domain

import "flowchart_backend/internal/shared/apperr"

// InputMethod はユーザーが選択した入力方法です。
type InputMethod string

const (
	InputMethodText           InputMethod = "Text/README"
	InputMethodVoiceRecording InputMethod = "Voice Recording"
	InputMethodUploadAudio    InputMethod = "Upload Audio"
)

// Valid は空（未指定）または既知の入力方法であるかを返します。
func (m InputMethod) Valid() bool {
	switch m {
	case "", InputMethodText, InputMethodVoiceRecording, InputMethodUploadAudio:
		return true
	default:
		return false
	}
}

var (
	ErrFlowChartNotFound  = apperr.New(apperr.KindNotFound, "flowchart not found")
	ErrInvalidInputMethod = apperr.New(apperr.KindClient, "invalid input method")
	ErrAmbiguousInput     = apperr.New(apperr.KindClient, "provide either text or a file, not both")
	ErrMissingInput       = apperr.New(apperr.KindClient, "text or file input is required")
	ErrMissingDiagram     = apperr.New(apperr.KindClient, "mermaidString is required")
	ErrOwnerNotFound      = apperr.New(apperr.KindAuth, "authenticated user no longer exists")
)

var (
	ErrTooManyFiles   = apperr.New(apperr.KindClient, "only one file may be uploaded")
	ErrUploadTooLarge = apperr.New(apperr.KindClient, "upload exceeds the size limit")
)
