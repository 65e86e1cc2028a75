// Package apperr はアプリケーション全体で共有するエラー分類を定義します。
// 各フィーチャーはこのパッケージの Error をセンチネルとして宣言し、
// トランスポート層は Kind から HTTP ステータスを決定します。
package apperr

import (
	"errors"
	"net/http"
)

// Kind はエラーの分類です。
type Kind int

const (
	// KindServer は予期しない内部エラーです。分類されていないエラーもこれに含まれます。
	KindServer Kind = iota
	// KindClient は入力不足・不正な入力など、呼び出し元に起因するエラーです。
	KindClient
	// KindAuth はセッションの欠如・不正を表します。
	KindAuth
	// KindNotFound は対象レコードが存在しないことを表します。
	KindNotFound
	// KindUpstream は外部サービスの失敗を表します。リトライは行いません。
	KindUpstream
)

// String returns a short name used in logs.
func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "server"
	}
}

// Error は分類付きのアプリケーションエラーです。
type Error struct {
	Kind    Kind
	Message string
	// Status は外部サービスが返したHTTPステータスです（KindUpstream のみ）。
	Status int
	Err    error
}

// New は分類とメッセージからエラーを生成します。
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap は原因となるエラーを保持したまま分類を付与します。
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Upstream は外部サービスのステータスを保持するエラーを生成します。
// cause にセンチネルを渡すと errors.Is で判定できます。
func Upstream(status int, msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Status: status, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf は err に含まれる最も外側の *Error の分類を返します。
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindServer
}

// HTTPStatus は err に対応するHTTPステータスコードを返します。
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindClient:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message は err に対応する公開用メッセージを返します。
// 分類されていないエラーの詳細は公開しません。
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "internal server error"
}
