// Package domain はauthフィーチャーのドメインエラーを定義します。
package domain

import "flowchart_backend/internal/shared/apperr"

var (
	// ErrUserAlreadyExists は同じメールアドレスまたは電話番号のユーザーが既に存在する場合に返されます。
	ErrUserAlreadyExists = apperr.New(apperr.KindClient, "user with this email or phone already exists")

	// ErrUserNotFound はユーザーが見つからない場合に返されます。
	ErrUserNotFound = apperr.New(apperr.KindNotFound, "user not found")

	// ErrInvalidPassword はパスワードが一致しない場合に返されます。
	ErrInvalidPassword = apperr.New(apperr.KindAuth, "invalid password")
)
