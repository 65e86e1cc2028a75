// Package password はbcryptによるパスワードのハッシュ化と検証を提供します。
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"flowchart_backend/internal/shared/apperr"
)

// MaxBytes はbcryptが扱えるパスワードの最大バイト長です。
const MaxBytes = 72

// ErrTooLong はパスワードが MaxBytes を超える場合に返されます。
var ErrTooLong = apperr.New(apperr.KindClient, "password must be at most 72 bytes")

// Hash は平文パスワードをソルト付きでハッシュ化します。
func Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrTooLong
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify はハッシュと平文パスワードが一致するかを定数時間で比較します。
func Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// IsHashed は値が既にbcryptハッシュであるかを返します。
func IsHashed(value string) bool {
	_, err := bcrypt.Cost([]byte(value))
	return err == nil
}

// HashIfPlain は平文の場合のみハッシュ化します。
// 空文字列と既存のハッシュはそのまま返すため、何度呼んでも結果は変わりません。
func HashIfPlain(value string) (string, error) {
	if value == "" || IsHashed(value) {
		return value, nil
	}
	return Hash(value)
}
