package domain

import "strings"

// NormalizeEmail はメールアドレスを比較・保存用の形に揃えます。
// 大文字小文字の違いで別ユーザーとして登録されないよう小文字化します。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
