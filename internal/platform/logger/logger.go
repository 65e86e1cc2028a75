// Package logger はアプリケーション全体で使用する slog ロガーを構築します。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New は指定されたレベルのJSONロガーを生成し、slog のデフォルトに設定します。
// 不明なレベル文字列は info として扱います。
func New(level string) *slog.Logger {
	return newWithWriter(os.Stdout, level)
}

func newWithWriter(w io.Writer, level string) *slog.Logger {
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	slog.SetDefault(l)
	return l
}

// ParseLevel は LOG_LEVEL の値を slog.Level に変換します。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
