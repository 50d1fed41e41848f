package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPrompt  = errors.New("prompt is empty")
	ErrUnknownStyle = errors.New("unknown style")
	ErrBusy         = errors.New("generation already in progress")
)

// DecodeError は参照画像のデコードに失敗したことを表します。
// 既存の参照画像はそのまま保持されます。
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("参照画像を読み込めませんでした: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// GenerationError は画像生成が失敗・タイムアウト・キャンセルされたことを表します。
type GenerationError struct {
	SessionID string
	Cause     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("画像生成に失敗しました: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }
