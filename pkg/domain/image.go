package domain

import (
	"strings"
	"time"
)

// SourceImage はユーザーが添付した参照画像です。
// data URI としてメモリ上にのみ保持され、永続化されません。
type SourceImage struct {
	URI      string // data:<mime>;base64,...
	MIMEType string
	Size     int // エンコード前のバイト数
}

// GenerationRequest は Submit 時点のフォーム内容のスナップショットです。
// 以降のフォーム編集の影響を受けません。
type GenerationRequest struct {
	Prompt      string
	Style       Style
	SourceImage *SourceImage // nil なら参照画像なし
}

// Validate はリクエストが生成可能な状態かを検証します。
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if r.Style.ID == "" {
		return ErrUnknownStyle
	}
	return nil
}

// GeneratedImage は生成に成功した結果です。作成後は変更されません。
type GeneratedImage struct {
	ID        string
	URL       string
	Prompt    string
	Style     StyleID
	CreatedAt time.Time
}
