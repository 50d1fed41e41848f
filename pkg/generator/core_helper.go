package generator

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/zoragen-kit/pkg/domain"
	"github.com/shouni/zoragen-kit/pkg/imgutil"
	"google.golang.org/genai"
)

// ImageOutput は Gemini レスポンスから取り出した画像です。
type ImageOutput struct {
	Data     []byte
	MimeType string
}

// buildPrompt はプロンプトと画風ヒントを1つのテキストにまとめます。
func buildPrompt(req domain.GenerationRequest) string {
	prompt := strings.TrimSpace(req.Prompt)
	if req.Style.PromptHint == "" {
		return prompt
	}
	return prompt + "\n\nStyle: " + req.Style.PromptHint
}

// sourceToPart は参照画像を InlineData パーツに変換します。
func sourceToPart(src *domain.SourceImage) (*genai.Part, error) {
	if src == nil {
		return nil, nil
	}
	mimeType, data, err := imgutil.DecodeDataURI(src.URI)
	if err != nil {
		return nil, err
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("参照画像のMIMEタイプが画像ではありません: %s", mimeType)
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}, nil
}

// parseToResponse は Gemini のレスポンスを解析して ImageOutput に変換します。
func parseToResponse(resp *gemini.Response) (*ImageOutput, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, fmt.Errorf("Geminiからの有効な応答がありませんでした")
	}

	// 最初の候補 (Candidate) のみを利用する。
	candidate := resp.RawResponse.Candidates[0]

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &ImageOutput{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("画像生成が異常終了しました (FinishReason: %s)", candidate.FinishReason)
	}

	return nil, fmt.Errorf("画像データが見つかりませんでした")
}
