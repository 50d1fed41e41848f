package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/zoragen-kit/pkg/domain"
	"github.com/shouni/zoragen-kit/pkg/imgutil"
	"google.golang.org/genai"
)

// DefaultInlineLimit を超える参照画像は File API 経由で渡します。
const DefaultInlineLimit = 4 << 20

// GeminiOptions は Gemini 呼び出し時の生成パラメータです。
type GeminiOptions struct {
	AspectRatio  string
	SystemPrompt string
	Seed         *int64 // nil でランダム

	// CompressOutput が true なら結果をJPEGに再圧縮してから data URI にします。
	CompressOutput bool
	Quality        int

	// InlineLimit を超える参照画像は Assets を通してアップロードします。0 なら DefaultInlineLimit。
	InlineLimit int
	Assets      AssetUploader
}

// GeminiGenerator は Gemini の画像生成モデルを Generator として扱うアダプターです。
// 生成結果は data URI として返します。
type GeminiGenerator struct {
	aiClient gemini.GenerativeModel
	model    string
	opts     GeminiOptions
}

// NewGeminiGenerator は GeminiGenerator を初期化するのだ。
func NewGeminiGenerator(aiClient gemini.GenerativeModel, model string, opts GeminiOptions) (*GeminiGenerator, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (gemini.GenerativeModel) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if opts.InlineLimit <= 0 {
		opts.InlineLimit = DefaultInlineLimit
	}

	return &GeminiGenerator{
		aiClient: aiClient,
		model:    model,
		opts:     opts,
	}, nil
}

// Generate はプロンプト・画風・参照画像から1枚の画像を生成するのだ。
func (g *GeminiGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	parts := []*genai.Part{{Text: buildPrompt(req)}}

	if req.SourceImage != nil {
		part, err := g.prepareSourcePart(ctx, *req.SourceImage)
		if err != nil {
			// 参照画像が使えなくても生成自体は続行するのだ。
			slog.WarnContext(ctx, "参照画像を添付できませんでした。テキストのみで続行します", "error", err)
		} else {
			parts = append(parts, part)
		}
	}

	slog.InfoContext(ctx, "Geminiに画像生成をリクエストします",
		"model", g.model, "style", req.Style.ID, "parts", len(parts))

	resp, err := g.aiClient.GenerateWithParts(ctx, g.model, parts, gemini.GenerateOptions{
		AspectRatio:  g.opts.AspectRatio,
		SystemPrompt: g.opts.SystemPrompt,
		Seed:         g.opts.Seed,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini画像生成エラー: %w", err)
	}

	out, err := parseToResponse(resp)
	if err != nil {
		return "", err
	}

	data, mimeType := out.Data, out.MimeType
	if g.opts.CompressOutput {
		if compressed, err := imgutil.CompressToJPEG(data, g.opts.Quality); err == nil {
			data, mimeType = compressed, "image/jpeg"
		}
	}
	if mimeType == "" {
		if detected, err := imgutil.DetectImageMIME(data); err == nil {
			mimeType = detected
		} else {
			mimeType = "image/png"
		}
	}

	return imgutil.ToDataURI(mimeType, data), nil
}

func (g *GeminiGenerator) prepareSourcePart(ctx context.Context, src domain.SourceImage) (*genai.Part, error) {
	if src.Size > g.opts.InlineLimit && g.opts.Assets != nil {
		uri, err := g.opts.Assets.UploadSource(ctx, src)
		if err != nil {
			return nil, err
		}
		return &genai.Part{FileData: &genai.FileData{FileURI: uri, MIMEType: src.MIMEType}}, nil
	}
	return sourceToPart(&src)
}
