package generator

import (
	"context"
	"time"

	"github.com/shouni/zoragen-kit/pkg/domain"
)

// Generator は画像生成の外部機能です。
// リクエストを受け取り、生成結果の所在（URL や data URI）を返します。
// 1回の呼び出しは1回の試行で、リトライは呼び出し側の責務です。
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (string, error)
}

// GeneratorFunc は関数を Generator として扱うためのアダプターです。
type GeneratorFunc func(ctx context.Context, req domain.GenerationRequest) (string, error)

// Generate は f(ctx, req) を呼び出します。
func (f GeneratorFunc) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	return f(ctx, req)
}

// AssetUploader は参照画像を Gemini File API にアップロードします。
type AssetUploader interface {
	UploadSource(ctx context.Context, src domain.SourceImage) (string, error)
}

// ImageCacher は、アップロード済みURIなどをキャッシュするためのインターフェースです。
type ImageCacher interface {
	// Get は、指定されたキーに紐づくアイテムを取得します。
	Get(key string) (any, bool)
	// Set は、指定されたキーと値、有効期限でアイテムを保存します。
	Set(key string, value any, d time.Duration)
}
