package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/zoragen-kit/pkg/domain"
	"github.com/shouni/zoragen-kit/pkg/imgutil"
)

// ErrSourceNotUploaded は削除対象の参照画像がアップロード済みとして記録されていないことを示します。
var ErrSourceNotUploaded = errors.New("cannot determine file name for deletion, source not found in cache")

const (
	cacheKeyFileAPIURI  = "fileapi_uri:"
	cacheKeyFileAPIName = "fileapi_name:"
)

// GeminiAssets は参照画像を Gemini File API に載せるための基盤です。
// 同じ画像の再アップロードはキャッシュで抑止します。
type GeminiAssets struct {
	aiClient   gemini.GenerativeModel
	cache      ImageCacher
	expiration time.Duration
}

// NewGeminiAssets は依存関係を注入して GeminiAssets を初期化します。
func NewGeminiAssets(aiClient gemini.GenerativeModel, cache ImageCacher, cacheTTL time.Duration) (*GeminiAssets, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	// cache は nil を許容（キャッシュなし動作）

	return &GeminiAssets{
		aiClient:   aiClient,
		cache:      cache,
		expiration: cacheTTL,
	}, nil
}

// UploadSource は参照画像を File API にアップロードし、URI を返します。
func (a *GeminiAssets) UploadSource(ctx context.Context, src domain.SourceImage) (string, error) {
	mimeType, data, err := imgutil.DecodeDataURI(src.URI)
	if err != nil {
		return "", err
	}

	key := contentKey(data)
	if a.cache != nil {
		if val, ok := a.cache.Get(cacheKeyFileAPIURI + key); ok {
			if uri, ok := val.(string); ok && uri != "" {
				return uri, nil
			}
		}
	}

	uri, fileName, err := a.aiClient.UploadFile(ctx, data, mimeType, "zoragen-source-"+key[:12])
	if err != nil {
		return "", fmt.Errorf("参照画像のアップロードに失敗しました: %w", err)
	}

	// URI（参照用）と Name（削除用）の両方をキャッシュ
	if a.cache != nil {
		a.cache.Set(cacheKeyFileAPIURI+key, uri, a.expiration)
		a.cache.Set(cacheKeyFileAPIName+key, fileName, a.expiration)
	}

	return uri, nil
}

// DeleteSource はキャッシュされたファイル名を使って File API から参照画像を削除します。
// 削除後はキャッシュを無効化し、次回の UploadSource で再アップロードさせます。
func (a *GeminiAssets) DeleteSource(ctx context.Context, src domain.SourceImage) error {
	_, data, err := imgutil.DecodeDataURI(src.URI)
	if err != nil {
		return err
	}
	key := contentKey(data)

	if a.cache != nil {
		if val, ok := a.cache.Get(cacheKeyFileAPIName + key); ok {
			if name, ok := val.(string); ok && name != "" {
				if err := a.aiClient.DeleteFile(ctx, name); err != nil {
					return fmt.Errorf("参照画像の削除に失敗しました: %w", err)
				}
				// ImageCacher に削除が無いため空文字で上書きする
				a.cache.Set(cacheKeyFileAPIURI+key, "", a.expiration)
				a.cache.Set(cacheKeyFileAPIName+key, "", a.expiration)
				return nil
			}
		}
	}

	return ErrSourceNotUploaded
}

func contentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
