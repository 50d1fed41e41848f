package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shouni/zoragen-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiAssets_UploadSource(t *testing.T) {
	ctx := context.Background()
	cache := &mockCache{data: make(map[string]any)}
	ai := &mockAIClient{}

	assets, err := NewGeminiAssets(ai, cache, time.Hour)
	require.NoError(t, err, "failed to create assets")

	src := *dummySource(t)

	t.Run("キャッシュがない場合はアップロードが実行される", func(t *testing.T) {
		uri, err := assets.UploadSource(ctx, src)

		require.NoError(t, err)
		assert.Equal(t, 1, ai.uploadCalls)
		assert.Equal(t, "https://gemini.api/files/new-file-id", uri)
	})

	t.Run("同じ画像の2回目はアップロードをスキップする", func(t *testing.T) {
		uri, err := assets.UploadSource(ctx, src)

		require.NoError(t, err)
		assert.Equal(t, 1, ai.uploadCalls, "キャッシュヒット時は呼ばれない")
		assert.Equal(t, "https://gemini.api/files/new-file-id", uri)
	})

	t.Run("アップロード失敗はラップして返す", func(t *testing.T) {
		failing := &mockAIClient{uploadErr: errors.New("boom")}
		a, _ := NewGeminiAssets(failing, nil, time.Hour)

		_, err := a.UploadSource(ctx, src)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("data URI でなければエラー", func(t *testing.T) {
		_, err := assets.UploadSource(ctx, domain.SourceImage{URI: "https://example.com/a.png"})
		assert.Error(t, err)
	})
}

func TestGeminiAssets_DeleteSource(t *testing.T) {
	ctx := context.Background()
	cache := &mockCache{data: make(map[string]any)}
	ai := &mockAIClient{}
	assets, _ := NewGeminiAssets(ai, cache, time.Hour)
	src := *dummySource(t)

	t.Run("キャッシュがない場合はエラーを返す", func(t *testing.T) {
		err := assets.DeleteSource(ctx, src)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceNotUploaded)
		assert.Contains(t, err.Error(), "cannot determine file name for deletion")
	})

	t.Run("アップロード済みならキャッシュの名前で削除する", func(t *testing.T) {
		_, err := assets.UploadSource(ctx, src)
		require.NoError(t, err)

		require.NoError(t, assets.DeleteSource(ctx, src))
		assert.True(t, ai.deleteCalled)
		assert.Equal(t, "files/new-file-id", ai.lastFileName)
	})

	t.Run("削除後は再アップロードされ、二重削除はしない", func(t *testing.T) {
		before := ai.uploadCalls
		ai.deleteCalled = false

		assert.ErrorIs(t, assets.DeleteSource(ctx, src), ErrSourceNotUploaded)
		assert.False(t, ai.deleteCalled)

		_, err := assets.UploadSource(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, before+1, ai.uploadCalls)
	})
}

func TestNewGeminiAssets_RequiresClient(t *testing.T) {
	_, err := NewGeminiAssets(nil, nil, 0)
	assert.Error(t, err)
}
