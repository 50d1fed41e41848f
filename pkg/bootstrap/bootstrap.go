package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/zoragen-kit/pkg/cache"
	"github.com/shouni/zoragen-kit/pkg/config"
	"github.com/shouni/zoragen-kit/pkg/domain"
	"github.com/shouni/zoragen-kit/pkg/gallery"
	"github.com/shouni/zoragen-kit/pkg/generator"
	"github.com/shouni/zoragen-kit/pkg/imgutil"
	"github.com/shouni/zoragen-kit/pkg/picker"
	"github.com/shouni/zoragen-kit/pkg/studio"
)

// DefaultCacheTTL はアップロード済み参照画像のキャッシュ保持期間です。
const DefaultCacheTTL = 24 * time.Hour

// Dependencies は呼び出し側が用意する外部クライアント群です。
// 使わないものは nil のままで構いません。
type Dependencies struct {
	AIClient gemini.GenerativeModel // generator=gemini のとき必須
	Cache    generator.ImageCacher  // nil ならプロセス内 LRU を使う
	CacheTTL time.Duration

	HTTPClient httpkit.ClientInterface
	Reader     remoteio.InputReader

	Logger    *slog.Logger
	FileInput studio.InputResetter
}

// NewStudio は設定と依存から生成画面の状態管理を組み立てます。
func NewStudio(s *config.Settings, deps Dependencies) (*studio.Studio, error) {
	if s == nil {
		return nil, fmt.Errorf("settings is required")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gen, assets, err := buildGenerator(s, deps)
	if err != nil {
		return nil, err
	}

	catalog := domain.DefaultCatalog()
	input := deps.FileInput
	if input == nil {
		input = picker.NewFileInput()
	}

	logger.Info("Studio を初期化します",
		"generator", s.Generator,
		"timeout", s.GenerationTimeout,
		"gallery_capacity", s.GalleryCapacity,
	)

	opts := []studio.Option{
		studio.WithCatalog(catalog),
		studio.WithGallery(gallery.NewStore(catalog, gallery.WithCapacity(s.GalleryCapacity))),
		studio.WithLogger(logger),
		studio.WithTimeout(s.GenerationTimeout),
		studio.WithFileInput(input),
		studio.WithSourceEncoding(imgutil.EncodeOptions{
			Compress: s.CompressSource,
			Quality:  s.CompressionQuality,
		}),
	}
	if assets != nil {
		opts = append(opts, studio.WithSourceReleaser(assets))
	}
	return studio.New(gen, opts...)
}

// NewGenerator は設定された種類の Generator を返します。
func NewGenerator(s *config.Settings, deps Dependencies) (generator.Generator, error) {
	gen, _, err := buildGenerator(s, deps)
	return gen, err
}

// buildGenerator は Gemini の場合、参照画像の削除に使う GeminiAssets も返します。
func buildGenerator(s *config.Settings, deps Dependencies) (generator.Generator, *generator.GeminiAssets, error) {
	switch s.Generator {
	case config.GeneratorPlaceholder:
		return generator.NewPlaceholder(
			generator.WithDelay(s.PlaceholderDelay),
			generator.WithSize(s.PlaceholderSize),
		), nil, nil
	case config.GeneratorGemini:
		if deps.AIClient == nil {
			return nil, nil, fmt.Errorf("AIClient is required for generator %q", s.Generator)
		}
		ttl := deps.CacheTTL
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		store := deps.Cache
		if store == nil {
			mem, err := cache.NewMemory(cache.DefaultSize)
			if err != nil {
				return nil, nil, err
			}
			store = mem
		}
		assets, err := generator.NewGeminiAssets(deps.AIClient, store, ttl)
		if err != nil {
			return nil, nil, err
		}
		gen, err := generator.NewGeminiGenerator(deps.AIClient, s.GeminiModel, generator.GeminiOptions{
			AspectRatio:    s.AspectRatio,
			SystemPrompt:   s.SystemPrompt,
			Seed:           s.Seed,
			CompressOutput: s.CompressOutput,
			Quality:        s.CompressionQuality,
			Assets:         assets,
		})
		if err != nil {
			return nil, nil, err
		}
		return gen, assets, nil
	default:
		return nil, nil, fmt.Errorf("unknown generator %q", s.Generator)
	}
}

// NewSourceFetcher は URL / gs:// から参照画像を取得する RemoteSource を返します。
// HTTPClient と Reader の両方が nil の場合は picker.ErrNoBackend を返します。
func NewSourceFetcher(s *config.Settings, deps Dependencies) (*picker.RemoteSource, error) {
	if s == nil {
		return nil, fmt.Errorf("settings is required")
	}
	return picker.NewRemoteSource(deps.HTTPClient, deps.Reader, s.MaxSourceBytes)
}
