package studio

import (
	"log/slog"
	"time"

	"github.com/shouni/zoragen-kit/pkg/domain"
	"github.com/shouni/zoragen-kit/pkg/gallery"
	"github.com/shouni/zoragen-kit/pkg/imgutil"
)

// DefaultTimeout は1セッションあたりの生成タイムアウトです。
const DefaultTimeout = 2 * time.Minute

// InputResetter はファイル選択欄をリセットできる外部コンポーネントです。
type InputResetter interface {
	Reset()
}

// Option は Studio の設定を変更します。
type Option func(*Studio)

// WithCatalog は画風カタログを差し替えます。
func WithCatalog(c *domain.Catalog) Option {
	return func(s *Studio) {
		if c != nil && c.Len() > 0 {
			s.catalog = c
		}
	}
}

// WithGallery は結果の格納先を差し替えます。
func WithGallery(g *gallery.Store) Option {
	return func(s *Studio) {
		if g != nil {
			s.gallery = g
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(l *slog.Logger) Option {
	return func(s *Studio) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock は時刻の取得元を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(s *Studio) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator はセッション・画像IDの発行元を差し替えます。
// 返すIDはプロセス内で一意でなければなりません。
func WithIDGenerator(next func() string) Option {
	return func(s *Studio) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithTimeout は1セッションのタイムアウトを設定します。0 で無効です。
func WithTimeout(d time.Duration) Option {
	return func(s *Studio) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithFileInput は ClearSourceImage 時にリセットするファイル選択欄を設定します。
func WithFileInput(in InputResetter) Option {
	return func(s *Studio) { s.input = in }
}

// WithSourceEncoding は参照画像を data URI にする際の設定です。
func WithSourceEncoding(opts imgutil.EncodeOptions) Option {
	return func(s *Studio) { s.encode = opts }
}

// WithSourceReleaser は外した参照画像を外部ストアから削除する仕組みを設定します。
// 実行中のセッションがある間は削除を保留し、終了後または Close 時に削除します。
func WithSourceReleaser(r SourceReleaser) Option {
	return func(s *Studio) { s.releaser = r }
}
