package gallery

import (
	"iter"
	"sync"

	"github.com/shouni/zoragen-kit/pkg/domain"
)

// Store は生成結果を新しい順に保持するインメモリのギャラリーです。
// 永続化はされず、プロセスの寿命とともに破棄されます。
type Store struct {
	mu       sync.RWMutex
	images   []domain.GeneratedImage // 先頭が最新
	catalog  *domain.Catalog
	capacity int
}

// Option は Store の設定を変更します。
type Option func(*Store)

// WithCapacity は保持件数の上限を設定します。0 以下なら無制限です。
// 上限を超えた場合は最も古いものから末尾で切り捨てられます。
func WithCapacity(n int) Option {
	return func(s *Store) {
		s.capacity = n
	}
}

// NewStore は画風カタログを参照する空の Store を作成します。
func NewStore(catalog *domain.Catalog, opts ...Option) *Store {
	if catalog == nil {
		catalog = domain.DefaultCatalog()
	}
	s := &Store{catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepend は画像を先頭に追加します。既存の要素の順序は変わりません。
func (s *Store) Prepend(img domain.GeneratedImage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.images = append(s.images, domain.GeneratedImage{})
	copy(s.images[1:], s.images)
	s.images[0] = img

	if s.capacity > 0 && len(s.images) > s.capacity {
		clear(s.images[s.capacity:])
		s.images = s.images[:s.capacity]
	}
}

// LookupStyleLabel は画風IDの表示名を返します。未知のIDなら false です。
func (s *Store) LookupStyleLabel(id domain.StyleID) (string, bool) {
	style, ok := s.catalog.Lookup(id)
	if !ok {
		return "", false
	}
	return style.Name, true
}

// Len は保持件数です。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}

// First は最新の画像を返します。
func (s *Store) First() (domain.GeneratedImage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.images) == 0 {
		return domain.GeneratedImage{}, false
	}
	return s.images[0], true
}

// Images は新しい順のコピーを返します。
func (s *Store) Images() []domain.GeneratedImage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.GeneratedImage, len(s.images))
	copy(out, s.images)
	return out
}

// All は描画用の読み取り専用イテレータです。呼び出し時点のスナップショットを走査します。
func (s *Store) All() iter.Seq2[int, domain.GeneratedImage] {
	images := s.Images()
	return func(yield func(int, domain.GeneratedImage) bool) {
		for i, img := range images {
			if !yield(i, img) {
				return
			}
		}
	}
}
