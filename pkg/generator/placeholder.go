package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shouni/zoragen-kit/pkg/domain"
)

const (
	DefaultPlaceholderDelay   = 3 * time.Second
	DefaultPlaceholderSize    = 512
	DefaultPlaceholderBaseURL = "https://picsum.photos"
)

// Placeholder は一定時間待ってからランダム画像サービスのURLを返す疑似生成器です。
// 実際の推論は行いません。
type Placeholder struct {
	delay   time.Duration
	size    int
	baseURL string
	seq     atomic.Int64
}

// PlaceholderOption は Placeholder の設定を変更します。
type PlaceholderOption func(*Placeholder)

// WithDelay は応答までの待ち時間を設定します。0 なら即時に返します。
func WithDelay(d time.Duration) PlaceholderOption {
	return func(p *Placeholder) { p.delay = d }
}

// WithSize は返す画像の一辺のピクセル数を設定します。
func WithSize(px int) PlaceholderOption {
	return func(p *Placeholder) {
		if px > 0 {
			p.size = px
		}
	}
}

// WithBaseURL はランダム画像サービスのベースURLを差し替えます。
func WithBaseURL(u string) PlaceholderOption {
	return func(p *Placeholder) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// NewPlaceholder は Placeholder を作成します。
func NewPlaceholder(opts ...PlaceholderOption) *Placeholder {
	p := &Placeholder{
		delay:   DefaultPlaceholderDelay,
		size:    DefaultPlaceholderSize,
		baseURL: DefaultPlaceholderBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.seq.Store(time.Now().UnixMilli())
	return p
}

// Generate は待ち時間の経過後にプレースホルダURLを返します。
// 待機中に ctx が終了した場合は ctx.Err() を返します。
func (p *Placeholder) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}

	n := p.seq.Add(1)
	url := fmt.Sprintf("%s/%d/%d?random=%d", p.baseURL, p.size, p.size, n)
	slog.DebugContext(ctx, "プレースホルダ画像を返します", "style", req.Style.ID, "url", url)
	return url, nil
}
