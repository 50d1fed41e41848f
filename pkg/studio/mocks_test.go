package studio

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/shouni/zoragen-kit/pkg/domain"
	"github.com/shouni/zoragen-kit/pkg/generator"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type genResult struct {
	url string
	err error
}

type genCall struct {
	req  domain.GenerationRequest
	resp chan genResult
}

func (c genCall) succeed(url string) { c.resp <- genResult{url: url} }
func (c genCall) fail(err error)     { c.resp <- genResult{err: err} }

// gatedGenerator は呼び出しをチャネルに流し、テスト側が結果を返すまでブロックします。
type gatedGenerator struct {
	calls chan genCall
}

func newGatedGenerator() *gatedGenerator {
	return &gatedGenerator{calls: make(chan genCall, 8)}
}

func (g *gatedGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	c := genCall{req: req, resp: make(chan genResult, 1)}
	select {
	case g.calls <- c:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case r := <-c.resp:
		return r.url, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedGenerator) next(t *testing.T) genCall {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("generator was not called")
		return genCall{}
	}
}

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type countingInput struct {
	mu     sync.Mutex
	resets int
}

func (c *countingInput) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
}

func (c *countingInput) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resets
}

type stubFetcher struct {
	data []byte
	err  error
}

func (f stubFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f.data, f.err
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) listen(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *eventRecorder) last(kind EventKind) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

func (r *eventRecorder) lastEvent() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

func (r *eventRecorder) seqs() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Seq)
	}
	return out
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	return solidPNG(t, color.RGBA{200, 40, 0, 255})
}

func solidPNG(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, c)
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func newTestStudio(t *testing.T, gen *gatedGenerator, opts ...Option) *Studio {
	t.Helper()
	clock := newStepClock()
	s, err := New(gen, append([]Option{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func waitDone(t *testing.T, sess *Session) {
	t.Helper()
	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
}

type recordingReleaser struct {
	mu       sync.Mutex
	released []domain.SourceImage
	err      error
}

func (r *recordingReleaser) DeleteSource(ctx context.Context, src domain.SourceImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, src)
	return r.err
}

func (r *recordingReleaser) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.released)
}

func (r *recordingReleaser) snapshot() []domain.SourceImage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SourceImage(nil), r.released...)
}

func instantGenerator(url string) generator.GeneratorFunc {
	return func(ctx context.Context, req domain.GenerationRequest) (string, error) {
		return url, nil
	}
}

// runWithin は fn が d 以内に戻らなければテストを失敗させます。
func runWithin(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("operation did not return (deadlock?)")
	}
}
