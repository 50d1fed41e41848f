package studio

import (
	"context"
	"sync"
	"time"

	"github.com/shouni/zoragen-kit/pkg/domain"
)

// SessionState は生成セッションの状態です。
type SessionState int

const (
	StateIdle SessionState = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal は終了状態かどうかを返します。
func (s SessionState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Session は1回の生成要求のライフサイクルです。
// Running から Succeeded か Failed のどちらか一方へ一度だけ遷移します。
type Session struct {
	id        string
	req       domain.GenerationRequest
	startedAt time.Time
	cancel    context.CancelFunc

	mu    sync.Mutex
	state SessionState
	image domain.GeneratedImage
	err   error
	done  chan struct{}
}

func newSession(id string, req domain.GenerationRequest, startedAt time.Time) *Session {
	return &Session{
		id:        id,
		req:       req,
		startedAt: startedAt,
		state:     StateRunning,
		done:      make(chan struct{}),
	}
}

// ID はセッションの識別子です。
func (s *Session) ID() string { return s.id }

// Request は Submit 時点で確定したリクエストです。
func (s *Session) Request() domain.GenerationRequest { return s.req }

// StartedAt は Submit された時刻です。
func (s *Session) StartedAt() time.Time { return s.startedAt }

// State は現在の状態です。
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done は終了状態に入ると close されます。
func (s *Session) Done() <-chan struct{} { return s.done }

// Result は成功時の画像を返します。成功していなければ false です。
func (s *Session) Result() (domain.GeneratedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image, s.state == StateSucceeded
}

// Err は失敗時の *domain.GenerationError を返します。実行中・成功時は nil です。
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Wait は終了状態になるか ctx が終わるまで待ちます。
// ctx が先に終わった場合でもセッション自体はキャンセルされません。
func (s *Session) Wait(ctx context.Context) (domain.GeneratedImage, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		return domain.GeneratedImage{}, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image, s.err
}

// Cancel は実行中の生成を中止します。セッションは Failed になります。
func (s *Session) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Session) succeed(img domain.GeneratedImage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.state = StateSucceeded
	s.image = img
	return true
}

func (s *Session) fail(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.state = StateFailed
	s.err = err
	return true
}

func (s *Session) finish() {
	close(s.done)
}
