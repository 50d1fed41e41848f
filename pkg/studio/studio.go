package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shouni/zoragen-kit/pkg/domain"
	"github.com/shouni/zoragen-kit/pkg/gallery"
	"github.com/shouni/zoragen-kit/pkg/generator"
	"github.com/shouni/zoragen-kit/pkg/imgutil"
)

var (
	// ErrSourceSuperseded は読み込み中に新しい読み込みかクリアが行われたことを示します。
	ErrSourceSuperseded = errors.New("source image load superseded by a newer action")
	// ErrClosed は Close 後の操作です。
	ErrClosed = errors.New("studio is closed")
	// ErrEmptyLocator は生成器が空の結果を返したことを示します。
	ErrEmptyLocator = errors.New("generator returned an empty result locator")
	// ErrNoFetcher は LoadSourceImageFrom に取得元が渡されなかったことを示します。
	ErrNoFetcher = errors.New("source fetcher is not configured")
)

// releaseTimeout は外した参照画像を外部ストアから削除するときの上限時間です。
const releaseTimeout = 30 * time.Second

// SourceFetcher は URI から参照画像のバイト列を取得します（picker.RemoteSource など）。
type SourceFetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// SourceReleaser は外された参照画像を外部ストアから削除します（generator.GeminiAssets など）。
// アップロードされていない画像には generator.ErrSourceNotUploaded を返します。
type SourceReleaser interface {
	DeleteSource(ctx context.Context, src domain.SourceImage) error
}

type listenerEntry struct {
	id int
	fn Listener
}

// Studio は生成画面のフォーム状態・生成セッション・ギャラリーを所有するコントローラーです。
// 同時に実行中のセッションは常に高々1つです。
type Studio struct {
	gen      generator.Generator
	catalog  *domain.Catalog
	gallery  *gallery.Store
	input    InputResetter
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	timeout  time.Duration
	encode   imgutil.EncodeOptions
	releaser SourceReleaser

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	prompt    string
	style     domain.Style
	source    *domain.SourceImage
	current   *Session
	sourceSeq uint64
	closed    bool
	stale     []domain.SourceImage // 実行中のため削除を保留している参照画像

	listeners    []listenerEntry
	nextListener int

	// イベントは mu の下で採番してキューに積み、1つの goroutine だけが順に配送する
	eventSeq uint64
	pending  []Event
	flushing bool
}

// New は生成器を注入して Studio を初期化します。
func New(gen generator.Generator, opts ...Option) (*Studio, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}

	s := &Studio{
		gen:       gen,
		catalog:   domain.DefaultCatalog(),
		logger:    slog.Default(),
		now:       time.Now,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gallery == nil {
		s.gallery = gallery.NewStore(s.catalog)
	}
	if s.newID == nil {
		s.newID = newULIDSource(s.now)
	}
	s.style = s.catalog.Default()
	s.ctx, s.cancel = context.WithCancel(context.Background())

	return s, nil
}

// Catalog は選択可能な画風一覧です。
func (s *Studio) Catalog() *domain.Catalog { return s.catalog }

// Gallery は描画用のギャラリーです。
func (s *Studio) Gallery() *gallery.Store { return s.gallery }

// Subscribe はイベントの購読を登録し、解除用の関数を返します。
func (s *Studio) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Snapshot は現在の状態のコピーを返します。
func (s *Studio) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// CanSubmit は Submit が受け付けられる状態かを返します。
// 描画層はこれが false の間、生成ボタンを無効化します。
func (s *Studio) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmitLocked()
}

// Generating は生成中かどうかを返します。
func (s *Studio) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Current は実行中のセッションです。実行中でなければ nil です。
func (s *Studio) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetPrompt はプロンプトを置き換えます。
func (s *Studio) SetPrompt(text string) {
	s.mu.Lock()
	if s.prompt == text {
		s.mu.Unlock()
		return
	}
	s.prompt = text
	s.queueLocked(Event{Kind: EventStateChanged})
	s.mu.Unlock()

	s.flush()
}

// SelectStyle は画風を選択します。カタログにない ID なら状態は変えずに
// domain.ErrUnknownStyle を返します。
func (s *Studio) SelectStyle(id domain.StyleID) error {
	style, ok := s.catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownStyle, id)
	}

	s.mu.Lock()
	if s.style.ID == style.ID {
		s.mu.Unlock()
		return nil
	}
	s.style = style
	s.queueLocked(Event{Kind: EventStateChanged})
	s.mu.Unlock()

	s.flush()
	return nil
}

// LoadSourceImage は生のファイルバイト列を data URI に変換して参照画像に設定します。
// デコードに失敗した場合は既存の参照画像を変えずに *domain.DecodeError を返します。
// 生成中でも呼び出せます。時間がかかる場合は呼び出し側で goroutine から呼んでください。
func (s *Studio) LoadSourceImage(ctx context.Context, data []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.sourceSeq++
	ticket := s.sourceSeq
	opts := s.encode
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	enc, err := imgutil.EncodeDataURI(data, opts)
	if err != nil {
		return s.rejectSource(ctx, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if ticket != s.sourceSeq {
		s.mu.Unlock()
		return ErrSourceSuperseded
	}
	if s.source != nil && s.source.URI != enc.URI {
		s.retireLocked(*s.source)
	}
	s.source = &domain.SourceImage{URI: enc.URI, MIMEType: enc.MIMEType, Size: enc.Size}
	s.queueLocked(Event{Kind: EventStateChanged})
	s.releaseLocked()
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "参照画像を読み込みました", "mime_type", enc.MIMEType, "bytes", enc.Size)
	s.flush()
	return nil
}

// LoadSourceImageFrom は fetcher で取得した画像を参照画像として読み込みます。
// 取得に失敗した場合も *domain.DecodeError として扱います。
func (s *Studio) LoadSourceImageFrom(ctx context.Context, fetcher SourceFetcher, uri string) error {
	if fetcher == nil {
		return s.rejectSource(ctx, ErrNoFetcher)
	}
	data, err := fetcher.Fetch(ctx, uri)
	if err != nil {
		return s.rejectSource(ctx, fmt.Errorf("%s の取得に失敗しました: %w", uri, err))
	}
	return s.LoadSourceImage(ctx, data)
}

func (s *Studio) rejectSource(ctx context.Context, cause error) error {
	derr := &domain.DecodeError{Err: cause}
	s.logger.WarnContext(ctx, "参照画像を読み込めませんでした", "error", cause)

	s.mu.Lock()
	s.queueLocked(Event{Kind: EventSourceRejected, Err: derr})
	s.mu.Unlock()

	s.flush()
	return derr
}

// ClearSourceImage は参照画像を外し、ファイル選択欄をリセットします。
// 読み込み途中の画像があれば、その結果は破棄されます。
func (s *Studio) ClearSourceImage() {
	s.mu.Lock()
	s.sourceSeq++
	had := s.source != nil
	if had {
		s.retireLocked(*s.source)
		s.source = nil
		s.queueLocked(Event{Kind: EventStateChanged})
		s.releaseLocked()
	}
	input := s.input
	s.mu.Unlock()

	if input != nil {
		input.Reset()
	}
	s.flush()
}

// Submit はフォーム内容のスナップショットで生成セッションを開始します。
// プロンプトが空白のみ、または生成中の場合は何もせず nil を返します。
// 生成処理は ctx と Studio の寿命の両方に紐づき、どちらかが終わると中止されます。
func (s *Studio) Submit(ctx context.Context) *Session {
	s.mu.Lock()
	if !s.canSubmitLocked() {
		s.mu.Unlock()
		return nil
	}

	req := domain.GenerationRequest{
		Prompt:      s.prompt,
		Style:       s.style,
		SourceImage: cloneSource(s.source),
	}
	sess := newSession(s.newID(), req, s.now())

	runCtx, cancel := context.WithCancel(s.ctx)
	if s.timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, s.timeout)
		parent := cancel
		cancel = func() { cancelTimeout(); parent() }
	}
	stop := context.AfterFunc(ctx, cancel)
	sess.cancel = cancel

	s.current = sess
	s.wg.Add(1)
	s.queueLocked(Event{Kind: EventSessionStarted, SessionID: sess.id})
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "画像生成を開始します",
		"session_id", sess.id, "style", req.Style.ID, "has_source", req.SourceImage != nil)

	// 配送より先に起動する（開始イベントのリスナーが Close しても run が wg を解放できるように）
	go s.run(runCtx, sess, func() {
		stop()
		cancel()
	})
	s.flush()
	return sess
}

func (s *Studio) run(ctx context.Context, sess *Session, release func()) {
	url, err := s.generate(ctx, sess.req)
	release()
	s.complete(sess, url, err)
	// 配送より先に Done する（リスナーからの Close が自分自身を待たないように）
	s.wg.Done()
	s.flush()
}

func (s *Studio) generate(ctx context.Context, req domain.GenerationRequest) (url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panicked: %v", r)
		}
	}()

	url, err = s.gen.Generate(ctx, req)
	if err == nil && url == "" {
		err = ErrEmptyLocator
	}
	return url, err
}

func (s *Studio) complete(sess *Session, url string, genErr error) {
	s.mu.Lock()
	// 破棄後に届いた結果はギャラリーに反映しない
	if genErr == nil && s.closed {
		genErr = context.Canceled
	}

	var imageID string
	if genErr == nil {
		img := domain.GeneratedImage{
			ID:        s.newID(),
			URL:       url,
			Prompt:    sess.req.Prompt,
			Style:     sess.req.Style.ID,
			CreatedAt: s.now(),
		}
		imageID = img.ID
		s.gallery.Prepend(img)
		sess.succeed(img)
		s.current = nil
		s.queueLocked(Event{Kind: EventGenerationSucceeded, SessionID: sess.id, Image: &img})
	} else {
		gerr := &domain.GenerationError{SessionID: sess.id, Cause: genErr}
		sess.fail(gerr)
		s.current = nil
		s.queueLocked(Event{Kind: EventGenerationFailed, SessionID: sess.id, Err: gerr})
	}
	s.releaseLocked()
	s.mu.Unlock()

	sess.finish()

	if genErr == nil {
		s.logger.Info("画像生成が完了しました", "session_id", sess.id, "image_id", imageID)
	} else {
		s.logger.Warn("画像生成に失敗しました", "session_id", sess.id, "error", genErr)
	}
}

// Close は実行中のセッションを中止し、その終了を待ちます。
// Close 後の Submit は何もしません。配送待ちのイベントは Close から戻った後に届くことがあります。
// リスナーの中から呼んでも構いません。
func (s *Studio) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	leftover := s.stale
	s.stale = nil
	if s.releaser != nil && s.source != nil {
		leftover = append(leftover, *s.source)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.release(leftover)
}

func (s *Studio) canSubmitLocked() bool {
	return !s.closed && s.current == nil && strings.TrimSpace(s.prompt) != ""
}

func (s *Studio) stateLocked() State {
	return State{
		Prompt:      s.prompt,
		Style:       s.style,
		SourceImage: cloneSource(s.source),
		Generating:  s.current != nil,
		CanSubmit:   s.canSubmitLocked(),
		Gallery:     s.gallery.Images(),
	}
}

// queueLocked はイベントに現在の状態と通し番号を付けて配送キューに積みます。
// スナップショットと採番が同じロック区間で行われるため、配送順は状態遷移の順と一致します。
func (s *Studio) queueLocked(ev Event) {
	s.eventSeq++
	ev.Seq = s.eventSeq
	ev.State = s.stateLocked()
	s.pending = append(s.pending, ev)
}

// flush はキューが空になるまでイベントを配送します。
// 既に別の呼び出しが配送中なら、その呼び出しに任せてすぐ戻ります。
// そのためリスナー内から Studio を操作した結果のイベントは、現在のリスナーが戻った後に届きます。
func (s *Studio) flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true

	done := false
	defer func() {
		// リスナーが panic した場合も配送役を手放す
		if !done {
			s.mu.Lock()
			s.flushing = false
			s.mu.Unlock()
		}
	}()

	for len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		listeners := make([]Listener, 0, len(s.listeners))
		for _, l := range s.listeners {
			listeners = append(listeners, l.fn)
		}
		s.mu.Unlock()

		for _, fn := range listeners {
			fn(ev)
		}
		s.mu.Lock()
	}
	// キューが空であることを確認したロック区間のまま配送役を降りる
	s.flushing = false
	done = true
	s.mu.Unlock()
}

// retireLocked は外された参照画像を削除待ちにします。
func (s *Studio) retireLocked(src domain.SourceImage) {
	if s.releaser != nil {
		s.stale = append(s.stale, src)
	}
}

// releaseLocked は実行中のセッションが無ければ、削除待ちの参照画像をバックグラウンドで削除します。
func (s *Studio) releaseLocked() {
	if s.releaser == nil || s.current != nil || s.closed || len(s.stale) == 0 {
		return
	}
	list := s.stale
	s.stale = nil
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.release(list)
	}()
}

func (s *Studio) release(list []domain.SourceImage) {
	if s.releaser == nil || len(list) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	for _, src := range list {
		err := s.releaser.DeleteSource(ctx, src)
		switch {
		case err == nil:
			s.logger.DebugContext(ctx, "参照画像を削除しました", "mime_type", src.MIMEType)
		case errors.Is(err, generator.ErrSourceNotUploaded):
		default:
			s.logger.WarnContext(ctx, "参照画像を削除できませんでした", "error", err)
		}
	}
}

func cloneSource(src *domain.SourceImage) *domain.SourceImage {
	if src == nil {
		return nil
	}
	c := *src
	return &c
}
