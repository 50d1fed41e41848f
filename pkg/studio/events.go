package studio

import "github.com/shouni/zoragen-kit/pkg/domain"

// EventKind は描画層へ通知するイベントの種類です。
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventSessionStarted
	EventGenerationSucceeded
	EventGenerationFailed
	EventSourceRejected
)

func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "state_changed"
	case EventSessionStarted:
		return "session_started"
	case EventGenerationSucceeded:
		return "generation_succeeded"
	case EventGenerationFailed:
		return "generation_failed"
	case EventSourceRejected:
		return "source_rejected"
	default:
		return "unknown"
	}
}

// State はフォームの観測可能な状態とギャラリーのスナップショットです。
type State struct {
	Prompt      string
	Style       domain.Style
	SourceImage *domain.SourceImage
	Generating  bool
	CanSubmit   bool
	Gallery     []domain.GeneratedImage
}

// Event は状態変化やユーザーに見せるべき通知です。
// Err は EventGenerationFailed なら *domain.GenerationError、
// EventSourceRejected なら *domain.DecodeError です。
// Seq は Studio ごとの通し番号で、配送順に単調増加します。
type Event struct {
	Seq       uint64
	Kind      EventKind
	State     State
	SessionID string
	Image     *domain.GeneratedImage
	Err       error
}

// Listener はイベントを受け取るコールバックです。
// Studio のロック外で、1度に1つずつ状態遷移の順に呼ばれます。
// 中から Studio のメソッド（Close を含む）を呼んでも構いません。
// その操作で生じたイベントは、このリスナーが戻った後に配送されます。
type Listener func(Event)
