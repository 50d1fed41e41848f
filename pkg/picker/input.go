package picker

import "sync"

// FileInput はファイル選択欄の状態を表します。
// Reset 後は同じファイルを選び直しても新しい選択として扱われます。
type FileInput struct {
	mu        sync.Mutex
	name      string
	selection uint64
}

// NewFileInput は空の FileInput を返します。
func NewFileInput() *FileInput {
	return &FileInput{}
}

// Select はファイルが選ばれたことを記録し、選択番号を返します。
// 同じ名前が選択中のまま再度選ばれた場合は変更なしとして false を返します。
func (f *FileInput) Select(name string) (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.name != "" && f.name == name {
		return f.selection, false
	}
	f.name = name
	f.selection++
	return f.selection, true
}

// Reset は選択状態を空に戻します。
func (f *FileInput) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name = ""
}

// Value は現在選択中のファイル名です。未選択なら空文字です。
func (f *FileInput) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

// Selection はこれまでの選択回数です。
func (f *FileInput) Selection() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selection
}
