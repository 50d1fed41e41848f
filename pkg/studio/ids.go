package studio

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// newULIDSource は時刻順に単調増加する ULID を発行する関数を返します。
// 同一ミリ秒内でもエントロピー部が増加するため、プロセス内で一意です。
// 注入された時刻が ULID で表せない範囲（1970年より前など）なら実時刻で発行します。
func newULIDSource(now func() time.Time) func() string {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)

	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if id, err := ulid.New(ulidTimestamp(now()), entropy); err == nil {
			return id.String()
		}
		if id, err := ulid.New(ulid.Now(), entropy); err == nil {
			return id.String()
		}
		// 単調エントロピーが桁あふれした場合
		return ulid.Make().String()
	}
}

func ulidTimestamp(t time.Time) uint64 {
	if t.Before(time.Unix(0, 0)) {
		// 負の時刻は uint64 で巨大値になり ErrBigTime になる
		return ulid.MaxTime() + 1
	}
	return ulid.Timestamp(t)
}
