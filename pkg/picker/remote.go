package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/zoragen-kit/pkg/imgutil"
)

// DefaultMaxBytes は参照画像の目安サイズ上限 (10MB) です。
const DefaultMaxBytes = 10 << 20

var (
	ErrTooLarge = errors.New("source image exceeds size limit")
	// ErrNoBackend は httpClient と reader のどちらも設定されていないことを示します。
	ErrNoBackend = errors.New("httpClient or reader is required")
	// ErrUnsafeURL はプライベート網などへのアクセスを拒否したことを示します。
	ErrUnsafeURL = errors.New("安全ではないURLが指定されました")
)

// RemoteSource は URI で指定された参照画像のバイト列を取得するファイル選択機能です。
// http(s) は httpClient、それ以外 (gs:// 等) は reader で読み込みます。
type RemoteSource struct {
	httpClient httpkit.ClientInterface
	reader     remoteio.InputReader
	maxBytes   int64
	checkURL   func(string) (bool, error)
}

// NewRemoteSource は依存関係を注入して RemoteSource を初期化します。
// httpClient と reader のどちらか一方は必須です。maxBytes が 0 以下なら DefaultMaxBytes です。
func NewRemoteSource(httpClient httpkit.ClientInterface, reader remoteio.InputReader, maxBytes int64) (*RemoteSource, error) {
	if httpClient == nil && reader == nil {
		return nil, ErrNoBackend
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &RemoteSource{
		httpClient: httpClient,
		reader:     reader,
		maxBytes:   maxBytes,
		checkURL:   IsSafeURL,
	}, nil
}

// Fetch は URI から画像を取得します。画像でないデータやサイズ超過はエラーです。
// nil の RemoteSource に対しては ErrNoBackend を返します。
func (s *RemoteSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if s == nil {
		return nil, ErrNoBackend
	}
	data, err := s.fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, len(data), s.maxBytes)
	}
	if _, err := imgutil.DetectImageMIME(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RemoteSource) fetch(ctx context.Context, uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		if s.httpClient == nil {
			return nil, fmt.Errorf("http client is not configured: %s", uri)
		}
		safe, err := s.checkURL(uri)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnsafeURL, uri, err)
		}
		if !safe {
			return nil, fmt.Errorf("%w: %s", ErrUnsafeURL, uri)
		}
		return s.httpClient.FetchBytes(ctx, uri)
	}

	if s.reader == nil {
		return nil, fmt.Errorf("remote reader is not configured: %s", uri)
	}
	rc, err := s.reader.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	// 上限 + 1 バイトまで読めばサイズ超過を判定できる
	return io.ReadAll(io.LimitReader(rc, s.maxBytes+1))
}
