package imgutil

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyData   = errors.New("image data is empty")
	ErrNotImage    = errors.New("data is not an image")
	ErrBadDataURI  = errors.New("malformed data URI")
	ErrUndecodable = errors.New("image header could not be decoded")
)

// EncodeOptions は EncodeDataURI の挙動を調整します。
type EncodeOptions struct {
	Compress bool // true なら JPEG に再圧縮してからエンコード
	Quality  int
}

// Encoded はエンコード済みの data URI とそのメタデータです。
type Encoded struct {
	URI      string
	MIMEType string
	Size     int
}

// DetectImageMIME は先頭バイトから MIME タイプを判定し、画像でなければエラーを返します。
func DetectImageMIME(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyData
	}
	mt := mimetype.Detect(data).String()
	if !strings.HasPrefix(mt, "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotImage, mt)
	}
	return mt, nil
}

// EncodeDataURI は生の画像バイト列を検証し data URI に変換します。
// ヘッダをデコードできないデータはエラーになります。
func EncodeDataURI(data []byte, opts EncodeOptions) (*Encoded, error) {
	mt, err := DetectImageMIME(data)
	if err != nil {
		return nil, err
	}

	// SVG などラスタでない形式は image パッケージで検証できないためそのまま通す
	if mt != "image/svg+xml" {
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
	}

	final := data
	if opts.Compress && mt != "image/svg+xml" {
		if compressed, err := CompressToJPEG(data, opts.Quality); err == nil {
			final = compressed
			mt = "image/jpeg"
		}
	}

	return &Encoded{
		URI:      "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(final),
		MIMEType: mt,
		Size:     len(final),
	}, nil
}

// ToDataURI はすでに MIME タイプが分かっているバイト列をそのまま data URI にします。
func ToDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI は base64 形式の data URI を MIME タイプとバイト列に戻します。
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrBadDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadDataURI
	}
	mt, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: base64 以外のエンコーディングは未対応", ErrBadDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURI, err)
	}
	return mt, data, nil
}
