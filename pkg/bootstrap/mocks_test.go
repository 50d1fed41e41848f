package bootstrap

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/png"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// --- Mocks ---

type mockAIClient struct {
	model string
	data  []byte

	mu          sync.Mutex
	deletedName string
}

func (m *mockAIClient) deleted() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletedName
}

func (m *mockAIClient) UploadFile(ctx context.Context, data []byte, mimeType, displayName string) (string, string, error) {
	return "https://gemini.api/files/x", "files/x", nil
}

func (m *mockAIClient) DeleteFile(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedName = name
	return nil
}

func (m *mockAIClient) GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error) {
	return nil, nil
}

func (m *mockAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	m.model = model
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "image/png", Data: m.data}}},
				},
			}},
		},
	}, nil
}

func (m *mockAIClient) GetFile(ctx context.Context, name string) (*genai.File, error) {
	return nil, nil
}

type mockReader struct {
	files map[string][]byte
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	data, ok := m.files[uri]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockReader) List(ctx context.Context, uri string, fn func(string) error) error {
	for k := range m.files {
		if err := fn(k); err != nil {
			return err
		}
	}
	return nil
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]any
}

func (c *mapCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(key string, value any, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// contentKey は GeminiAssets のキャッシュキーと同じ算出方法です。
func contentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type countingInput struct{ resets int }

func (c *countingInput) Reset() { c.resets++ }

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}
