package generator

import (
	"context"
	"time"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// --- Mocks ---

type mockAIClient struct {
	uploadCalls  int
	deleteCalled bool
	lastFileName string
	lastParts    []*genai.Part
	lastOpts     gemini.GenerateOptions
	uploadErr    error

	generateFunc func(parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

func (m *mockAIClient) UploadFile(ctx context.Context, data []byte, mimeType, displayName string) (string, string, error) {
	m.uploadCalls++
	if m.uploadErr != nil {
		return "", "", m.uploadErr
	}
	return "https://gemini.api/files/new-file-id", "files/new-file-id", nil
}

func (m *mockAIClient) DeleteFile(ctx context.Context, name string) error {
	m.deleteCalled = true
	m.lastFileName = name
	return nil
}

func (m *mockAIClient) GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error) {
	return nil, nil
}

func (m *mockAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	m.lastParts = parts
	m.lastOpts = opts
	if m.generateFunc != nil {
		return m.generateFunc(parts, opts)
	}
	return imageResponse("image/png", []byte("fake")), nil
}

func (m *mockAIClient) GetFile(ctx context.Context, name string) (*genai.File, error) {
	return nil, nil
}

type mockCache struct {
	data map[string]any
}

func (m *mockCache) Get(key string) (any, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	m.data[key] = value
}

func imageResponse(mimeType string, data []byte) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
				},
			}},
		},
	}
}
