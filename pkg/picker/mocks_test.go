package picker

import (
	"bytes"
	"context"
	"errors"
	"io"
)

type mockHTTPClient struct {
	data   []byte
	err    error
	called bool
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.called = true
	return m.data, m.err
}

type mockReader struct {
	files map[string][]byte
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	data, ok := m.files[uri]
	if !ok {
		return nil, errors.New("not found")
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
