package fetcher

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
}

func (m *mockTransport) Do(_ *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name      string
		transport *mockTransport
		maxBody   int64
		want      string
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: "<rss/>", statusCode: 200},
			want:      "<rss/>",
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "not found", statusCode: 404},
			wantErr:   true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantErr:   true,
		},
		{
			name:      "body at the cap is accepted",
			transport: &mockTransport{body: strings.Repeat("x", 100), statusCode: 200},
			maxBody:   100,
			want:      strings.Repeat("x", 100),
		},
		{
			name:      "oversize body rejected",
			transport: &mockTransport{body: strings.Repeat("x", 101), statusCode: 200},
			maxBody:   100,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.transport)
			if tt.maxBody > 0 {
				f.SetMaxBodyBytes(tt.maxBody)
			}

			body, err := f.Fetch(context.Background(), "https://example.com/rss")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, string(body)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
