package ocr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// FileHTTPSource is the default ByteSource. It reads http(s) URIs over the
// network and everything else (file:// or a bare path) from disk.
type FileHTTPSource struct {
	client *http.Client
}

// NewByteSource creates the default resolver.
func NewByteSource() *FileHTTPSource {
	return &FileHTTPSource{
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *FileHTTPSource) Resolve(ctx context.Context, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return s.fetch(ctx, uri)
	case strings.HasPrefix(uri, "file://"):
		return os.ReadFile(strings.TrimPrefix(uri, "file://"))
	default:
		return os.ReadFile(uri)
	}
}

func (s *FileHTTPSource) fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
