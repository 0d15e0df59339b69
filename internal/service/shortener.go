package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const tinyURLEndpoint = "https://tinyurl.com/api-create.php"

// TinyURLShortener shortens course links through TinyURL. Any failure falls
// back to the original link.
type TinyURLShortener struct {
	client   *http.Client
	endpoint string
	log      *zap.Logger

	mu    sync.Mutex
	cache map[string]string
}

func NewTinyURLShortener(log *zap.Logger) *TinyURLShortener {
	return &TinyURLShortener{
		client:   &http.Client{Timeout: 5 * time.Second},
		endpoint: tinyURLEndpoint,
		log:      log,
		cache:    make(map[string]string),
	}
}

func (s *TinyURLShortener) Shorten(ctx context.Context, link string) string {
	if link == "" || !strings.HasPrefix(link, "http") {
		return link
	}
	s.mu.Lock()
	short, ok := s.cache[link]
	s.mu.Unlock()
	if ok {
		return short
	}

	short, err := s.request(ctx, link)
	if err != nil {
		s.log.Warn("shorten url", zap.String("url", link), zap.Error(err))
		return link
	}
	s.mu.Lock()
	s.cache[link] = short
	s.mu.Unlock()
	return short
}

func (s *TinyURLShortener) request(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?url="+url.QueryEscape(link), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tinyurl: status %d", resp.StatusCode)
	}
	short := strings.TrimSpace(string(body))
	if !strings.HasPrefix(short, "http") {
		return "", fmt.Errorf("tinyurl: unexpected body %q", short)
	}
	return short, nil
}
