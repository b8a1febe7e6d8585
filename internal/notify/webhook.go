package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPWebhookSender posts the report content to a chat webhook. Discord
// answers 204 on success; 200 is accepted too.
type HTTPWebhookSender struct {
	url  string
	http *http.Client
}

func NewHTTPWebhookSender(url string, timeout time.Duration) *HTTPWebhookSender {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPWebhookSender{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPWebhookSender) Send(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook rejected report: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
