package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender delivers a message to a Telegram chat. Implementations are
// best-effort; the notifier logs and swallows their errors.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// TelegramSender posts messages through the Telegram Bot API.
type TelegramSender struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func NewTelegramSender(token string) *TelegramSender {
	return &TelegramSender{
		token:      token,
		baseURL:    "https://api.telegram.org",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the sender at a different API host (used by tests).
func (s *TelegramSender) WithBaseURL(u string) *TelegramSender {
	s.baseURL = u
	return s
}

func (s *TelegramSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, data)
	}
	return nil
}
