package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultAPIBase = "https://api.telegram.org"

// telegramMaxMessage is the Bot API limit on message text length.
const telegramMaxMessage = 4096

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken  string
	ChatID    string
	APIBase   string
	Client    *http.Client
	RetryBase time.Duration
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  defaultAPIBase,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		RetryBase: time.Second,
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	base := t.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	return fmt.Sprintf("%s/bot%s/%s", base, t.BotToken, method)
}

// truncateMessage cuts text to at most limit runes at the last line break
// before the limit, so no HTML tag or entity is left open. Every report line
// closes its own tags. Text without a usable line break loses its markup.
func truncateMessage(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	const marker = "\n..."
	cut := r[:limit-len(marker)]
	if i := strings.LastIndex(string(cut), "\n"); i > 0 {
		return string(cut)[:i] + marker
	}
	plain := stripTags(string(cut))
	if i := strings.LastIndex(plain, "&"); i >= 0 && !strings.Contains(plain[i:], ";") {
		plain = plain[:i]
	}
	return plain + marker
}

// stripTags drops anything between < and >.
func stripTags(s string) string {
	var b strings.Builder
	in := false
	for _, c := range s {
		switch {
		case c == '<':
			in = true
		case c == '>':
			in = false
		case !in:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Send sends a message to the configured chat. Text over the Bot API limit
// is truncated.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	text = truncateMessage(text, telegramMaxMessage)
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.RetryBase * time.Duration(1<<uint(i))
		log.Warn().Err(err).
			Int("attempt", i+1).
			Int("max_attempts", maxRetries+1).
			Dur("backoff", backoff).
			Msg("telegram send failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
