package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"

	"EngagementSync/internal/ports"
)

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notifier sends cycle reports to a Telegram chat via bot API.
type Notifier struct {
	apiBaseURL string
	botToken   string
	chatID     string
	client     *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers API base URL, bot token and chat identifier.
func NewNotifier(apiBaseURL, botToken, chatID string) *Notifier {
	if apiBaseURL == "" {
		apiBaseURL = "https://api.telegram.org"
	}
	return &Notifier{
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
		botToken:   botToken,
		chatID:     chatID,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// PublishReport posts a plain-text message to Telegram.
func (n *Notifier) PublishReport(ctx context.Context, report string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return errors.New("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBaseURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", report)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		// the token is part of the URL; keep it out of logs
		return errors.Newf("send report: %s", redact(err.Error(), n.botToken))
	}
	defer resp.Body.Close()

	var body apiResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)

	if resp.StatusCode != http.StatusOK || (len(raw) > 0 && !body.OK) {
		if body.Description != "" {
			return errors.Newf("telegram error: %s: %s", resp.Status, body.Description)
		}
		return errors.Newf("telegram error: %s", resp.Status)
	}

	return nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "<redacted>")
}
