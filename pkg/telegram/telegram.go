// Package telegram is a minimal Telegram Bot API sender, covering just the
// calls the bot makes.
package telegram

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBase = "https://api.telegram.org"

type Client struct {
	client  *resty.Client
	token   string
	baseURL string
}

// NewClient builds a sender for the bot token. baseURL overrides the API
// host for tests; pass "" for the real service.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBase
	}
	return &Client{
		client:  resty.New().SetTimeout(15 * time.Second),
		token:   token,
		baseURL: baseURL,
	}
}

// SendMessage delivers text to a chat.
func (c *Client) SendMessage(chatID int64, text string) error {
	resp, err := c.client.R().
		SetBody(map[string]any{
			"chat_id": chatID,
			"text":    text,
		}).
		SetHeader("Content-Type", "application/json").
		Post(fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token))
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram sendMessage returned %s: %s", resp.Status(), resp.String())
	}
	return nil
}

// SendTyping shows the "typing..." indicator while an answer is prepared.
func (c *Client) SendTyping(chatID int64) error {
	resp, err := c.client.R().
		SetBody(map[string]any{
			"chat_id": chatID,
			"action":  "typing",
		}).
		SetHeader("Content-Type", "application/json").
		Post(fmt.Sprintf("%s/bot%s/sendChatAction", c.baseURL, c.token))
	if err != nil {
		return fmt.Errorf("sending typing action: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram sendChatAction returned %s: %s", resp.Status(), resp.String())
	}
	return nil
}
