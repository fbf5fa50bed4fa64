package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
)

type Config struct {
	BotToken    string `json:"bot_token"`
	DatabaseUrl string `json:"database_url"`
	GeminiKey   string `json:"gemini_key"`
	SearchKey   string `json:"search_key"`
	SearchCSEID string `json:"search_cse_id"`
	PublicURL   string `json:"public_url"`
}

// Load reads the environment (plus a .env file when present) and fails hard
// on anything required being absent. The rest of the code treats these values
// as opaque, already-validated inputs.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on the environment")
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal("environment variable TELEGRAM_BOT_TOKEN not set")
	}

	dbUrl := os.Getenv("DATABASE_URL")
	if dbUrl == "" {
		log.Fatal("environment variable DATABASE_URL not set")
	}

	gemini := os.Getenv("GEMINI_KEY")
	if gemini == "" {
		log.Fatal("environment variable GEMINI_KEY not set")
	}

	searchKey := os.Getenv("GOOGLE_API_KEY")
	if searchKey == "" {
		log.Fatal("environment variable GOOGLE_API_KEY not set")
	}

	cseID := os.Getenv("GOOGLE_CSE_ID")
	if cseID == "" {
		log.Fatal("environment variable GOOGLE_CSE_ID not set")
	}

	cfg := Config{
		BotToken:    token,
		DatabaseUrl: dbUrl,
		GeminiKey:   gemini,
		SearchKey:   searchKey,
		SearchCSEID: cseID,
		PublicURL:   os.Getenv("PUBLIC_URL"),
	}

	return cfg
}

// RegisterWebhook points the Telegram bot at PUBLIC_URL/webhook so updates
// start flowing to this instance. Skipped when PUBLIC_URL is unset (local
// runs behind a tunnel register manually).
func RegisterWebhook(cfg Config) error {
	if cfg.PublicURL == "" {
		log.Println("PUBLIC_URL not set, skipping webhook registration")
		return nil
	}

	client := resty.New().SetTimeout(10 * time.Second)
	resp, err := client.R().
		SetQueryParam("url", cfg.PublicURL+"/webhook").
		Post(fmt.Sprintf("https://api.telegram.org/bot%s/setWebhook", cfg.BotToken))
	if err != nil {
		return fmt.Errorf("registering telegram webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram setWebhook returned %s: %s", resp.Status(), resp.String())
	}

	log.Println("🔗 Webhook registered with Telegram:", cfg.PublicURL+"/webhook")
	return nil
}

// DeleteWebhook removes the registered webhook, dropping pending updates.
// Useful before switching back to another deployment of the same bot.
func DeleteWebhook(cfg Config) error {
	client := resty.New().SetTimeout(10 * time.Second)
	resp, err := client.R().
		SetQueryParam("drop_pending_updates", "true").
		Post(fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", cfg.BotToken))
	if err != nil {
		return fmt.Errorf("deleting telegram webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram deleteWebhook returned %s: %s", resp.Status(), resp.String())
	}
	return nil
}
