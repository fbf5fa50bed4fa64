package main

import (
	"flag"
	"net/http"

	"go.uber.org/zap"

	"mlimi/config"
	"mlimi/internal/database"
	"mlimi/internal/gemini"
	"mlimi/internal/handler"
	"mlimi/internal/knowledge"
	"mlimi/internal/search"
	"mlimi/internal/service"
	"mlimi/internal/sessions"
	"mlimi/pkg/telegram"
)

func main() {
	clearWebhook := flag.Bool("clear-webhook", false, "remove the registered Telegram webhook and exit")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg := config.Load()

	if *clearWebhook {
		if err := config.DeleteWebhook(cfg); err != nil {
			zap.S().Fatalw("failed to delete webhook", "error", err)
		}
		zap.S().Info("webhook deleted")
		return
	}

	if err := database.InitDB(cfg.DatabaseUrl); err != nil {
		zap.S().Fatalw("failed to initialize database", "error", err)
	}

	store := knowledge.NewPostgresStore(database.GetDB(), knowledge.LevenshteinSimilarity{}, knowledge.DefaultThreshold)
	searcher := search.NewGoogleClient(cfg.SearchKey, cfg.SearchCSEID, "")
	generator := gemini.NewClient(cfg.GeminiKey, "")
	conversations := sessions.NewContext()

	resolver := service.NewResolver(store, searcher, generator, conversations)
	sender := telegram.NewClient(cfg.BotToken, "")
	h := handler.New(resolver, store, sender)

	if err := config.RegisterWebhook(cfg); err != nil {
		zap.S().Fatalw("failed to register webhook", "error", err)
	}

	http.HandleFunc("/webhook", h.Webhook)

	zap.S().Info("starting advisor bot on :8080")
	if err := http.ListenAndServe(":8080", nil); err != nil {
		zap.S().Fatalw("server stopped", "error", err)
	}
}
